package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/vegnbio/reservation-engine/internal/config"
	"github.com/vegnbio/reservation-engine/internal/database"
	"github.com/vegnbio/reservation-engine/internal/handler"
	"github.com/vegnbio/reservation-engine/internal/logging"
	"github.com/vegnbio/reservation-engine/internal/metrics"
	"github.com/vegnbio/reservation-engine/internal/middleware"
	"github.com/vegnbio/reservation-engine/internal/queue"
	"github.com/vegnbio/reservation-engine/internal/repository"
	"github.com/vegnbio/reservation-engine/internal/repository/memstore"
	"github.com/vegnbio/reservation-engine/internal/router"
	"github.com/vegnbio/reservation-engine/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.New(reg)

	store, db, err := openStore(cfg, rec, log)
	if err != nil {
		log.WithError(err).Fatal("open store")
	}
	if db != nil {
		defer db.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Lifecycle events are optional: without a broker the engine runs with
	// no notifier at all.
	var notifier *service.PublishNotifier
	var publisher *queue.Publisher
	if cfg.RabbitURL != "" {
		publisher = queue.NewPublisher(cfg.RabbitURL, cfg.EventsExchange, logging.Component(log, "publisher"))
		notifier = service.NewPublishNotifier(publisher, cfg.NotifyBuffer, logging.Component(log, "notifier"))
		audit := &queue.AuditConsumer{
			URL:      cfg.RabbitURL,
			Exchange: cfg.EventsExchange,
			Queue:    cfg.AuditQueue,
			Dir:      cfg.AuditDir,
			Log:      logging.Component(log, "audit"),
		}
		go func() {
			if err := audit.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("audit consumer stopped")
			}
		}()
	}

	deps := service.Deps{Store: store, Metrics: rec, Log: logging.Component(log, "service")}
	if notifier != nil {
		deps.Notifier = notifier
	}
	svc := service.New(deps)

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb != nil {
		defer rdb.Close()
	}
	h := handler.New(svc, store, logging.Component(log, "http"))
	e := router.New(h, router.Options{
		JWTSecret:   cfg.JWTSecret,
		IsAdminRole: cfg.IsAdminRole,
		RateLimit:   middleware.NewTokenBucket(cfg.RateLimit, rdb, logging.Component(log, "ratelimit")),
		Cache:       middleware.NewRedisCache(cfg.Cache, rdb, logging.Component(log, "cache")),
		Metrics:     metrics.Handler(reg),
		Log:         logging.Component(log, "http"),
	})

	addr := ":" + cfg.Port
	go func() {
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env, "store": cfg.StoreDriver}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	if notifier != nil {
		notifier.Close()
	}
	if publisher != nil {
		_ = publisher.Close()
	}
}

// openStore returns the configured store.  db is nil for the memory store.
func openStore(cfg config.Config, rec *metrics.Recorder, log *logrus.Logger) (repository.Store, *sql.DB, error) {
	if cfg.StoreDriver == database.DriverMemory {
		log.Warn("using in-memory store; data is lost on restart")
		return memstore.New(), nil, nil
	}
	db, dialect, err := database.Open(cfg.StoreDriver, cfg.DSN())
	if err != nil {
		return nil, nil, err
	}
	if cfg.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := database.Migrate(ctx, db, dialect); err != nil {
			db.Close()
			return nil, nil, err
		}
	}
	retryLog := logging.Component(log, "tx")
	runner := &database.TxRunner{
		DB:         db,
		Dialect:    dialect,
		MaxRetries: cfg.TxMaxRetries,
		Backoff:    cfg.TxBackoff,
		OnRetry: func(attempt int, err error) {
			rec.TxRetry()
			retryLog.WithError(err).WithField("attempt", attempt).Warn("retrying transaction")
		},
	}
	return repository.NewSQLStore(runner), db, nil
}
