package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

// unsetenv clears keys for the duration of the test.  envconfig treats a
// variable set to "" as present, so t.Setenv(k, "") is not the same.
func unsetenv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		if v, ok := os.LookupEnv(k); ok {
			t.Cleanup(func() { os.Setenv(k, v) })
			os.Unsetenv(k)
		}
	}
}

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_DRIVER", "Memory")

	c, err := FromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if c.StoreDriver != "memory" || c.Port != "8080" || c.EventsExchange != "booking.events" {
		t.Fatalf("config = %+v", c)
	}
	if c.TxMaxRetries != 3 || c.TxBackoff != 25*time.Millisecond {
		t.Fatalf("tx retry = %d/%s", c.TxMaxRetries, c.TxBackoff)
	}
	if !c.IsAdminRole("owner") || !c.IsAdminRole("ADMIN") || c.IsAdminRole("CUSTOMER") {
		t.Fatalf("admin roles = %v", c.AdminRoles)
	}
	if !c.Cache.Caches("get") || c.Cache.Caches("POST") {
		t.Fatalf("cache methods = %v", c.Cache.Methods)
	}
	if c.RateLimit.Capacity != 60 || c.RateLimit.Prefix != "rl" {
		t.Fatalf("rate limit = %+v", c.RateLimit)
	}
}

func TestFromEnvRequiresSecret(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	unsetenv(t, "JWT_SECRET")
	if _, err := FromEnv(); err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("unset secret err = %v", err)
	}
	t.Setenv("JWT_SECRET", "  ")
	if _, err := FromEnv(); err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("blank secret err = %v", err)
	}
}

func TestStoreValidation(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		ok   bool
		dsn  string
	}{
		{"mysql parts", map[string]string{"STORE_DRIVER": "mysql", "DB_USER": "app", "DB_NAME": "vegn"}, true,
			"app@tcp(127.0.0.1:3306)/vegn?charset=utf8mb4&parseTime=true&loc=UTC"},
		{"mysql dsn", map[string]string{"STORE_DRIVER": "mysql", "DB_DSN": "u:p@tcp(db:3306)/x"}, true, "u:p@tcp(db:3306)/x"},
		{"mysql missing", map[string]string{"STORE_DRIVER": "mysql"}, false, ""},
		{"postgres needs dsn", map[string]string{"STORE_DRIVER": "postgres"}, false, ""},
		{"postgres", map[string]string{"STORE_DRIVER": "postgres", "DB_DSN": "postgres://localhost/vegn"}, true, "postgres://localhost/vegn"},
		{"sqlite", map[string]string{"STORE_DRIVER": "sqlite", "DB_DSN": "file:vegn.db"}, true, "file:vegn.db"},
		{"unknown", map[string]string{"STORE_DRIVER": "oracle"}, false, ""},
		{"negative retries", map[string]string{"STORE_DRIVER": "memory", "DB_TX_MAX_RETRIES": "-1"}, false, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "x")
			unsetenv(t, "DB_DSN", "DB_USER", "DB_PASS", "DB_HOST", "DB_PORT", "DB_NAME", "DB_TX_MAX_RETRIES")
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			c, err := FromEnv()
			if tc.ok != (err == nil) {
				t.Fatalf("err = %v, want ok=%v", err, tc.ok)
			}
			if tc.ok && c.DSN() != tc.dsn {
				t.Fatalf("dsn = %q, want %q", c.DSN(), tc.dsn)
			}
		})
	}
}

func TestRateLimitShorthands(t *testing.T) {
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("RATE_LIMIT_BURST", "5")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "2m")
	t.Setenv("RATE_LIMIT_TTL", "1m")

	c, err := FromEnv()
	if err != nil {
		t.Fatal(err)
	}
	rl := c.RateLimit
	if rl.Capacity != 5 || rl.RefillTokens != 1 || rl.RefillInterval != 2*time.Minute {
		t.Fatalf("rate limit = %+v", rl)
	}
	if rl.TTL != 10*time.Minute {
		t.Fatalf("ttl = %s, want at least five refill intervals", rl.TTL)
	}
}

func TestRedisAddress(t *testing.T) {
	if got := (RedisConfig{Addr: "cache:6379"}).Address(); got != "cache:6379" {
		t.Fatal(got)
	}
	if got := (RedisConfig{Host: "redis", Port: "6380", Addr: "ignored:1"}).Address(); got != "redis:6380" {
		t.Fatal(got)
	}
	if NewRedisClient(RedisConfig{Disabled: true}) != nil {
		t.Fatal("disabled redis must yield no client")
	}
}

func TestCacheMethodsNormalised(t *testing.T) {
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("CACHE_METHODS", " get, head ,")
	c, err := FromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Cache.Methods) != 2 || !c.Cache.Caches("HEAD") {
		t.Fatalf("methods = %q", c.Cache.Methods)
	}
}
