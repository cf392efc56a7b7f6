package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.ClaimCreated("room_reservation")
	r.ClaimCreated("room_reservation")
	r.Rejected("event_booking", "conflict")
	r.Transition("room_reservation", "CONFIRMED")
	r.TxRetry()

	if got := testutil.ToFloat64(r.claims.WithLabelValues("room_reservation")); got != 2 {
		t.Fatalf("claims = %v", got)
	}
	if got := testutil.ToFloat64(r.rejections.WithLabelValues("event_booking", "conflict")); got != 1 {
		t.Fatalf("rejections = %v", got)
	}
	if got := testutil.ToFloat64(r.txRetries); got != 1 {
		t.Fatalf("retries = %v", got)
	}

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "booking_status_transitions_total") {
		t.Fatalf("exposition missing transitions counter:\n%s", body)
	}
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	r.ClaimCreated("x")
	r.Rejected("x", "y")
	r.Transition("x", "y")
	r.TxRetry()
}
