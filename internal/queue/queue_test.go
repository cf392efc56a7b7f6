package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestRoutingKey(t *testing.T) {
	ev := ClaimEvent{Kind: KindRoomReservation, Status: "NO_SHOW"}
	if got := ev.RoutingKey(); got != "room_reservation.no_show" {
		t.Fatalf("routing key = %s", got)
	}
}

func TestFormatLine(t *testing.T) {
	holder := uint64(9)
	line := FormatLine(ClaimEvent{
		Kind: KindRoomReservation, Action: ActionStatus, ClaimID: 3, ResourceID: 1,
		HolderID: &holder, ActorID: 2, FromStatus: "PENDING", Status: "CONFIRMED",
		StartsAt: "2025-03-14T10:00:00Z", EndsAt: "2025-03-14T12:00:00Z", TotalPriceCents: 5000,
		OccurredAt: "2025-03-13T08:00:00Z",
	})
	for _, want := range []string{"claim_id=3", "from=PENDING", "holder_id=9", "total=5000 cents"} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}
	if !strings.HasSuffix(line, "\n") {
		t.Error("line must end with newline")
	}
}

func TestAuditConsumerHandleAppends(t *testing.T) {
	dir := t.TempDir()
	a := &AuditConsumer{Dir: dir, Log: logrus.New()}
	body, _ := json.Marshal(ClaimEvent{Kind: KindEventBooking, Action: ActionCreated, ClaimID: 1, Status: "PENDING", Pax: 4})
	for i := 0; i < 2; i++ {
		if err := a.handle(body); err != nil {
			t.Fatal(err)
		}
	}
	data, err := os.ReadFile(filepath.Join(dir, "booking.log"))
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(data), "pax=4"); n != 2 {
		t.Fatalf("expected 2 lines, got %d:\n%s", n, data)
	}
	if err := a.handle([]byte("{not json")); err == nil {
		t.Fatal("malformed body must fail")
	}
}
