package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/vegnbio/reservation-engine/internal/booking"
	"github.com/vegnbio/reservation-engine/internal/model"
)

func TestWriteWorkbook(t *testing.T) {
	start := time.Date(2025, 6, 2, 18, 0, 0, 0, time.UTC)
	alice := uint64(10)
	purpose := "birthday"
	r := Report{
		Rooms: []*model.Room{{ID: 1, Name: "Garden Room"}},
		Reservations: []*model.RoomReservation{{
			ClaimHeader:     model.ClaimHeader{ID: 5, ResourceID: 1, HolderID: &alice, Status: booking.StatusConfirmed},
			Window:          booking.Window{Start: start, End: start.Add(3 * time.Hour)},
			Purpose:         &purpose,
			ReservedAt:      start.Add(-48 * time.Hour),
			TotalPriceCents: 7500,
		}},
		Events: []*model.Event{{ID: 2, Title: "Vegan Tasting", StartsAt: start}},
		Bookings: []*model.EventBooking{{
			ClaimHeader:  model.ClaimHeader{ID: 8, ResourceID: 2, Status: booking.StatusPending},
			Pax:          4,
			CustomerName: "Walk-in party",
		}},
	}

	var buf bytes.Buffer
	if err := Write(&buf, r); err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := f.GetRows(ReservationsSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("reservation rows = %d", len(rows))
	}
	want := []string{"5", "Garden Room", "10", "CONFIRMED", "2025-06-02 18:00", "2025-06-02 21:00", "3", "birthday", "", "75", "2025-05-31 18:00"}
	for i, w := range want {
		if rows[1][i] != w {
			t.Errorf("reservation col %d = %q, want %q", i, rows[1][i], w)
		}
	}

	rows, err = f.GetRows(BookingsSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[1][1] != "Vegan Tasting" || rows[1][3] != "walk-in" || rows[1][6] != "4" {
		t.Fatalf("booking rows = %q", rows)
	}
}

func TestWriteEmptyReport(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, Report{}); err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, _ := f.GetRows(ReservationsSheet)
	if len(rows) != 1 || rows[0][0] != "Reservation" {
		t.Fatalf("rows = %q", rows)
	}
}
