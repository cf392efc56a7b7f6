// Package export renders reservation reports as Excel workbooks.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/vegnbio/reservation-engine/internal/model"
)

// Sheet names.
const (
	ReservationsSheet = "Room reservations"
	BookingsSheet     = "Event bookings"
)

var (
	reservationHeaders = []interface{}{
		"Reservation", "Room", "Holder", "Status", "Start (UTC)", "End (UTC)",
		"Hours", "Purpose", "Attendees", "Total", "Reserved at (UTC)",
	}
	bookingHeaders = []interface{}{
		"Booking", "Event", "Event start (UTC)", "Holder", "Customer", "Phone", "Pax", "Status",
	}
)

// Report is everything that goes into a restaurant's workbook.  Rooms and
// Events resolve names; claims whose resource is missing are still listed.
type Report struct {
	Rooms        []*model.Room
	Reservations []*model.RoomReservation
	Events       []*model.Event
	Bookings     []*model.EventBooking
}

const timeFmt = "2006-01-02 15:04"

func holder(id *uint64) interface{} {
	if id == nil {
		return "walk-in"
	}
	return *id
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// Write renders r as an .xlsx workbook to w.
func Write(w io.Writer, r Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ReservationsSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(BookingsSheet); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	rooms := make(map[uint64]string, len(r.Rooms))
	for _, room := range r.Rooms {
		rooms[room.ID] = room.Name
	}
	if err := writeRows(f, ReservationsSheet, bold, reservationHeaders, len(r.Reservations), func(i int) []interface{} {
		rr := r.Reservations[i]
		var attendees interface{}
		if rr.AttendeesCount != nil {
			attendees = *rr.AttendeesCount
		}
		return []interface{}{
			rr.ID, rooms[rr.ResourceID], holder(rr.HolderID), string(rr.Status),
			rr.Window.Start.UTC().Format(timeFmt), rr.Window.End.UTC().Format(timeFmt),
			int64(rr.Window.Duration() / time.Hour), str(rr.Purpose), attendees,
			float64(rr.TotalPriceCents) / 100, rr.ReservedAt.UTC().Format(timeFmt),
		}
	}); err != nil {
		return err
	}

	events := make(map[uint64]*model.Event, len(r.Events))
	for _, e := range r.Events {
		events[e.ID] = e
	}
	if err := writeRows(f, BookingsSheet, bold, bookingHeaders, len(r.Bookings), func(i int) []interface{} {
		b := r.Bookings[i]
		title, starts := "", ""
		if e, ok := events[b.ResourceID]; ok {
			title, starts = e.Title, e.StartsAt.UTC().Format(timeFmt)
		}
		return []interface{}{
			b.ID, title, starts, holder(b.HolderID), b.CustomerName, str(b.CustomerPhone), b.Pax, string(b.Status),
		}
	}); err != nil {
		return err
	}

	return f.Write(w)
}

func writeRows(f *excelize.File, sheet string, headerStyle int, headers []interface{}, n int, row func(i int) []interface{}) error {
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		values := row(i)
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &values); err != nil {
			return err
		}
	}
	return f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}
