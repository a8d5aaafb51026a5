package ingest

import (
	"fmt"
	"strings"
	"time"

	"github.com/warp/booking-ops/core"
	"github.com/warp/booking-ops/parse"
	"github.com/warp/booking-ops/rewards"
)

// BookingSummary reports the outcome of one booking paste.
type BookingSummary struct {
	Added        int               `json:"added"`
	DupSkipped   int               `json:"dupSkipped"`
	AccCreated   int               `json:"accCreated"`
	HotelCreated int               `json:"hotelCreated"`
	Errors       []parse.LineError `json:"errors"`
}

// bookingRun carries the lookup tables of one batch. They are updated
// as rows are applied so later rows see earlier ones.
type bookingRun struct {
	s       *State
	now     time.Time
	summary BookingSummary

	keys        map[string]bool
	accounts    map[string]bool
	hotelByID   map[string]int
	hotelByName map[string]int
}

// IngestBookings parses a booking paste and merges it into s. Malformed
// lines are reported and skipped; they never abort the batch.
func IngestBookings(s *State, text string, now time.Time) BookingSummary {
	batch := parse.ParsePaste(text, rewards.FromSettings(s.Settings))

	run := &bookingRun{
		s:           s,
		now:         now,
		keys:        make(map[string]bool, len(s.Bookings)),
		accounts:    make(map[string]bool, len(s.Accounts)),
		hotelByID:   make(map[string]int, len(s.Hotels)),
		hotelByName: make(map[string]int, len(s.Hotels)),
		summary:     BookingSummary{Errors: nonNil(batch.Errors)},
	}
	for _, b := range s.Bookings {
		run.keys[b.Key()] = true
	}
	for _, a := range s.Accounts {
		run.accounts[a.Key()] = true
	}
	for i, h := range s.Hotels {
		run.indexHotel(i, h)
	}

	for _, row := range batch.Rows {
		run.apply(row)
	}
	auditParseErrors(s, now, batch.Errors)

	s.trimAudit()
	s.LastImport = &LastImport{
		At:           now.UTC().Format(time.RFC3339),
		Added:        run.summary.Added,
		DupSkipped:   run.summary.DupSkipped,
		AccCreated:   run.summary.AccCreated,
		HotelCreated: run.summary.HotelCreated,
		Errors:       len(batch.Errors),
	}
	return run.summary
}

func (r *bookingRun) apply(row parse.BookingRow) {
	key := core.BookingKey(row.Email, row.BookingNo)
	if r.keys[key] {
		r.summary.DupSkipped++
		return
	}
	r.keys[key] = true

	autoCreate := r.s.Settings.AutoCreateFromImport
	email := core.NormalizeKey(row.Email)
	if !r.accounts[email] && autoCreate {
		r.s.Accounts = append(r.s.Accounts, core.Account{
			Email:        email,
			ManualStatus: core.AccountActive,
			Notes:        core.NoteAutoCreated,
			CreatedAt:    todayISO(r.now),
		})
		r.accounts[email] = true
		r.summary.AccCreated++
		r.s.audit(r.now, core.AuditAccountCreate, "auto-created account "+email)
	}

	hname := strings.TrimSpace(row.HotelName)
	hid := r.resolveHotel(strings.TrimSpace(row.HotelID), hname, autoCreate)

	snapshot := hname
	if snapshot == "" {
		snapshot = hid
	}
	r.s.Bookings = append(r.s.Bookings, core.Booking{
		BookingID:         core.NewID(),
		CreatedAt:         row.CreatedAt,
		Email:             email,
		BookingNo:         row.BookingNo,
		Pin:               row.Pin,
		HotelID:           hid,
		HotelNameSnapshot: snapshot,
		Cost:              row.Cost,
		CheckIn:           row.CheckIn,
		CheckOut:          row.CheckOut,
		PromoCode:         row.PromoCode,
		RewardAmount:      row.RewardAmount,
		RewardCurrency:    row.RewardCurrency,
		RewardType:        row.RewardType,
		Airline:           row.Airline,
		Status:            row.Status,
		Level:             row.Level,
		RewardPaidOn:      row.RewardPaidOn,
		Note:              row.Note,
		Raw:               row.Raw,
	})
	r.summary.Added++
	r.s.audit(r.now, core.AuditBookingAdd, fmt.Sprintf("%s %s", email, row.BookingNo))
}

// resolveHotel returns the hotel ID for a row: the explicit ID first,
// then a case-insensitive name match, then a synthesized stable ID.
// Hotels are created only when autoCreate is on.
func (r *bookingRun) resolveHotel(hid, hname string, autoCreate bool) string {
	if hid == "" && hname != "" {
		if i, ok := r.hotelByName[strings.ToLower(hname)]; ok {
			return r.s.Hotels[i].HotelID
		}
		if !autoCreate {
			return ""
		}
		hid = core.StableHotelID(hname)
	}
	if hid == "" {
		return ""
	}

	if i, ok := r.hotelByID[hid]; ok {
		r.backfillName(i, hname)
		return hid
	}
	if !autoCreate {
		return hid
	}

	name := hname
	if name == "" {
		name = hid
	}
	h := core.Hotel{HotelID: hid, Name: name, ManualStatus: core.HotelOK, Notes: core.NoteAutoCreated}
	r.s.Hotels = append(r.s.Hotels, h)
	r.indexHotel(len(r.s.Hotels)-1, h)
	r.summary.HotelCreated++
	r.s.audit(r.now, core.AuditHotelCreate, fmt.Sprintf("auto-created hotel %s (%s)", hid, name))
	return hid
}

// backfillName names an auto-created hotel that was created without
// one (its name is empty or just its ID).
func (r *bookingRun) backfillName(i int, hname string) {
	h := &r.s.Hotels[i]
	if hname == "" || !core.HasNote(h.Notes, core.NoteAutoCreated) {
		return
	}
	if h.Name != "" && h.Name != h.HotelID {
		return
	}
	h.Name = hname
	r.hotelByName[strings.ToLower(hname)] = i
}

func (r *bookingRun) indexHotel(i int, h core.Hotel) {
	r.hotelByID[h.HotelID] = i
	if name := strings.ToLower(strings.TrimSpace(h.Name)); name != "" {
		if _, taken := r.hotelByName[name]; !taken {
			r.hotelByName[name] = i
		}
	}
}
