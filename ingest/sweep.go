package ingest

import (
	"time"

	"github.com/warp/booking-ops/core"
	"github.com/warp/booking-ops/derive"
)

// SweepSummary counts the entities a sweep blocked.
type SweepSummary struct {
	Accounts int `json:"accounts"`
	Hotels   int `json:"hotels"`
}

// Changed reports whether the sweep mutated anything.
func (s SweepSummary) Changed() bool { return s.Accounts > 0 || s.Hotels > 0 }

// TechBlockSweep writes derived TECH blocks back into the manual status
// of accounts and hotels. Entities already manually blocked are left
// alone, so a second run on unchanged state is a no-op.
func TechBlockSweep(s *State, now time.Time) SweepSummary {
	m := derive.Derive(s.Input(now))

	var sum SweepSummary
	for _, da := range m.Accounts {
		if !da.TechBlocked || da.ManualBlocked {
			continue
		}
		i := s.accountIndex(da.Email)
		if i < 0 || s.Accounts[i].IsBlocked() {
			continue
		}
		a := &s.Accounts[i]
		a.ManualStatus = core.AccountBlocked
		a.Notes = core.AppendNote(a.Notes, core.NoteTechBlock)
		sum.Accounts++
		s.audit(now, core.AuditAutoBlockAccount, a.Email+" "+da.BlockReason)
	}
	for _, dh := range m.Hotels {
		if !dh.TechBlocked || dh.ManualBlocked {
			continue
		}
		i := s.hotelIndex(dh.HotelID)
		if i < 0 || s.Hotels[i].IsBlocked() {
			continue
		}
		h := &s.Hotels[i]
		h.ManualStatus = core.HotelBlocked
		h.Notes = core.AppendNote(h.Notes, core.NoteTechBlock)
		sum.Hotels++
		s.audit(now, core.AuditAutoBlockHotel, h.HotelID+" "+dh.BlockReason)
	}
	if sum.Changed() {
		s.trimAudit()
	}
	return sum
}
