package ingest

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/booking-ops/core"
	"github.com/warp/booking-ops/parse"
)

// =============================================================================
// ACCOUNTS
// =============================================================================

// AccountsSummary reports the outcome of an accounts paste.
type AccountsSummary struct {
	Added   int               `json:"added"`
	Updated int               `json:"updated"`
	Errors  []parse.LineError `json:"errors"`
}

// IngestAccounts merges an email/password paste. Known emails get their
// password replaced when the paste carries one; unknown emails become
// new active accounts.
func IngestAccounts(s *State, text string, now time.Time) AccountsSummary {
	batch := parse.ParseAccountsPaste(text)
	sum := AccountsSummary{Errors: nonNil(batch.Errors)}

	for _, row := range batch.Rows {
		if i := s.accountIndex(row.Email); i >= 0 {
			if row.Password == "" {
				continue
			}
			s.Accounts[i].Password = row.Password
			sum.Updated++
			s.audit(now, core.AuditAccountUpdate, "password updated for "+row.Email)
			continue
		}
		s.Accounts = append(s.Accounts, core.Account{
			Email:        row.Email,
			Password:     row.Password,
			ManualStatus: core.AccountActive,
			Notes:        core.NoteRawImport,
			CreatedAt:    todayISO(now),
		})
		sum.Added++
		s.audit(now, core.AuditAccountImport, "imported account "+row.Email)
	}
	auditParseErrors(s, now, batch.Errors)
	s.trimAudit()
	return sum
}

// =============================================================================
// SPEND
// =============================================================================

// SpendSummary reports the outcome of a spend paste.
type SpendSummary struct {
	Added  int               `json:"added"`
	Errors []parse.LineError `json:"errors"`
}

// IngestSpend appends one Sale per valid spend line.
func IngestSpend(s *State, text string, now time.Time) SpendSummary {
	batch := parse.ParseSpendPaste(text)
	sum := SpendSummary{Errors: nonNil(batch.Errors)}

	for _, row := range batch.Rows {
		s.Sales = append(s.Sales, core.Sale{
			ID:     core.NewID(),
			Date:   row.Date,
			Email:  row.Email,
			Amount: row.Amount,
			Note:   row.Note,
		})
		sum.Added++
		s.audit(now, core.AuditSaleAdd, fmt.Sprintf("%s %s %s", row.Date, row.Email, core.FormatMoney(row.Amount)))
	}
	auditParseErrors(s, now, batch.Errors)
	s.trimAudit()
	return sum
}

// =============================================================================
// BLOCK LIST
// =============================================================================

// BlockSummary reports the outcome of a mass block.
type BlockSummary struct {
	Blocked int               `json:"blocked"`
	Created int               `json:"created"`
	Errors  []parse.LineError `json:"errors"`
}

// IngestBlockList blocks every listed email. Unknown emails are created
// already blocked.
func IngestBlockList(s *State, text string, now time.Time) BlockSummary {
	batch := parse.ParseBlockList(text)
	sum := BlockSummary{Errors: nonNil(batch.Errors)}

	for _, email := range batch.Emails {
		if i := s.accountIndex(email); i >= 0 {
			a := &s.Accounts[i]
			a.ManualStatus = core.AccountBlocked
			if !core.HasNote(a.Notes, core.NoteMassBlock) {
				a.Notes = core.AppendNote(a.Notes, core.NoteMassBlock)
			}
			sum.Blocked++
			s.audit(now, core.AuditMassBlock, "blocked "+email)
			continue
		}
		s.Accounts = append(s.Accounts, core.Account{
			Email:        email,
			ManualStatus: core.AccountBlocked,
			Notes:        core.NoteMassBlockImport,
			CreatedAt:    todayISO(now),
		})
		sum.Created++
		s.audit(now, core.AuditMassBlock, "created blocked account "+email)
	}
	auditParseErrors(s, now, batch.Errors)
	s.trimAudit()
	return sum
}

// =============================================================================
// PROMO REWARDS
// =============================================================================

// DefaultPromo labels promo rewards entered without a code.
const DefaultPromo = "PROMO"

// AddPromoReward credits a reward outside of any booking.
func AddPromoReward(s *State, email string, amount decimal.Decimal, promo string, now time.Time) (core.SpecialReward, error) {
	email = core.NormalizeKey(email)
	if !validEmail(email) {
		return core.SpecialReward{}, fmt.Errorf("promo reward for %q: %w", email, core.ErrInvalidEmail)
	}
	if !amount.IsPositive() {
		return core.SpecialReward{}, fmt.Errorf("promo reward of %s: %w", amount, core.ErrInvalidAmount)
	}
	promo = strings.TrimSpace(promo)
	if promo == "" {
		promo = DefaultPromo
	}

	r := core.SpecialReward{
		ID:        core.NewID(),
		Email:     email,
		Amount:    amount,
		Promo:     promo,
		CreatedAt: now.UTC().Format(time.RFC3339),
	}
	s.SpecialRewards = append(s.SpecialRewards, r)
	s.audit(now, core.AuditPromoAdd, fmt.Sprintf("%s %s %s", email, core.FormatMoney(amount), promo))
	s.trimAudit()
	return r, nil
}

func auditParseErrors(s *State, now time.Time, errs []parse.LineError) {
	for _, e := range errs {
		s.audit(now, core.AuditParseError, fmt.Sprintf("line %d: %v", e.Line, e.Err))
	}
}

func nonNil(errs []parse.LineError) []parse.LineError {
	if errs == nil {
		return []parse.LineError{}
	}
	return errs
}
