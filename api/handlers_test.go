/*
handlers_test.go - Tests for the HTTP surface

Tests for:
- Paste imports (text and JSON bodies) and their summaries
- Snapshot import validation
- Lenient settings patches
- Edits and error status mapping
- Demo and TECH-block scenarios
*/
package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/booking-ops/core"
	"github.com/warp/booking-ops/ingest"
	"github.com/warp/booking-ops/store/memory"
	"github.com/warp/booking-ops/store/sqlite"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type testServer struct {
	h      *Handler
	router http.Handler
}

func newTestServer(t *testing.T, store ingest.Store) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctrl, err := ingest.NewController(context.Background(), store, core.DefaultSettings(),
		ingest.WithClock(func() time.Time { return fixedNow }),
		ingest.WithLogger(logger),
		ingest.WithSweepObserver(ObserveSweep),
	)
	require.NoError(t, err)
	h := NewHandler(ctrl, core.DefaultSettings(), logger)
	return &testServer{h: h, router: NewRouter(h)}
}

func (s *testServer) do(t *testing.T, method, path, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) state(t *testing.T) ingest.State {
	t.Helper()
	rec := s.do(t, http.MethodGet, "/api/state", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var st ingest.State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	return st
}

func bookingLine(email, bookingNo, status string) string {
	return strings.Join([]string{
		"2026-01-15", email, bookingNo, "6635", "74", "The Bower Coronado",
		"320", "2026-02-01", "2026-02-03", "40", status, "Genius Level 1",
	}, "\t")
}

type summaryBody struct {
	Added      int `json:"added"`
	DupSkipped int `json:"dupSkipped"`
	AccCreated int `json:"accCreated"`
	Errors     []struct {
		Line   int    `json:"line"`
		Reason string `json:"reason"`
	} `json:"errors"`
}

// =============================================================================
// IMPORTS
// =============================================================================

func TestImportBookings_TextAndJSONBodies(t *testing.T) {
	// GIVEN: An empty state
	s := newTestServer(t, memory.New())

	// WHEN: Pasting two lines as plain text, one of them malformed
	text := bookingLine("a@mail.com", "BK1", "Confirmed") + "\nnot a booking line"
	rec := s.do(t, http.MethodPost, "/api/import/bookings", "text/plain", text)

	// THEN: One booking is added and the bad line is reported
	require.Equal(t, http.StatusOK, rec.Code)
	var sum summaryBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sum))
	assert.Equal(t, 1, sum.Added)
	assert.Equal(t, 1, sum.AccCreated)
	require.Len(t, sum.Errors, 1)
	assert.Equal(t, 2, sum.Errors[0].Line)

	// WHEN: Pasting the same booking again inside a JSON body
	body, _ := json.Marshal(PasteRequest{Text: bookingLine("A@mail.com", "BK1", "Completed")})
	rec = s.do(t, http.MethodPost, "/api/import/bookings", "application/json", string(body))

	// THEN: It is skipped as a duplicate
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sum))
	assert.Equal(t, 0, sum.Added)
	assert.Equal(t, 1, sum.DupSkipped)

	st := s.state(t)
	assert.Len(t, st.Bookings, 1)
	require.NotNil(t, st.LastImport)
	assert.Equal(t, 1, st.LastImport.DupSkipped)
}

func TestImportBookings_InvalidJSONBody(t *testing.T) {
	s := newTestServer(t, memory.New())

	rec := s.do(t, http.MethodPost, "/api/import/bookings", "application/json", "{oops")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportAccountsSpendAndBlockList(t *testing.T) {
	// GIVEN: Accounts pasted with mixed delimiters
	s := newTestServer(t, memory.New())
	rec := s.do(t, http.MethodPost, "/api/import/accounts", "text/plain",
		"a@mail.com\tpw-a\nb@mail.com;pw-b\nnobody")
	require.Equal(t, http.StatusOK, rec.Code)

	var accounts ingest.AccountsSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accounts))
	assert.Equal(t, 2, accounts.Added)
	assert.Len(t, accounts.Errors, 1)

	// WHEN: Spend and a block list arrive
	rec = s.do(t, http.MethodPost, "/api/import/spend", "text/plain",
		"2026-02-01\ta@mail.com\t15.50\tTaxi ride")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodPost, "/api/import/blocklist", "text/plain", "b@mail.com\nnew@mail.com")
	require.Equal(t, http.StatusOK, rec.Code)

	var blocked ingest.BlockSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &blocked))

	// THEN: The sale is recorded and both emails end up blocked
	assert.Equal(t, 1, blocked.Blocked)
	assert.Equal(t, 1, blocked.Created)

	st := s.state(t)
	require.Len(t, st.Sales, 1)
	assert.Equal(t, "Taxi ride", st.Sales[0].Note)
	assert.True(t, st.Sales[0].Amount.Equal(decimalFromString(t, "15.50")))
	assert.Len(t, st.Accounts, 3)
	for _, a := range st.Accounts {
		if a.Email == "a@mail.com" {
			assert.Equal(t, core.AccountActive, a.ManualStatus)
			continue
		}
		assert.Equal(t, core.AccountBlocked, a.ManualStatus, a.Email)
	}
}

func TestImportJSON_MissingAccountsLeavesStateUntouched(t *testing.T) {
	// GIVEN: The demo scenario
	s := newTestServer(t, memory.New())
	require.NoError(t, s.h.Load(context.Background(), "demo"))
	before := s.state(t)

	// WHEN: Importing a snapshot without an accounts array
	rec := s.do(t, http.MethodPost, "/api/import/json", "application/json", `{"hotels":[]}`)

	// THEN: 400 and nothing changed
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	after := s.state(t)
	assert.Equal(t, before.Version, after.Version)
	assert.Len(t, after.Accounts, 7)
}

func TestExportImportJSON_RoundTrip(t *testing.T) {
	// GIVEN: The demo scenario exported as JSON
	s := newTestServer(t, memory.New())
	require.NoError(t, s.h.Load(context.Background(), "demo"))
	rec := s.do(t, http.MethodGet, "/api/export/json", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	exported := rec.Body.String()

	// WHEN: Importing it into a fresh server
	other := newTestServer(t, memory.New())
	rec = other.do(t, http.MethodPost, "/api/import/json", "application/json", exported)

	// THEN: The collections survive
	require.Equal(t, http.StatusNoContent, rec.Code)
	st := other.state(t)
	assert.Len(t, st.Accounts, 7)
	assert.Len(t, st.Hotels, 1)
	assert.Len(t, st.Bookings, 3)
	assert.Len(t, st.Sales, 3)
}

// =============================================================================
// EDITS
// =============================================================================

func TestUpdateSettings_LenientPatch(t *testing.T) {
	s := newTestServer(t, memory.New())

	// WHEN: Patching with a numeric string and a garbage value
	rec := s.do(t, http.MethodPut, "/api/settings", "application/json",
		`{"cooldownDays":"5","goldThreshold":"abc"}`)

	// THEN: The string is coerced and the garbage falls back to default
	require.Equal(t, http.StatusOK, rec.Code)
	var got core.Settings
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 5, got.CooldownDays)
	assert.True(t, got.GoldThreshold.Equal(decimalFromString(t, "300")))
	assert.Equal(t, core.DefaultMaxActiveBookings, got.MaxActiveBookings)

	// AND: A non-object body is rejected
	rec = s.do(t, http.MethodPut, "/api/settings", "application/json", `[1,2]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEdits_StatusMapping(t *testing.T) {
	s := newTestServer(t, memory.New())
	require.NoError(t, s.h.Load(context.Background(), "demo"))

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"unknown account", http.MethodPatch, "/api/accounts/ghost@mail.com", `{"notes":"x"}`, http.StatusNotFound},
		{"known account", http.MethodPatch, "/api/accounts/DEMO1@mail.com", `{"notes":" vip "}`, http.StatusOK},
		{"unknown booking", http.MethodPatch, "/api/bookings/nope", `{"status":"canc"}`, http.StatusNotFound},
		{"unknown hotel", http.MethodPatch, "/api/hotels/999", `{"name":"x"}`, http.StatusNotFound},
		{"unknown sale", http.MethodPatch, "/api/sales/nope", `{"note":"x"}`, http.StatusNotFound},
		{"bad body", http.MethodPatch, "/api/accounts/demo1@mail.com", `{`, http.StatusBadRequest},
		{"duplicate hotel", http.MethodPost, "/api/hotels", `{"hotelId":"74","name":"Again"}`, http.StatusBadRequest},
		{"empty hotel", http.MethodPost, "/api/hotels", `{}`, http.StatusBadRequest},
		{"new hotel", http.MethodPost, "/api/hotels", `{"name":"Harbor Inn"}`, http.StatusCreated},
		{"sale without amount", http.MethodPost, "/api/sales", `{"email":"demo1@mail.com"}`, http.StatusBadRequest},
		{"sale bad email", http.MethodPost, "/api/sales", `{"email":"nobody","amount":5}`, http.StatusBadRequest},
		{"sale", http.MethodPost, "/api/sales", `{"email":"demo1@mail.com","amount":"12.5","note":"Fuel"}`, http.StatusCreated},
		{"promo", http.MethodPost, "/api/promo-rewards", `{"email":"demo3@mail.com","amount":25}`, http.StatusCreated},
		{"promo zero", http.MethodPost, "/api/promo-rewards", `{"email":"demo3@mail.com","amount":0}`, http.StatusBadRequest},
		{"delete unknown", http.MethodDelete, "/api/accounts/ghost@mail.com", ``, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, "application/json", tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}

	st := s.state(t)
	assert.Len(t, st.Hotels, 2)
	assert.Len(t, st.Sales, 4)
	require.Len(t, st.SpecialRewards, 1)
	assert.Equal(t, ingest.DefaultPromo, st.SpecialRewards[0].Promo)
	for _, a := range st.Accounts {
		if a.Email == "demo1@mail.com" {
			assert.Equal(t, "vip", a.Notes)
		}
	}
}

func TestUpdateBooking_NormalizesStatus(t *testing.T) {
	s := newTestServer(t, memory.New())
	require.NoError(t, s.h.Load(context.Background(), "demo"))
	id := s.state(t).Bookings[0].BookingID

	rec := s.do(t, http.MethodPatch, "/api/bookings/"+id, "application/json",
		`{"status":"complete","rewardType":"copa"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var b core.Booking
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))
	assert.Equal(t, core.StatusCompleted, b.Status)
	assert.Equal(t, "Copa", b.RewardType)
}

func TestDeleteAccount_CascadesToBookingsAndSales(t *testing.T) {
	s := newTestServer(t, memory.New())
	require.NoError(t, s.h.Load(context.Background(), "demo"))

	rec := s.do(t, http.MethodDelete, "/api/accounts/demo1@mail.com", "", "")

	require.Equal(t, http.StatusNoContent, rec.Code)
	st := s.state(t)
	assert.Len(t, st.Accounts, 6)
	assert.Len(t, st.Bookings, 2)
	assert.Len(t, st.Sales, 2)
}

// =============================================================================
// VIEWS
// =============================================================================

func TestGetModel_Demo(t *testing.T) {
	// GIVEN: The demo scenario on 2026-03-01
	s := newTestServer(t, memory.New())
	rec := s.do(t, http.MethodPost, "/api/scenarios/load", "application/json", `{"scenario_id":"demo"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	// WHEN: Reading the derived model
	rec = s.do(t, http.MethodGet, "/api/model", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		AccountsReady []struct {
			Email string `json:"email"`
		} `json:"accountsReady"`
		HotelsEligible []struct {
			HotelID string `json:"hotelId"`
		} `json:"hotelsEligible"`
		Totals struct {
			TotalBookings    int `json:"totalBookings"`
			MissingPasswords int `json:"missingPasswords"`
		} `json:"totals"`
		Today   string `json:"today"`
		Version int64  `json:"version"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	// THEN: Every account is ready, richest first, and the hotel is eligible
	require.Len(t, body.AccountsReady, 7)
	assert.Equal(t, "demo2@mail.com", body.AccountsReady[0].Email)
	assert.Equal(t, "demo1@mail.com", body.AccountsReady[6].Email)
	require.Len(t, body.HotelsEligible, 1)
	assert.Equal(t, "74", body.HotelsEligible[0].HotelID)
	assert.Equal(t, 3, body.Totals.TotalBookings)
	assert.Equal(t, 1, body.Totals.MissingPasswords)
	assert.Equal(t, "2026-03-01", body.Today)
	assert.Equal(t, int64(1), body.Version)
}

func TestGetRewards_Demo(t *testing.T) {
	s := newTestServer(t, memory.New())
	require.NoError(t, s.h.Load(context.Background(), "demo"))

	rec := s.do(t, http.MethodGet, "/api/rewards", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Paid    []struct{ BookingNo string } `json:"paid"`
		Pending []struct {
			BookingNo string `json:"bookingNo"`
			ETA       string `json:"eta"`
			Overdue   bool   `json:"overdue"`
		} `json:"pending"`
		TotalRewards float64 `json:"totalRewards"`
		PendingTotal float64 `json:"pendingTotal"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Paid, 1)
	assert.Equal(t, "BK1002", body.Paid[0].BookingNo)
	require.Len(t, body.Pending, 1)
	assert.Equal(t, "BK1001", body.Pending[0].BookingNo)
	assert.Equal(t, "2025-02-27", body.Pending[0].ETA)
	assert.True(t, body.Pending[0].Overdue)
	assert.Equal(t, 100.0, body.TotalRewards)
	assert.Equal(t, 40.0, body.PendingTotal)
}

func TestGetTrend(t *testing.T) {
	s := newTestServer(t, memory.New())

	rec := s.do(t, http.MethodGet, "/api/trend?days=7", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body TrendResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 7, body.Days)
	require.Len(t, body.Points, 7)
	assert.Equal(t, "2026-03-01", body.Points[6].Date)

	rec = s.do(t, http.MethodGet, "/api/trend?days=zero", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/trend?days=366", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	// GIVEN: a window far beyond a year
	rec = s.do(t, http.MethodGet, "/api/trend?days=200000000", "", "")

	// THEN: rejected before anything is allocated
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var errBody ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errBody))
	assert.Contains(t, errBody.Error, "366")
}

func TestGetAudit_NewestFirst(t *testing.T) {
	s := newTestServer(t, memory.New())
	s.do(t, http.MethodPost, "/api/import/accounts", "text/plain", "a@mail.com\tpw")
	s.do(t, http.MethodPost, "/api/import/spend", "text/plain", "2026-02-01\ta@mail.com\t5")

	rec := s.do(t, http.MethodGet, "/api/audit?limit=1", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body AuditResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "state", body.Source)
	require.Len(t, body.Entries, 1)
	assert.Equal(t, core.AuditSaleAdd, body.Entries[0].Type)
}

func TestGetAudit_FromSQLiteStore(t *testing.T) {
	// GIVEN: A server persisting into SQLite
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	defer store.Close()
	s := newTestServer(t, store)
	s.h.AuditSource = store

	// WHEN: An import commits
	rec := s.do(t, http.MethodPost, "/api/import/accounts", "text/plain", "a@mail.com\tpw")
	require.Equal(t, http.StatusOK, rec.Code)

	// THEN: The durable log serves the audit view
	rec = s.do(t, http.MethodGet, "/api/audit", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body AuditResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "store", body.Source)
	require.NotEmpty(t, body.Entries)
	assert.Equal(t, core.AuditAccountImport, body.Entries[0].Type)
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestScenarios_ListLoadReset(t *testing.T) {
	s := newTestServer(t, memory.New())

	rec := s.do(t, http.MethodGet, "/api/scenarios", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []ScenarioDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, len(scenarios))

	rec = s.do(t, http.MethodPost, "/api/scenarios/load", "application/json", `{"scenario_id":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/scenarios/load", "application/json", `{"scenario_id":"demo"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/scenarios/current", "", "")
	var current ScenarioDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &current))
	assert.Equal(t, "demo", current.ID)

	rec = s.do(t, http.MethodPost, "/api/scenarios/reset", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	st := s.state(t)
	assert.Empty(t, st.Accounts)
	assert.Empty(t, st.Bookings)
	assert.Equal(t, int64(2), st.Version)
}

func TestScenarios_TechBlockIsSwept(t *testing.T) {
	// GIVEN: Three cancellations in a row for one account at one hotel
	s := newTestServer(t, memory.New())

	// WHEN: Loading the scenario
	require.NoError(t, s.h.Load(context.Background(), "tech-block"))

	// THEN: The sweep writes the blocks into the manual statuses
	st := s.state(t)
	for _, a := range st.Accounts {
		switch a.Email {
		case "streak@mail.com":
			assert.Equal(t, core.AccountBlocked, a.ManualStatus)
			assert.True(t, core.HasNote(a.Notes, core.NoteTechBlock))
		default:
			assert.Equal(t, core.AccountActive, a.ManualStatus)
		}
	}
	for _, h := range st.Hotels {
		if h.HotelID == "91" {
			assert.Equal(t, core.HotelBlocked, h.ManualStatus)
		} else {
			assert.Equal(t, core.HotelOK, h.ManualStatus)
		}
	}
}

func decimalFromString(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}
