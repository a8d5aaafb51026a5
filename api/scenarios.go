/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built states that show the dashboard with realistic
	data. A scenario replaces the whole state through the controller,
	so it is persisted and swept like any other command.

AVAILABLE SCENARIOS:

	demo:        7 accounts, one hotel, 3 bookings, 3 sales
	tech-block:  an account and a hotel that cross the cancellation limits
	empty:       no data, baseline settings

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "demo"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create a builder: xxxState(settings) *ingest.State
 3. Add it to 'builders'

NOTE:

	Scenarios replace the current state. The previous version stays in
	the store's snapshot history.

SEE ALSO:
  - handlers.go: Handler
  - ingest/controller.go: Replace
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/warp/booking-ops/core"
	"github.com/warp/booking-ops/ingest"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "demo",
		Name:        "Demo",
		Description: "Seven accounts, one hotel, three bookings and three sales",
		Category:    "demo",
	},
	{
		ID:          "tech-block",
		Name:        "TECH Blocks",
		Description: "Cancellation streaks that trip the account and hotel TECH limits",
		Category:    "blocks",
	},
	{
		ID:          "empty",
		Name:        "Empty",
		Description: "No data, baseline settings",
		Category:    "demo",
	},
}

var builders = map[string]func(core.Settings) *ingest.State{
	"demo":       DemoState,
	"tech-block": techBlockState,
	"empty":      ingest.NewState,
}

// =============================================================================
// HANDLERS
// =============================================================================

// ListScenarios returns all available scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
// GET /api/scenarios/current
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario replaces the state with a predefined scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.Load(r.Context(), req.ScenarioID); err != nil {
		if _, ok := builders[req.ScenarioID]; !ok {
			writeError(w, http.StatusBadRequest, "Unknown scenario", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "loaded",
		"scenario": req.ScenarioID,
	})
}

// ResetState replaces the state with an empty one.
// POST /api/scenarios/reset
func (h *Handler) ResetState(w http.ResponseWriter, r *http.Request) {
	if err := h.Load(r.Context(), "empty"); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset state", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// Load replaces the state with the named scenario built on the
// handler's baseline settings.
func (h *Handler) Load(ctx context.Context, id string) error {
	build, ok := builders[id]
	if !ok {
		return fmt.Errorf("unknown scenario: %s", id)
	}
	if err := h.Ctrl.Replace(ctx, build(h.Baseline)); err != nil {
		return err
	}

	h.mu.Lock()
	h.currentScenario = id
	h.mu.Unlock()
	h.Logger.Info("scenario loaded", "scenario", id)
	return nil
}

// =============================================================================
// SCENARIO DATA
// =============================================================================

// DemoState is the seed data shown on first start.
func DemoState(settings core.Settings) *ingest.State {
	st := ingest.NewState(settings)

	for i, created := range []string{
		"2025-02-01", "2025-02-02", "2025-02-03", "2025-02-04",
		"2025-02-05", "2025-02-05", "2025-02-06",
	} {
		n := i + 1
		password := fmt.Sprintf("pass-demo-%d", n)
		if n == 5 {
			password = ""
		}
		st.Accounts = append(st.Accounts, core.Account{
			Email:        fmt.Sprintf("demo%d@mail.com", n),
			Password:     password,
			ManualStatus: core.AccountActive,
			CreatedAt:    created,
		})
	}

	st.Hotels = []core.Hotel{{HotelID: "74", Name: "The Bower Coronado", ManualStatus: core.HotelOK}}

	st.Bookings = []core.Booking{
		demoBooking("2025-02-10", "demo1@mail.com", "BK1001", "1122", 320, "2025-02-12", "2025-02-13",
			40, core.RewardTypeBooking, "", core.StatusConfirmed, "Genius Level 1"),
		demoBooking("2025-02-11", "demo2@mail.com", "BK1002", "2211", 540, "2025-02-14", "2025-02-16",
			60, "Copa", "2025-04-21", core.StatusCompleted, "Genius Level 2"),
		demoBooking("2025-02-12", "demo5@mail.com", "BK1003", "3344", 280, "2025-02-18", "2025-02-19",
			0, core.RewardTypeBooking, "", core.StatusCancelled, "Genius Level 1"),
	}

	st.Sales = []core.Sale{
		{ID: core.NewID(), Date: "2025-02-12", Email: "demo1@mail.com", Amount: decimal.NewFromInt(15), Note: "Taxi"},
		{ID: core.NewID(), Date: "2025-02-15", Email: "demo2@mail.com", Amount: decimal.NewFromInt(25), Note: "Support"},
		{ID: core.NewID(), Date: "2025-02-20", Email: "demo7@mail.com", Amount: decimal.NewFromInt(10), Note: "SIM"},
	}
	return st
}

// techBlockState has one account with three cancellations in a row at
// one hotel, next to a healthy account at another hotel.
func techBlockState(settings core.Settings) *ingest.State {
	st := ingest.NewState(settings)
	st.Accounts = []core.Account{
		{Email: "streak@mail.com", Password: "pass-streak", ManualStatus: core.AccountActive, CreatedAt: "2025-03-01"},
		{Email: "steady@mail.com", Password: "pass-steady", ManualStatus: core.AccountActive, CreatedAt: "2025-03-01"},
	}
	st.Hotels = []core.Hotel{
		{HotelID: "91", Name: "Harbor Inn", ManualStatus: core.HotelOK},
		{HotelID: "74", Name: "The Bower Coronado", ManualStatus: core.HotelOK},
	}
	for i, day := range []string{"2025-03-02", "2025-03-05", "2025-03-09"} {
		b := demoBooking(day, "streak@mail.com", fmt.Sprintf("BK20%02d", i+1), "4455", 210, day, day,
			0, core.RewardTypeBooking, "", core.StatusCancelled, "")
		b.HotelID, b.HotelNameSnapshot = "91", "Harbor Inn"
		st.Bookings = append(st.Bookings, b)
	}
	st.Bookings = append(st.Bookings,
		demoBooking("2025-03-03", "steady@mail.com", "BK2101", "7788", 410, "2025-03-10", "2025-03-12",
			45, core.RewardTypeBooking, "", core.StatusCompleted, "Genius Level 2"))
	return st
}

func demoBooking(created, email, no, pin string, cost int64, checkIn, checkOut string,
	reward int64, rewardType, paidOn string, status core.Status, level string) core.Booking {
	return core.Booking{
		BookingID:         core.NewID(),
		CreatedAt:         created,
		Email:             email,
		BookingNo:         no,
		Pin:               pin,
		HotelID:           "74",
		HotelNameSnapshot: "The Bower Coronado",
		Cost:              decimal.NewFromInt(cost),
		CheckIn:           checkIn,
		CheckOut:          checkOut,
		RewardAmount:      decimal.NewFromInt(reward),
		RewardCurrency:    "USD",
		RewardType:        rewardType,
		Status:            status,
		Level:             level,
		RewardPaidOn:      paidOn,
	}
}
