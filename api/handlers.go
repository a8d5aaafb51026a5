/*
handlers.go - HTTP API handlers for the booking operations dashboard

PURPOSE:
  Exposes the ingestion controller and the derived views via REST API.
  Handles HTTP request/response and JSON serialization; every mutation
  is delegated to ingest.Controller, which is the single writer.

ENDPOINTS:
  Views:
    GET    /api/model                 Derived model, settings, last import
    GET    /api/state                 Raw state aggregate
    GET    /api/rewards               Reward pipeline (paid vs pending)
    GET    /api/trend?days=30         Daily earned/spent trend
    GET    /api/audit?limit=100       Audit log, newest first

  Imports (text/plain or {"text": "..."}):
    POST   /api/import/bookings       Booking paste
    POST   /api/import/accounts       email/password paste
    POST   /api/import/spend          date/email/amount/note paste
    POST   /api/import/blocklist      one email per line
    POST   /api/import/json           Full JSON snapshot

  Edits:
    PUT    /api/settings              Lenient settings patch
    PATCH  /api/accounts/{email}      DELETE /api/accounts/{email}
    PATCH  /api/bookings/{id}         PATCH  /api/hotels/{id}
    PATCH  /api/sales/{id}
    POST   /api/sales, /api/hotels, /api/promo-rewards

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Entity not found
  - 500: Persistence and internal errors
  Rejected paste lines are NOT errors: they come back in the summary.

SECURITY NOTE:
  No authentication or authorization. Intended for a single operator
  on a trusted network.

SEE ALSO:
  - export.go: CSV/XLSX/TSV downloads
  - scenarios.go: Demo data loader
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/warp/booking-ops/core"
	"github.com/warp/booking-ops/derive"
	"github.com/warp/booking-ops/factory"
	"github.com/warp/booking-ops/ingest"
)

const (
	maxBodyBytes      = 16 << 20
	defaultAuditLimit = 100
)

// AuditLog is the durable audit history, when the store keeps one.
type AuditLog interface {
	AuditLog(ctx context.Context, limit int) ([]core.AuditEntry, error)
}

// Handler holds all HTTP handler dependencies.
type Handler struct {
	Ctrl   *ingest.Controller
	Logger *slog.Logger

	// Baseline is the settings a reset starts from.
	Baseline core.Settings

	// AuditSource, when set, serves /api/audit instead of the in-state log.
	AuditSource AuditLog

	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a handler around ctrl.
func NewHandler(ctrl *ingest.Controller, baseline core.Settings, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{Ctrl: ctrl, Baseline: baseline, Logger: logger}
}

// =============================================================================
// VIEWS
// =============================================================================

// GetModel returns the derived model.
// GET /api/model
func (h *Handler) GetModel(w http.ResponseWriter, r *http.Request) {
	st := h.Ctrl.State()
	now := h.Ctrl.Now()
	in := st.Input(now)
	model := derive.Derive(in)
	observeModel(model, derive.Rewards(in, model))

	writeJSON(w, http.StatusOK, ModelResponse{
		Model:      model,
		Version:    st.Version,
		Today:      core.StartOfDay(now).Format(core.ISODate),
		Settings:   st.Settings,
		LastImport: st.LastImport,
	})
}

// GetState returns the raw aggregate.
// GET /api/state
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Ctrl.State())
}

// GetRewards returns the reward pipeline.
// GET /api/rewards
func (h *Handler) GetRewards(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Ctrl.Rewards())
}

// GetTrend returns the net trend.
// GET /api/trend?days=30
func (h *Handler) GetTrend(w http.ResponseWriter, r *http.Request) {
	days := derive.DefaultTrendDays
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > derive.MaxTrendDays {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("days must be between 1 and %d", derive.MaxTrendDays), err)
			return
		}
		days = n
	}
	writeJSON(w, http.StatusOK, TrendResponse{Days: days, Points: h.Ctrl.Trend(days)})
}

// GetAudit returns the audit log, newest first.
// GET /api/audit?limit=100
func (h *Handler) GetAudit(w http.ResponseWriter, r *http.Request) {
	limit := defaultAuditLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer", err)
			return
		}
		limit = n
	}

	if h.AuditSource != nil {
		entries, err := h.AuditSource.AuditLog(r.Context(), limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to read audit log", err)
			return
		}
		writeJSON(w, http.StatusOK, AuditResponse{Entries: nonNilAudit(entries), Source: "store"})
		return
	}

	log := h.Ctrl.Audit()
	entries := make([]core.AuditEntry, 0, min(limit, len(log)))
	for i := len(log) - 1; i >= 0 && len(entries) < limit; i-- {
		entries = append(entries, log[i])
	}
	writeJSON(w, http.StatusOK, AuditResponse{Entries: entries, Source: "state"})
}

// =============================================================================
// IMPORTS
// =============================================================================

// ImportBookings ingests a booking paste.
// POST /api/import/bookings
func (h *Handler) ImportBookings(w http.ResponseWriter, r *http.Request) {
	text, ok := readPaste(w, r)
	if !ok {
		return
	}
	sum, err := h.Ctrl.IngestBookings(r.Context(), text)
	if err != nil {
		writeCommandError(w, "Failed to import bookings", err)
		return
	}
	observeBookingImport(sum)
	writeJSON(w, http.StatusOK, sum)
}

// ImportAccounts merges an email/password paste.
// POST /api/import/accounts
func (h *Handler) ImportAccounts(w http.ResponseWriter, r *http.Request) {
	text, ok := readPaste(w, r)
	if !ok {
		return
	}
	sum, err := h.Ctrl.IngestAccounts(r.Context(), text)
	if err != nil {
		writeCommandError(w, "Failed to import accounts", err)
		return
	}
	observeImport("accounts", sum.Added+sum.Updated, 0, len(sum.Errors))
	writeJSON(w, http.StatusOK, sum)
}

// ImportSpend ingests a spend paste.
// POST /api/import/spend
func (h *Handler) ImportSpend(w http.ResponseWriter, r *http.Request) {
	text, ok := readPaste(w, r)
	if !ok {
		return
	}
	sum, err := h.Ctrl.IngestSpend(r.Context(), text)
	if err != nil {
		writeCommandError(w, "Failed to import spend", err)
		return
	}
	observeImport("spend", sum.Added, 0, len(sum.Errors))
	writeJSON(w, http.StatusOK, sum)
}

// ImportBlockList applies a mass block.
// POST /api/import/blocklist
func (h *Handler) ImportBlockList(w http.ResponseWriter, r *http.Request) {
	text, ok := readPaste(w, r)
	if !ok {
		return
	}
	sum, err := h.Ctrl.IngestBlockList(r.Context(), text)
	if err != nil {
		writeCommandError(w, "Failed to apply block list", err)
		return
	}
	observeImport("blocklist", sum.Blocked+sum.Created, 0, len(sum.Errors))
	writeJSON(w, http.StatusOK, sum)
}

// ImportJSON replaces the state from a JSON snapshot.
// POST /api/import/json
func (h *Handler) ImportJSON(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body", err)
		return
	}
	if err := h.Ctrl.ImportJSON(r.Context(), body); err != nil {
		writeCommandError(w, "Failed to import snapshot", err)
		return
	}
	observeImport("json", 1, 0, 0)
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// EDITS
// =============================================================================

// UpdateSettings applies a lenient settings patch.
// PUT /api/settings
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body", err)
		return
	}
	settings, err := h.Ctrl.UpdateSettings(r.Context(), func(cur core.Settings) (core.Settings, error) {
		return factory.PatchSettings(cur, body)
	})
	if err != nil {
		writeCommandError(w, "Failed to update settings", err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// UpdateAccount patches an account.
// PATCH /api/accounts/{email}
func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	var patch ingest.AccountPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	acc, err := h.Ctrl.UpdateAccount(r.Context(), chi.URLParam(r, "email"), patch)
	if err != nil {
		writeCommandError(w, "Failed to update account", err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

// DeleteAccount removes an account with its bookings and sales.
// DELETE /api/accounts/{email}
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.Ctrl.DeleteAccount(r.Context(), chi.URLParam(r, "email")); err != nil {
		writeCommandError(w, "Failed to delete account", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateBooking patches a booking.
// PATCH /api/bookings/{id}
func (h *Handler) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	var patch ingest.BookingPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	b, err := h.Ctrl.UpdateBooking(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeCommandError(w, "Failed to update booking", err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// CreateHotel adds a hotel by hand.
// POST /api/hotels
func (h *Handler) CreateHotel(w http.ResponseWriter, r *http.Request) {
	var req CreateHotelRequest
	if !decodeBody(w, r, &req) {
		return
	}
	hotel, err := h.Ctrl.AddHotel(r.Context(), core.Hotel{
		HotelID:      req.HotelID,
		Name:         req.Name,
		ManualStatus: req.ManualStatus,
		Notes:        req.Notes,
	})
	if err != nil {
		writeCommandError(w, "Failed to create hotel", err)
		return
	}
	writeJSON(w, http.StatusCreated, hotel)
}

// UpdateHotel patches a hotel.
// PATCH /api/hotels/{id}
func (h *Handler) UpdateHotel(w http.ResponseWriter, r *http.Request) {
	var patch ingest.HotelPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	hotel, err := h.Ctrl.UpdateHotel(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeCommandError(w, "Failed to update hotel", err)
		return
	}
	writeJSON(w, http.StatusOK, hotel)
}

// CreateSale records a cash outflow.
// POST /api/sales
func (h *Handler) CreateSale(w http.ResponseWriter, r *http.Request) {
	var req CreateSaleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sale, err := h.Ctrl.AddSale(r.Context(), core.Sale{
		Date:   req.Date,
		Email:  req.Email,
		Amount: req.Amount,
		Note:   req.Note,
	})
	if err != nil {
		writeCommandError(w, "Failed to create sale", err)
		return
	}
	writeJSON(w, http.StatusCreated, sale)
}

// UpdateSale patches a sale.
// PATCH /api/sales/{id}
func (h *Handler) UpdateSale(w http.ResponseWriter, r *http.Request) {
	var patch ingest.SalePatch
	if !decodeBody(w, r, &patch) {
		return
	}
	sale, err := h.Ctrl.UpdateSale(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeCommandError(w, "Failed to update sale", err)
		return
	}
	writeJSON(w, http.StatusOK, sale)
}

// CreatePromoReward credits a promo reward outside any booking.
// POST /api/promo-rewards
func (h *Handler) CreatePromoReward(w http.ResponseWriter, r *http.Request) {
	var req CreatePromoRewardRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sr, err := h.Ctrl.AddPromoReward(r.Context(), req.Email, req.Amount, req.Promo)
	if err != nil {
		writeCommandError(w, "Failed to add promo reward", err)
		return
	}
	writeJSON(w, http.StatusCreated, sr)
}

// =============================================================================
// HELPERS
// =============================================================================

// readPaste extracts paste text from either a JSON {"text"} body or a
// raw text body.
func readPaste(w http.ResponseWriter, r *http.Request) (string, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body", err)
		return "", false
	}
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return string(body), true
	}
	var req PasteRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return "", false
	}
	return req.Text, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

// writeCommandError maps controller errors to HTTP statuses.
func writeCommandError(w http.ResponseWriter, message string, err error) {
	switch {
	case core.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case core.IsClientError(err), errors.Is(err, factory.ErrInvalidSettings):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func nonNilAudit(entries []core.AuditEntry) []core.AuditEntry {
	if entries == nil {
		return []core.AuditEntry{}
	}
	return entries
}

func attachment(w http.ResponseWriter, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}
