package api

import (
	"github.com/shopspring/decimal"
	"github.com/warp/booking-ops/core"
	"github.com/warp/booking-ops/derive"
	"github.com/warp/booking-ops/ingest"
)

// =============================================================================
// REQUEST DTOs
// =============================================================================

// PasteRequest is the JSON form of a paste import. Plain-text bodies are
// accepted as well.
type PasteRequest struct {
	Text string `json:"text"`
}

type CreateSaleRequest struct {
	Date   string          `json:"date"`
	Email  string          `json:"email"`
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note"`
}

type CreateHotelRequest struct {
	HotelID      string           `json:"hotelId"`
	Name         string           `json:"name"`
	ManualStatus core.HotelStatus `json:"manualStatus"`
	Notes        string           `json:"notes"`
}

type CreatePromoRewardRequest struct {
	Email  string          `json:"email"`
	Amount decimal.Decimal `json:"amount"`
	Promo  string          `json:"promo"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// =============================================================================
// RESPONSE DTOs
// =============================================================================

// ModelResponse is the derived model with the settings and the import
// summary the UI shows next to it.
type ModelResponse struct {
	*derive.Model
	Version    int64              `json:"version"`
	Today      string             `json:"today"`
	Settings   core.Settings      `json:"settings"`
	LastImport *ingest.LastImport `json:"lastImport,omitempty"`
}

type TrendResponse struct {
	Days   int                 `json:"days"`
	Points []derive.TrendPoint `json:"points"`
}

type AuditResponse struct {
	Entries []core.AuditEntry `json:"entries"`
	Source  string            `json:"source"`
}

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}
