/*
export.go - Downloads of state and derived views

FORMATS:
  json            Full snapshot (ingest.Export), re-importable
  accounts.csv    Derived accounts, one row each
  rewards.csv     Reward pipeline rows, paid first then pending
  workbook.xlsx   "Accounts" and "Hotels" sheets of the derived model
  ready.tsv       email<TAB>password of accounts ready for a booking

The writers take an io.Writer so the CLI export command shares them.
*/
package api

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/warp/booking-ops/derive"
	"github.com/warp/booking-ops/parse"
	"github.com/xuri/excelize/v2"
)

const (
	sheetAccounts = "Accounts"
	sheetHotels   = "Hotels"
)

var accountColumns = []string{
	"email", "password", "manualStatus", "tier", "netBalance", "totalBonuses", "totalSales",
	"totalBookings", "activeBookings", "cancelled", "lastBookingAt", "daysSinceLastBooking",
	"canAddBooking", "blockReason", "notes",
}

var hotelColumns = []string{
	"hotelId", "name", "manualStatus", "totalBookings", "confirmed", "completed", "cancelled",
	"reliability", "spent", "lastBookingAt", "blockReason", "notes",
}

var rewardColumns = []string{
	"state", "bookingId", "email", "bookingNo", "hotelId", "hotel", "status",
	"rewardType", "rewardAmount", "rewardCurrency", "checkOut", "eta", "overdue", "rewardPaidOn",
}

// =============================================================================
// HANDLERS
// =============================================================================

// ExportJSON downloads the full snapshot.
// GET /api/export/json
func (h *Handler) ExportJSON(w http.ResponseWriter, r *http.Request) {
	snap := h.Ctrl.Export()
	w.Header().Set("Content-Disposition", `attachment; filename="booking-ops.json"`)
	writeJSON(w, http.StatusOK, snap)
}

// ExportAccountsCSV downloads the derived accounts.
// GET /api/export/accounts.csv
func (h *Handler) ExportAccountsCSV(w http.ResponseWriter, r *http.Request) {
	m := h.Ctrl.Model()
	attachment(w, "text/csv; charset=utf-8", "accounts.csv")
	if err := WriteAccountsCSV(w, m.Accounts); err != nil {
		h.Logger.Error("accounts csv export failed", "error", err)
	}
}

// ExportRewardsCSV downloads the reward pipeline rows.
// GET /api/export/rewards.csv
func (h *Handler) ExportRewardsCSV(w http.ResponseWriter, r *http.Request) {
	p := h.Ctrl.Rewards()
	attachment(w, "text/csv; charset=utf-8", "rewards.csv")
	if err := WriteRewardsCSV(w, p); err != nil {
		h.Logger.Error("rewards csv export failed", "error", err)
	}
}

// ExportWorkbook downloads the derived model as an XLSX workbook.
// GET /api/export/workbook.xlsx
func (h *Handler) ExportWorkbook(w http.ResponseWriter, r *http.Request) {
	m := h.Ctrl.Model()
	attachment(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "booking-ops.xlsx")
	if err := WriteWorkbook(w, m); err != nil {
		h.Logger.Error("workbook export failed", "error", err)
	}
}

// ExportReadyTSV downloads the ready accounts as email/password lines.
// GET /api/export/ready.tsv
func (h *Handler) ExportReadyTSV(w http.ResponseWriter, r *http.Request) {
	m := h.Ctrl.Model()
	attachment(w, "text/tab-separated-values; charset=utf-8", "ready.tsv")
	io.WriteString(w, ReadyTSV(m))
}

// =============================================================================
// WRITERS
// =============================================================================

// WriteAccountsCSV writes one row per derived account.
func WriteAccountsCSV(w io.Writer, accounts []derive.Account) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(accountColumns); err != nil {
		return err
	}
	for _, a := range accounts {
		if err := cw.Write(toStrings(accountRow(a))); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRewardsCSV writes the paid rows followed by the pending rows.
func WriteRewardsCSV(w io.Writer, p derive.RewardPipeline) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(rewardColumns); err != nil {
		return err
	}
	for _, group := range []struct {
		state string
		rows  []derive.RewardRow
	}{{"paid", p.Paid}, {"pending", p.Pending}} {
		for _, row := range group.rows {
			if err := cw.Write(rewardRow(group.state, row)); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteWorkbook renders the derived accounts and hotels as two sheets.
func WriteWorkbook(w io.Writer, m *derive.Model) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetAccounts); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(sheetHotels); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	accRows := make([][]any, 0, len(m.Accounts)+1)
	accRows = append(accRows, toAny(accountColumns))
	for _, a := range m.Accounts {
		accRows = append(accRows, accountRow(a))
	}
	if err := writeSheet(f, sheetAccounts, accRows); err != nil {
		return err
	}

	hotelRows := make([][]any, 0, len(m.Hotels)+1)
	hotelRows = append(hotelRows, toAny(hotelColumns))
	for _, hd := range m.Hotels {
		hotelRows = append(hotelRows, hotelRow(hd))
	}
	if err := writeSheet(f, sheetHotels, hotelRows); err != nil {
		return err
	}

	return f.Write(w)
}

// ReadyTSV renders the ready accounts in the accounts paste format.
func ReadyTSV(m *derive.Model) string {
	rows := make([]parse.AccountRow, len(m.AccountsReady))
	for i, a := range m.AccountsReady {
		rows[i] = parse.AccountRow{Email: a.Email, Password: a.Password}
	}
	return parse.FormatAccountsTSV(rows)
}

func writeSheet(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// =============================================================================
// ROWS
// =============================================================================

func accountRow(a derive.Account) []any {
	return []any{
		a.Email,
		a.Password,
		string(a.ManualStatus),
		string(a.Tier),
		money(a.NetBalance),
		money(a.TotalBonuses),
		money(a.TotalSales),
		a.TotalBookings,
		a.ActiveBookingsCount,
		a.TotalCancelled,
		a.LastBookingAt,
		optInt(a.DaysSinceLastBooking),
		a.CanAddBooking,
		a.BlockReason,
		a.Notes,
	}
}

func hotelRow(hd derive.Hotel) []any {
	return []any{
		hd.HotelID,
		hd.Name,
		string(hd.ManualStatus),
		hd.TotalBookings,
		hd.Confirmed,
		hd.Completed,
		hd.Cancelled,
		hd.Reliability,
		money(hd.Spent),
		hd.LastBookingAt,
		hd.BlockReason,
		hd.Notes,
	}
}

func rewardRow(state string, row derive.RewardRow) []string {
	return []string{
		state,
		row.BookingID,
		row.Email,
		row.BookingNo,
		row.HotelID,
		row.HotelNameSnapshot,
		string(row.Status),
		row.RewardType,
		row.RewardAmount.StringFixed(2),
		row.RewardCurrency,
		row.CheckOut,
		row.ETA,
		strconv.FormatBool(row.Overdue),
		row.RewardPaidOn,
	}
}

// money keeps spreadsheet cells numeric.
func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func optInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func toStrings(row []any) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = fmt.Sprint(v)
	}
	return out
}

func toAny(cols []string) []any {
	out := make([]any, len(cols))
	for i, c := range cols {
		out[i] = c
	}
	return out
}
