package api

import (
	"bytes"
	"context"
	"encoding/csv"
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/booking-ops/store/memory"
	"github.com/xuri/excelize/v2"
)

func TestExportAccountsCSV(t *testing.T) {
	// GIVEN: The demo scenario
	s := newTestServer(t, memory.New())
	require.NoError(t, s.h.Load(context.Background(), "demo"))

	// WHEN: Downloading the accounts CSV
	rec := s.do(t, http.MethodGet, "/api/export/accounts.csv", "", "")

	// THEN: A header plus one row per account
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "accounts.csv")
	rows, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 8)
	assert.Equal(t, accountColumns, rows[0])
	assert.Equal(t, "demo1@mail.com", rows[1][0])
	assert.Equal(t, "-15", rows[1][4])
}

func TestExportRewardsCSV(t *testing.T) {
	s := newTestServer(t, memory.New())
	require.NoError(t, s.h.Load(context.Background(), "demo"))

	rec := s.do(t, http.MethodGet, "/api/export/rewards.csv", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	rows, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"paid", "pending"}, []string{rows[1][0], rows[2][0]})
	assert.Equal(t, "BK1002", rows[1][3])
	assert.Equal(t, "40.00", rows[2][8])
	assert.Equal(t, "true", rows[2][12])
}

func TestExportWorkbook(t *testing.T) {
	// GIVEN: The demo scenario
	s := newTestServer(t, memory.New())
	require.NoError(t, s.h.Load(context.Background(), "demo"))

	// WHEN: Downloading the workbook
	rec := s.do(t, http.MethodGet, "/api/export/workbook.xlsx", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	// THEN: Both sheets are readable with the expected rows
	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	accounts, err := f.GetRows(sheetAccounts)
	require.NoError(t, err)
	require.Len(t, accounts, 8)
	assert.Equal(t, "email", accounts[0][0])

	hotels, err := f.GetRows(sheetHotels)
	require.NoError(t, err)
	require.Len(t, hotels, 2)
	assert.Equal(t, "74", hotels[1][0])
	assert.Equal(t, "The Bower Coronado", hotels[1][1])
}

func TestExportReadyTSV(t *testing.T) {
	s := newTestServer(t, memory.New())
	require.NoError(t, s.h.Load(context.Background(), "demo"))

	rec := s.do(t, http.MethodGet, "/api/export/ready.tsv", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	lines := strings.Split(rec.Body.String(), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "demo2@mail.com\tpass-demo-2", lines[0])
	assert.Contains(t, lines, "demo5@mail.com\t")
}

// =============================================================================
// METRICS & SCHEDULER
// =============================================================================

func TestMetrics_ImportCounters(t *testing.T) {
	s := newTestServer(t, memory.New())
	before := testutil.ToFloat64(ImportRows.WithLabelValues("bookings", "accepted"))
	rejectedBefore := testutil.ToFloat64(ImportRows.WithLabelValues("bookings", "rejected"))

	s.do(t, http.MethodPost, "/api/import/bookings", "text/plain",
		bookingLine("a@mail.com", "BK1", "Confirmed")+"\ngarbage")

	assert.Equal(t, before+1, testutil.ToFloat64(ImportRows.WithLabelValues("bookings", "accepted")))
	assert.Equal(t, rejectedBefore+1, testutil.ToFloat64(ImportRows.WithLabelValues("bookings", "rejected")))

	rec := s.do(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "opsdash_import_rows_total")
}

func TestSweepScheduler_RunNow(t *testing.T) {
	// GIVEN: The TECH-block scenario, swept when it was loaded
	s := newTestServer(t, memory.New())
	blocksBefore := testutil.ToFloat64(TechBlocks.WithLabelValues("account"))
	require.NoError(t, s.h.Load(context.Background(), "tech-block"))
	assert.Equal(t, blocksBefore+1, testutil.ToFloat64(TechBlocks.WithLabelValues("account")))
	version := s.state(t).Version

	// WHEN: The scheduler runs
	sched := NewSweepScheduler(s.h.Ctrl, s.h.Logger)
	sum, err := sched.RunNow(context.Background())

	// THEN: Nothing new to block, no commit, gauges refreshed
	require.NoError(t, err)
	assert.False(t, sum.Changed())
	assert.Equal(t, version, s.state(t).Version)
	assert.Equal(t, 1.0, testutil.ToFloat64(ReadyAccounts))
	assert.Equal(t, 1.0, testutil.ToFloat64(BlockedAccounts))
}

func TestSweepScheduler_StartStop(t *testing.T) {
	s := newTestServer(t, memory.New())
	sched := NewSweepScheduler(s.h.Ctrl, s.h.Logger)

	sched.Start()
	sched.Start()
	sched.Stop()
	sched.Stop()

	sched.Enabled = false
	sched.Start()
	sched.Stop()
}
