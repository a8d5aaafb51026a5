package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/booking-ops/core"
	"github.com/warp/booking-ops/ingest"
	"github.com/warp/booking-ops/store/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleState(version int64) *ingest.State {
	st := ingest.NewState(core.DefaultSettings())
	st.Version = version
	st.Accounts = []core.Account{{Email: "a@x.com", Password: "pw", ManualStatus: core.AccountActive}}
	st.Bookings = []core.Booking{{
		BookingID:    "b1",
		Email:        "a@x.com",
		BookingNo:    "BK1",
		Status:       core.StatusConfirmed,
		Cost:         decimal.RequireFromString("6066.89"),
		RewardAmount: decimal.NewFromInt(120),
		RewardType:   core.RewardTypeBooking,
	}}
	st.Audit = []core.AuditEntry{{ID: "e1", At: "2026-01-01T00:00:00Z", Type: core.AuditBookingAdd, Msg: "a@x.com BK1"}}
	return st
}

func TestStore_LoadEmpty(t *testing.T) {
	_, err := newStore(t).Load(context.Background())
	assert.ErrorIs(t, err, ingest.ErrNoState)
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.Save(ctx, sampleState(1)))
	next := sampleState(2)
	next.Accounts[0].Password = "new"
	require.NoError(t, s.Save(ctx, next))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Version)
	assert.Equal(t, "new", got.Accounts[0].Password)
	require.Len(t, got.Bookings, 1)
	assert.True(t, decimal.RequireFromString("6066.89").Equal(got.Bookings[0].Cost))
	assert.Equal(t, core.StatusConfirmed, got.Bookings[0].Status)
	assert.True(t, got.Settings.GoldThreshold.Equal(decimal.NewFromInt(300)))

	versions, err := s.Versions(ctx)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, int64(2), versions[0].Version)
	assert.Equal(t, 1, versions[0].Bookings)
}

func TestStore_AuditLogDeduplicatesAndOutlivesState(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	first := sampleState(1)
	require.NoError(t, s.Save(ctx, first))

	// GIVEN: the next version dropped e1 from its capped audit
	second := sampleState(2)
	second.Audit = []core.AuditEntry{{ID: "e2", At: "2026-01-02T00:00:00Z", Type: core.AuditSaleAdd, Msg: "sale"}}
	require.NoError(t, s.Save(ctx, second))

	// Re-saving the same entry is a no-op
	require.NoError(t, s.Save(ctx, second))

	// THEN: both entries are still in the log, newest first
	log, err := s.AuditLog(ctx, 0)
	require.NoError(t, err)
	require.Len(t, log, 2)
	assert.Equal(t, "e2", log[0].ID)
	assert.Equal(t, core.AuditSaleAdd, log[0].Type)
	assert.Equal(t, "e1", log[1].ID)

	limited, err := s.AuditLog(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestStore_PrunesOldSnapshots(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	for v := int64(1); v <= sqlite.KeepSnapshots+5; v++ {
		require.NoError(t, s.Save(ctx, sampleState(v)))
	}

	versions, err := s.Versions(ctx)
	require.NoError(t, err)
	assert.Len(t, versions, sqlite.KeepSnapshots)
	assert.Equal(t, int64(sqlite.KeepSnapshots+5), versions[0].Version)
}

func TestStore_Reset(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.Save(ctx, sampleState(1)))

	require.NoError(t, s.Reset(ctx))

	_, err := s.Load(ctx)
	assert.ErrorIs(t, err, ingest.ErrNoState)
}
