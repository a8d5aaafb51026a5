package main

import (
	"strconv"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/booking-ops/derive"
)

func newDeriveTestCmd(t *testing.T, days int) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{RunE: runDerive}
	cmd.Flags().String("view", "trend", "")
	cmd.Flags().Int("days", derive.DefaultTrendDays, "")
	require.NoError(t, cmd.Flags().Set("days", strconv.Itoa(days)))
	return cmd
}

func TestRunDerive_RejectsOutOfRangeDays(t *testing.T) {
	for _, days := range []int{0, -3, derive.MaxTrendDays + 1, 200000000} {
		// GIVEN: a trend window outside 1..MaxTrendDays
		cmd := newDeriveTestCmd(t, days)

		// WHEN: running derive
		err := runDerive(cmd, nil)

		// THEN: it fails before opening the database
		require.Error(t, err, "days=%d", days)
		assert.Contains(t, err.Error(), "--days must be between 1 and")
	}
}
