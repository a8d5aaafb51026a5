package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/warp/booking-ops/api"
	"github.com/warp/booking-ops/derive"
)

var deriveCmd = &cobra.Command{
	Use:   "derive",
	Short: "Print the derived model",
	Long: `Print the derived model as JSON, or one of its views.

  --view model     accounts, hotels, ready/eligible lists, totals (default)
  --view rewards   reward pipeline
  --view trend     daily earned/spent over --days
  --view ready     email<TAB>password of accounts ready for a booking`,
	Args: cobra.NoArgs,
	RunE: runDerive,
}

func init() {
	rootCmd.AddCommand(deriveCmd)
	deriveCmd.Flags().String("view", "model", "model, rewards, trend or ready")
	deriveCmd.Flags().Int("days", derive.DefaultTrendDays, "trend window in days")
}

func runDerive(cmd *cobra.Command, args []string) error {
	view, err := cmd.Flags().GetString("view")
	if err != nil {
		return err
	}
	days, err := cmd.Flags().GetInt("days")
	if err != nil {
		return err
	}
	if days <= 0 || days > derive.MaxTrendDays {
		return fmt.Errorf("--days must be between 1 and %d", derive.MaxTrendDays)
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	var out any
	switch view {
	case "model":
		out = a.ctrl.Model()
	case "rewards":
		out = a.ctrl.Rewards()
	case "trend":
		out = a.ctrl.Trend(days)
	case "ready":
		_, err := fmt.Fprintln(cmd.OutOrStdout(), api.ReadyTSV(a.ctrl.Model()))
		return err
	default:
		return fmt.Errorf("unknown view %q", view)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
