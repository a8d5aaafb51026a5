package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/warp/booking-ops/api"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write an export of the state",
	Long: `Write one of the dashboard exports.

  --format json        full snapshot, re-importable with "import json"
  --format accounts    derived accounts as CSV
  --format rewards     reward rows as CSV
  --format xlsx        Accounts and Hotels workbook
  --format ready       email<TAB>password of ready accounts`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().String("format", "json", "json, accounts, rewards, xlsx or ready")
	exportCmd.Flags().StringP("out", "o", "-", `output file ("-" for stdout)`)
}

func runExport(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	outPath, err := cmd.Flags().GetString("out")
	if err != nil {
		return err
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	var w io.Writer = cmd.OutOrStdout()
	if outPath != "-" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", outPath, err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(a.ctrl.Export())
	case "accounts":
		err = api.WriteAccountsCSV(w, a.ctrl.Model().Accounts)
	case "rewards":
		err = api.WriteRewardsCSV(w, a.ctrl.Rewards())
	case "xlsx":
		err = api.WriteWorkbook(w, a.ctrl.Model())
	case "ready":
		_, err = fmt.Fprintln(w, api.ReadyTSV(a.ctrl.Model()))
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return fmt.Errorf("export %s: %w", format, err)
	}
	logger.Info("export written", "format", format, "out", outPath)
	return nil
}
