package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import KIND FILE",
	Short: "Ingest a paste file into the state",
	Long: `Ingest a file the way the dashboard ingests a paste.

KIND is one of bookings, accounts, spend, blocklist or json. FILE is
read as UTF-8 text; "-" reads stdin. The summary is printed as JSON.`,
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"bookings", "accounts", "spend", "blocklist", "json"},
	RunE:      runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	kind, path := args[0], args[1]
	data, err := readInput(cmd, path)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	var summary any
	text := string(data)
	switch kind {
	case "bookings":
		summary, err = a.ctrl.IngestBookings(ctx, text)
	case "accounts":
		summary, err = a.ctrl.IngestAccounts(ctx, text)
	case "spend":
		summary, err = a.ctrl.IngestSpend(ctx, text)
	case "blocklist":
		summary, err = a.ctrl.IngestBlockList(ctx, text)
	case "json":
		err = a.ctrl.ImportJSON(ctx, data)
		summary = map[string]any{"imported": err == nil, "version": a.ctrl.State().Version}
	default:
		return fmt.Errorf("unknown import kind %q (want bookings, accounts, spend, blocklist or json)", kind)
	}
	if err != nil {
		return fmt.Errorf("import %s: %w", kind, err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
