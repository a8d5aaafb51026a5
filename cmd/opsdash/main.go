/*
main.go - Application entry point

PURPOSE:
  opsdash runs the booking operations dashboard backend and offers the
  same import/derive/export operations from the command line, sharing
  one SQLite state file.

COMMANDS:
  serve                       HTTP API + scheduler, graceful shutdown
  import bookings|accounts|spend|blocklist|json FILE
                              Ingest a paste file ("-" for stdin)
  derive                      Print the derived model (or ready TSV)
  export                      Write json/csv/xlsx/tsv exports

CONFIGURATION:
  --config points at a TOML file (default: opsdash.toml, optional):

    [server]
    port = 8080
    db = "opsdash.db"
    sweep_interval = "15m"

    [log]
    level = "info"

    [settings]
    cooldownDays = 20
    goldThreshold = 300

  Flags override the file. [settings] is only the baseline for a new
  or reset state; a saved state keeps its own settings.

SEE ALSO:
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Snapshot persistence
*/
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
