package main

import (
	"fmt"
	"log/slog"
	"os"

	cmdcalculate "noc-stats/command/calculate"
	cmdimport "noc-stats/command/import"
	cmdweb "noc-stats/command/web"
)

// Network operations reporting over an outage / PA / site directory workbook.
// Usage:
//   noc-stats import -workbook noc.xlsx [-out data] [-retain-years N]
//   noc-stats calculate -workbook noc.xlsx [-from 2025-03-01 -to 2025-03-31] [-site S1,S2] [-customer MTN] [-where Column=expr]
//   noc-stats web [-addr :8080] [-data ./data]
// Notes:
// - The workbook is an .xlsx file or a directory holding one <sheet>.csv per sheet.
// - Sheets: outages, db (site directory), pa, rna, tch. Names are configurable.

const usage = `usage: noc-stats import -workbook <xlsx|dir> [-out data] | calculate -workbook <xlsx|dir> [selection flags] | web [-addr :8080] [-data ./data]
ENV: set CONFIG_PATH to point to a YAML config file (default ./config.yml); LOG_LEVEL=debug for verbose logs`

func main() {
	args := os.Args
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(h))

	if len(args) > 1 {
		sub := args[1]
		rest := append([]string{}, args[2:]...)
		run := map[string]func([]string) error{
			"import":    cmdimport.Run,
			"calculate": cmdcalculate.Run,
			"web":       cmdweb.Run,
		}[sub]
		if run != nil {
			if err := run(rest); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			return
		}
	}
	fmt.Fprintln(os.Stderr, usage)
	os.Exit(2)
}
