package main

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/rankgrid/internal/export"
)

var (
	exportOut    string
	exportFormat string
	exportCells  bool
)

var exportCmd = &cobra.Command{
	Use:   "export <search-id>",
	Short: "Export a stored search as CSV or XLSX",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		search, err := st.GetSearch(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if search.Result == nil {
			return eris.Errorf("search %s has no stored result", args[0])
		}

		format := strings.ToLower(exportFormat)
		if format == "" {
			format = "csv"
			if strings.HasSuffix(strings.ToLower(exportOut), ".xlsx") {
				format = "xlsx"
			}
		}

		switch format {
		case "xlsx":
			if exportOut == "" {
				return eris.New("xlsx export requires --out")
			}
			if err := export.Workbook(exportOut, search.Result); err != nil {
				return err
			}
		case "csv":
			w := os.Stdout
			if exportOut != "" {
				f, err := os.Create(exportOut)
				if err != nil {
					return eris.Wrapf(err, "create %s", exportOut)
				}
				defer f.Close()
				w = f
			}
			write := export.CompetitorsCSV
			if exportCells {
				write = export.CellsCSV
			}
			if err := write(w, search.Result); err != nil {
				return err
			}
		default:
			return eris.Errorf("unknown export format %q (valid: csv, xlsx)", exportFormat)
		}

		if exportOut != "" {
			zap.L().Info("export written",
				zap.String("search_id", args[0]),
				zap.String("path", exportOut),
				zap.String("format", format),
			)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output path (default stdout for csv)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "csv or xlsx (inferred from --out extension)")
	exportCmd.Flags().BoolVar(&exportCells, "cells", false, "export per-point grid cells instead of the competitor leaderboard (csv only)")
	rootCmd.AddCommand(exportCmd)
}
