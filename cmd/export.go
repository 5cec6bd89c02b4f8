package main

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/quake-cli/internal/apperr"
	"github.com/sells-group/quake-cli/internal/export"
	"github.com/sells-group/quake-cli/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored earthquakes to csv, xlsx, or a point shapefile",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		formatFlag, _ := cmd.Flags().GetString("format")
		out, _ := cmd.Flags().GetString("out")
		columns, _ := cmd.Flags().GetStringSlice("columns")
		limit, _ := cmd.Flags().GetInt("limit")

		format, err := export.ParseFormat(formatFlag)
		if err != nil {
			return err
		}
		if out == "" {
			return apperr.Configuration(eris.New("export: --out is required"))
		}

		st, err := openStore(ctx, cfg.Store.MaxConns)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		kinds, err := st.Columns(ctx)
		if err != nil {
			return err
		}
		selected, err := kinds.Selectable(columns)
		if err != nil {
			return err
		}

		opts := store.SearchOpts{Columns: selected, Limit: limit}
		if cmd.Flags().Changed("min-mag") {
			m, _ := cmd.Flags().GetFloat64("min-mag")
			opts.MinMagnitude = &m
		}
		rows, err := st.Search(ctx, opts)
		if err != nil {
			return err
		}

		var n int
		switch format {
		case export.FormatShapefile:
			n, err = export.WriteShapefile(out, selected, kinds, rows)
		default:
			n, err = writeExportFile(out, format, selected, rows)
		}
		if err != nil {
			return eris.Wrap(err, "export")
		}

		zap.L().Info("export complete",
			zap.String("format", string(format)),
			zap.String("path", out),
			zap.Int("rows", n),
		)
		return nil
	},
}

func init() {
	formats := make([]string, 0, len(export.Formats()))
	for _, f := range export.Formats() {
		formats = append(formats, string(f))
	}
	exportCmd.Flags().String("format", string(export.FormatCSV), "output format: "+strings.Join(formats, ", "))
	exportCmd.Flags().StringP("out", "o", "", "output file path")
	exportCmd.Flags().StringSlice("columns", nil, "columns to export (default: every non-geometry column)")
	exportCmd.Flags().Float64("min-mag", 0, "only export rows with mag >= this value")
	exportCmd.Flags().Int("limit", 0, "maximum rows to export (0 = all)")
	rootCmd.AddCommand(exportCmd)
}

func writeExportFile(path string, format export.Format, cols []string, rows export.Rows) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, apperr.Configuration(eris.Wrapf(err, "create %s", path))
	}
	defer f.Close() //nolint:errcheck

	var n int
	switch format {
	case export.FormatXLSX:
		n, err = export.WriteXLSX(f, export.DefaultSheet, cols, rows)
	default:
		n, err = export.WriteCSV(f, cols, rows)
	}
	if err != nil {
		return n, err
	}
	return n, f.Close()
}
