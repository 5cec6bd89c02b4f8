package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/quake-cli/internal/apperr"
	"github.com/sells-group/quake-cli/internal/store"
)

// tableStatus is the status command's report.
type tableStatus struct {
	Table       string           `json:"table" yaml:"table"`
	Rows        int64            `json:"rows" yaml:"rows"`
	Estimate    int64            `json:"estimate" yaml:"estimate"`
	LastSuccess *time.Time       `json:"last_success,omitempty" yaml:"last_success,omitempty"`
	Runs        []store.RunEntry `json:"runs" yaml:"runs"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show row counts and recent ingestion runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		output, _ := cmd.Flags().GetString("output")
		limit, _ := cmd.Flags().GetInt("limit")

		st, err := openStore(ctx, cfg.Store.MaxConns)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		status, err := collectStatus(ctx, st, limit)
		if err != nil {
			return eris.Wrap(err, "status")
		}
		return writeStatus(cmd.OutOrStdout(), output, status)
	},
}

func init() {
	statusCmd.Flags().StringP("output", "o", "table", "output format: table, json, yaml")
	statusCmd.Flags().Int("limit", 10, "number of recent runs to show")
	rootCmd.AddCommand(statusCmd)
}

func collectStatus(ctx context.Context, st store.Store, limit int) (*tableStatus, error) {
	rows, err := st.Count(ctx)
	if err != nil {
		return nil, err
	}
	est, err := st.EstimateCount(ctx)
	if err != nil {
		return nil, err
	}
	status := &tableStatus{Table: st.Table(), Rows: rows, Estimate: est}

	// Run history lives in the sync log, which may not exist.
	last, err := st.LastSuccess(ctx)
	if err != nil {
		zap.L().Warn("sync log unavailable, omitting run history", zap.Error(err))
		return status, nil
	}
	runs, err := st.ListRuns(ctx, limit)
	if err != nil {
		zap.L().Warn("sync log unavailable, omitting run history", zap.Error(err))
		return status, nil
	}
	status.LastSuccess = last
	status.Runs = runs
	return status, nil
}

func writeStatus(out io.Writer, output string, s *tableStatus) error {
	switch output {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case "yaml":
		enc := yaml.NewEncoder(out)
		defer enc.Close() //nolint:errcheck
		return enc.Encode(s)
	case "table", "":
		formatStatus(out, s)
		return nil
	default:
		return apperr.Configuration(eris.Errorf("status: unknown output %q (table, json, yaml)", output))
	}
}

// formatStatus writes the counts followed by a tabular run list.
func formatStatus(out io.Writer, s *tableStatus) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Table:\t%s\n", s.Table)
	_, _ = fmt.Fprintf(w, "Rows:\t%d\n", s.Rows)
	_, _ = fmt.Fprintf(w, "Estimate:\t%d\n", s.Estimate)
	last := "never"
	if s.LastSuccess != nil {
		last = s.LastSuccess.UTC().Format("2006-01-02 15:04")
	}
	_, _ = fmt.Fprintf(w, "Last success:\t%s\n", last)
	_ = w.Flush()

	if len(s.Runs) == 0 {
		_, _ = fmt.Fprintln(out, "\nno runs recorded")
		return
	}
	_, _ = fmt.Fprintln(out)
	formatRuns(out, s.Runs)
}

// formatRuns writes a tabular representation of sync log entries to out.
func formatRuns(out io.Writer, runs []store.RunEntry) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSTATUS\tSTARTED\tDURATION\tINITIAL\tFINAL\tADDED\tERROR")
	_, _ = fmt.Fprintln(w, "--\t------\t-------\t--------\t-------\t-----\t-----\t-----")

	for _, r := range runs {
		dur := "-"
		if r.CompletedAt != nil {
			dur = r.CompletedAt.Sub(r.StartedAt).Round(time.Second).String()
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			shortID(r.ID),
			r.Status,
			r.StartedAt.UTC().Format("2006-01-02 15:04"),
			dur,
			r.InitialCount,
			r.FinalCount,
			r.RowsInserted,
			truncate(r.Error, 60),
		)
	}
	_ = w.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
