package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/quake-cli/internal/metrics"
	"github.com/sells-group/quake-cli/internal/notify"
)

var deriveCmd = &cobra.Command{
	Use:   "derive",
	Short: "Recompute geometry and utc_time for every row",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx, cfg.Store.MaxConns)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		in := newIngester(st, notify.Nop{}, metrics.NewUnregistered(), cmd.OutOrStdout())
		_, err = in.Derive(ctx)
		return err
	},
}

func init() {
	rootCmd.AddCommand(deriveCmd)
}
