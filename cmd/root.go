package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/quake-cli/internal/apperr"
	"github.com/sells-group/quake-cli/internal/config"
)

var (
	cfg     *config.Config
	cfgPath string
)

var rootCmd = &cobra.Command{
	Use:   "quake-cli",
	Short: "USGS earthquake feed ingestion",
	Long: "Fetches a USGS summary feed, inserts unseen earthquakes into a PostGIS table, " +
		"and derives point geometry and UTC timestamps. With no subcommand it runs one full cycle.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cfgPath)
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := runCycle(cmd.Context(), cmd.OutOrStdout(), cycleOpts{derive: true})
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default ./quake.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		zap.L().Error("command failed",
			zap.String("kind", apperr.KindOf(err).String()),
			zap.Error(err),
		)
		_ = zap.L().Sync()
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
