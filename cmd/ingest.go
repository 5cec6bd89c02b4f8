package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Insert unseen earthquakes from the feed",
	Long: "Fetches the configured feed (or reads --file), inserts records whose usgs_id is not yet " +
		"in the table, and runs the derived-column passes unless --no-derive is set.",
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		noDerive, _ := cmd.Flags().GetBool("no-derive")
		asJSON, _ := cmd.Flags().GetBool("json")

		out := cmd.OutOrStdout()
		progress := out
		if asJSON {
			progress = cmd.ErrOrStderr()
		}

		res, err := runCycle(cmd.Context(), progress, cycleOpts{derive: !noDerive, file: file})
		if err != nil {
			return err
		}
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().String("file", "", "read a GeoJSON feed from this file instead of fetching")
	ingestCmd.Flags().Bool("no-derive", false, "skip the geometry and utc_time passes")
	ingestCmd.Flags().Bool("json", false, "print the cycle result as JSON")
	rootCmd.AddCommand(ingestCmd)
}
