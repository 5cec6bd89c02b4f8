package main

import (
	"fmt"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/quake-cli/internal/apperr"
	"github.com/sells-group/quake-cli/internal/geo"
)

var antipodeCmd = &cobra.Command{
	Use:   "antipode <longitude> <latitude>",
	Short: "Print the point on the opposite side of the globe",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lon, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return apperr.Lookup(eris.Wrapf(err, "antipode: longitude %q", args[0]))
		}
		lat, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return apperr.Lookup(eris.Wrapf(err, "antipode: latitude %q", args[1]))
		}

		alon, alat, err := geo.Antipode(lon, lat)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n",
			strconv.FormatFloat(alon, 'f', -1, 64),
			strconv.FormatFloat(alat, 'f', -1, 64),
		)
		return err
	},
}

func init() {
	rootCmd.AddCommand(antipodeCmd)
}
