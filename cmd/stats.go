/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"b00m.in/landgrid/cmd/util"
	"b00m.in/landgrid/ui"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count the records in each cache",
	Args:  util.Validate,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := openCatalog(cmd)
		counts := c.Counts()
		return ui.RenderPairs(cmd.OutOrStdout(), [][2]string{
			{"addresses", strconv.Itoa(counts.Addresses)},
			{"address points", strconv.Itoa(counts.AddressPoints)},
			{"parcels", strconv.Itoa(counts.Parcels)},
			{"parcel bounds", formatBounds(c)},
		})
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
