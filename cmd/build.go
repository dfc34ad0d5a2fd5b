/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"b00m.in/landgrid/catalog"
	"b00m.in/landgrid/cmd/util"
	"b00m.in/landgrid/ui"
)

// buildCmd represents the build command
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Ingest the configured sources and write the caches",
	Long: `Read the address roll and the parcel layer, convert them and write one cache blob
per collection. Bad rows and features are dropped and counted. For example:

landgrid build --addresses roll.csv --parcels parcels.geojson --cache-dir cache
landgrid build --dry-run --log-level debug`,
	Args: util.Validate,
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		quiet, _ := cmd.Flags().GetBool("quiet")

		spinner := &ui.Spinner{}
		if !quiet {
			var err error
			if spinner, err = ui.StartSpinner("reading sources"); err != nil {
				return err
			}
		}
		c, report, err := catalog.Build(cmd.Context(), cfg, catalog.BuildOptions{
			Logger:        log,
			AddressTicker: spinner,
			ParcelTicker:  spinner,
		})
		if err != nil {
			spinner.Fail(err.Error())
			return err
		}
		spinner.Success(fmt.Sprintf("read %d records", spinner.Count()))

		counts := c.Counts()
		if err := ui.RenderPairs(cmd.OutOrStdout(), [][2]string{
			{"addresses", report.Addresses.String()},
			{"parcels", report.Parcels.String()},
			{"address points", strconv.Itoa(counts.AddressPoints)},
			{"parcel bounds", formatBounds(c)},
		}); err != nil {
			return err
		}
		if dryRun {
			return nil
		}
		if err := c.Save(cfg); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "caches written: %s, %s, %s\n",
			cfg.Addresses.Cache, cfg.AddressPoints.Cache, cfg.Parcels.Cache)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().Bool("dry-run", false, "ingest and report without writing caches")
	buildCmd.Flags().BoolP("quiet", "q", false, "no spinner")
}

func formatBounds(c *catalog.Catalog) string {
	b := c.Parcels.Bounds()
	if b.IsEmpty() {
		return "-"
	}
	return fmt.Sprintf("%g,%g,%g,%g", b.XMin, b.YMin, b.XMax, b.YMax)
}
