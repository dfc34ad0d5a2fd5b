/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"b00m.in/landgrid/catalog"
	"b00m.in/landgrid/cmd/util"
	"b00m.in/landgrid/parquet"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <kind> <filename>",
	Short: "Write cached address points or parcels as GeoParquet",
	Long: `Write a cached collection to a GeoParquet file with WKB geometry and a geo metadata
record. The file can be fed back as a source. For example:

landgrid export parcels parcels.parquet --export-codec snappy
landgrid export points points.parquet`,
	Args: util.Validate,
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, dest := args[0], args[1]
		c := openCatalog(cmd)

		var err error
		var n int
		switch kind {
		case catalog.KindAddressPoints:
			if n = c.AddressPoints.Len(); n == 0 {
				return fmt.Errorf("no address points cached, run landgrid build first")
			}
			err = parquet.WriteAddressPoints(dest, c.AddressPoints, cfg.Export)
		case catalog.KindParcels:
			if n = c.Parcels.Len(); n == 0 {
				return fmt.Errorf("no parcels cached, run landgrid build first")
			}
			err = parquet.WriteParcels(dest, c.Parcels, cfg.Export)
		default:
			return fmt.Errorf("cannot export %q, want %s or %s", kind, catalog.KindAddressPoints, catalog.KindParcels)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d %s written to %s\n", n, kind, dest)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().String("export-codec", "zstd", "parquet compression: zstd, snappy, gzip or none")
}
