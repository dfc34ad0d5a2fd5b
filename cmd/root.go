/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"b00m.in/landgrid/catalog"
	"b00m.in/landgrid/config"
	"b00m.in/landgrid/logging"
)

var (
	cfgFile string
	cfg     *config.Config
	log     logging.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "landgrid",
	Short: "Address points and land parcels as queryable cartesian geometry",
	Long: `landgrid ingests an address roll (CSV) and a parcel layer (GeoJSON or GeoParquet),
converts them to cartesian geometry, caches the result and answers point queries. For example:

landgrid build
landgrid query 1000.5 2000.25 --tol 0.1
landgrid show parcels --limit 10`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(cfgFile, cmd.Flags()); err != nil {
			return err
		}
		if log, err = logging.NewLogger(cfg.Log); err != nil {
			return err
		}
		logging.SetDefault(log)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default ./landgrid.yaml when present)")
	pf.String("cache-dir", "", "directory for all cache blobs, overriding each configured path")
	pf.String("addresses", "", "address roll, CSV or GeoParquet")
	pf.String("parcels", "", "parcel layer, GeoJSON or GeoParquet")
	pf.Float64("buffer", 0.05, "half width of the box around each address point")
	pf.Int("workers", 0, "parallel multipolygon conversions (0 for one per CPU)")
	pf.Bool("compress", true, "zstd compress cache blobs")
	pf.String("log-level", "info", "debug, info, warn or error")
	pf.String("log-format", "console", "console or json")
	pf.String("s3-region", "us-west-2", "object store region")
	pf.String("s3-endpoint", "", "object store endpoint, for S3 compatible stores")
	pf.Bool("s3-anonymous", false, "skip credential lookup, for public buckets")
	pf.Bool("s3-path-style", false, "address buckets by path rather than host")
}

// openCatalog loads whatever caches exist.
func openCatalog(cmd *cobra.Command) *catalog.Catalog {
	return catalog.Open(cmd.Context(), cfg, log)
}
