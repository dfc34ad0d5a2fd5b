/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/cobra"

	"b00m.in/landgrid/cmd/util"
	"b00m.in/landgrid/logging"
	"b00m.in/landgrid/remote"
)

// pushCmd represents the push command
var pushCmd = &cobra.Command{
	Use:   "push <bucket>",
	Short: "Upload the cache blobs to an object store",
	Long: `Upload every cache blob that exists locally, so another machine can get them
instead of building. For example:

landgrid push county-cache --prefix landgrid/2025-05`,
	Args: util.Validate,
	RunE: func(cmd *cobra.Command, args []string) error {
		bucket := args[0]
		prefix, _ := cmd.Flags().GetString("prefix")
		client, err := remote.NewClient(cfg.S3, log)
		if err != nil {
			return err
		}

		pushed := 0
		for _, src := range []string{cfg.Addresses.Cache, cfg.AddressPoints.Cache, cfg.Parcels.Cache} {
			if _, err := os.Stat(src); errors.Is(err, os.ErrNotExist) {
				log.Warn("cache missing, not pushed", logging.String("path", src))
				continue
			}
			key := path.Join(prefix, filepath.Base(src))
			location, err := client.Upload(cmd.Context(), bucket, key, src)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", src, location)
			pushed++
		}
		if pushed == 0 {
			return fmt.Errorf("no caches to push, run landgrid build first")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pushCmd)

	pushCmd.Flags().StringP("prefix", "p", "", "key prefix for the uploaded blobs")
}
