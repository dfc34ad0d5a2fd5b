/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"b00m.in/landgrid/cmd/util"
	"b00m.in/landgrid/remote"
	"b00m.in/landgrid/ui"
)

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get <bucket> <key>",
	Short: "Download a source file or cache blob from an object store",
	Long: `Download an object with a progress bar. The bytes go to a temporary file that is
renamed once the download completes. With --start and --end only that byte range is
fetched and the range is added to the file name. For example:

landgrid get county-data parcels/2025/parcels.geojson --out data/parcels.geojson
landgrid get --s3-anonymous overturemaps-us-west-2 release/part-00043.zstd.parquet --start 0 --end 1023`,
	Args: util.Validate,
	RunE: func(cmd *cobra.Command, args []string) error {
		bucket, key := args[0], args[1]
		start, _ := cmd.Flags().GetInt64("start")
		end, _ := cmd.Flags().GetInt64("end")
		dest, _ := cmd.Flags().GetString("out")
		if dest == "" {
			dest = remote.ParseFilename(key)
			if end >= 0 {
				dest = remote.RangeFilename(key, start, end)
			}
		}

		client, err := remote.NewClient(cfg.S3, log)
		if err != nil {
			return err
		}
		size, err := client.Size(cmd.Context(), bucket, key)
		if err != nil {
			return err
		}
		if end >= 0 {
			size = end - start + 1
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Starting download, size: %s\n", ui.ByteCountDecimal(size))

		opts := remote.DownloadOptions{Start: start, End: end}
		if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
			bar, err := ui.StartProgressBar(remote.ParseFilename(key), size)
			if err != nil {
				return err
			}
			defer bar.Stop()
			opts.Progress = bar.Update
		}
		if _, err := client.Download(cmd.Context(), bucket, key, dest, opts); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "File downloaded! Available at: %s\n", dest)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(getCmd)

	getCmd.Flags().Int64P("start", "s", 0, "start of range")
	getCmd.Flags().Int64P("end", "e", -1, "end of range (set to -1 for full download)")
	getCmd.Flags().StringP("out", "o", "", "destination file (default the last element of the key)")
	getCmd.Flags().BoolP("quiet", "q", false, "no progress bar")
}
