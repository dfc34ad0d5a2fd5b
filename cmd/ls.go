/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"b00m.in/landgrid/cmd/util"
	"b00m.in/landgrid/remote"
	"b00m.in/landgrid/ui"
)

// lsCmd represents the ls command
var lsCmd = &cobra.Command{
	Use:   "ls [options] <s3bucket>",
	Short: "List the keys in an S3 bucket",
	Long: `List the keys under a prefix of an S3 bucket, following every page. For example:

landgrid ls county-data --prefix parcels/
landgrid ls --s3-anonymous overturemaps-us-west-2 --prefix release/2025-05-21`,
	Args: util.Validate,
	RunE: func(cmd *cobra.Command, args []string) error {
		prefix, _ := cmd.Flags().GetString("prefix")
		client, err := remote.NewClient(cfg.S3, log)
		if err != nil {
			return err
		}
		objects, err := client.List(cmd.Context(), args[0], prefix)
		if err != nil {
			return err
		}
		if len(objects) > 0 {
			if err := ui.RenderTable(cmd.OutOrStdout(), objectRows(objects), 0); err != nil {
				return err
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Found", len(objects), "items in bucket", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lsCmd)

	lsCmd.Flags().StringP("prefix", "p", "", "Provide prefix to key")
}

type objectRows []remote.Object

func (r objectRows) Len() int { return len(r) }

func (objectRows) Headers() []string {
	return []string{"name", "last modified", "size", "storage class"}
}

func (r objectRows) Row(i int) []string {
	o := r[i]
	return []string{o.Key, o.LastModified.Format(time.RFC3339), ui.ByteCountDecimal(o.Size), o.StorageClass}
}
