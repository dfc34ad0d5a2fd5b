/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"b00m.in/landgrid/cache"
	"b00m.in/landgrid/cmd/util"
	"b00m.in/landgrid/parquet"
	"b00m.in/landgrid/remote"
	"b00m.in/landgrid/ui"
)

var magicBytes = []byte("PAR1")

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect <filename>",
	Short: "Show the header of a cache blob or the footer of a parquet file",
	Long: `Print what a file holds without loading it: the header of a cache blob, or the
metadata and columns of a GeoParquet file. With --bucket the argument is an object key
and only the last eight bytes of the object are fetched, which give the parquet footer size. For example:

landgrid inspect cache/parcels.data
landgrid inspect parcels.parquet
landgrid inspect --s3-anonymous --bucket overturemaps-us-west-2 release/2025-05-21.0/theme=buildings/type=building/part-00043.zstd.parquet`,
	Args: util.Validate,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if bucket, _ := cmd.Flags().GetString("bucket"); bucket != "" {
			return inspectRemote(cmd, out, bucket, args[0])
		}
		if strings.EqualFold(filepath.Ext(args[0]), ".parquet") {
			return inspectParquet(out, args[0])
		}
		return inspectCache(out, args[0])
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringP("bucket", "b", "", "read the footer of this bucket's object instead of a local file")
}

func inspectCache(out io.Writer, filename string) error {
	h, err := cache.ReadFileHeader(filename)
	if err != nil {
		return err
	}
	return ui.RenderPairs(out, [][2]string{
		{"kind", h.Kind.String()},
		{"version", strconv.Itoa(int(h.Version))},
		{"current version", strconv.FormatBool(h.Version == cache.Version)},
		{"compressed", strconv.FormatBool(h.Compressed)},
		{"payload", ui.ByteCountDecimal(int64(h.Length))},
		{"checksum", fmt.Sprintf("%016x", h.Checksum)},
	})
}

func inspectParquet(out io.Writer, filename string) error {
	info, err := parquet.Describe(filename)
	if err != nil {
		return err
	}
	bbox := "-"
	gv, _ := parquet.KeyInMetadata(filename, parquet.GeoKey)
	if b, ok := gv.Bounds(); ok {
		bbox = fmt.Sprintf("%g,%g,%g,%g", b.XMin, b.YMin, b.XMax, b.YMax)
	}
	if err := ui.RenderPairs(out, [][2]string{
		{"version", info.Version},
		{"created by", info.CreatedBy},
		{"rows", strconv.FormatInt(info.Rows, 10)},
		{"row groups", strconv.Itoa(info.RowGroups)},
		{"geo bbox", bbox},
	}); err != nil {
		return err
	}
	return ui.RenderTable(out, columnRows(info.Columns), 0)
}

func inspectRemote(cmd *cobra.Command, out io.Writer, bucket, key string) error {
	client, err := remote.NewClient(cfg.S3, log)
	if err != nil {
		return err
	}
	size, err := client.Size(cmd.Context(), bucket, key)
	if err != nil {
		return err
	}
	bs, err := client.Tail(cmd.Context(), bucket, key, 8)
	if err != nil {
		return err
	}
	if len(bs) != 8 || !bytes.Equal(bs[4:8], magicBytes) {
		return fmt.Errorf("s3://%s/%s is not a parquet file", bucket, key)
	}
	footer := int64(binary.LittleEndian.Uint32(bs[:4]))
	return ui.RenderPairs(out, [][2]string{
		{"size", ui.ByteCountDecimal(size)},
		{"footer", ui.ByteCountDecimal(footer)},
		{"footer range", fmt.Sprintf("bytes=%d-%d", size-footer-8, size-1)},
	})
}

type columnRows []parquet.ColumnInfo

func (r columnRows) Len() int { return len(r) }

func (columnRows) Headers() []string {
	return []string{"column", "type", "compression", "values", "nulls", "min", "max", "size"}
}

func (r columnRows) Row(i int) []string {
	c := r[i]
	return []string{
		c.Path,
		c.Type,
		c.Compression,
		strconv.FormatInt(c.Values, 10),
		strconv.FormatInt(c.NullCount, 10),
		c.Min,
		c.Max,
		ui.ByteCountDecimal(c.CompressedSize),
	}
}
