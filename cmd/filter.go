/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/spf13/cobra"

	"b00m.in/landgrid/cmd/util"
	"b00m.in/landgrid/logging"
	"b00m.in/landgrid/parquet"
	"b00m.in/landgrid/ui"
)

// filterCmd represents the filter command
var filterCmd = &cobra.Command{
	Use:   "filter <filename>...",
	Short: "Check which GeoParquet files cover a bounding box",
	Long: `Compare the bbox in the geo metadata of each GeoParquet file with a bounding box,
to find the exports or downloaded parts that hold data of interest. For example:

landgrid filter --bbox -3.71,40.41,-3.69,40.43 part-0fd324452.parquet
landgrid filter --bbox 0,0,1000,1000 --matching *.parquet`,
	Args: util.Validate,
	RunE: func(cmd *cobra.Command, args []string) error {
		bbox, _ := cmd.Flags().GetString("bbox")
		matching, _ := cmd.Flags().GetBool("matching")
		bounds, err := parseBbox(bbox)
		if err != nil {
			return err
		}

		rows := filterRows{}
		for _, filename := range args {
			r := filterRow{file: filename}
			gv, ok := parquet.KeyInMetadata(filename, parquet.GeoKey)
			if fb, has := gv.Bounds(); ok && has {
				xbs := orb.Bound{Min: orb.Point{fb.XMin, fb.YMin}, Max: orb.Point{fb.XMax, fb.YMax}}
				r.bbox = fmt.Sprintf("%g,%g,%g,%g", fb.XMin, fb.YMin, fb.XMax, fb.YMax)
				r.intersects = xbs.Intersects(bounds)
			} else {
				log.Warn("no geo bbox in metadata", logging.String("file", filename))
				r.bbox = "-"
			}
			if matching && !r.intersects {
				continue
			}
			rows = append(rows, r)
		}
		if matching {
			for _, r := range rows {
				fmt.Fprintln(cmd.OutOrStdout(), r.file)
			}
			return nil
		}
		return ui.RenderTable(cmd.OutOrStdout(), rows, 0)
	},
}

func init() {
	rootCmd.AddCommand(filterCmd)

	filterCmd.Flags().StringP("bbox", "b", "", "min x, min y, max x, max y of the bounding box")
	filterCmd.Flags().BoolP("matching", "m", false, "print only the names of intersecting files")
	filterCmd.MarkFlagRequired("bbox")
}

func parseBbox(bbox string) (orb.Bound, error) {
	cs := strings.Split(bbox, ",")
	if len(cs) != 4 {
		return orb.Bound{}, fmt.Errorf("found malformed bbox len %d", len(cs))
	}
	var fs [4]float64
	for i, c := range cs {
		f, err := strconv.ParseFloat(strings.TrimSpace(c), 64)
		if err != nil {
			return orb.Bound{}, fmt.Errorf("found malformed bbox value %q", c)
		}
		fs[i] = f
	}
	if fs[0] > fs[2] || fs[1] > fs[3] {
		return orb.Bound{}, fmt.Errorf("bbox min %g,%g is past max %g,%g", fs[0], fs[1], fs[2], fs[3])
	}
	return orb.Bound{Min: orb.Point{fs[0], fs[1]}, Max: orb.Point{fs[2], fs[3]}}, nil
}

type filterRow struct {
	file       string
	bbox       string
	intersects bool
}

type filterRows []filterRow

func (r filterRows) Len() int        { return len(r) }
func (filterRows) Headers() []string { return []string{"file", "bbox", "intersects"} }
func (r filterRows) Row(i int) []string {
	return []string{r[i].file, r[i].bbox, strconv.FormatBool(r[i].intersects)}
}
