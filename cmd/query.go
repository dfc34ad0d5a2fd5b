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
	"b00m.in/landgrid/geometry"
	"b00m.in/landgrid/ui"
)

// queryCmd represents the query command
var queryCmd = &cobra.Command{
	Use:   "query <x> <y>",
	Short: "Find the address points and parcels at a location",
	Long: `Query the cached collections at a cartesian location. A record matches when its
bounding box, grown by the tolerance, holds the point and its geometry does too. For example:

landgrid query 1000.5 2000.25
landgrid query 1000.5 2000.25 --tol 0.5
landgrid query -- -8366000 4858000`,
	Args: util.Validate,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := parsePoint(args[0], args[1])
		if err != nil {
			return err
		}
		tol, _ := cmd.Flags().GetFloat64("tol")

		c := openCatalog(cmd)
		hits := c.Query(p, tol)
		c.Select(hits)

		out := cmd.OutOrStdout()
		if hits.Empty() {
			fmt.Fprintf(out, "nothing at %g,%g\n", p.X, p.Y)
			return nil
		}
		for _, part := range []struct {
			kind string
			idx  []int
		}{
			{catalog.KindAddressPoints, hits.AddressPoints},
			{catalog.KindParcels, hits.Parcels},
		} {
			if len(part.idx) == 0 {
				continue
			}
			t, err := c.TableFor(part.kind)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s: %d\n", part.kind, len(part.idx))
			if err := ui.RenderTable(out, subset{Table: t, idx: part.idx}, 0); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().Float64P("tol", "t", 0, "tolerance added to every bounding box")
}

func parsePoint(xs, ys string) (geometry.Point, error) {
	x, err := strconv.ParseFloat(xs, 64)
	if err != nil {
		return geometry.Point{}, fmt.Errorf("bad x %q: %w", xs, err)
	}
	y, err := strconv.ParseFloat(ys, 64)
	if err != nil {
		return geometry.Point{}, fmt.Errorf("bad y %q: %w", ys, err)
	}
	return geometry.Point{X: x, Y: y}, nil
}
