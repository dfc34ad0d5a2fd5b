/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"b00m.in/landgrid/catalog"
	"b00m.in/landgrid/cmd/util"
	"b00m.in/landgrid/ui"
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <kind>",
	Short: "Print a cached collection as a table",
	Long: `Print the rows of one cached collection: addresses, points or parcels. For example:

landgrid show parcels --limit 10
landgrid show points --limit 0`,
	Args: util.Validate,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		c := openCatalog(cmd)
		t, err := c.TableFor(args[0])
		if err != nil {
			return err
		}
		if t.Len() == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "no %s cached, run landgrid build first\n", args[0])
			return nil
		}
		return ui.RenderTable(cmd.OutOrStdout(), t, limit)
	},
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().IntP("limit", "l", 20, "rows to print (0 for all)")
}

// subset is the rows of t at the given indexes.
type subset struct {
	catalog.Table
	idx []int
}

func (s subset) Len() int           { return len(s.idx) }
func (s subset) Row(i int) []string { return s.Table.Row(s.idx[i]) }
