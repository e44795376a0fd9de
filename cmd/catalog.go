// File: cmd/catalog.go
package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/autosign/internal/catalog"
)

func newCatalogCmd() *cobra.Command {
	var (
		week  string
		plain bool
	)
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Print the numbered event list for a schedule week",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Load(week)
			if err != nil {
				return err
			}
			if plain {
				return cat.Print(cmd.OutOrStdout())
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetTitle("Week %s", cat.Week())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"#", "Event"})
			for i := 1; i <= cat.Len(); i++ {
				t.AppendRow(table.Row{fmt.Sprintf("%02d", i), cat.LabelOr(i, "")})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().StringVarP(&week, "week", "w", "A", "schedule week (A or B)")
	cmd.Flags().BoolVar(&plain, "plain", false, "print one 'NN: label' line per event")
	return cmd
}
