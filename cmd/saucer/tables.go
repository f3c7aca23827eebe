package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"saucer/pkg/css"
	"saucer/pkg/layout"
	"saucer/pkg/text"
)

func newTablesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tables <file.html>",
		Short: "Lay out every table and print its column positions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := a.logger()
			s, err := openDocument(cmd.Context(), args[0], a.cfg.Engine, log)
			if err != nil {
				return err
			}

			e := layout.NewEngine(s.doc, s.matcher,
				layout.WithLogger(log),
				layout.WithMeasurer(text.NewMeasurer(a.cfg.Engine.FontFile, log)),
				layout.WithViewportWidth(a.cfg.Engine.ViewportWidth),
				layout.WithWorkers(a.cfg.Engine.Workers),
			)
			results, err := e.LayoutTables(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(w, "no tables")
				return nil
			}
			for _, r := range results {
				fmt.Fprintf(w, "%s strategy=%s columns=%d min=%d max=%s width=%d\n",
					label(s.doc.Node(r.Element)), r.Strategy, r.Table.NumEffCols(),
					r.MinWidth, maxLabel(r.MaxWidth), r.Width)
				fmt.Fprintf(w, "  columnPos %v\n", r.ColumnPos)
			}
			return nil
		},
	}
}

func maxLabel(w int) string {
	if w >= css.MaxWidth {
		return "unbounded"
	}
	return strconv.Itoa(w)
}
