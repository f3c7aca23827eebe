package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newPageCmd(a *app) *cobra.Command {
	var name, pseudo string

	cmd := &cobra.Command{
		Use:   "page <file.html>",
		Short: "Print the @page cascade and its margin boxes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openDocument(cmd.Context(), args[0], a.cfg.Engine, a.logger())
			if err != nil {
				return err
			}
			info := s.matcher.PageCascadedStyle(name, pseudo)

			w := cmd.OutOrStdout()
			header := "@page"
			if name != "" {
				header += " " + name
			}
			if pseudo != "" {
				header += " :" + pseudo
			}
			fmt.Fprintln(w, header)
			writeDeclarations(w, "  ", info.Style)

			boxes := make([]string, 0, len(info.MarginBoxes))
			for box := range info.MarginBoxes {
				boxes = append(boxes, box)
			}
			sort.Strings(boxes)
			for _, box := range boxes {
				fmt.Fprintf(w, "  @%s\n", box)
				writeDeclarations(w, "    ", info.MarginBoxStyle(box))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "named page")
	cmd.Flags().StringVar(&pseudo, "pseudo-page", "", "pseudo-page: first, left, right or blank")
	return cmd
}
