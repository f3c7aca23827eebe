package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"saucer/pkg/css"
	"saucer/pkg/html"
)

func newStylesCmd(a *app) *cobra.Command {
	var id string
	var pseudos []string

	cmd := &cobra.Command{
		Use:   "styles <file.html>",
		Short: "Print the cascaded style of every element",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openDocument(cmd.Context(), args[0], a.cfg.Engine, a.logger())
			if err != nil {
				return err
			}

			elements := s.doc.Elements()
			if id != "" {
				n := s.doc.ElementByID(id)
				if n == nil {
					return fmt.Errorf("no element with id %q", id)
				}
				elements = []html.NodeID{n.ID}
			}
			styles, err := s.matcher.Restyle(cmd.Context(), elements, a.cfg.Engine.Workers)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for i, e := range elements {
				fmt.Fprintln(w, label(s.doc.Node(e)))
				writeDeclarations(w, "  ", styles[i])
				for _, pe := range pseudos {
					if pes := s.matcher.PECascadedStyle(e, pe); pes != nil {
						fmt.Fprintf(w, "  ::%s\n", pe)
						writeDeclarations(w, "    ", pes)
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "only print the element with this id")
	cmd.Flags().StringSliceVar(&pseudos, "pseudo", nil, "pseudo-elements to print as well, e.g. before,after")
	return cmd
}

// label names an element the way a selector would: tag#id.class.
func label(n *html.Node) string {
	var sb strings.Builder
	sb.WriteString(n.TagName)
	if id, ok := n.GetAttribute("id"); ok && id != "" {
		sb.WriteString("#" + id)
	}
	if class, ok := n.GetAttribute("class"); ok {
		for _, c := range strings.Fields(class) {
			sb.WriteString("." + c)
		}
	}
	return sb.String()
}

func writeDeclarations(w io.Writer, indent string, c *css.CascadedStyle) {
	for _, d := range c.Declarations() {
		important := ""
		if d.Important {
			important = " !important"
		}
		fmt.Fprintf(w, "%s%s: %s%s (%s)\n", indent, d.Name, d.Value, important, d.Origin)
	}
}
