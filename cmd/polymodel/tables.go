package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chazu/polymodel/model"
	"github.com/chazu/polymodel/wire"
)

var tablesFormat string

func init() {
	tablesCmd.Flags().StringVar(&tablesFormat, "format", "pretty", "output format (pretty|json)")
}

var tablesCmd = &cobra.Command{
	Use:   "tables [class...]",
	Short: "Print dispatch tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProject(cmd)
		if err != nil {
			return err
		}
		classes, err := p.classesArg(args)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch tablesFormat {
		case "json":
			var descs []wire.ClassDesc
			for _, c := range classes {
				descs = append(descs, wire.DescribeClass(c))
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(descs)
		case "pretty":
			for _, c := range classes {
				renderTable(out, c)
			}
			return nil
		}
		return fmt.Errorf("unsupported format %q (must be pretty or json)", tablesFormat)
	},
}

func renderTable(w io.Writer, c *model.Class) {
	header := c.Name
	var tags []string
	if model.IsInterface(c) {
		tags = append(tags, "interface")
	} else if model.IsAbstract(c) {
		tags = append(tags, "abstract")
	}
	if c.Final {
		tags = append(tags, "final")
	}
	if c.HasVirtualDestructor() {
		tags = append(tags, "virtual destructor")
	}
	if len(tags) > 0 {
		header += " " + dimColor.Sprint("("+strings.Join(tags, ", ")+")")
	}
	fmt.Fprintln(w, nameColor.Sprint(header))

	for _, e := range c.Table().Entries() {
		kind := "static "
		if e.Virtual {
			kind = "virtual"
		}
		switch {
		case e.Ambiguous:
			names := make([]string, len(e.Candidates))
			for i, k := range e.Candidates {
				names[i] = k.Name
			}
			fmt.Fprintf(w, "  %-3d %s %-24s %s\n", e.Selector, kind, e.Sig.Key(),
				warnColor.Sprint("ambiguous: "+strings.Join(names, ", ")))
		case e.Pure():
			fmt.Fprintf(w, "  %-3d %s %-24s %s\n", e.Selector, kind, e.Sig.Key(),
				errorColor.Sprint(e.Owner.Name+" (pure)"))
		default:
			owner := e.Owner.Name
			if e.Final {
				owner += " (final)"
			}
			fmt.Fprintf(w, "  %-3d %s %-24s %s\n", e.Selector, kind, e.Sig.Key(), owner)
		}
	}
	fmt.Fprintln(w)
}
