package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var layoutCmd = &cobra.Command{
	Use:   "layout [class...]",
	Short: "Print object layouts in construction order",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProject(cmd)
		if err != nil {
			return err
		}
		classes, err := p.classesArg(args)
		if err != nil {
			return err
		}
		plans, err := p.registry.PlanAll(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, c := range classes {
			fmt.Fprintln(out, nameColor.Sprint(c.Name))
			for _, sp := range plans[c.Name].Segments {
				depth := strings.Count(sp.Path, "/")
				line := strings.Repeat("  ", depth+1) + sp.Path
				if sp.Shared {
					line += " " + warnColor.Sprint("(shared)")
				}
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out)
		}
		return nil
	},
}
