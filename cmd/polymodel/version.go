package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "0.1.0-dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the polymodel version",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "polymodel %s\n", nameColor.Sprint(version))
		if info, ok := debug.ReadBuildInfo(); ok {
			fmt.Fprintf(out, "%s\n", dimColor.Sprint(info.GoVersion))
			for _, s := range info.Settings {
				if s.Key == "vcs.revision" {
					fmt.Fprintf(out, "%s\n", dimColor.Sprint("commit "+s.Value))
				}
			}
		}
		return nil
	},
}
