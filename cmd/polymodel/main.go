// polymodel - explore class hierarchies described in polymodel.toml files
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	"golang.org/x/term"

	"github.com/chazu/polymodel/manifest"
	"github.com/chazu/polymodel/model"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("polymodel")

var rootCmd = &cobra.Command{
	Use:   "polymodel",
	Short: "Polymorphic object model simulator",
	Long: `polymodel loads a class hierarchy from polymodel.toml and shows how calls
dispatch through it: dispatch tables, object layouts, call scenarios and
instance snapshots.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		logFile, _ := cmd.Flags().GetString("log")
		if logFile == "" {
			commonlog.Configure(verbosity, nil)
		} else {
			commonlog.Configure(verbosity, &logFile)
		}

		colorFlag, _ := cmd.Flags().GetString("color")
		switch colorFlag {
		case "on":
			color.NoColor = false
		case "off":
			color.NoColor = true
		case "auto":
			color.NoColor = !isTerminal(os.Stdout)
		default:
			return fmt.Errorf("unsupported color mode %q (must be auto, on or off)", colorFlag)
		}
		return nil
	},
}

func init() {
	rootCmd.Version = version

	rootCmd.AddCommand(tablesCmd)
	rootCmd.AddCommand(layoutCmd)
	rootCmd.AddCommand(describeCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().StringP("dir", "C", ".", "directory to search for polymodel.toml (walks up)")
	rootCmd.PersistentFlags().CountP("verbose", "v", "log verbosity (repeat for more)")
	rootCmd.PersistentFlags().String("log", "", "log to file instead of stderr")
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
}

// main executes the root command. Errors exit with status 1.
func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorColor.Sprint("error:"), err)
		if kind := model.ErrorKind(err); kind != "" {
			fmt.Fprintln(os.Stderr, dimColor.Sprint("kind: "+kind))
		}
		os.Exit(1)
	}
}

var (
	errorColor = color.New(color.FgRed, color.Bold)
	passColor  = color.New(color.FgGreen, color.Bold)
	warnColor  = color.New(color.FgYellow)
	nameColor  = color.New(color.FgCyan)
	dimColor   = color.New(color.Faint)
)

// isTerminal reports whether f is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// project is a loaded hierarchy file and its finalized registry.
type project struct {
	manifest *manifest.Manifest
	registry *model.Registry
}

func loadProject(cmd *cobra.Command) (*project, error) {
	dir, _ := cmd.Flags().GetString("dir")
	m, err := manifest.FindAndLoad(dir)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("no %s found in %s or its parents", manifest.FileName, dir)
	}
	r, err := manifest.Build(m)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m.Dir, err)
	}
	log.Infof("loaded %s from %s (%d classes)", m.Project.Name, m.Dir, r.Len())
	return &project{manifest: m, registry: r}, nil
}

// classesArg resolves class-name arguments, or every class when none are
// given.
func (p *project) classesArg(args []string) ([]*model.Class, error) {
	if len(args) == 0 {
		return p.registry.Classes(), nil
	}
	var out []*model.Class
	for _, name := range args {
		c := p.registry.Lookup(name)
		if c == nil {
			return nil, fmt.Errorf("%w: %s", model.ErrUnknownClass, name)
		}
		out = append(out, c)
	}
	return out, nil
}
