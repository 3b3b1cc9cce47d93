package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chazu/polymodel/manifest"
	"github.com/chazu/polymodel/model"
)

var runTrace bool

func init() {
	runCmd.Flags().BoolVar(&runTrace, "trace", false, "print each call's construction and destruction events")
}

var runCmd = &cobra.Command{
	Use:   "run [call...]",
	Short: "Run the call scenarios of polymodel.toml",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProject(cmd)
		if err != nil {
			return err
		}
		calls, err := selectCalls(p.manifest.Calls, args)
		if err != nil {
			return err
		}
		results, err := manifest.Run(p.registry, calls)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		failed := 0
		for _, res := range results {
			status := passColor.Sprint("PASS")
			if !res.Pass {
				status = errorColor.Sprint("FAIL")
				failed++
			}
			fmt.Fprintf(out, "%s %s: %s\n", status, res.Label, describeOutcome(res))
			if runTrace {
				for _, ev := range res.Trace {
					fmt.Fprintf(out, "     %s\n", dimColor.Sprint(ev))
				}
			}
			for _, path := range res.Leaked {
				fmt.Fprintf(out, "     %s\n", warnColor.Sprint("leaked "+path))
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d calls failed", failed, len(results))
		}
		return nil
	},
}

func describeOutcome(res manifest.Result) string {
	call := res.Call
	target := call.View + "::" + call.Method
	if call.Qualified != "" {
		target = call.View + " -> " + call.Qualified + "::" + call.Method
	}
	if res.Err != nil {
		s := fmt.Sprintf("%s raised %v", target, res.Err)
		if kind := model.ErrorKind(res.Err); kind != "" && call.ExpectError != "" && kind != call.ExpectError {
			s += fmt.Sprintf(" (expected %s)", call.ExpectError)
		}
		return s
	}
	s := fmt.Sprintf("%s = %v", target, res.Got)
	if !res.Pass {
		if call.ExpectError != "" {
			s += fmt.Sprintf(" (expected %s)", call.ExpectError)
		} else {
			s += fmt.Sprintf(" (expected %v)", call.Expect)
		}
	}
	return s
}

// selectCalls picks the named calls, or all of them when names is empty.
func selectCalls(calls []manifest.Call, names []string) ([]manifest.Call, error) {
	if len(names) == 0 {
		return calls, nil
	}
	var out []manifest.Call
	for _, name := range names {
		found := false
		for _, c := range calls {
			if c.Name == name {
				out = append(out, c)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("no call named %q", name)
		}
	}
	return out, nil
}
