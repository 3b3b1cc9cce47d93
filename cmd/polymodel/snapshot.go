package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chazu/polymodel/store"
	"github.com/chazu/polymodel/wire"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Save, list, show and delete instance snapshots",
}

var snapshotSaveCmd = &cobra.Command{
	Use:   "save <call>",
	Short: "Construct the object of a call scenario and save its snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, s, err := openProjectStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		calls, err := selectCalls(p.manifest.Calls, args)
		if err != nil {
			return err
		}
		call := calls[0]
		inst, err := p.registry.New(call.Construct, call.Init.Init())
		if err != nil {
			return err
		}
		if err := s.Save(cmd.Context(), inst); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), inst.ID)
		return nil
	},
}

var snapshotListCmd = &cobra.Command{
	Use:   "list [class]",
	Short: "List stored snapshots",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, s, err := openProjectStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		class := ""
		if len(args) == 1 {
			class = args[0]
		}
		entries, err := s.List(cmd.Context(), class)
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s  %s\n",
				e.ID, nameColor.Sprint(e.Class), e.Phase, dimColor.Sprint(e.SavedAt.Format("2006-01-02 15:04:05")))
		}
		return nil
	},
}

var snapshotShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Restore a snapshot and print its segments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, s, err := openProjectStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		inst, err := s.Load(cmd.Context(), p.registry, args[0])
		if err != nil {
			return err
		}
		snap, err := inst.Snapshot()
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	},
}

var snapshotRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, s, err := openProjectStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()
		return s.Delete(cmd.Context(), args[0])
	},
}

func init() {
	snapshotCmd.AddCommand(snapshotSaveCmd)
	snapshotCmd.AddCommand(snapshotListCmd)
	snapshotCmd.AddCommand(snapshotShowCmd)
	snapshotCmd.AddCommand(snapshotRmCmd)
}

func openProjectStore(cmd *cobra.Command) (*project, *store.Store, error) {
	p, err := loadProject(cmd)
	if err != nil {
		return nil, nil, err
	}
	codec, err := wire.ByName(p.manifest.Snapshot.Codec)
	if err != nil {
		return nil, nil, err
	}
	s, err := store.Open(p.manifest.DatabasePath(), codec)
	if err != nil {
		return nil, nil, err
	}
	return p, s, nil
}
