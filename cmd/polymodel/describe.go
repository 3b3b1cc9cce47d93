package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chazu/polymodel/wire"
)

var (
	describeOut   string
	describeCodec string
)

func init() {
	describeCmd.Flags().StringVarP(&describeOut, "out", "o", "", "write the encoded description to this file")
	describeCmd.Flags().StringVar(&describeCodec, "codec", "", "codec for --out (cbor|msgpack; default from polymodel.toml)")
}

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Print the hierarchy digest and optionally export its description",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProject(cmd)
		if err != nil {
			return err
		}
		desc, err := wire.Describe(p.registry)
		if err != nil {
			return err
		}
		digest, err := wire.Digest(desc)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%d classes)\n",
			nameColor.Sprint(p.manifest.Project.Name), digest, len(desc.Classes))

		if describeOut == "" {
			return nil
		}
		name := describeCodec
		if name == "" {
			name = p.manifest.Snapshot.Codec
		}
		codec, err := wire.ByName(name)
		if err != nil {
			return err
		}
		data, err := wire.MarshalRegistry(codec, desc)
		if err != nil {
			return err
		}
		if err := os.WriteFile(describeOut, data, 0644); err != nil {
			return err
		}
		log.Infof("wrote %d bytes to %s", len(data), describeOut)
		return nil
	},
}
