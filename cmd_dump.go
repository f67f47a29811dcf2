package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func (a *app) dumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump FILE",
		Short: "Print the validated content of an instance as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inst, err := a.load(args[0], cmd.InOrStdin(), nil)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(inst); err != nil {
				return fmt.Errorf("could not encode instance: %w", err)
			}
			return enc.Close()
		},
	}
}
