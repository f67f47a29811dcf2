package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/crillab/wmibo/check"
	"github.com/crillab/wmibo/wmibo"
)

func (a *app) checkCmd() *cobra.Command {
	var solPath string
	cmd := &cobra.Command{
		Use:   "check FILE",
		Short: "Verify a solver output against an instance",
		Long: `Verify a solver output against an instance.

The output is read from --sol, or from stdin. Exit status is 0 if the
solution is valid, 1 if it is not, and 2 if the instance or the solution
cannot be parsed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inst, err := a.load(args[0], nil, nil)
			if err != nil {
				return err
			}
			var r io.Reader = cmd.InOrStdin()
			if solPath != "" {
				f, err := open(solPath, cmd.InOrStdin())
				if err != nil {
					return &exitError{code: exitFormat, err: err}
				}
				defer func() { _ = f.Close() }()
				r = f
			}
			sol, err := wmibo.ReadSolution(r)
			if err != nil {
				return &exitError{code: exitFormat, err: fmt.Errorf("could not parse solution: %w", err)}
			}
			report := check.Verify(inst, sol)
			if err := report.Print(cmd.OutOrStdout(), args[0]); err != nil {
				return err
			}
			if !report.OK() {
				a.logger.Debug("solution rejected", "failures", len(report.Failures))
				return &exitError{code: exitFailed}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&solPath, "sol", "", "solver output, instead of stdin")
	return cmd
}
