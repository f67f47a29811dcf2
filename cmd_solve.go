package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/crillab/wmibo/backend"
	"github.com/crillab/wmibo/wmibo"
)

// parseOverrides parses "key=value" flags.
func parseOverrides(opts []string) (map[string]string, error) {
	res := make(map[string]string, len(opts))
	for _, opt := range opts {
		key, val, ok := strings.Cut(opt, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid option %q, expected key=value", opt)
		}
		res[key] = val
	}
	return res, nil
}

func (a *app) solveCmd() *cobra.Command {
	var opts []string
	cmd := &cobra.Command{
		Use:   "solve FILE",
		Short: "Answer the queries of an instance",
		Long: `Answer the queries of an instance, "-" meaning stdin.

Count and explain queries are answered on comment lines, in file order.
The solve directive, or the default one, is answered last with the usual
s, o and v lines.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides, err := parseOverrides(opts)
			if err != nil {
				return err
			}
			inst, err := a.load(args[0], cmd.InOrStdin(), overrides)
			if err != nil {
				return err
			}
			return a.solve(cmd.Context(), args[0], inst, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringArrayVar(&opts, "opt", nil, "set option key=value, overriding the opt lines of the file")
	return cmd
}

// queriesOf returns the queries to run: non-solve ones in file order, then the solve directive.
func queriesOf(inst *wmibo.Instance) []wmibo.Query {
	var res []wmibo.Query
	for _, q := range inst.Queries {
		if !q.Kind.IsSolve() {
			res = append(res, q)
		}
	}
	return append(res, inst.EffectiveQuery())
}

func (a *app) backendOptions() (backend.Options, error) {
	engine, err := backend.ParseEngine(a.cfg.Engine)
	if err != nil {
		return backend.Options{}, err
	}
	return backend.Options{Engine: engine, CountLimit: a.cfg.CountLimit, Logger: a.logger}, nil
}

func (a *app) solve(ctx context.Context, path string, inst *wmibo.Instance, w io.Writer) error {
	opts, err := a.backendOptions()
	if err != nil {
		return err
	}
	if limit := inst.OptionNumber("time_limit", 0); limit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(limit*float64(time.Second)))
		defer cancel()
	}
	fmt.Fprintf(w, "c solving %s\n", path)
	for _, q := range queriesOf(inst) {
		start := time.Now()
		ans, err := backend.Run(ctx, inst, q, opts)
		outcome := "ok"
		switch {
		case errors.Is(err, backend.ErrUnsupported):
			a.logger.Warn("query not supported by the backends", "query", q.String(), "error", err)
			outcome = "unsupported"
		case errors.Is(err, backend.ErrSatisfiable):
			outcome = "satisfiable"
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
			a.logger.Warn("query interrupted", "query", q.String(), "error", err)
			outcome = "interrupted"
		case err != nil:
			return fmt.Errorf("could not answer %q: %w", q, err)
		}
		a.logger.Debug("query answered", "query", q.String(), "outcome", outcome, "duration", time.Since(start))
		switch q.Kind {
		case wmibo.CountProj:
			writeCount(w, ans, outcome)
		case wmibo.ExplainMUS:
			writeMUS(w, ans, outcome)
		default:
			if outcome == "ok" {
				outcome = strings.ToLower(ans.Solution.Status.String())
			}
			if err := wmibo.WriteSolution(w, inst, ans.Solution); err != nil {
				return fmt.Errorf("could not write solution: %w", err)
			}
		}
		a.metrics.answered(q.Kind.String(), outcome)
	}
	return nil
}

func writeCount(w io.Writer, ans backend.Answer, outcome string) {
	switch {
	case outcome != "ok":
		fmt.Fprintf(w, "c count unknown\n")
	case ans.Exact:
		fmt.Fprintf(w, "c count %s\n", ans.Count)
	default:
		fmt.Fprintf(w, "c count >= %s\n", ans.Count)
	}
}

func writeMUS(w io.Writer, ans backend.Answer, outcome string) {
	switch outcome {
	case "ok":
		lines := make([]string, len(ans.MUS))
		for i, c := range ans.MUS {
			lines[i] = fmt.Sprint(c.Line)
		}
		fmt.Fprintf(w, "c mus %s\n", strings.Join(lines, " "))
	case "satisfiable":
		fmt.Fprintf(w, "c mus none, hard clauses are satisfiable\n")
	default:
		fmt.Fprintf(w, "c mus unknown\n")
	}
}
