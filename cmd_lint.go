package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"

	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/crillab/wmibo/wmibo"
)

// A lintResult is the outcome of reading one file.
type lintResult struct {
	path     string
	warnings []wmibo.Warning
	err      error
}

// styles for lint reports. They render as plain text when the output is not a terminal.
type styles struct {
	path, ok, warn, fail lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		path: r.NewStyle().Bold(true),
		ok:   r.NewStyle().Foreground(lipgloss.Color("2")),
		warn: r.NewStyle().Foreground(lipgloss.Color("3")),
		fail: r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
	}
}

func (a *app) lintCmd() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "lint FILE...",
		Short: "Check that instances are well formed",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			st := newStyles(w)
			results := a.lintAll(cmd.Context(), args, cmd.InOrStdin())
			for _, res := range results {
				printLint(w, st, res)
			}
			if watch {
				return a.watch(cmd.Context(), args, w, st)
			}
			return lintError(results)
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "lint files again each time they change, until interrupted")
	return cmd
}

// lintAll reads all files concurrently. Results are in the order of paths.
func (a *app) lintAll(ctx context.Context, paths []string, stdin io.Reader) []lintResult {
	results := make([]lintResult, len(paths))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			results[i] = a.lint(path, stdin)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (a *app) lint(path string, stdin io.Reader) lintResult {
	inst, err := a.load(path, stdin, nil)
	if err != nil {
		return lintResult{path: path, err: err}
	}
	return lintResult{path: path, warnings: inst.Warnings}
}

func printLint(w io.Writer, st styles, res lintResult) {
	name := st.path.Render(res.path)
	if res.err != nil {
		var fe *wmibo.FormatError
		if errors.As(res.err, &fe) {
			fmt.Fprintf(w, "%s: %s\n", name, st.fail.Render(fe.Error()))
		} else {
			fmt.Fprintf(w, "%s: %s\n", name, st.fail.Render(res.err.Error()))
		}
		return
	}
	switch len(res.warnings) {
	case 0:
		fmt.Fprintf(w, "%s: %s\n", name, st.ok.Render("ok"))
	case 1:
		fmt.Fprintf(w, "%s: %s\n", name, st.warn.Render("ok, 1 warning"))
	default:
		fmt.Fprintf(w, "%s: %s\n", name, st.warn.Render(fmt.Sprintf("ok, %d warnings", len(res.warnings))))
	}
	for _, warning := range res.warnings {
		fmt.Fprintf(w, "  %s\n", warning)
	}
}

// lintError returns the error matching the worst result: format errors first.
func lintError(results []lintResult) error {
	code := exitOK
	for _, res := range results {
		var fe *wmibo.FormatError
		switch {
		case res.err == nil:
		case errors.As(res.err, &fe):
			code = exitFormat
		case code == exitOK:
			code = exitFailed
		}
	}
	if code == exitOK {
		return nil
	}
	return &exitError{code: code}
}

// watch lints paths again each time they are written, until ctx is done.
// Directories are watched rather than files, as editors often replace files on save.
func (a *app) watch(ctx context.Context, paths []string, w io.Writer, st styles) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("could not watch files: %w", err)
	}
	defer func() { _ = watcher.Close() }()
	watched := make(map[string]string) // cleaned path -> path as given
	dirs := make(map[string]bool)
	for _, path := range paths {
		watched[filepath.Clean(path)] = path
		dir := filepath.Dir(path)
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("could not watch %q: %w", dir, err)
		}
		dirs[dir] = true
	}
	a.logger.Info("watching files", "files", len(paths))
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			path, found := watched[filepath.Clean(ev.Name)]
			if !found || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			printLint(w, st, a.lint(path, nil))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.logger.Warn("watch error", "error", err)
		}
	}
}
