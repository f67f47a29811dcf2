// Command wmibo reads WMIBO v1.0 instances and answers their queries.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"time"

	"github.com/spf13/cobra"

	"github.com/crillab/wmibo/logging"
	"github.com/crillab/wmibo/wmibo"
)

// Exit codes.
const (
	exitOK     = 0
	exitFailed = 1
	exitFormat = 2
)

// An exitError makes the command exit with a given code.
// If err is nil, nothing is reported on stderr.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// exitCode returns the exit code for the error returned by a command.
func exitCode(err error) int {
	var ee *exitError
	var fe *wmibo.FormatError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &ee):
		return ee.code
	case errors.As(err, &fe):
		return exitFormat
	default:
		return exitFailed
	}
}

// app holds what is shared by all commands.
type app struct {
	stdout, stderr io.Writer

	cfgPath     string
	logLevel    string
	logFormat   string
	metricsFile string

	cfg     Config
	logger  *slog.Logger
	metrics *metrics
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr, metrics: newMetrics()}
}

// setup loads the configuration and builds the logger. Flags win over the configuration file.
func (a *app) setup() error {
	cfg, err := loadConfig(a.cfgPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	if a.metricsFile != "" {
		cfg.MetricsFile = a.metricsFile
	}
	lvl, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(cfg.Log.Format)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logging.New(logging.Config{Level: lvl, Format: format, Output: a.stderr})
	return nil
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "wmibo",
		Short:         "Read WMIBO v1.0 instances and answer their queries",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgPath, "config", "", "YAML configuration file")
	flags.StringVar(&a.logLevel, "log-level", "", "minimum log level: debug, info, warn or error")
	flags.StringVar(&a.logFormat, "log-format", "", "log format: auto, text or json")
	flags.StringVar(&a.metricsFile, "metrics-file", "", "write metrics to this file, in the node exporter textfile format")
	root.AddCommand(a.solveCmd(), a.lintCmd(), a.checkCmd(), a.dumpCmd())
	return root
}

// run executes the command line args and returns the exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := newApp(stdout, stderr)
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	err := root.ExecuteContext(ctx)
	if a.cfg.MetricsFile != "" {
		if merr := a.metrics.write(a.cfg.MetricsFile); merr != nil && a.logger != nil {
			a.logger.Error("could not write metrics", "path", a.cfg.MetricsFile, "error", merr)
		}
	}
	code := exitCode(err)
	var ee *exitError
	if err != nil && !(errors.As(err, &ee) && ee.err == nil) {
		fmt.Fprintf(stderr, "wmibo: %v\n", err)
	}
	return code
}

// open opens path, "-" meaning stdin.
func open(path string, stdin io.Reader) (io.ReadCloser, error) {
	if path == "-" {
		if stdin == nil {
			return nil, errors.New("stdin is not available")
		}
		return io.NopCloser(stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open %q: %w", path, err)
	}
	return f, nil
}

// load reads the instance in path, with option overrides, and records metrics.
func (a *app) load(path string, stdin io.Reader, overrides map[string]string) (*wmibo.Instance, error) {
	start := time.Now()
	f, err := open(path, stdin)
	if err != nil {
		a.metrics.loaded("io_error", time.Since(start))
		return nil, err
	}
	defer func() { _ = f.Close() }()
	inst, err := wmibo.Load(f,
		wmibo.WithDefaults(a.cfg.Options),
		wmibo.WithOverrides(overrides),
		wmibo.WithLogger(a.logger.With("file", path)))
	if err != nil {
		a.metrics.loaded("format_error", time.Since(start))
		return nil, fmt.Errorf("could not parse %q: %w", path, err)
	}
	a.metrics.loaded("ok", time.Since(start))
	return inst, nil
}

func main() {
	debug.SetGCPercent(300)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
