// Command etl loads survey workbooks into the Postgres warehouse.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/config"
	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/core"
	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/logging"
	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/observability"
)

const (
	exitOK         = 0
	exitFailure    = 1
	exitUsage      = 2
	exitValidation = 3
	exitDB         = 4
)

// exitError carries the process exit code for an error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// codeForFailure maps a run failure kind to an exit code.
func codeForFailure(f *core.Failure) int {
	if f == nil {
		return exitOK
	}
	switch f.Kind {
	case core.KindExtract, core.KindSchemaMismatch, core.KindTransform,
		core.KindMalformedField, core.KindUnknownCategory:
		return exitValidation
	case core.KindIntegrityViolation, core.KindStore:
		return exitDB
	}
	return exitFailure
}

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// app is shared by every subcommand once the root pre-run has loaded it.
type app struct {
	cfg      *config.Config
	shutdown observability.Shutdown
}

// close flushes buffered spans. It is safe to call before the pre-run.
func (a *app) close() {
	if a.shutdown == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.shutdown(ctx); err != nil {
		slog.Warn("trace shutdown failed", "error", err)
	}
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}

	root := &cobra.Command{
		Use:           "etl",
		Short:         "Load survey workbooks into the warehouse",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Overload lets a local .env win over the shell environment.
			if err := godotenv.Overload(); err != nil {
				slog.Debug("no .env file found, using environment variables")
			}

			cfg, err := config.Load()
			if err != nil {
				return withCode(exitUsage, fmt.Errorf("load configuration: %w", err))
			}
			logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
			slog.Debug("configuration loaded", "config", cfg.String())
			a.cfg = cfg

			shutdown, err := observability.InitTracing(cmd.Context(), cfg.Tracing, version)
			if err != nil {
				return withCode(exitUsage, fmt.Errorf("init tracing: %w", err))
			}
			a.shutdown = shutdown
			return nil
		},
	}

	root.AddCommand(
		newLoadCmd(a),
		newInspectCmd(a),
		newMigrateCmd(a),
		newRunsCmd(a),
	)
	return root, a
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root, a := newRootCmd()
	err := root.ExecuteContext(ctx)
	a.close()
	if err == nil {
		return
	}

	code := exitFailure
	var ee *exitError
	if errors.As(err, &ee) {
		code = ee.code
	}
	if core.IsUserFacing(err) {
		fmt.Fprintln(os.Stderr, "error:", core.FormatUserError(err))
	} else {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	slog.Debug("command failed", "error", err)
	stop()
	os.Exit(code)
}
