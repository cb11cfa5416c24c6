// Package cli wires the threadwork commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/kingrea/threadwork/internal/config"
	"github.com/kingrea/threadwork/internal/logging"
	"github.com/kingrea/threadwork/internal/metrics"
	"github.com/kingrea/threadwork/internal/tui"
	"github.com/kingrea/threadwork/procedure"
)

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "threadwork",
		Short: "threadwork - cooperative procedures for terminal programs",
		Long: `threadwork runs programs written as cooperative threads: each thread
modifies shared memory, pushes commands and suspends until an event resumes it.

Run 'threadwork init' to create .threadwork/config.yaml.
Run 'threadwork demo' to watch a board of concurrent transfers.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", ".", "Project directory holding .threadwork/")
	cmd.AddCommand(newInitCommand(&dir), newDemoCommand(&dir))
	return cmd
}

func projectDir(dir *string) (string, error) {
	abs, err := filepath.Abs(*dir)
	if err != nil {
		return "", fmt.Errorf("resolve project dir: %w", err)
	}
	return abs, nil
}

func newInitCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the .threadwork directory and a default config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := projectDir(dir)
			if err != nil {
				return err
			}
			if err := config.InitDir(root); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "initialized %s\n", filepath.Join(root, config.Dir))
			return nil
		},
	}
}

func newDemoCommand(dir *string) *cobra.Command {
	var (
		tick        time.Duration
		metricsAddr string
	)
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the transfer board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := projectDir(dir)
			if err != nil {
				return err
			}
			cfg, err := config.Load(root)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("tick") {
				cfg.Project.Demo.Tick = tick
			}
			if cmd.Flags().Changed("metrics-addr") {
				cfg.Project.Metrics.Enabled = true
				cfg.Project.Metrics.Addr = metricsAddr
			}
			return runDemo(cmd.Context(), cfg, cmd.ErrOrStderr())
		},
	}
	cmd.Flags().DurationVar(&tick, "tick", 0, "Override demo.tick")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	return cmd
}

func runDemo(ctx context.Context, cfg *config.Config, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger, err := logging.New(cfg.LogPath())
	if err != nil {
		return err
	}
	defer logger.Close()

	opts := tui.OptionsFromConfig(cfg)
	if cfg.Project.Log.Trace {
		opts.Engine = append(opts.Engine, procedure.WithLogger(logger))
	}
	if cfg.Project.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		opts.Engine = append(opts.Engine, procedure.WithObserver(metrics.New(reg)))
		stop := serveMetrics(cfg.Project.Metrics.Addr, reg, logger)
		defer stop()
	}

	logger.Info("demo: starting %d transfers (tick %s)", len(opts.Transfers), cfg.Project.Demo.Tick)
	prog := tea.NewProgram(tui.NewBoard(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := prog.Run(); err != nil {
		logger.Error("demo: %v", err)
		return fmt.Errorf("demo: run: %w", err)
	}
	logger.Info("demo: finished")
	fmt.Fprintf(out, "log written to %s\n", logger.Path())
	return nil
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *logging.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics: serve %s: %v", addr, err)
		}
	}()
	logger.Info("metrics: serving on %s/metrics", addr)
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("metrics: shutdown: %v", err)
		}
	}
}
