package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"opsched/internal/action"
	"opsched/internal/config"
	"opsched/internal/logger"
	"opsched/internal/metrics"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "opsched",
	Short:         "Operation sequencing and shop scheduling",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json)")
}

// Execute runs the CLI. SIGINT and SIGTERM cancel the running command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

type app struct {
	cfg  *config.Config
	log  logger.Logger
	sink metrics.Sink
}

func loadApp(component string) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	name := cfg.Logging.Component
	if component != "" {
		name = name + "-" + component
	}
	a := &app{
		cfg:  cfg,
		log:  logger.NewZerologLogger(name, cfg.Logging.Level),
		sink: metrics.NopSink{},
	}
	if cfg.Metrics.Enabled {
		sink, err := metrics.NewPromSink()
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		a.sink = sink
	}
	return a, nil
}

func (a *app) dispatcher() *action.Dispatcher {
	return action.New(*a.cfg, action.WithLogger(a.log), action.WithMetrics(a.sink))
}

// call runs an action and prints its result. An ErrorResult is printed too
// and turned into a command error.
func (a *app) call(cmd *cobra.Command, name string, params map[string]any) error {
	out, err := a.dispatcher().Call(cmd.Context(), name, params)
	if err != nil {
		return err
	}
	if err := writeJSON(cmd.OutOrStdout(), out); err != nil {
		return err
	}
	if er, ok := out.(action.ErrorResult); ok {
		return fmt.Errorf("%s: %s", name, er.Error)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
