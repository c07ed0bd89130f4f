package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"opsched/internal/metrics"
)

var serveAddr string

var serveMetricsCmd = &cobra.Command{
	Use:   "serve-metrics",
	Short: "Expose Prometheus metrics over HTTP",
	RunE:  runServeMetrics,
}

func init() {
	serveMetricsCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address; empty uses metrics.addr from the config")
	rootCmd.AddCommand(serveMetricsCmd)
}

func runServeMetrics(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := loadApp("metrics")
	if err != nil {
		return err
	}
	// register the engine series so they show up before the first call
	if _, err := metrics.NewPromSink(); err != nil {
		return err
	}
	addr := serveAddr
	if addr == "" {
		addr = a.cfg.Metrics.Addr
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(nil))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		a.log.Infof("serving metrics on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
