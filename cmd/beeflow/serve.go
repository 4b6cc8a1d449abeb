package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/hupe1980/beeflow/observe"
	"github.com/hupe1980/beeflow/server"
	"github.com/hupe1980/beeflow/workflow"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the bundled workflows over HTTP",
	Long:  `Starts an HTTP server exposing the registered workflows as a JSON API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			a.cfg.Server.Addr = addr
		}
		if on, _ := cmd.Flags().GetBool("metrics"); on {
			a.cfg.Telemetry.Metrics = true
		}

		var (
			extra    []workflow.Observer
			gatherer prometheus.Gatherer
		)
		if a.cfg.Telemetry.Metrics {
			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			m, err := observe.NewMetrics(reg)
			if err != nil {
				return err
			}
			extra = append(extra, m)
			gatherer = reg
		}

		rt, err := a.runtime(extra...)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr: a.cfg.Server.Addr,
			Handler: server.NewHandler(rt, func(o *server.Options) {
				o.Gatherer = gatherer
				o.MetricsPath = a.cfg.Telemetry.MetricsPath
				o.Logger = a.logger
			}),
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			a.logger.Info("server.start", "addr", srv.Addr, "workflows", rt.Names())
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server: %w", err)

		case sig := <-shutdown:
			a.logger.Info("server.shutdown", "signal", sig.String())

			ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				a.logger.Warn("server.shutdown.incomplete", "error", err)
				return srv.Close()
			}
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (default from config, :8080)")
	serveCmd.Flags().Bool("metrics", false, "Expose Prometheus metrics")
}
