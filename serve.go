package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/valyala/fasthttp"

	"benefit-calculator/internal/camunda"
	"benefit-calculator/internal/engine"
	"benefit-calculator/internal/handler"
	"benefit-calculator/internal/metrics"
	"benefit-calculator/internal/waitpolicy"
)

func serveCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the start-process and complete-task API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(g)
			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			m := metrics.New(reg)

			engineClient := camunda.New(camunda.Config{BaseURL: cfg.Camunda.BaseURL, Timeout: cfg.Camunda.Timeout}, logger)
			svc, err := engine.New(engineClient, engine.Config{
				ProcessKey:             cfg.Process.DefinitionKey,
				RequiredFieldsVariable: cfg.Process.RequiredFieldsVariable,
				FieldCacheSize:         cfg.Process.FieldCacheSize,
			},
				engine.WithWaiter(waitpolicy.New(cfg.Wait)),
				engine.WithMetrics(m),
				engine.WithLogger(logger),
			)
			if err != nil {
				return err
			}

			h := handler.New(svc,
				handler.WithMetrics(m, metrics.Handler(reg)),
				handler.WithLogger(logger),
				handler.WithVersion(version),
			)
			// A completion waits for the subprocess, so writes must outlast the budget.
			writeTimeout := cfg.Wait.Budget + 2*cfg.Camunda.Timeout
			srv := &fasthttp.Server{
				Handler:      h.Handle,
				Name:         "benefit-calculator",
				ReadTimeout:  30 * time.Second,
				WriteTimeout: writeTimeout,
				IdleTimeout:  90 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				logger.Info("benefit calculator starting", "addr", cfg.Addr(), "engine", cfg.Camunda.BaseURL, "process_key", cfg.Process.DefinitionKey, "version", version)
				errCh <- srv.ListenAndServe(cfg.Addr())
			}()

			select {
			case err := <-errCh:
				return fmt.Errorf("server failed: %w", err)
			case <-ctx.Done():
			}
			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			defer cancel()
			return srv.ShutdownWithContext(shutdownCtx)
		},
	}
}
