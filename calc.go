package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"benefit-calculator/internal/client"
	"benefit-calculator/internal/export"
	"benefit-calculator/internal/model"
	"benefit-calculator/internal/session"
	"benefit-calculator/internal/wizard"
)

type calcOptions struct {
	memberPath string
	valuesPath string
	format     string
	apiBaseURL string
	timeout    time.Duration
}

func calcCmd(g *globalFlags) *cobra.Command {
	var opts calcOptions
	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Run one calculation through the API without the interactive wizard",
		Long: `Starts a process with the member data file, answers the required
fields from the values file and prints the calculation result.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(g)
			if err != nil {
				return err
			}
			if opts.apiBaseURL == "" {
				opts.apiBaseURL = cfg.Client.APIBaseURL
			}
			if opts.timeout == 0 {
				opts.timeout = cfg.Client.Timeout
			}
			return runCalc(cmd.Context(), opts, cmd.OutOrStdout(), logger)
		},
	}
	cmd.Flags().StringVar(&opts.memberPath, "member", "", "JSON file with the member and plan data")
	cmd.Flags().StringVar(&opts.valuesPath, "values", "", "JSON file with the calculation factors, keyed by field id")
	cmd.Flags().StringVarP(&opts.format, "output", "o", "json", "Output format (json, csv)")
	cmd.Flags().StringVar(&opts.apiBaseURL, "api", "", "API base URL; overrides API_BASE_URL")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Per-request timeout")
	_ = cmd.MarkFlagRequired("member")
	return cmd
}

func runCalc(ctx context.Context, opts calcOptions, out io.Writer, logger *slog.Logger) error {
	if opts.format != "json" && opts.format != "csv" {
		return fmt.Errorf("unknown output format %q", opts.format)
	}
	var member model.StartProcessRequest
	if err := readJSON(opts.memberPath, &member); err != nil {
		return err
	}
	values := map[string]any{}
	if opts.valuesPath != "" {
		if err := readJSON(opts.valuesPath, &values); err != nil {
			return err
		}
	}

	c := client.New(client.Config{BaseURL: opts.apiBaseURL, Timeout: opts.timeout},
		client.WithLogger(logger),
		client.WithNotifier(client.LogNotifier{Logger: logger}),
	)
	w := wizard.New(c, session.NewStore(), logger)
	w.SetMemberData(member)

	started, err := w.Start(ctx)
	if err != nil {
		return fmt.Errorf("start process: %w", err)
	}
	for _, f := range started.RequiredFields {
		if v, ok := values[f.ID]; ok {
			w.SetValue(f.ID, v)
		}
	}

	result, err := w.Submit(ctx)
	if errors.Is(err, wizard.ErrFormInvalid) {
		return fmt.Errorf("%w:\n%s", err, formatFieldErrors(w.VisibleErrors()))
	}
	if err != nil {
		return fmt.Errorf("submit calculation: %w", err)
	}

	if opts.format == "csv" {
		return export.WriteCSV(out, *result)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func readJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func formatFieldErrors(errs map[string]string) string {
	ids := make([]string, 0, len(errs))
	for id := range errs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	var b strings.Builder
	for _, id := range ids {
		fmt.Fprintf(&b, "  %s: %s\n", id, errs[id])
	}
	return strings.TrimRight(b.String(), "\n")
}
