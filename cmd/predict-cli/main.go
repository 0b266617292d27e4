package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/noah-isme/learning-intel-api/internal/models"
	"github.com/noah-isme/learning-intel-api/internal/service"
	"github.com/noah-isme/learning-intel-api/pkg/classifier"
	"github.com/noah-isme/learning-intel-api/pkg/config"
	"github.com/noah-isme/learning-intel-api/pkg/logger"
	"github.com/noah-isme/learning-intel-api/pkg/storage"
	"github.com/noah-isme/learning-intel-api/pkg/tabular"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	input  string
	output string
	format string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("predict-cli", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.input, "input", "", "Input CSV file (required)")
	fs.StringVar(&opts.output, "output", "", "Output file; results go to stdout when empty")
	fs.StringVar(&opts.format, "format", "json", "Output format: json, csv or pdf")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.input == "" {
		return opts, errors.New("-input is required")
	}
	return opts, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	logr := newLogger()
	defer logr.Sync() //nolint:errcheck

	if err := predict(context.Background(), opts, stdout, logr); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if opts.output != "" {
		fmt.Fprintf(stdout, "Results saved to %s\n", opts.output)
	}
	return 0
}

// newLogger keeps the CLI quiet unless LOG_LEVEL asks for more.
func newLogger() *zap.Logger {
	cfg, err := config.Load()
	if err != nil {
		return zap.NewNop()
	}
	if cfg.Log.Level == "info" {
		cfg.Log.Level = "warn"
	}
	l, err := logger.New(cfg, "predict-cli")
	if err != nil {
		return zap.NewNop()
	}
	return l
}

func predict(ctx context.Context, opts options, stdout io.Writer, logr *zap.Logger) error {
	format, err := models.ParseReportFormat(opts.format)
	if err != nil {
		return err
	}

	f, err := os.Open(opts.input)
	if err != nil {
		return err
	}
	defer f.Close()

	table, err := tabular.Decode(f)
	if err != nil {
		return err
	}

	model, err := classifier.NewDefault()
	if err != nil {
		return fmt.Errorf("fit completion model: %w", err)
	}
	svc := service.NewPredictionService(service.NewDataProcessor(), service.NewPredictor(model), nil, nil, nil, logr)

	result, err := svc.PredictBatch(ctx, service.SourceCLI, service.BatchFromTable(table))
	if err != nil {
		return err
	}
	payload, _, err := svc.Render(result, format)
	if err != nil {
		return err
	}

	if opts.output == "" {
		if _, err := stdout.Write(payload); err != nil {
			return err
		}
		if format == models.ReportFormatJSON {
			_, err = io.WriteString(stdout, "\n")
		}
		return err
	}
	return storage.WriteFile(opts.output, payload)
}
