package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/wordtracker/internal/reporter"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/internal/snapshot"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/internal/tracker"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/metrics"
)

const usageLine = "Usage: wordtracker [-config path] <input.txt> -pf|-pl|-po [-f<output.txt>]"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("wordtracker", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to config file")
	fs.Usage = func() {
		fmt.Fprintln(stderr, usageLine)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return apperrors.ExitOK
		}
		return apperrors.ExitUsage
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fmt.Fprintln(stderr, usageLine)
		fmt.Fprintln(stderr, "Example: wordtracker test1.txt -pf -foutput.txt")
		return apperrors.ExitUsage
	}
	if len(rest) == 1 {
		fmt.Fprintln(stderr, "Please specify what you want printed using -pf/-pl/-po")
		fmt.Fprintf(stderr, "Example: wordtracker %s -pl\n", rest[0])
		return apperrors.ExitUsage
	}
	mode, err := reporter.ParseMode(strings.TrimSpace(rest[1]))
	if err != nil {
		return fail(stderr, err)
	}
	output, err := outputPath(rest[2:])
	if err != nil {
		return fail(stderr, err)
	}
	inputs, err := expandInputs(strings.TrimSpace(rest[0]))
	if err != nil {
		return fail(stderr, err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return apperrors.ExitFailure
	}
	logger.SetupWriter(stderr, cfg.Logging.Level, cfg.Logging.Format)

	compression, err := snapshot.ParseCompression(cfg.Snapshot.Compression)
	if err != nil {
		return fail(stderr, err)
	}
	onCorrupt, err := snapshot.ParseCorruptPolicy(cfg.Snapshot.OnCorrupt)
	if err != nil {
		return fail(stderr, err)
	}

	openCtx, cancelOpen := ctx, context.CancelFunc(func() {})
	if cfg.Snapshot.Timeout > 0 {
		openCtx, cancelOpen = context.WithTimeout(ctx, cfg.Snapshot.Timeout)
	}
	store, closeStore, err := snapshot.Open(openCtx, cfg)
	cancelOpen()
	if err != nil {
		return fail(stderr, err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			slog.Warn("closing snapshot store", "error", err)
		}
	}()

	m := metrics.New()
	opts := tracker.Options{
		Snapshots: snapshot.NewManager(store, snapshot.Options{
			Compression: compression,
			OnCorrupt:   onCorrupt,
			Timeout:     cfg.Snapshot.Timeout,
			Metrics:     m,
		}),
		Metrics: m,
		Stdout:  stdout,
	}
	if cfg.Metrics.Enabled {
		opts.MetricsTextfile = cfg.Metrics.Textfile
	}
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.IndexComplete)
		defer producer.Close()
		opts.Publisher = producer
	}

	res, err := tracker.New(opts).Run(ctx, tracker.Request{
		Inputs:     inputs,
		Mode:       mode,
		OutputPath: output,
	})
	if err != nil {
		return fail(stderr, err)
	}
	slog.Debug("run complete", "run_id", res.RunID, "words", res.IndexSize)
	return apperrors.ExitOK
}

// outputPath accepts "<file>", "-f<file>" or "-f <file>".
func outputPath(args []string) (string, error) {
	if len(args) == 0 {
		return "", nil
	}
	first := strings.TrimSpace(args[0])
	switch {
	case first == "-f":
		if len(args) < 2 {
			return "", apperrors.New(apperrors.ErrUsage, apperrors.ExitUsage, "-f requires an output file")
		}
		return strings.TrimSpace(args[1]), nil
	case strings.HasPrefix(first, "-f"):
		return strings.TrimPrefix(first, "-f"), nil
	default:
		return first, nil
	}
}

// expandInputs treats an input containing glob metacharacters as a pattern.
// A pattern with no matches is passed through so the run reports it as
// missing.
func expandInputs(input string) ([]string, error) {
	if !strings.ContainsAny(input, "*?[") {
		return []string{input}, nil
	}
	matches, err := filepath.Glob(input)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrUsage, apperrors.ExitUsage, "bad input pattern %q", input)
	}
	if len(matches) == 0 {
		return []string{input}, nil
	}
	return matches, nil
}

func fail(stderr io.Writer, err error) int {
	var appErr *apperrors.AppError
	switch {
	case errors.Is(err, apperrors.ErrInputNotFound) && errors.As(err, &appErr):
		fmt.Fprintf(stderr, "Error: %s\n", appErr.Message)
	case errors.Is(err, apperrors.ErrInvalidMode) && errors.As(err, &appErr):
		fmt.Fprintf(stderr, "Invalid option: %s\n", appErr.Message)
		fmt.Fprintln(stderr, usageLine)
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return apperrors.ExitCode(err)
}
