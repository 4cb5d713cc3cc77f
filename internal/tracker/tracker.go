// Package tracker runs one word tracker invocation: it hydrates the index
// from the snapshot store, folds the input sources into it, renders the
// requested report, persists the index and announces the result.
package tracker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/wordtracker/internal/index"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/internal/reporter"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/internal/snapshot"
	apperrors "github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/tracing"
)

// Publisher announces finished runs. *kafka.Producer satisfies it.
type Publisher interface {
	Publish(ctx context.Context, event kafka.Event) error
}

// IndexCompleted is published after the index has been persisted.
type IndexCompleted struct {
	RunID       string    `json:"run_id"`
	Sources     []string  `json:"sources"`
	Mode        string    `json:"mode"`
	Lines       int       `json:"lines"`
	Tokens      int       `json:"tokens"`
	NewWords    int       `json:"new_words"`
	IndexSize   int       `json:"index_size"`
	IndexHeight int       `json:"index_height"`
	CompletedAt time.Time `json:"completed_at"`
}

// Request describes one run.
type Request struct {
	Inputs     []string
	Mode       reporter.Mode
	OutputPath string
}

// Result summarises a run.
type Result struct {
	RunID     string
	Stats     []indexer.ParseStats
	IndexSize int
	// OutputCreated is true when OutputPath did not exist before the run.
	OutputCreated bool
}

// Options configure a Tracker.
type Options struct {
	Snapshots *snapshot.Manager
	Metrics   *metrics.Metrics
	// Publisher may be nil.
	Publisher Publisher
	// Stdout receives the rendered report.
	Stdout io.Writer
	// MetricsTextfile, if set, receives the run's metrics.
	MetricsTextfile string
}

// Tracker executes runs.
type Tracker struct {
	opts Options
}

// New creates a Tracker.
func New(opts Options) *Tracker {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	return &Tracker{opts: opts}
}

// Run executes req. Input files are checked before the index is touched. A
// failure to write the output file is reported after the index has still
// been persisted.
func (t *Tracker) Run(ctx context.Context, req Request) (Result, error) {
	res := Result{RunID: uuid.NewString()}
	ctx = logger.WithRunID(ctx, res.RunID)
	log := logger.FromContext(ctx).With("component", "tracker")
	ctx, span := tracing.StartSpan(ctx, "run", res.RunID)
	defer func() {
		span.End()
		span.Log(log)
	}()

	err := t.run(ctx, req, &res, log)
	status := "ok"
	if err != nil {
		status = "error"
	}
	t.opts.Metrics.RunsTotal.WithLabelValues(status).Inc()
	if t.opts.MetricsTextfile != "" {
		if mErr := t.opts.Metrics.WriteTextfile(t.opts.MetricsTextfile); mErr != nil {
			log.Warn("metrics export failed", "error", mErr)
		}
	}
	return res, err
}

func (t *Tracker) run(ctx context.Context, req Request, res *Result, log *slog.Logger) error {
	if len(req.Inputs) == 0 {
		return apperrors.New(apperrors.ErrUsage, apperrors.ExitUsage, "no input files")
	}
	for _, path := range req.Inputs {
		if err := checkInput(path); err != nil {
			return err
		}
	}

	tree, err := t.hydrate(ctx)
	if err != nil {
		return err
	}

	stats, err := t.parse(ctx, tree, req.Inputs)
	if err != nil {
		return err
	}
	res.Stats = stats
	res.IndexSize = tree.Size()
	t.opts.Metrics.IndexSize.Set(float64(tree.Size()))
	t.opts.Metrics.IndexHeight.Set(float64(tree.Height()))

	report, err := t.render(ctx, tree, req.Mode)
	if err != nil {
		return err
	}
	var writeErr error
	if _, err := t.opts.Stdout.Write(report); err != nil {
		writeErr = fmt.Errorf("writing report to stdout: %w", errors.Join(apperrors.ErrWriteFailure, err))
	}
	if req.OutputPath != "" {
		created, err := writeOutput(req.OutputPath, report)
		if err != nil {
			writeErr = errors.Join(writeErr, err)
		} else {
			res.OutputCreated = created
			if created {
				log.Info("output file created", "path", req.OutputPath, "bytes", len(report))
			} else {
				log.Info("output file overwritten", "path", req.OutputPath, "bytes", len(report))
			}
		}
	}

	if err := t.persist(ctx, tree); err != nil {
		return errors.Join(writeErr, err)
	}
	t.publish(ctx, req, res, tree, log)
	return writeErr
}

func (t *Tracker) hydrate(ctx context.Context) (*index.Tree, error) {
	ctx, span := tracing.StartChildSpan(ctx, "hydrate")
	defer span.End()
	if t.opts.Snapshots == nil {
		return index.New(), nil
	}
	tree, err := t.opts.Snapshots.Hydrate(ctx)
	if err != nil {
		return nil, err
	}
	span.SetAttr("words", tree.Size())
	return tree, nil
}

func (t *Tracker) parse(ctx context.Context, tree *index.Tree, inputs []string) ([]indexer.ParseStats, error) {
	ctx, span := tracing.StartChildSpan(ctx, "parse")
	defer span.End()
	ix := indexer.New(tree, t.opts.Metrics)
	if len(inputs) == 1 {
		stats, err := ix.ParseFile(ctx, inputs[0])
		if err != nil {
			return nil, err
		}
		span.SetAttr("lines", stats.Lines)
		return []indexer.ParseStats{stats}, nil
	}
	stats, err := ix.ParseFiles(ctx, inputs...)
	if err != nil {
		return nil, err
	}
	span.SetAttr("sources", len(stats))
	return stats, nil
}

func (t *Tracker) render(ctx context.Context, tree *index.Tree, mode reporter.Mode) ([]byte, error) {
	_, span := tracing.StartChildSpan(ctx, "render")
	defer span.End()
	start := time.Now()
	var buf bytes.Buffer
	if err := reporter.Render(&buf, tree, mode); err != nil {
		return nil, err
	}
	t.opts.Metrics.ReportDuration.WithLabelValues(mode.String()).Observe(time.Since(start).Seconds())
	span.SetAttr("bytes", buf.Len())
	return buf.Bytes(), nil
}

func (t *Tracker) persist(ctx context.Context, tree *index.Tree) error {
	ctx, span := tracing.StartChildSpan(ctx, "persist")
	defer span.End()
	if t.opts.Snapshots == nil {
		return nil
	}
	return t.opts.Snapshots.Persist(ctx, tree)
}

func (t *Tracker) publish(ctx context.Context, req Request, res *Result, tree *index.Tree, log *slog.Logger) {
	if t.opts.Publisher == nil {
		return
	}
	event := IndexCompleted{
		RunID:       res.RunID,
		Sources:     req.Inputs,
		Mode:        req.Mode.Flag(),
		IndexSize:   tree.Size(),
		IndexHeight: tree.Height(),
		CompletedAt: time.Now().UTC(),
	}
	for _, s := range res.Stats {
		event.Lines += s.Lines
		event.Tokens += s.Tokens
		event.NewWords += s.NewWords
	}
	if err := t.opts.Publisher.Publish(ctx, kafka.Event{Key: res.RunID, Value: event}); err != nil {
		log.Warn("index-complete event not published", "error", err)
	}
}

func checkInput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return apperrors.Newf(apperrors.ErrInputNotFound, apperrors.ExitFailure, "file %q not found", path)
		}
		return fmt.Errorf("checking input %s: %w", path, err)
	}
	if info.IsDir() {
		return apperrors.Newf(apperrors.ErrInputNotFound, apperrors.ExitFailure, "%q is a directory", path)
	}
	return nil
}

// writeOutput writes report to path and reports whether the file was new.
func writeOutput(path string, report []byte) (bool, error) {
	_, statErr := os.Stat(path)
	created := errors.Is(statErr, fs.ErrNotExist)
	if err := os.WriteFile(path, report, 0o644); err != nil {
		return false, fmt.Errorf("writing report to %s: %w", path, errors.Join(apperrors.ErrWriteFailure, err))
	}
	return created, nil
}
