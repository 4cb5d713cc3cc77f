package tracker

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/wordtracker/internal/reporter"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/internal/snapshot"
	apperrors "github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/metrics"
)

type recordingPublisher struct {
	events []kafka.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event kafka.Event) error {
	p.events = append(p.events, event)
	return p.err
}

type fixture struct {
	dir      string
	repo     string
	stdout   *bytes.Buffer
	metrics  *metrics.Metrics
	pub      *recordingPublisher
	textfile string
}

func newFixture(t *testing.T) *fixture {
	dir := t.TempDir()
	return &fixture{
		dir:      dir,
		repo:     filepath.Join(dir, "repository.wts"),
		stdout:   &bytes.Buffer{},
		metrics:  metrics.New(),
		pub:      &recordingPublisher{},
		textfile: filepath.Join(dir, "wordtracker.prom"),
	}
}

func (f *fixture) tracker() *Tracker {
	mgr := snapshot.NewManager(snapshot.NewFileStore(f.repo), snapshot.Options{
		Compression: snapshot.CompressionZSTD,
		Metrics:     f.metrics,
	})
	return New(Options{
		Snapshots:       mgr,
		Metrics:         f.metrics,
		Publisher:       f.pub,
		Stdout:          f.stdout,
		MetricsTextfile: f.textfile,
	})
}

func (f *fixture) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRun_ReportAndSnapshot(t *testing.T) {
	f := newFixture(t)
	doc := f.write(t, "doc1", "The cat sat.\nThe dog sat.\n")
	out := filepath.Join(f.dir, "report.txt")

	res, err := f.tracker().Run(context.Background(), Request{
		Inputs:     []string{doc},
		Mode:       reporter.ModeLines,
		OutputPath: out,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 4, res.IndexSize)
	assert.True(t, res.OutputCreated)

	want := "cat\n " + doc + ": 1\n" +
		"dog\n " + doc + ": 2\n" +
		"sat\n " + doc + ": 1, 2\n" +
		"the\n " + doc + ": 1, 2\n"
	assert.Equal(t, want, f.stdout.String())
	written, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, want, string(written))

	_, err = os.Stat(f.repo)
	require.NoError(t, err)

	require.Len(t, f.pub.events, 1)
	event := f.pub.events[0].Value.(IndexCompleted)
	assert.Equal(t, res.RunID, event.RunID)
	assert.Equal(t, "-pl", event.Mode)
	assert.Equal(t, 2, event.Lines)
	assert.Equal(t, 4, event.NewWords)

	prom, err := os.ReadFile(f.textfile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `wordtracker_runs_total{result="ok"} 1`)
}

func TestRun_AccumulatesAcrossRuns(t *testing.T) {
	f := newFixture(t)
	one := f.write(t, "one.txt", "apple banana\n")
	two := f.write(t, "two.txt", "banana cherry\n")

	_, err := f.tracker().Run(context.Background(), Request{Inputs: []string{one}, Mode: reporter.ModeFiles})
	require.NoError(t, err)

	f.stdout.Reset()
	_, err = f.tracker().Run(context.Background(), Request{Inputs: []string{two}, Mode: reporter.ModeFiles})
	require.NoError(t, err)

	want := "apple " + one + " \n" +
		"banana " + one + " " + two + " \n" +
		"cherry " + two + " \n"
	assert.Equal(t, want, f.stdout.String())
}

func TestRun_ReparseKeepsCounts(t *testing.T) {
	f := newFixture(t)
	doc := f.write(t, "doc1", "The cat sat.\nThe dog sat.\n")
	req := Request{Inputs: []string{doc}, Mode: reporter.ModeOccurrences}

	_, err := f.tracker().Run(context.Background(), req)
	require.NoError(t, err)
	first := f.stdout.String()

	f.stdout.Reset()
	res, err := f.tracker().Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first, f.stdout.String())
	assert.Equal(t, 0, res.Stats[0].NewWords)
}

func TestRun_MultipleInputs(t *testing.T) {
	f := newFixture(t)
	a := f.write(t, "a.txt", "shared alpha")
	b := f.write(t, "b.txt", "\nshared beta")

	res, err := f.tracker().Run(context.Background(), Request{Inputs: []string{a, b}, Mode: reporter.ModeOccurrences})
	require.NoError(t, err)
	require.Len(t, res.Stats, 2)
	assert.Contains(t, f.stdout.String(), "shared Total: 2\n "+a+" 1: 1\n "+b+" 1: 2\n")
}

func TestRun_MissingInputTouchesNothing(t *testing.T) {
	f := newFixture(t)
	_, err := f.tracker().Run(context.Background(), Request{
		Inputs: []string{filepath.Join(f.dir, "absent.txt")},
		Mode:   reporter.ModeFiles,
	})
	require.ErrorIs(t, err, apperrors.ErrInputNotFound)
	assert.Empty(t, f.stdout.String())
	_, statErr := os.Stat(f.repo)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
	assert.Empty(t, f.pub.events)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.RunsTotal.WithLabelValues("error")))
}

func TestRun_NoInputs(t *testing.T) {
	f := newFixture(t)
	_, err := f.tracker().Run(context.Background(), Request{Mode: reporter.ModeFiles})
	assert.ErrorIs(t, err, apperrors.ErrUsage)
}

func TestRun_CorruptSnapshotFailsClosed(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(f.repo, []byte("garbage garbage garbage garbage garbage"), 0o644))
	doc := f.write(t, "doc1", "hello")

	_, err := f.tracker().Run(context.Background(), Request{Inputs: []string{doc}, Mode: reporter.ModeFiles})
	require.ErrorIs(t, err, apperrors.ErrMalformedSnapshot)
	assert.Empty(t, f.stdout.String())

	data, err := os.ReadFile(f.repo)
	require.NoError(t, err)
	assert.Equal(t, "garbage garbage garbage garbage garbage", string(data))
}

func TestRun_OutputWriteFailureStillPersists(t *testing.T) {
	f := newFixture(t)
	doc := f.write(t, "doc1", "hello world")
	badOut := filepath.Join(f.dir, "missing-dir", "report.txt")

	_, err := f.tracker().Run(context.Background(), Request{
		Inputs:     []string{doc},
		Mode:       reporter.ModeFiles,
		OutputPath: badOut,
	})
	require.ErrorIs(t, err, apperrors.ErrWriteFailure)
	assert.Equal(t, apperrors.ExitFailure, apperrors.ExitCode(err))
	assert.Contains(t, f.stdout.String(), "hello ")

	_, statErr := os.Stat(f.repo)
	assert.NoError(t, statErr)
}

func TestRun_OverwritesExistingOutput(t *testing.T) {
	f := newFixture(t)
	doc := f.write(t, "doc1", "x")
	out := f.write(t, "report.txt", "old contents that are longer")

	res, err := f.tracker().Run(context.Background(), Request{Inputs: []string{doc}, Mode: reporter.ModeFiles, OutputPath: out})
	require.NoError(t, err)
	assert.False(t, res.OutputCreated)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "x "+doc+" \n", string(data))
}

func TestRun_PublishFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.pub.err = errors.New("broker down")
	doc := f.write(t, "doc1", "x")

	_, err := f.tracker().Run(context.Background(), Request{Inputs: []string{doc}, Mode: reporter.ModeFiles})
	assert.NoError(t, err)
	assert.Len(t, f.pub.events, 1)
}
