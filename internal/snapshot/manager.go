package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/wordtracker/internal/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/metrics"
)

// CorruptPolicy decides what Hydrate does with an undecodable snapshot.
type CorruptPolicy int

const (
	// CorruptFail aborts the run.
	CorruptFail CorruptPolicy = iota
	// CorruptReset discards the snapshot and starts from an empty index.
	CorruptReset
)

// ParseCorruptPolicy maps a config value to a CorruptPolicy.
func ParseCorruptPolicy(s string) (CorruptPolicy, error) {
	switch s {
	case "", "fail":
		return CorruptFail, nil
	case "reset":
		return CorruptReset, nil
	default:
		return 0, fmt.Errorf("unknown onCorrupt policy %q", s)
	}
}

// Options configure a Manager.
type Options struct {
	Compression Compression
	OnCorrupt   CorruptPolicy
	// Timeout bounds each store round trip. Zero means no bound.
	Timeout time.Duration
	Metrics *metrics.Metrics
}

// Manager hydrates an index from a Store at start-up and persists it at the
// end of a run.
type Manager struct {
	store  Store
	opts   Options
	logger *slog.Logger
}

// NewManager creates a Manager over store.
func NewManager(store Store, opts Options) *Manager {
	return &Manager{
		store:  store,
		opts:   opts,
		logger: logger.WithComponent("snapshot"),
	}
}

// Hydrate loads the stored index. A missing snapshot yields an empty index.
func (m *Manager) Hydrate(ctx context.Context) (*index.Tree, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	data, err := m.store.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			m.logger.Info("no snapshot found, starting empty", "store", m.store.Name())
			m.observe("load", "empty", 0)
			return index.New(), nil
		}
		m.observe("load", "error", 0)
		return nil, fmt.Errorf("loading snapshot from %s: %w", m.store.Name(), err)
	}

	t, err := Decode(data)
	if err != nil {
		m.observe("load", "corrupt", len(data))
		if m.opts.OnCorrupt == CorruptReset && errors.Is(err, apperrors.ErrMalformedSnapshot) {
			m.logger.Warn("discarding unreadable snapshot",
				"store", m.store.Name(),
				"error", err,
			)
			return index.New(), nil
		}
		return nil, fmt.Errorf("decoding snapshot from %s: %w", m.store.Name(), err)
	}
	m.observe("load", "ok", len(data))
	m.logger.Info("snapshot loaded",
		"store", m.store.Name(),
		"words", t.Size(),
		"bytes", len(data),
	)
	return t, nil
}

// Persist encodes t and saves it to the store.
func (m *Manager) Persist(ctx context.Context, t *index.Tree) error {
	data, err := Encode(t, m.opts.Compression)
	if err != nil {
		m.observe("save", "error", 0)
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	if err := m.store.Save(ctx, data); err != nil {
		m.observe("save", "error", len(data))
		return fmt.Errorf("saving snapshot to %s: %w", m.store.Name(), err)
	}
	m.observe("save", "ok", len(data))
	m.logger.Info("snapshot saved",
		"store", m.store.Name(),
		"words", t.Size(),
		"bytes", len(data),
		"compression", m.opts.Compression.String(),
	)
	return nil
}

func (m *Manager) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.opts.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, m.opts.Timeout)
}

func (m *Manager) observe(op, status string, size int) {
	if m.opts.Metrics == nil {
		return
	}
	m.opts.Metrics.SnapshotOpsTotal.WithLabelValues(op, status).Inc()
	if size > 0 {
		m.opts.Metrics.SnapshotBytes.WithLabelValues(op).Set(float64(size))
	}
}
