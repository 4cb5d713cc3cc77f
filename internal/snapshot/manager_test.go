package snapshot

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/wordtracker/internal/indexer"
	apperrors "github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/metrics"
)

func TestManager_HydrateMissingIsEmpty(t *testing.T) {
	m := metrics.New()
	mgr := NewManager(NewFileStore(filepath.Join(t.TempDir(), "none.wts")), Options{Metrics: m})
	tree, err := mgr.Hydrate(context.Background())
	require.NoError(t, err)
	assert.True(t, tree.IsEmpty())
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SnapshotOpsTotal.WithLabelValues("load", "empty")))
}

func TestManager_PersistThenHydrate(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "repo.wts"))
	mgr := NewManager(store, Options{Compression: CompressionZSTD})
	tree := sampleTree(t)

	require.NoError(t, mgr.Persist(context.Background(), tree))
	got, err := mgr.Hydrate(context.Background())
	require.NoError(t, err)
	requireSameIndex(t, tree, got)
}

func TestManager_HydrateCorrupt(t *testing.T) {
	store := &memStore{name: "corrupt", data: []byte("definitely not a snapshot, but long enough")}

	_, err := NewManager(store, Options{OnCorrupt: CorruptFail}).Hydrate(context.Background())
	require.ErrorIs(t, err, apperrors.ErrMalformedSnapshot)

	m := metrics.New()
	tree, err := NewManager(store, Options{OnCorrupt: CorruptReset, Metrics: m}).Hydrate(context.Background())
	require.NoError(t, err)
	assert.True(t, tree.IsEmpty())
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SnapshotOpsTotal.WithLabelValues("load", "corrupt")))
}

func TestManager_LoadErrorIsNotReset(t *testing.T) {
	boom := errors.New("connection refused")
	_, err := NewManager(failingLoadStore{err: boom}, Options{OnCorrupt: CorruptReset}).Hydrate(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestManager_PersistFailure(t *testing.T) {
	boom := errors.New("read-only")
	err := NewManager(&memStore{saveErr: boom}, Options{}).Persist(context.Background(), sampleTree(t))
	assert.ErrorIs(t, err, boom)
}

// Re-parsing an already indexed source into a hydrated index must not change
// any occurrence counts.
func TestManager_HydrateThenReparseIsIdempotent(t *testing.T) {
	ctx := context.Background()
	text := "The cat sat.\nThe dog sat.\n"
	store := &memStore{name: "repo"}
	mgr := NewManager(store, Options{Compression: CompressionLZ4})

	first := indexer.New(nil, nil)
	_, err := first.Parse(ctx, "doc1", strings.NewReader(text))
	require.NoError(t, err)
	require.NoError(t, mgr.Persist(ctx, first.Tree()))

	loadedOnly, err := mgr.Hydrate(ctx)
	require.NoError(t, err)

	hydrated, err := mgr.Hydrate(ctx)
	require.NoError(t, err)
	second := indexer.New(hydrated, nil)
	stats, err := second.Parse(ctx, "doc1", strings.NewReader(text))
	require.NoError(t, err)
	assert.Equal(t, 0, stats.NewWords)

	requireSameIndex(t, loadedOnly, second.Tree())
	assert.Equal(t, 2, second.Tree().Find("the").Total())
}

func TestParseCorruptPolicy(t *testing.T) {
	p, err := ParseCorruptPolicy("reset")
	require.NoError(t, err)
	assert.Equal(t, CorruptReset, p)
	p, err = ParseCorruptPolicy("")
	require.NoError(t, err)
	assert.Equal(t, CorruptFail, p)
	_, err = ParseCorruptPolicy("shrug")
	assert.Error(t, err)
}

type failingLoadStore struct{ err error }

func (f failingLoadStore) Name() string                         { return "failing" }
func (f failingLoadStore) Load(context.Context) ([]byte, error) { return nil, f.err }
func (f failingLoadStore) Save(context.Context, []byte) error   { return f.err }

type blockingStore struct{}

func (blockingStore) Name() string { return "blocking" }

func (blockingStore) Load(ctx context.Context) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingStore) Save(ctx context.Context, data []byte) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestManager_Timeout(t *testing.T) {
	mgr := NewManager(blockingStore{}, Options{Timeout: 10 * time.Millisecond})

	_, err := mgr.Hydrate(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	err = mgr.Persist(context.Background(), sampleTree(t))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
