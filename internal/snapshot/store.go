package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/errors"
)

// ErrNotFound is returned by Load when no snapshot has been saved yet.
var ErrNotFound = errors.New("snapshot not found")

// Store loads and saves encoded snapshots.
type Store interface {
	// Load returns the last saved snapshot, or an error satisfying
	// errors.Is(err, ErrNotFound) if there is none.
	Load(ctx context.Context) ([]byte, error)
	// Save replaces the stored snapshot with data.
	Save(ctx context.Context, data []byte) error
	// Name describes the store for logs.
	Name() string
}

// closeFile is replaced in tests to simulate a failing close.
var closeFile = (*os.File).Close

// FileStore keeps the snapshot in a single local file.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Name() string {
	return "file:" + s.path
}

func (s *FileStore) Load(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading snapshot file %s: %w", s.path, err)
	}
	return data, nil
}

// Save writes data to a .tmp file, syncs it and renames it over the
// previous snapshot, so a crash never leaves a torn file behind.
func (s *FileStore) Save(ctx context.Context, data []byte) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return writeFailure("creating snapshot directory", err)
		}
	}
	tmpPath := s.path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return writeFailure("creating temp snapshot file", err)
	}
	abort := func(op string, err error) error {
		f.Close()
		os.Remove(tmpPath)
		return writeFailure(op, err)
	}
	if _, err := f.Write(data); err != nil {
		return abort("writing snapshot", err)
	}
	if err := f.Sync(); err != nil {
		return abort("syncing snapshot file", err)
	}
	if err := closeFile(f); err != nil {
		os.Remove(tmpPath)
		return writeFailure("closing snapshot file", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return writeFailure("renaming snapshot file", err)
	}
	return nil
}

// Replicated loads from a primary store and saves to the primary and every
// replica concurrently.
type Replicated struct {
	primary  Store
	replicas []Store
}

// NewReplicated wraps primary and replicas.
func NewReplicated(primary Store, replicas ...Store) *Replicated {
	return &Replicated{primary: primary, replicas: replicas}
}

func (r *Replicated) Name() string {
	name := r.primary.Name()
	for _, replica := range r.replicas {
		name += "+" + replica.Name()
	}
	return name
}

func (r *Replicated) Load(ctx context.Context) ([]byte, error) {
	return r.primary.Load(ctx)
}

func (r *Replicated) Save(ctx context.Context, data []byte) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, s := range append([]Store{r.primary}, r.replicas...) {
		g.Go(func() error {
			if err := s.Save(gctx, data); err != nil {
				return fmt.Errorf("saving to %s: %w", s.Name(), err)
			}
			return nil
		})
	}
	return g.Wait()
}

func writeFailure(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(apperrors.ErrWriteFailure, err))
}
