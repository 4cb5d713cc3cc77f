// Package indexer folds tokenised text sources into the ordered word index.
package indexer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/wordtracker/internal/index"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/metrics"
)

// readBufferSize is the initial read buffer; longer lines grow past it.
const readBufferSize = 64 * 1024

// maxConcurrentReads caps how many sources ParseFiles reads at once.
const maxConcurrentReads = 4

// ParseStats summarises one parsed source.
type ParseStats struct {
	Source   string
	Lines    int
	Tokens   int
	NewWords int
}

// Indexer owns the single writer path into an index.Tree. It is not safe
// for concurrent use.
type Indexer struct {
	tree    *index.Tree
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates an Indexer that mutates tree. m may be nil.
func New(tree *index.Tree, m *metrics.Metrics) *Indexer {
	if tree == nil {
		tree = index.New()
	}
	return &Indexer{
		tree:    tree,
		metrics: m,
		logger:  logger.WithComponent("indexer"),
	}
}

// Tree returns the index being built.
func (ix *Indexer) Tree() *index.Tree {
	return ix.tree
}

// Parse reads r line by line and records every word under sourceID. Line
// numbers start at 1 and advance once per line.
func (ix *Indexer) Parse(ctx context.Context, sourceID string, r io.Reader) (ParseStats, error) {
	stats := ParseStats{Source: sourceID}
	err := eachLine(ctx, r, func(line string) error {
		stats.Lines++
		return ix.fold(&stats, tokenizer.Words(line))
	})
	if err != nil {
		return stats, fmt.Errorf("parsing %s: %w", sourceID, err)
	}
	ix.record(stats)
	return stats, nil
}

// ParseFile parses the file at path, using the path as the source id.
func (ix *Indexer) ParseFile(ctx context.Context, path string) (ParseStats, error) {
	f, err := openSource(path)
	if err != nil {
		return ParseStats{Source: path}, err
	}
	defer f.Close()
	return ix.Parse(ctx, path, f)
}

// ParseFiles tokenises the given files concurrently and then folds them into
// the tree one after another in argument order, so the tree still sees a
// single writer.
func (ix *Indexer) ParseFiles(ctx context.Context, paths ...string) ([]ParseStats, error) {
	lines := make([][][]string, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentReads)
	for i, path := range paths {
		g.Go(func() error {
			tokenized, err := readTokens(gctx, path)
			if err != nil {
				return err
			}
			lines[i] = tokenized
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	all := make([]ParseStats, 0, len(paths))
	for i, path := range paths {
		stats := ParseStats{Source: path}
		for _, words := range lines[i] {
			if err := ctx.Err(); err != nil {
				return all, err
			}
			stats.Lines++
			if err := ix.fold(&stats, words); err != nil {
				return all, err
			}
		}
		ix.record(stats)
		all = append(all, stats)
	}
	return all, nil
}

// fold records one line's words: an existing record is updated in place, a
// new word gets a fresh record inserted into the tree.
func (ix *Indexer) fold(stats *ParseStats, words []string) error {
	for _, word := range words {
		stats.Tokens++
		if rec := ix.tree.Find(word); rec != nil {
			if err := rec.AddOccurrence(stats.Source, stats.Lines); err != nil {
				return err
			}
			continue
		}
		rec := index.NewRecord(word)
		if err := rec.AddOccurrence(stats.Source, stats.Lines); err != nil {
			return err
		}
		if err := ix.tree.Insert(rec); err != nil {
			return fmt.Errorf("indexing %q from %s: %w", word, stats.Source, err)
		}
		stats.NewWords++
	}
	return nil
}

func (ix *Indexer) record(stats ParseStats) {
	ix.logger.Debug("source indexed",
		"source", stats.Source,
		"lines", stats.Lines,
		"tokens", stats.Tokens,
		"new_words", stats.NewWords,
		"index_size", ix.tree.Size(),
	)
	if ix.metrics == nil {
		return
	}
	ix.metrics.LinesParsedTotal.WithLabelValues(stats.Source).Add(float64(stats.Lines))
	ix.metrics.TokensTotal.Add(float64(stats.Tokens))
	ix.metrics.WordsAddedTotal.Add(float64(stats.NewWords))
	ix.metrics.IndexSize.Set(float64(ix.tree.Size()))
}

func readTokens(ctx context.Context, path string) ([][]string, error) {
	f, err := openSource(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines [][]string
	err = eachLine(ctx, f, func(line string) error {
		lines = append(lines, tokenizer.Words(line))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return lines, nil
}

// eachLine calls fn for every line of r, however long. The newline and a
// trailing carriage return are stripped, and a last line without a newline
// still counts.
func eachLine(ctx context.Context, r io.Reader, fn func(line string) error) error {
	br := bufio.NewReaderSize(r, readBufferSize)
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := br.ReadString('\n')
		if line != "" {
			line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
			if err := fn(line); err != nil {
				return err
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading line %d: %w", n, err)
		}
	}
}

func openSource(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.Newf(apperrors.ErrInputNotFound, apperrors.ExitFailure, "file %q not found", path)
		}
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return f, nil
}
