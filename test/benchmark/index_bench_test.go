// Package benchmark contains Go benchmarks for the word index, the indexer
// fold and the snapshot codec, measuring throughput and allocation behaviour.
package benchmark

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/wordtracker/internal/index"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/internal/reporter"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/internal/snapshot"
)

func shuffledWords(n int) []string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("word%07d", i)
	}
	rng := rand.New(rand.NewSource(42))
	rng.Shuffle(len(words), func(i, j int) { words[i], words[j] = words[j], words[i] })
	return words
}

func buildTree(b *testing.B, words []string) *index.Tree {
	b.Helper()
	tree := index.New()
	for i, w := range words {
		rec := index.NewRecord(w)
		if err := rec.AddOccurrence("bench.txt", i%500+1); err != nil {
			b.Fatal(err)
		}
		if err := tree.Insert(rec); err != nil {
			b.Fatal(err)
		}
	}
	return tree
}

// BenchmarkTreeInsert measures insert throughput for random key order.
func BenchmarkTreeInsert(b *testing.B) {
	words := shuffledWords(10000)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buildTree(b, words)
	}
}

// BenchmarkTreeSearch measures lookup latency over 10 000 words.
func BenchmarkTreeSearch(b *testing.B) {
	words := shuffledWords(10000)
	tree := buildTree(b, words)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if tree.Find(words[i%len(words)]) == nil {
			b.Fatal("word missing")
		}
	}
}

// BenchmarkTreeWalk measures a full inorder traversal.
func BenchmarkTreeWalk(b *testing.B) {
	tree := buildTree(b, shuffledWords(10000))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		n := 0
		tree.Walk(index.Inorder, func(*index.Record) bool {
			n++
			return true
		})
		_ = n
	}
}

// BenchmarkIndexerParse measures the search-then-insert fold at various
// pre-loaded index sizes.
func BenchmarkIndexerParse(b *testing.B) {
	text := strings.Repeat("the quick brown fox jumps over the lazy dog\n", 200)
	for _, preload := range []int{0, 1000, 10000} {
		b.Run(fmt.Sprintf("preload_%d", preload), func(b *testing.B) {
			tree := buildTree(b, shuffledWords(preload))
			ix := indexer.New(tree, nil)
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := ix.Parse(context.Background(), "doc.txt", strings.NewReader(text)); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkRender measures report rendering per mode.
func BenchmarkRender(b *testing.B) {
	tree := buildTree(b, shuffledWords(5000))
	for _, mode := range []reporter.Mode{reporter.ModeFiles, reporter.ModeLines, reporter.ModeOccurrences} {
		b.Run(mode.String(), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := reporter.RenderString(tree, mode); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkSnapshotRoundTrip measures encode and decode per compression.
func BenchmarkSnapshotRoundTrip(b *testing.B) {
	tree := buildTree(b, shuffledWords(5000))
	for _, c := range []snapshot.Compression{snapshot.CompressionNone, snapshot.CompressionLZ4, snapshot.CompressionZSTD} {
		b.Run(c.String(), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				data, err := snapshot.Encode(tree, c)
				if err != nil {
					b.Fatal(err)
				}
				if _, err := snapshot.Decode(data); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
