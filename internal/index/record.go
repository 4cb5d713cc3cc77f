package index

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
)

// ErrInvalidLine is returned when a line number below 1 is recorded.
var ErrInvalidLine = errors.New("line numbers start at 1")

// Record aggregates every occurrence of a single word: for each source it
// was seen in, the ordered set of line numbers.
type Record struct {
	word        string
	occurrences map[string]*roaring.Bitmap
}

// NewRecord creates an empty Record for word.
func NewRecord(word string) *Record {
	return &Record{
		word:        word,
		occurrences: make(map[string]*roaring.Bitmap),
	}
}

// Word returns the word this record tracks.
func (r *Record) Word() string {
	return r.word
}

// AddOccurrence records that the word appeared at line in source. Adding
// the same (source, line) pair again is a no-op.
func (r *Record) AddOccurrence(source string, line int) error {
	if line < 1 {
		return fmt.Errorf("adding occurrence of %q in %s at line %d: %w", r.word, source, line, ErrInvalidLine)
	}
	if r.occurrences == nil {
		r.occurrences = make(map[string]*roaring.Bitmap)
	}
	lines, exists := r.occurrences[source]
	if !exists {
		lines = roaring.New()
		r.occurrences[source] = lines
	}
	lines.Add(uint32(line))
	return nil
}

// Compare orders records by word only; occurrence contents are ignored.
func (r *Record) Compare(other *Record) int {
	return strings.Compare(r.word, other.word)
}

// Sources returns the sources the word occurs in, sorted ascending.
func (r *Record) Sources() []string {
	sources := make([]string, 0, len(r.occurrences))
	for source := range r.occurrences {
		sources = append(sources, source)
	}
	sort.Strings(sources)
	return sources
}

// SourceCount returns the number of distinct sources.
func (r *Record) SourceCount() int {
	return len(r.occurrences)
}

// Lines returns the ascending line numbers recorded for source, or nil if
// the word never occurred there.
func (r *Record) Lines(source string) []int {
	lines, exists := r.occurrences[source]
	if !exists {
		return nil
	}
	result := make([]int, 0, lines.GetCardinality())
	it := lines.Iterator()
	for it.HasNext() {
		result = append(result, int(it.Next()))
	}
	return result
}

// Count returns how many distinct lines of source contain the word.
func (r *Record) Count(source string) int {
	lines, exists := r.occurrences[source]
	if !exists {
		return 0
	}
	return int(lines.GetCardinality())
}

// Total sums Count over every source.
func (r *Record) Total() int {
	total := 0
	for _, lines := range r.occurrences {
		total += int(lines.GetCardinality())
	}
	return total
}

// Clone returns a deep copy that shares no state with r.
func (r *Record) Clone() Record {
	c := Record{
		word:        r.word,
		occurrences: make(map[string]*roaring.Bitmap, len(r.occurrences)),
	}
	for source, lines := range r.occurrences {
		c.occurrences[source] = lines.Clone()
	}
	return c
}

// Equal reports whether both records hold the same word and the same
// occurrences.
func (r *Record) Equal(other *Record) bool {
	if r.word != other.word || len(r.occurrences) != len(other.occurrences) {
		return false
	}
	for source, lines := range r.occurrences {
		otherLines, exists := other.occurrences[source]
		if !exists || !lines.Equals(otherLines) {
			return false
		}
	}
	return true
}
