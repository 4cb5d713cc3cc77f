// Package reporter renders the word index as text. Every mode walks the
// index once in ascending word order; each mode adds detail to the previous
// one.
package reporter

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/wordtracker/internal/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/errors"
)

// Mode selects a report format.
type Mode int

const (
	// ModeFiles lists the sources each word appears in (-pf).
	ModeFiles Mode = iota
	// ModeLines adds the line numbers per source (-pl).
	ModeLines
	// ModeOccurrences adds per-word and per-source counts (-po).
	ModeOccurrences
)

// ParseMode maps a command-line selector to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "-pf":
		return ModeFiles, nil
	case "-pl":
		return ModeLines, nil
	case "-po":
		return ModeOccurrences, nil
	default:
		return 0, apperrors.Newf(apperrors.ErrInvalidMode, apperrors.ExitUsage, "unrecognised option %q, expected -pf, -pl or -po", s)
	}
}

// Flag returns the command-line selector for m.
func (m Mode) Flag() string {
	switch m {
	case ModeFiles:
		return "-pf"
	case ModeLines:
		return "-pl"
	case ModeOccurrences:
		return "-po"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

func (m Mode) String() string {
	switch m {
	case ModeFiles:
		return "files"
	case ModeLines:
		return "lines"
	case ModeOccurrences:
		return "occurrences"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Render writes the report for t to w. The index is only read.
func Render(w io.Writer, t *index.Tree, mode Mode) error {
	var writeEntry func(*bufio.Writer, *index.Record)
	switch mode {
	case ModeFiles:
		writeEntry = writeFiles
	case ModeLines:
		writeEntry = writeLines
	case ModeOccurrences:
		writeEntry = writeOccurrences
	default:
		return apperrors.Newf(apperrors.ErrInvalidMode, apperrors.ExitUsage, "unknown mode %s", mode)
	}

	bw := bufio.NewWriter(w)
	t.Walk(index.Inorder, func(rec *index.Record) bool {
		writeEntry(bw, rec)
		return true
	})
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing %s report: %w", mode, err)
	}
	return nil
}

// RenderString renders the report into a string.
func RenderString(t *index.Tree, mode Mode) (string, error) {
	var sb strings.Builder
	if err := Render(&sb, t, mode); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// writeFiles: "<word> <src> <src> \n"
func writeFiles(w *bufio.Writer, rec *index.Record) {
	w.WriteString(rec.Word())
	w.WriteByte(' ')
	for _, source := range rec.Sources() {
		w.WriteString(source)
		w.WriteByte(' ')
	}
	w.WriteByte('\n')
}

// writeLines: "<word>\n" then " <src>: 1, 2\n" per source.
func writeLines(w *bufio.Writer, rec *index.Record) {
	w.WriteString(rec.Word())
	w.WriteByte('\n')
	for _, source := range rec.Sources() {
		w.WriteByte(' ')
		w.WriteString(source)
		w.WriteString(": ")
		writeLineList(w, rec.Lines(source))
		w.WriteByte('\n')
	}
}

// writeOccurrences: "<word> Total: N\n" then " <src> <n>: 1, 2\n" per source.
func writeOccurrences(w *bufio.Writer, rec *index.Record) {
	w.WriteString(rec.Word())
	w.WriteString(" Total: ")
	w.WriteString(strconv.Itoa(rec.Total()))
	w.WriteByte('\n')
	for _, source := range rec.Sources() {
		lines := rec.Lines(source)
		w.WriteByte(' ')
		w.WriteString(source)
		w.WriteByte(' ')
		w.WriteString(strconv.Itoa(len(lines)))
		w.WriteString(": ")
		writeLineList(w, lines)
		w.WriteByte('\n')
	}
}

func writeLineList(w *bufio.Writer, lines []int) {
	for i, line := range lines {
		if i > 0 {
			w.WriteString(", ")
		}
		w.WriteString(strconv.Itoa(line))
	}
}
