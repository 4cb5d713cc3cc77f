// Package snapshot persists the whole word index between runs. A snapshot is
// a single opaque blob; Stores decide where the blob lives.
package snapshot

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"

	"github.com/Adithya-Monish-Kumar-K/wordtracker/internal/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/errors"
)

// MagicBytes identifies a word tracker snapshot ("WTSN").
const (
	MagicBytes    uint32 = 0x4E535457
	FormatVersion uint32 = 2
	HeaderSize    int    = 32
	FooterSize    int    = 8

	maxRawSize = 1 << 31
	// maxExpansion caps RawSize/BodySize; 255 is the lz4 block worst case.
	maxExpansion = 255
)

// Header is the fixed-size prefix of every snapshot.
type Header struct {
	Magic       uint32
	Version     uint32
	Compression Compression
	RecordCount uint32
	BodySize    uint64
	RawSize     uint64
}

// entry is the JSON form of one Record.
type entry struct {
	Word    string        `json:"w"`
	Sources []sourceLines `json:"s"`
}

// sourceLines holds the source id as raw bytes so that file names which are
// not valid UTF-8 survive the JSON body unchanged.
type sourceLines struct {
	ID    []byte   `json:"id"`
	Lines []uint32 `json:"l"`
}

// Encode serialises t. Records are written in preorder so that decoding by
// re-insertion rebuilds a tree of the same shape.
func Encode(t *index.Tree, c Compression) ([]byte, error) {
	entries := make([]entry, 0, t.Size())
	t.Walk(index.Preorder, func(rec *index.Record) bool {
		e := entry{
			Word:    rec.Word(),
			Sources: make([]sourceLines, 0, rec.SourceCount()),
		}
		for _, source := range rec.Sources() {
			lines := rec.Lines(source)
			packed := make([]uint32, len(lines))
			for i, line := range lines {
				packed[i] = uint32(line)
			}
			e.Sources = append(e.Sources, sourceLines{ID: []byte(source), Lines: packed})
		}
		entries = append(entries, e)
		return true
	})
	return encodeEntries(entries, c)
}

func encodeEntries(entries []entry, c Compression) ([]byte, error) {
	raw, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("marshaling snapshot entries: %w", err)
	}
	body, used, err := compress(raw, c)
	if err != nil {
		return nil, fmt.Errorf("compressing snapshot: %w", err)
	}

	out := make([]byte, HeaderSize+len(body)+FooterSize)
	binary.LittleEndian.PutUint32(out[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(out[4:8], FormatVersion)
	out[8] = byte(used)
	binary.LittleEndian.PutUint32(out[12:16], uint32(len(entries)))
	binary.LittleEndian.PutUint64(out[16:24], uint64(len(body)))
	binary.LittleEndian.PutUint64(out[24:32], uint64(len(raw)))
	copy(out[HeaderSize:], body)

	footer := out[HeaderSize+len(body):]
	binary.LittleEndian.PutUint32(footer[0:4], crc32.ChecksumIEEE(body))
	binary.LittleEndian.PutUint32(footer[4:8], uint32(len(entries)))
	return out, nil
}

// ReadHeader parses and validates the snapshot header.
func ReadHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize+FooterSize {
		return Header{}, malformed("snapshot too short: %d bytes", len(data))
	}
	h := Header{
		Magic:       binary.LittleEndian.Uint32(data[0:4]),
		Version:     binary.LittleEndian.Uint32(data[4:8]),
		Compression: Compression(data[8]),
		RecordCount: binary.LittleEndian.Uint32(data[12:16]),
		BodySize:    binary.LittleEndian.Uint64(data[16:24]),
		RawSize:     binary.LittleEndian.Uint64(data[24:32]),
	}
	if h.Magic != MagicBytes {
		return Header{}, malformed("bad magic bytes %x", h.Magic)
	}
	if h.Version != FormatVersion {
		return Header{}, malformed("unsupported format version %d", h.Version)
	}
	if h.Compression > CompressionZSTD {
		return Header{}, malformed("unknown compression %d", h.Compression)
	}
	if h.BodySize != uint64(len(data)-HeaderSize-FooterSize) {
		return Header{}, malformed("body size %d does not match payload of %d bytes", h.BodySize, len(data)-HeaderSize-FooterSize)
	}
	if h.RawSize > maxRawSize {
		return Header{}, malformed("raw size %d exceeds limit", h.RawSize)
	}
	if h.Compression == CompressionNone && h.RawSize != h.BodySize {
		return Header{}, malformed("raw size %d differs from uncompressed body of %d bytes", h.RawSize, h.BodySize)
	}
	if h.RawSize > h.BodySize*maxExpansion {
		return Header{}, malformed("raw size %d implausible for %d byte body", h.RawSize, h.BodySize)
	}
	return h, nil
}

// Decode rebuilds a tree from data. It either returns a complete tree or an
// error wrapping ErrMalformedSnapshot; it never returns a partial tree.
func Decode(data []byte) (*index.Tree, error) {
	h, err := ReadHeader(data)
	if err != nil {
		return nil, err
	}
	body := data[HeaderSize : HeaderSize+int(h.BodySize)]
	footer := data[HeaderSize+int(h.BodySize):]
	if sum := binary.LittleEndian.Uint32(footer[0:4]); sum != crc32.ChecksumIEEE(body) {
		return nil, malformed("checksum mismatch")
	}
	if n := binary.LittleEndian.Uint32(footer[4:8]); n != h.RecordCount {
		return nil, malformed("footer record count %d, header %d", n, h.RecordCount)
	}

	raw, err := decompress(body, h.Compression, int(h.RawSize))
	if err != nil {
		return nil, malformed("%v", err)
	}
	var entries []entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, malformed("parsing entries: %v", err)
	}
	if len(entries) != int(h.RecordCount) {
		return nil, malformed("found %d records, header declares %d", len(entries), h.RecordCount)
	}

	t := index.New()
	for i, e := range entries {
		rec, err := e.record()
		if err != nil {
			return nil, malformed("record %d: %v", i, err)
		}
		if err := t.Insert(rec); err != nil {
			return nil, malformed("record %d: %v", i, err)
		}
	}
	return t, nil
}

func (e entry) record() (*index.Record, error) {
	if e.Word == "" {
		return nil, fmt.Errorf("empty word")
	}
	if len(e.Sources) == 0 {
		return nil, fmt.Errorf("word %q has no occurrences", e.Word)
	}
	rec := index.NewRecord(e.Word)
	for _, src := range e.Sources {
		source := string(src.ID)
		if len(src.Lines) == 0 {
			return nil, fmt.Errorf("word %q has no lines in %q", e.Word, source)
		}
		if rec.Count(source) > 0 {
			return nil, fmt.Errorf("word %q lists source %q twice", e.Word, source)
		}
		for _, line := range src.Lines {
			if err := rec.AddOccurrence(source, int(line)); err != nil {
				return nil, err
			}
		}
	}
	return rec, nil
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", apperrors.ErrMalformedSnapshot, fmt.Sprintf(format, args...))
}
