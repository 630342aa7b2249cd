package gharchive

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"errors"
	"io"
)

const (
	maxScanTokenSize = 32 * 1024 * 1024
	scanBufSize      = 512 * 1024
)

// Reader streams EventEnvelope items from a gzip NDJSON file.
// Malformed lines are skipped; order within the file is preserved
type Reader struct {
	r       io.ReadCloser
	gz      *gzip.Reader
	sc      *bufio.Scanner
	err     error
	events  int
	skipped int
	bytes   int64
}

// NewReader creates a new Reader from the given ReadCloser
func NewReader(r io.ReadCloser) (*Reader, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		if cerr := r.Close(); cerr != nil {
			return nil, cerr
		}
		return nil, err
	}
	sc := bufio.NewScanner(gz)
	sc.Buffer(make([]byte, scanBufSize), maxScanTokenSize)
	return &Reader{r: r, gz: gz, sc: sc}, nil
}

// Next reads the next event; returns io.EOF when done
func (rd *Reader) Next() (EventEnvelope, error) {
	if rd.err != nil {
		return EventEnvelope{}, rd.err
	}
	for {
		if !rd.sc.Scan() {
			if err := rd.sc.Err(); err != nil {
				rd.err = err
				return EventEnvelope{}, err
			}
			rd.err = io.EOF
			return EventEnvelope{}, io.EOF
		}
		line := rd.sc.Bytes()

		var env EventEnvelope
		if err := json.Unmarshal(line, &env); err != nil {
			// skip malformed lines; a corrupt record must not kill the hour
			rd.skipped++
			continue
		}
		rd.events++
		rd.bytes += int64(len(line) + 1) // include newline

		return env, nil
	}
}

// Close closes the underlying readers
func (rd *Reader) Close() error {
	var first error
	if rd.gz != nil {
		if err := rd.gz.Close(); err != nil && !errors.Is(err, io.ErrClosedPipe) {
			first = err
		}
	}
	if rd.r != nil {
		if err := rd.r.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Stats returns events parsed, malformed lines skipped, and uncompressed bytes read
func (rd *Reader) Stats() (events, skipped int, bytes int64) {
	return rd.events, rd.skipped, rd.bytes
}
