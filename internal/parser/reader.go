package parser

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/quarryhill/cclens/internal/schema"
)

const (
	// Scanner buffer sizing: single records with embedded file contents
	// regularly exceed 1MB.
	initialBuf = 64 * 1024
	maxLineLen = 10 * 1024 * 1024

	// maxRecentErrors bounds the error list kept in Stats.
	maxRecentErrors = 10
)

// Options configures a Reader.
type Options struct {
	// Lenient makes per-line parse and I/O errors non-fatal: they are
	// counted, recorded, and the line skipped. When false the first such
	// error aborts iteration.
	Lenient bool

	// MaxBytes refuses any file whose size exceeds the limit before a
	// single line is read. Zero means unlimited. The guard applies only to
	// sources with a declared size (files).
	MaxBytes int64
}

// Stats tracks what a Reader consumed and what it lost.
type Stats struct {
	LinesProcessed   int
	EntriesParsed    int
	LinesSkipped     int
	EmptyLines       int
	VersionConflicts int
	Generation       schema.Generation
	RecentErrors     []*ParseError

	generationSet bool
}

// SuccessRate returns parsed entries over parseable lines, in [0, 1].
// With no parseable lines the rate is 1.
func (s Stats) SuccessRate() float64 {
	denom := s.LinesProcessed - s.LinesSkipped - s.EmptyLines
	if denom <= 0 {
		return 1
	}
	return float64(s.EntriesParsed) / float64(denom)
}

func (s *Stats) recordError(pe *ParseError) {
	s.LinesSkipped++
	if len(s.RecentErrors) < maxRecentErrors {
		s.RecentErrors = append(s.RecentErrors, pe)
	}
}

// observeGeneration applies the schema-detection side effect: the first
// versioned record pins the generation; later disagreements are counted but
// do not change it, since sessions are assumed homogeneous.
func (s *Stats) observeGeneration(version string) {
	if version == "" {
		return
	}
	if !s.generationSet {
		s.Generation = schema.DetectGeneration(version)
		s.generationSet = true
		return
	}
	if s.Generation.Raw != version {
		s.VersionConflicts++
	}
}

// Reader iterates records from a line-oriented byte source, one at a time,
// in file order, with bounded memory.
type Reader struct {
	scanner *bufio.Scanner
	opts    Options
	stats   Stats
	lineNo  int
	closers []io.Closer
	done    bool
}

// New wraps an arbitrary byte source. Size limits do not apply here; use
// Open for file sources.
func New(r io.Reader, opts Options) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, initialBuf), maxLineLen)
	return &Reader{scanner: sc, opts: opts}
}

// NewFromString wraps an in-memory document, mainly for tests.
func NewFromString(s string, opts Options) *Reader {
	return New(strings.NewReader(s), opts)
}

// Open opens a session file, applying the size guard first. Files ending in
// .gz or .zst are decompressed transparently (exported session archives).
func Open(path string, opts Options) (*Reader, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if opts.MaxBytes > 0 && info.Size() > opts.MaxBytes {
		return nil, &ValidationError{Path: path, Size: info.Size(), Limit: opts.MaxBytes}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	var src io.Reader = f
	closers := []io.Closer{f}
	switch {
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		src = gz
		closers = append(closers, gz)
	case strings.HasSuffix(path, ".zst"):
		zr, err := zstd.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		rc := zr.IOReadCloser()
		src = rc
		closers = append(closers, rc)
	}

	r := New(src, opts)
	r.closers = closers
	return r, nil
}

// Next returns the next record, or io.EOF when the source is exhausted.
// In lenient mode malformed lines are skipped and recorded in Stats; in
// strict mode the first failure is returned as a *ParseError.
func (r *Reader) Next() (*schema.Record, error) {
	if r.done {
		return nil, io.EOF
	}
	for r.scanner.Scan() {
		r.lineNo++
		r.stats.LinesProcessed++

		line := r.scanner.Bytes()
		if len(trimSpace(line)) == 0 {
			r.stats.EmptyLines++
			continue
		}

		rec, err := ParseLine(line, r.lineNo)
		if err != nil {
			pe := err.(*ParseError)
			if r.opts.Lenient {
				r.stats.recordError(pe)
				continue
			}
			r.done = true
			return nil, pe
		}

		r.stats.EntriesParsed++
		r.stats.observeGeneration(rec.Version)
		return rec, nil
	}

	r.done = true
	if err := r.scanner.Err(); err != nil {
		if r.opts.Lenient {
			// Count the unreadable remainder as one lost line.
			r.stats.LinesSkipped++
			return nil, io.EOF
		}
		return nil, err
	}
	return nil, io.EOF
}

// ReadAll drains the reader.
func (r *Reader) ReadAll() ([]*schema.Record, error) {
	var records []*schema.Record
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
}

// Stats returns a snapshot of the reader's statistics.
func (r *Reader) Stats() Stats {
	return r.stats
}

// Close releases the underlying source, if the reader owns one.
func (r *Reader) Close() error {
	var first error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	r.closers = nil
	return first
}

// ReadFile parses a whole session file and returns its records and stats.
func ReadFile(path string, opts Options) ([]*schema.Record, Stats, error) {
	r, err := Open(path, opts)
	if err != nil {
		return nil, Stats{}, err
	}
	defer func() { _ = r.Close() }()

	records, err := r.ReadAll()
	return records, r.Stats(), err
}

func trimSpace(b []byte) []byte {
	start := 0
	for start < len(b) && (b[start] == ' ' || b[start] == '\t' || b[start] == '\r') {
		start++
	}
	end := len(b)
	for end > start && (b[end-1] == ' ' || b[end-1] == '\t' || b[end-1] == '\r') {
		end--
	}
	return b[start:end]
}
