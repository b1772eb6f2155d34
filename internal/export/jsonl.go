package export

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/quarryhill/cclens/internal/schema"
)

// WriteJSONL writes records back out as JSONL. Records decoded from a
// session file re-emit their original bytes, so a parse/write cycle
// preserves unknown fields and key order.
func WriteJSONL(w io.Writer, records []*schema.Record) error {
	bw := bufio.NewWriter(w)
	for _, rec := range records {
		data, err := rec.MarshalJSON()
		if err != nil {
			return err
		}
		if _, err := bw.Write(data); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteJSONLFile writes records to a file, compressing by extension:
// .gz produces gzip, .zst produces zstandard, anything else plain text.
func WriteJSONLFile(path string, records []*schema.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	var w io.Writer = f
	var closers []io.Closer
	switch {
	case strings.HasSuffix(path, ".gz"):
		zw := gzip.NewWriter(f)
		w = zw
		closers = append(closers, zw)
	case strings.HasSuffix(path, ".zst"):
		zw, err := zstd.NewWriter(f)
		if err != nil {
			_ = f.Close()
			return err
		}
		w = zw
		closers = append(closers, zw)
	}
	closers = append(closers, f)

	if err := WriteJSONL(w, records); err != nil {
		for _, c := range closers {
			_ = c.Close()
		}
		return err
	}
	for _, c := range closers {
		if err := c.Close(); err != nil {
			return err
		}
	}
	return nil
}
