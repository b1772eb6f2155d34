package parser

import (
	"github.com/quarryhill/cclens/internal/schema"
)

// ParseLine decodes one JSONL line into a record. The line number is
// carried into the error so lenient readers can report where a session file
// went bad. Line decoding is deliberately independent of the file reader:
// a trailing partial line in an active session must be skippable without
// losing earlier records, and tests feed synthetic strings.
func ParseLine(data []byte, lineNo int) (*schema.Record, error) {
	rec, err := schema.DecodeRecord(data)
	if err != nil {
		return nil, newParseError(lineNo, err.Error(), data)
	}
	return rec, nil
}
