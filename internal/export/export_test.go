package export

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/quarryhill/cclens/internal/analyzer"
	"github.com/quarryhill/cclens/internal/billing"
	"github.com/quarryhill/cclens/internal/conversation"
	"github.com/quarryhill/cclens/internal/parser"
)

const sessionJSONL = `{"type":"user","uuid":"u1","timestamp":"2026-03-01T10:00:00Z","message":{"role":"user","content":"list the files"},"futureField":{"a":1}}
{"type":"assistant","uuid":"a1","parentUuid":"u1","timestamp":"2026-03-01T10:00:02Z","message":{"id":"m1","model":"claude-sonnet-4-5","content":[{"type":"tool_use","id":"t1","name":"Bash","input":{"command":"ls"}}],"usage":{"input_tokens":10,"output_tokens":5}}}
{"type":"user","uuid":"u2","parentUuid":"a1","timestamp":"2026-03-01T10:00:03Z","message":{"role":"user","content":[{"type":"tool_result","tool_use_id":"t1","content":"a.txt\nb.txt"}]}}
{"type":"assistant","uuid":"a2","parentUuid":"u2","timestamp":"2026-03-01T10:00:05Z","message":{"id":"m2","model":"claude-sonnet-4-5","content":[{"type":"text","text":"Two files."}],"usage":{"input_tokens":20,"output_tokens":8}}}
`

func TestWriteJSONLRoundTrip(t *testing.T) {
	r := parser.NewFromString(sessionJSONL, parser.Options{})
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteJSONL(&buf, records); err != nil {
		t.Fatalf("WriteJSONL: %v", err)
	}
	if buf.String() != sessionJSONL {
		t.Errorf("round trip changed bytes:\ngot:  %q\nwant: %q", buf.String(), sessionJSONL)
	}
}

func TestWriteJSONLFileCompressed(t *testing.T) {
	r := parser.NewFromString(sessionJSONL, parser.Options{})
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}

	for _, ext := range []string{".jsonl", ".jsonl.gz", ".jsonl.zst"} {
		path := filepath.Join(t.TempDir(), "session"+ext)
		if err := WriteJSONLFile(path, records); err != nil {
			t.Fatalf("WriteJSONLFile(%s): %v", ext, err)
		}
		back, _, err := parser.ReadFile(path, parser.Options{})
		if err != nil {
			t.Fatalf("ReadFile(%s): %v", ext, err)
		}
		if len(back) != len(records) {
			t.Errorf("%s: got %d records, want %d", ext, len(back), len(records))
		}
	}
}

func TestWriteMarkdown(t *testing.T) {
	r := parser.NewFromString(sessionJSONL, parser.Options{})
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	conv := conversation.Build(records)

	var buf bytes.Buffer
	err = WriteMarkdown(&buf, conv, MarkdownOptions{Title: "demo", Timestamps: true})
	if err != nil {
		t.Fatalf("WriteMarkdown: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"# demo",
		"## User (2026-03-01T10:00:00Z)",
		"list the files",
		"*Tool call: `Bash`*",
		"a.txt\nb.txt",
		"Two files.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q:\n%s", want, out)
		}
	}
}

func TestWriteDailyCSV(t *testing.T) {
	daily := []analyzer.DailyActivity{
		{Date: "2026-03-01", Sessions: 2, Messages: 10, Tokens: 1500, CostUSD: 0.5},
		{Date: "2026-03-02"},
	}
	var buf bytes.Buffer
	if err := WriteDailyCSV(&buf, daily); err != nil {
		t.Fatalf("WriteDailyCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if lines[0] != "date,sessions,messages,tokens,cost_usd" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "2026-03-01,2,10,1500,0.5000" {
		t.Errorf("row = %q", lines[1])
	}
}

func TestWriteBlocksCSV(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	blocks := []billing.Block{{
		Start:         start,
		End:           start.Add(5 * time.Hour),
		Status:        billing.StatusCompleted,
		MessageCount:  3,
		InputTokens:   100,
		OutputTokens:  50,
		EstimatedCost: 0.25,
	}}
	var buf bytes.Buffer
	if err := WriteBlocksCSV(&buf, blocks); err != nil {
		t.Fatalf("WriteBlocksCSV: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "2026-03-01T10:00:00Z,2026-03-01T15:00:00Z,completed,3,0,100,50,0,0,0.2500") {
		t.Errorf("blocks csv = %q", out)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, map[string]int{"records": 4}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if !strings.Contains(buf.String(), "\"records\": 4") {
		t.Errorf("json = %q", buf.String())
	}
	if !strings.HasSuffix(buf.String(), "\n") {
		t.Error("missing trailing newline")
	}
}
