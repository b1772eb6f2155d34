package conversation

import (
	"testing"

	"github.com/quarryhill/cclens/internal/schema"
)

func TestReconstructMessages_StreamingFragments(t *testing.T) {
	frag1 := rec(t, `{"type":"assistant","uuid":"a1","timestamp":"2026-01-15T10:00:00Z","message":{"id":"m1","model":"claude-opus-4-6","content":[{"type":"text","text":"Hello"}]}}`)
	frag2 := rec(t, `{"type":"assistant","uuid":"a2","parentUuid":"a1","timestamp":"2026-01-15T10:00:01Z","message":{"id":"m1","model":"claude-opus-4-6","content":[{"type":"text","text":" world"}],"stop_reason":"end_turn","usage":{"input_tokens":7,"output_tokens":2}}}`)

	c := Build([]*schema.Record{frag1, frag2})

	msgs := c.ReconstructMessages()
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	m := msgs[0]
	if m.Text() != "Hello world" {
		t.Errorf("Text = %q, want %q", m.Text(), "Hello world")
	}
	if m.ChunkCount != 2 {
		t.Errorf("ChunkCount = %d, want 2", m.ChunkCount)
	}
	if m.StopReason != "end_turn" {
		t.Errorf("StopReason = %q (terminal state comes from the last fragment)", m.StopReason)
	}
	if m.Usage == nil || m.Usage.InputTokens != 7 {
		t.Errorf("Usage = %+v", m.Usage)
	}
	if m.Model != "claude-opus-4-6" {
		t.Errorf("Model = %q", m.Model)
	}
}

func TestReconstructMessages_PreservesEncounterOrder(t *testing.T) {
	records := []*schema.Record{
		rec(t, `{"type":"assistant","uuid":"a1","message":{"id":"m1","content":[{"type":"text","text":"x"}]}}`),
		rec(t, `{"type":"assistant","uuid":"b1","parentUuid":"a1","message":{"id":"m2","content":[{"type":"text","text":"y"}]}}`),
		rec(t, `{"type":"assistant","uuid":"a2","parentUuid":"b1","message":{"id":"m1","content":[{"type":"text","text":"x2"}]}}`),
	}
	c := Build(records)

	msgs := c.ReconstructMessages()
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].MessageID != "m1" || msgs[1].MessageID != "m2" {
		t.Errorf("order = %s, %s; want m1, m2", msgs[0].MessageID, msgs[1].MessageID)
	}
	if msgs[0].Text() != "xx2" {
		t.Errorf("interleaved fragments folded to %q", msgs[0].Text())
	}
}

func TestReconstructMessages_Idempotent(t *testing.T) {
	records := []*schema.Record{
		rec(t, `{"type":"assistant","uuid":"a1","message":{"id":"m1","content":[{"type":"text","text":"Hello"}]}}`),
		rec(t, `{"type":"assistant","uuid":"a2","parentUuid":"a1","message":{"id":"m1","content":[{"type":"text","text":" world"}],"stop_reason":"end_turn"}}`),
	}
	c := Build(records)

	first := c.ReconstructMessages()
	second := c.ReconstructMessages()
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Text() != second[i].Text() || first[i].ChunkCount != second[i].ChunkCount ||
			first[i].StopReason != second[i].StopReason {
			t.Errorf("message %d differs between runs", i)
		}
	}
}

func TestReconstructMessage_Unknown(t *testing.T) {
	c := Build(nil)
	if m := c.ReconstructMessage("nope"); m.MessageID != "" || m.ChunkCount != 0 {
		t.Errorf("unknown id yielded %+v", m)
	}
}

func TestMessageGroup_Accessors(t *testing.T) {
	records := []*schema.Record{
		rec(t, `{"type":"assistant","uuid":"a1","message":{"id":"m1","content":[{"type":"text","text":"x"}]}}`),
		rec(t, `{"type":"assistant","uuid":"a2","parentUuid":"a1","message":{"id":"m1","content":[{"type":"text","text":"y"}]}}`),
	}
	c := Build(records)

	if got := c.MessageGroup("m1"); !equalSlices(got, []string{"a1", "a2"}) {
		t.Errorf("MessageGroup = %v", got)
	}
	if got := c.MessageIDs(); !equalSlices(got, []string{"m1"}) {
		t.Errorf("MessageIDs = %v", got)
	}
}
