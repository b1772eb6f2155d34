package conversation

import (
	"fmt"
	"testing"

	"github.com/quarryhill/cclens/internal/schema"
)

// rec decodes one JSONL line into a record, failing the test on error.
func rec(t *testing.T, line string) *schema.Record {
	t.Helper()
	r, err := schema.DecodeRecord([]byte(line))
	if err != nil {
		t.Fatalf("DecodeRecord(%s): %v", line, err)
	}
	return r
}

// userRec builds a minimal user record with optional parent.
func userRec(t *testing.T, uuid, parent, text string) *schema.Record {
	t.Helper()
	line := fmt.Sprintf(`{"type":"user","uuid":%q,"timestamp":"2026-01-15T10:00:00Z","message":{"role":"user","content":%q}}`, uuid, text)
	if parent != "" {
		line = fmt.Sprintf(`{"type":"user","uuid":%q,"parentUuid":%q,"timestamp":"2026-01-15T10:00:00Z","message":{"role":"user","content":%q}}`, uuid, parent, text)
	}
	return rec(t, line)
}

func equalSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestBuild_LinearConversation(t *testing.T) {
	c := Build([]*schema.Record{
		userRec(t, "a", "", "one"),
		userRec(t, "b", "a", "two"),
		userRec(t, "c", "b", "three"),
	})

	if c.Len() != 3 {
		t.Fatalf("Len = %d, want 3", c.Len())
	}
	if !equalSlices(c.Roots(), []string{"a"}) {
		t.Errorf("Roots = %v, want [a]", c.Roots())
	}
	if !equalSlices(c.MainThread(), []string{"a", "b", "c"}) {
		t.Errorf("MainThread = %v", c.MainThread())
	}
	if len(c.BranchPoints()) != 0 {
		t.Errorf("BranchPoints = %v, want none", c.BranchPoints())
	}
	if d := c.Node("c").Depth; d != 2 {
		t.Errorf("depth(c) = %d, want 2", d)
	}
}

func TestBuild_Branching(t *testing.T) {
	c := Build([]*schema.Record{
		userRec(t, "a", "", "root"),
		userRec(t, "2a", "a", "first continuation"),
		userRec(t, "2b", "a", "retry branch"),
		userRec(t, "3", "2a", "deeper"),
	})

	if !equalSlices(c.BranchPoints(), []string{"a"}) {
		t.Errorf("BranchPoints = %v, want [a]", c.BranchPoints())
	}
	if !c.Node("a").IsBranchPoint {
		t.Error("a should be a branch point")
	}
	if !equalSlices(c.MainThread(), []string{"a", "2a", "3"}) {
		t.Errorf("MainThread = %v, want [a 2a 3]", c.MainThread())
	}
	if c.Node("2b").OnMainThread {
		t.Error("2b must not be on the main thread")
	}
	if !c.Node("2a").OnMainThread {
		t.Error("2a should be on the main thread")
	}
}

func TestBuild_BranchPointPredicate(t *testing.T) {
	c := Build([]*schema.Record{
		userRec(t, "a", "", "x"),
		userRec(t, "b", "a", "x"),
		userRec(t, "c", "a", "x"),
		userRec(t, "d", "b", "x"),
	})
	for _, uuid := range c.UUIDs() {
		n := c.Node(uuid)
		if n.IsBranchPoint != (len(n.Children) > 1) {
			t.Errorf("node %s: IsBranchPoint=%v with %d children", uuid, n.IsBranchPoint, len(n.Children))
		}
	}
}

func TestBuild_DanglingParentBecomesRoot(t *testing.T) {
	c := Build([]*schema.Record{
		userRec(t, "a", "", "x"),
		userRec(t, "b", "missing", "orphan"),
	})

	if !equalSlices(c.Roots(), []string{"a", "b"}) {
		t.Errorf("Roots = %v, want [a b]", c.Roots())
	}
	if c.Stats().DanglingParents != 1 {
		t.Errorf("DanglingParents = %d, want 1", c.Stats().DanglingParents)
	}
	// Main thread starts from the first root only.
	if !equalSlices(c.MainThread(), []string{"a"}) {
		t.Errorf("MainThread = %v, want [a]", c.MainThread())
	}
}

func TestBuild_DuplicateUUIDKeepsShape(t *testing.T) {
	first := rec(t, `{"type":"user","uuid":"dup","message":{"role":"user","content":"first"}}`)
	second := rec(t, `{"type":"user","uuid":"dup","message":{"role":"user","content":"second"}}`)
	child := userRec(t, "child", "dup", "x")

	c := Build([]*schema.Record{first, second, child})

	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
	if got := c.Node("dup").Record.Content().Text(); got != "second" {
		t.Errorf("surviving record text = %q, want %q (last writer wins)", got, "second")
	}
	if !equalSlices(c.Node("dup").Children, []string{"child"}) {
		t.Errorf("children of dup = %v", c.Node("dup").Children)
	}
	if c.Stats().DuplicateUUIDs != 1 {
		t.Errorf("DuplicateUUIDs = %d, want 1", c.Stats().DuplicateUUIDs)
	}
}

func TestBuild_CycleDoesNotLoop(t *testing.T) {
	// a -> b -> a with no root: the builder must terminate and report it.
	a := userRec(t, "a", "b", "x")
	b := userRec(t, "b", "a", "y")

	c := Build([]*schema.Record{a, b})

	if c.Len() != 2 {
		t.Fatalf("Len = %d", c.Len())
	}
	if len(c.Roots()) != 0 {
		t.Errorf("Roots = %v, want none (both parents resolve)", c.Roots())
	}
	if c.Stats().CycleNodes == 0 {
		t.Error("expected cycle nodes to be reported")
	}
}

func TestBuild_ToolLinkage(t *testing.T) {
	assistant := rec(t, `{"type":"assistant","uuid":"a1","timestamp":"2026-01-15T10:00:00Z","message":{"id":"m1","model":"claude-opus-4-6","content":[{"type":"tool_use","id":"t1","name":"shell","input":{"command":"ls"}}]}}`)
	user := rec(t, `{"type":"user","uuid":"u1","parentUuid":"a1","timestamp":"2026-01-15T10:00:05Z","message":{"role":"user","content":[{"type":"tool_result","tool_use_id":"t1","content":"ok"}]}}`)

	c := Build([]*schema.Record{assistant, user})

	owner, ok := c.ToolLink("t1")
	if !ok || owner != "a1" {
		t.Errorf("ToolLink(t1) = %q, %v; want a1, true", owner, ok)
	}
	if !c.Stats().ToolsBalanced() {
		t.Error("expected balanced tools")
	}
}

func TestBuild_UnmatchedToolResultRetained(t *testing.T) {
	user := rec(t, `{"type":"user","uuid":"u1","message":{"role":"user","content":[{"type":"tool_result","tool_use_id":"ghost","content":"ok"}]}}`)

	c := Build([]*schema.Record{user})

	if _, ok := c.ToolLink("ghost"); ok {
		t.Error("ghost should not resolve")
	}
	if !equalSlices(c.UnmatchedToolResults(), []string{"ghost"}) {
		t.Errorf("UnmatchedToolResults = %v", c.UnmatchedToolResults())
	}
	if c.Stats().ToolsBalanced() {
		t.Error("tools should be imbalanced")
	}
	if c.Len() != 1 {
		t.Errorf("record must be retained, Len = %d", c.Len())
	}
}

func TestBuild_UUIDLessRecordsCountedNotPlaced(t *testing.T) {
	summary := rec(t, `{"type":"summary","summary":"a session"}`)
	c := Build([]*schema.Record{summary, userRec(t, "a", "", "x")})

	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1 (summary has no uuid)", c.Len())
	}
	if c.Stats().TotalRecords != 2 {
		t.Errorf("TotalRecords = %d, want 2", c.Stats().TotalRecords)
	}
}

func TestBuild_StatsCounts(t *testing.T) {
	records := []*schema.Record{
		userRec(t, "u1", "", "hello"),
		rec(t, `{"type":"assistant","uuid":"a1","parentUuid":"u1","message":{"id":"m1","content":[{"type":"thinking","thinking":"...","signature":"s"},{"type":"text","text":"hi"},{"type":"tool_use","id":"t1","name":"Read","input":{}}]}}`),
		rec(t, `{"type":"user","uuid":"u2","parentUuid":"a1","message":{"role":"user","content":[{"type":"tool_result","tool_use_id":"t1","content":"data"}]}}`),
		rec(t, `{"type":"system","uuid":"s1","parentUuid":"u2","subtype":"api_error","retryAttempt":1,"maxRetries":10}`),
	}
	c := Build(records)

	s := c.Stats()
	if s.UserCount != 2 || s.AssistantCount != 1 || s.SystemCount != 1 {
		t.Errorf("counts = %d/%d/%d", s.UserCount, s.AssistantCount, s.SystemCount)
	}
	if s.ToolUseCount != 1 || s.ToolResultCount != 1 || s.ThinkingBlockCount != 1 {
		t.Errorf("block counts = %d/%d/%d", s.ToolUseCount, s.ToolResultCount, s.ThinkingBlockCount)
	}
	if s.MainThreadLength != 4 {
		t.Errorf("MainThreadLength = %d, want 4", s.MainThreadLength)
	}
	if s.MaxDepth != 3 {
		t.Errorf("MaxDepth = %d, want 3", s.MaxDepth)
	}
}
