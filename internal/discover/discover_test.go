package discover

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/quarryhill/cclens/internal/parser"
)

const (
	sessionA = "11111111-2222-3333-4444-555555555555"
	sessionB = "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee"
)

func writeSession(t *testing.T, home, projectHash, name, content string) string {
	t.Helper()
	dir := filepath.Join(home, "projects", projectHash)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestClassify(t *testing.T) {
	tests := []struct {
		stem string
		want FileKind
		id   string
	}{
		{sessionA, KindSession, sessionA},
		{"agent-" + sessionB, KindAgent, sessionB},
		{"agent-notauuid", KindAgent, "agent-notauuid"},
		{"notes", KindOther, "notes"},
	}
	for _, tt := range tests {
		kind, id := classify(tt.stem)
		if kind != tt.want {
			t.Errorf("classify(%q) kind = %v, want %v", tt.stem, kind, tt.want)
		}
		if id != tt.id {
			t.Errorf("classify(%q) id = %q, want %q", tt.stem, id, tt.id)
		}
	}
}

func TestListProjects(t *testing.T) {
	home := t.TempDir()
	line := `{"type":"user","uuid":"u1","message":{"role":"user","content":"hi"}}` + "\n"
	writeSession(t, home, "-home-user-proj", sessionA+".jsonl", line)
	writeSession(t, home, "-home-user-proj", "agent-"+sessionB+".jsonl", line)
	writeSession(t, home, "-home-user-other", sessionB+".jsonl", line)

	projects, err := ListProjects(home)
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("got %d projects, want 2", len(projects))
	}

	var proj *Project
	for i := range projects {
		if projects[i].Hash == "-home-user-proj" {
			proj = &projects[i]
		}
	}
	if proj == nil {
		t.Fatal("project -home-user-proj not found")
	}
	if len(proj.Files) != 2 {
		t.Fatalf("got %d files, want 2", len(proj.Files))
	}
	if got := len(proj.Sessions()); got != 1 {
		t.Errorf("Sessions() = %d files, want 1", got)
	}
	if proj.DecodedPath() != "/home/user/proj" {
		t.Errorf("DecodedPath() = %q", proj.DecodedPath())
	}
}

func TestListProjectsMissingHome(t *testing.T) {
	projects, err := ListProjects(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if projects != nil {
		t.Errorf("got %d projects, want none", len(projects))
	}
}

func TestListSessionsSkipsNonSessionFiles(t *testing.T) {
	home := t.TempDir()
	line := `{"type":"user","uuid":"u1"}` + "\n"
	path := writeSession(t, home, "-p", sessionA+".jsonl", line)
	writeSession(t, home, "-p", "agent-"+sessionB+".jsonl", line)
	writeSession(t, home, "-p", "notes.txt", "not jsonl")

	// Back-date the fixture into the recently-active band (5s - 60s).
	backdated := time.Now().Add(-30 * time.Second)
	if err := os.Chtimes(path, backdated, backdated); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	sessions, err := ListSessions(home)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(sessions))
	}
	if sessions[0].SessionID != sessionA {
		t.Errorf("SessionID = %q, want %q", sessions[0].SessionID, sessionA)
	}
	if sessions[0].Activity != parser.RecentlyActive {
		t.Errorf("Activity = %v, want RecentlyActive", sessions[0].Activity)
	}
}

func TestFindSession(t *testing.T) {
	home := t.TempDir()
	line := `{"type":"user","uuid":"u1"}` + "\n"
	writeSession(t, home, "-p", sessionA+".jsonl", line)
	writeSession(t, home, "-p", sessionB+".jsonl", line)

	got, ok, err := FindSession(home, sessionA)
	if err != nil || !ok {
		t.Fatalf("FindSession exact: ok=%v err=%v", ok, err)
	}
	if got.SessionID != sessionA {
		t.Errorf("SessionID = %q", got.SessionID)
	}

	got, ok, err = FindSession(home, "aaaa")
	if err != nil || !ok {
		t.Fatalf("FindSession prefix: ok=%v err=%v", ok, err)
	}
	if got.SessionID != sessionB {
		t.Errorf("SessionID = %q", got.SessionID)
	}

	if _, ok, _ = FindSession(home, "ffff"); ok {
		t.Error("expected no match for unknown prefix")
	}
}

func TestLoadSessions(t *testing.T) {
	home := t.TempDir()
	good := `{"type":"user","uuid":"u1","message":{"role":"user","content":"hi"}}` + "\n" +
		`{"type":"assistant","uuid":"a1","parentUuid":"u1","message":{"role":"assistant","content":[{"type":"text","text":"hello"}]}}` + "\n"
	writeSession(t, home, "-p", sessionA+".jsonl", good)
	writeSession(t, home, "-p", sessionB+".jsonl", "{broken\n")

	files, err := ListSessions(home)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	loaded, err := LoadSessions(files, parser.Options{Lenient: true})
	if err != nil {
		t.Fatalf("LoadSessions: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("got %d loaded sessions, want 2", len(loaded))
	}
	for _, ls := range loaded {
		if ls.Err != nil {
			t.Fatalf("session %s: %v", ls.File.SessionID, ls.Err)
		}
		switch ls.File.SessionID {
		case sessionA:
			if len(ls.Records) != 2 {
				t.Errorf("session A: %d records, want 2", len(ls.Records))
			}
		case sessionB:
			if len(ls.Records) != 0 {
				t.Errorf("session B: %d records, want 0", len(ls.Records))
			}
			if ls.Stats.LinesSkipped != 1 {
				t.Errorf("session B: LinesSkipped = %d, want 1", ls.Stats.LinesSkipped)
			}
		}
	}
}
