package discover

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/quarryhill/cclens/internal/parser"
	"github.com/quarryhill/cclens/internal/schema"
)

// FileKind classifies a JSONL file found under a project directory.
type FileKind int

const (
	// KindSession is a top-level session transcript (filename is a UUID).
	KindSession FileKind = iota
	// KindAgent is a subagent sidechain transcript.
	KindAgent
	// KindOther is a JSONL file whose name matches neither convention.
	KindOther
)

func (k FileKind) String() string {
	switch k {
	case KindSession:
		return "session"
	case KindAgent:
		return "agent"
	default:
		return "other"
	}
}

// SessionFile describes a discovered transcript file before parsing.
type SessionFile struct {
	Path        string
	SessionID   string
	ProjectHash string
	Kind        FileKind
	Size        int64
	ModTime     time.Time
	Activity    parser.Activity
}

// Project is a directory under <claudeHome>/projects/ together with the
// transcript files it contains.
type Project struct {
	Hash  string
	Path  string
	Files []SessionFile
}

// DecodedPath converts the dash-encoded project hash back to an
// approximate filesystem path. The encoding is lossy (dashes in the
// original path are indistinguishable from separators), so the result
// is for display only.
func (p Project) DecodedPath() string {
	if p.Hash == "" || p.Hash[0] != '-' {
		return p.Hash
	}
	return strings.ReplaceAll(p.Hash, "-", "/")
}

// Sessions returns only the top-level session files, newest first.
func (p Project) Sessions() []SessionFile {
	var out []SessionFile
	for _, f := range p.Files {
		if f.Kind == KindSession {
			out = append(out, f)
		}
	}
	return out
}

// classify determines the file kind from a JSONL filename stem. Session
// transcripts are named after their session UUID; subagent sidechains
// carry an "agent-" prefix.
func classify(stem string) (FileKind, string) {
	if rest, ok := strings.CutPrefix(stem, "agent-"); ok {
		if _, err := uuid.Parse(rest); err == nil {
			return KindAgent, rest
		}
		return KindAgent, stem
	}
	if _, err := uuid.Parse(stem); err == nil {
		return KindSession, stem
	}
	return KindOther, stem
}

// ListProjects scans <claudeHome>/projects/ and returns every project
// directory with its transcript files. Files are sorted newest first
// within each project; projects are sorted by most recent activity.
func ListProjects(claudeHome string) ([]Project, error) {
	projectsDir := filepath.Join(claudeHome, "projects")
	entries, err := os.ReadDir(projectsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	now := time.Now()
	var projects []Project
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		hash := entry.Name()
		dirPath := filepath.Join(projectsDir, hash)

		files, err := os.ReadDir(dirPath)
		if err != nil {
			continue
		}

		proj := Project{Hash: hash, Path: dirPath}
		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(f.Name(), ".jsonl") {
				continue
			}
			info, err := f.Info()
			if err != nil {
				continue
			}
			stem := strings.TrimSuffix(f.Name(), ".jsonl")
			kind, sessionID := classify(stem)
			proj.Files = append(proj.Files, SessionFile{
				Path:        filepath.Join(dirPath, f.Name()),
				SessionID:   sessionID,
				ProjectHash: hash,
				Kind:        kind,
				Size:        info.Size(),
				ModTime:     info.ModTime(),
				Activity:    parser.ClassifyActivity(info.ModTime(), now),
			})
		}
		if len(proj.Files) == 0 {
			continue
		}
		sort.Slice(proj.Files, func(i, j int) bool {
			return proj.Files[i].ModTime.After(proj.Files[j].ModTime)
		})
		projects = append(projects, proj)
	}

	sort.Slice(projects, func(i, j int) bool {
		return projects[i].Files[0].ModTime.After(projects[j].Files[0].ModTime)
	})
	return projects, nil
}

// ListSessions flattens ListProjects into a single newest-first list of
// top-level session files across all projects.
func ListSessions(claudeHome string) ([]SessionFile, error) {
	projects, err := ListProjects(claudeHome)
	if err != nil {
		return nil, err
	}
	var sessions []SessionFile
	for _, p := range projects {
		sessions = append(sessions, p.Sessions()...)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].ModTime.After(sessions[j].ModTime)
	})
	return sessions, nil
}

// FindSession locates a session file by ID or unique ID prefix across
// all projects. Returns the zero value and false when no file matches
// or the prefix is ambiguous.
func FindSession(claudeHome, idOrPrefix string) (SessionFile, bool, error) {
	sessions, err := ListSessions(claudeHome)
	if err != nil {
		return SessionFile{}, false, err
	}
	var matches []SessionFile
	for _, s := range sessions {
		if s.SessionID == idOrPrefix {
			return s, true, nil
		}
		if strings.HasPrefix(s.SessionID, idOrPrefix) {
			matches = append(matches, s)
		}
	}
	if len(matches) == 1 {
		return matches[0], true, nil
	}
	return SessionFile{}, false, nil
}

// LoadedSession pairs a discovered file with its parsed records.
type LoadedSession struct {
	File    SessionFile
	Records []*schema.Record
	Stats   parser.Stats
	Err     error
}

// LoadSessions parses the given files concurrently. Parse failures are
// reported per session in the Err field rather than aborting the batch;
// only unexpected errors (never produced today) abort.
func LoadSessions(files []SessionFile, opts parser.Options) ([]LoadedSession, error) {
	loaded := make([]LoadedSession, len(files))

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, f := range files {
		g.Go(func() error {
			records, stats, err := parser.ReadFile(f.Path, opts)
			loaded[i] = LoadedSession{File: f, Records: records, Stats: stats, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return loaded, nil
}
