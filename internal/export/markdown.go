package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/quarryhill/cclens/internal/conversation"
	"github.com/quarryhill/cclens/internal/schema"
)

// Thread selects which path through the conversation tree to render.
type Thread string

const (
	ThreadMain    Thread = "main"
	ThreadDeepest Thread = "deepest"
	ThreadLatest  Thread = "latest"
	ThreadAll     Thread = "all"
)

// MarkdownOptions controls transcript rendering.
type MarkdownOptions struct {
	Title      string
	Thread     Thread
	Timestamps bool
}

// WriteMarkdown renders a conversation as a markdown transcript.
func WriteMarkdown(w io.Writer, conv *conversation.Conversation, opts MarkdownOptions) error {
	var sb strings.Builder

	title := opts.Title
	if title == "" {
		title = "Session transcript"
	}
	sb.WriteString("# " + title + "\n")

	uuids := threadUUIDs(conv, opts.Thread)
	for _, id := range uuids {
		node := conv.Node(id)
		if node == nil {
			continue
		}
		renderRecord(&sb, node.Record, opts)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func threadUUIDs(conv *conversation.Conversation, t Thread) []string {
	switch t {
	case ThreadDeepest:
		return conv.DeepestThread()
	case ThreadLatest:
		return conv.LatestThread()
	case ThreadAll:
		return conv.DepthFirst()
	default:
		return conv.MainThread()
	}
}

func renderRecord(sb *strings.Builder, rec *schema.Record, opts MarkdownOptions) {
	switch rec.Kind {
	case schema.KindUser:
		renderUser(sb, rec, opts)
	case schema.KindAssistant:
		renderAssistant(sb, rec, opts)
	case schema.KindSummary:
		sb.WriteString("\n> Summary: " + rec.Summary + "\n")
	case schema.KindSystem:
		if rec.Subtype == schema.SubtypeAPIError {
			fmt.Fprintf(sb, "\n> API error, retry %d/%d\n", rec.RetryAttempt, rec.MaxRetries)
		}
	}
}

func renderUser(sb *strings.Builder, rec *schema.Record, opts MarkdownOptions) {
	content := rec.Content()

	// Tool results render under the assistant message that called them.
	results := content.ToolResults()
	if len(results) > 0 {
		for _, res := range results {
			text := res.ResultText()
			label := "result"
			if res.IsError {
				label = "error"
			}
			fmt.Fprintf(sb, "\n*Tool %s:*\n\n```\n%s\n```\n", label, truncate(text, 2000))
		}
		return
	}

	sb.WriteString("\n## User" + stamp(rec, opts) + "\n\n")
	sb.WriteString(content.Text() + "\n")
}

func renderAssistant(sb *strings.Builder, rec *schema.Record, opts MarkdownOptions) {
	content := rec.Content()

	if text := content.Text(); text != "" {
		sb.WriteString("\n## Assistant" + stamp(rec, opts) + "\n\n")
		sb.WriteString(text + "\n")
	}
	for _, use := range content.ToolUses() {
		fmt.Fprintf(sb, "\n*Tool call: `%s`*\n", use.Name)
	}
}

func stamp(rec *schema.Record, opts MarkdownOptions) string {
	if !opts.Timestamps {
		return ""
	}
	ts, ok := rec.Timestamp()
	if !ok {
		return ""
	}
	return " (" + ts.UTC().Format(time.RFC3339) + ")"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
