package conversation

import (
	"github.com/quarryhill/cclens/internal/schema"
)

// Turn is one user/assistant exchange on the main thread, with the tool
// traffic that belongs to it. Orphan assistants (no preceding user) produce
// turns with a nil User.
type Turn struct {
	User        *schema.Record
	Assistant   *schema.Record
	ToolUses    []schema.ContentBlock
	ToolResults []schema.ContentBlock
}

// Turns folds the main thread into user/assistant exchanges. A user record
// carrying only tool_result blocks continues the current turn (it is the
// tool-loop reply, not new human input); a user record with text starts a
// new one.
func (c *Conversation) Turns() []Turn {
	var turns []Turn
	var cur *Turn

	flush := func() {
		if cur != nil {
			turns = append(turns, *cur)
			cur = nil
		}
	}

	for _, uuid := range c.mainThread {
		rec := c.nodes[uuid].Record

		switch rec.Kind {
		case schema.KindUser:
			results := rec.Content().ToolResults()
			hasText := rec.Content().Text() != ""

			if cur != nil && len(results) > 0 && !hasText {
				cur.ToolResults = append(cur.ToolResults, results...)
				continue
			}

			flush()
			cur = &Turn{User: rec}
			cur.ToolResults = append(cur.ToolResults, results...)

		case schema.KindAssistant:
			if cur == nil {
				cur = &Turn{}
			}
			if cur.Assistant == nil {
				cur.Assistant = rec
			}
			cur.ToolUses = append(cur.ToolUses, rec.Content().ToolUses()...)
		}
	}
	flush()
	return turns
}
