package schema

import "encoding/json"

// Content block type discriminators.
const (
	BlockText       = "text"
	BlockThinking   = "thinking"
	BlockToolUse    = "tool_use"
	BlockToolResult = "tool_result"
	BlockImage      = "image"
)

// ContentBlock is a single block inside a user or assistant message. The
// Type field selects which of the remaining fields are meaningful.
type ContentBlock struct {
	Type string `json:"type"`

	// text
	Text string `json:"text,omitempty"`

	// thinking
	Thinking  string `json:"thinking,omitempty"`
	Signature string `json:"signature,omitempty"`

	// tool_use
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// tool_result
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`

	// image
	Source json.RawMessage `json:"source,omitempty"`
}

// ResultText flattens a tool_result's content, which the emitter writes
// either as a plain string or as an array of nested blocks.
func (b *ContentBlock) ResultText() string {
	if b.Content == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(b.Content, &s); err == nil {
		return s
	}
	var blocks []ContentBlock
	if err := json.Unmarshal(b.Content, &blocks); err == nil {
		var out string
		for _, nb := range blocks {
			out += nb.Text
		}
		return out
	}
	return ""
}

// ContentList is the ordered block sequence of a message. The emitter writes
// message.content either as a bare string (early user records) or as an
// array of blocks; both decode to the same representation.
type ContentList []ContentBlock

// UnmarshalJSON accepts a string or an array of content blocks.
func (c *ContentList) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = ContentList{{Type: BlockText, Text: s}}
		return nil
	}
	var blocks []ContentBlock
	if err := json.Unmarshal(data, &blocks); err != nil {
		return err
	}
	*c = ContentList(blocks)
	return nil
}

// Text concatenates all text blocks.
func (c ContentList) Text() string {
	var out string
	for _, b := range c {
		if b.Type == BlockText {
			out += b.Text
		}
	}
	return out
}

// ToolUses returns the tool_use blocks in order.
func (c ContentList) ToolUses() []ContentBlock {
	var out []ContentBlock
	for _, b := range c {
		if b.Type == BlockToolUse {
			out = append(out, b)
		}
	}
	return out
}

// ToolResults returns the tool_result blocks in order.
func (c ContentList) ToolResults() []ContentBlock {
	var out []ContentBlock
	for _, b := range c {
		if b.Type == BlockToolResult {
			out = append(out, b)
		}
	}
	return out
}

// Message is the nested message payload of a user or assistant record.
type Message struct {
	ID         string      `json:"id,omitempty"`
	Role       string      `json:"role,omitempty"`
	Model      string      `json:"model,omitempty"`
	Content    ContentList `json:"content,omitempty"`
	StopReason string      `json:"stop_reason,omitempty"`
	Usage      *Usage      `json:"usage,omitempty"`
}
