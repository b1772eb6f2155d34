package conversation

import (
	"github.com/quarryhill/cclens/internal/schema"
)

// ReconstructedMessage is one logical assistant message folded from its
// streaming fragments. Tree structure stays at the fragment level (each
// fragment has its own uuid and parent link); analytics and exporters want
// this view instead.
type ReconstructedMessage struct {
	MessageID  string
	Model      string
	UUIDs      []string
	Content    schema.ContentList
	StopReason string
	Usage      *schema.Usage
	ChunkCount int
}

// Text concatenates the message's text blocks.
func (m *ReconstructedMessage) Text() string {
	return m.Content.Text()
}

// ReconstructMessages folds each message group into one logical message in
// first-encounter order. Content blocks concatenate in fragment order;
// stop_reason and usage come from the last fragment, which holds the
// terminal state.
func (c *Conversation) ReconstructMessages() []ReconstructedMessage {
	out := make([]ReconstructedMessage, 0, len(c.groupOrder))
	for _, id := range c.groupOrder {
		out = append(out, c.reconstructGroup(id))
	}
	return out
}

// ReconstructMessage folds a single message group. The zero value is
// returned for an unknown id.
func (c *Conversation) ReconstructMessage(messageID string) ReconstructedMessage {
	if _, ok := c.groups[messageID]; !ok {
		return ReconstructedMessage{}
	}
	return c.reconstructGroup(messageID)
}

func (c *Conversation) reconstructGroup(messageID string) ReconstructedMessage {
	uuids := c.groups[messageID]
	msg := ReconstructedMessage{
		MessageID:  messageID,
		UUIDs:      append([]string(nil), uuids...),
		ChunkCount: len(uuids),
	}
	for _, uuid := range uuids {
		rec := c.nodes[uuid].Record
		if rec.Message == nil {
			continue
		}
		if msg.Model == "" {
			msg.Model = rec.Message.Model
		}
		msg.Content = append(msg.Content, rec.Message.Content...)
		if rec.Message.StopReason != "" {
			msg.StopReason = rec.Message.StopReason
		}
		if rec.Message.Usage != nil {
			msg.Usage = rec.Message.Usage
		}
	}
	return msg
}
