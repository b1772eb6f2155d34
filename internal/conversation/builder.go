// Package conversation reconstructs the message tree of one session from
// its parsed records: parent/child links, branch points, the main thread,
// tool_use to tool_result pairing, streaming-chunk grouping, and retry
// chains. Construction is tolerant: structural anomalies (dangling parents,
// duplicate uuids, unmatched tool results, even cycles) are reported
// through Stats, never fatal.
package conversation

import (
	"github.com/quarryhill/cclens/internal/schema"
)

// Node is one uuid-bearing record placed in the tree.
type Node struct {
	Record        *schema.Record
	ParentUUID    string
	Children      []string
	Depth         int
	OnMainThread  bool
	IsBranchPoint bool
}

// Conversation is the reconstructed tree for a single session.
type Conversation struct {
	nodes   map[string]*Node
	order   []string // uuid encounter order
	records []*schema.Record

	roots        []string
	mainThread   []string
	branchPoints []string

	toolLinks  map[string]string   // tool_use id -> emitting assistant uuid
	groups     map[string][]string // message id -> assistant uuids
	groupOrder []string

	unmatchedResults []string // tool_use_ids with no matching tool_use

	stats Stats
}

// Build constructs a Conversation from a session's records in file order.
// File order is the canonical chronological order; timestamps are not
// required to be monotone.
func Build(records []*schema.Record) *Conversation {
	c := &Conversation{
		nodes:     make(map[string]*Node),
		records:   records,
		toolLinks: make(map[string]string),
		groups:    make(map[string][]string),
	}

	c.indexRecords()
	c.linkChildren()
	c.labelDepths()
	c.selectMainThread()
	c.finalizeStats()
	return c
}

// indexRecords is pass 1: place every uuid-bearing record into nodes in
// encounter order, collect message groups, and pair tool results with the
// tool uses that precede them.
func (c *Conversation) indexRecords() {
	toolUseOwner := make(map[string]string)

	for _, rec := range c.records {
		c.stats.TotalRecords++

		switch rec.Kind {
		case schema.KindUser:
			c.stats.UserCount++
		case schema.KindAssistant:
			c.stats.AssistantCount++
		case schema.KindSystem:
			c.stats.SystemCount++
		}
		if rec.IsSidechain {
			c.stats.SidechainCount++
		}

		if rec.UUID != "" {
			if existing, ok := c.nodes[rec.UUID]; ok {
				// Duplicate uuid: last writer wins for the record value,
				// children accumulated on the surviving node keep linking.
				c.stats.DuplicateUUIDs++
				existing.Record = rec
				existing.ParentUUID = rec.ParentUUID
			} else {
				c.nodes[rec.UUID] = &Node{Record: rec, ParentUUID: rec.ParentUUID}
				c.order = append(c.order, rec.UUID)
			}
		}

		switch rec.Kind {
		case schema.KindAssistant:
			if id := rec.MessageID(); id != "" && rec.UUID != "" {
				if _, seen := c.groups[id]; !seen {
					c.groupOrder = append(c.groupOrder, id)
				}
				c.groups[id] = append(c.groups[id], rec.UUID)
			}
			for _, use := range rec.Content().ToolUses() {
				c.stats.ToolUseCount++
				if use.ID != "" && rec.UUID != "" {
					toolUseOwner[use.ID] = rec.UUID
				}
			}
			for _, b := range rec.Content() {
				if b.Type == schema.BlockThinking {
					c.stats.ThinkingBlockCount++
				}
			}

		case schema.KindUser:
			for _, res := range rec.Content().ToolResults() {
				c.stats.ToolResultCount++
				owner, ok := toolUseOwner[res.ToolUseID]
				if !ok {
					// The matching call may live in a parallel or earlier
					// file; retain without error.
					c.unmatchedResults = append(c.unmatchedResults, res.ToolUseID)
					continue
				}
				c.toolLinks[res.ToolUseID] = owner
			}
		}
	}
}

// linkChildren is pass 2: attach each node to its parent. Child order is
// encounter order, the authoritative tie-break for branch selection.
func (c *Conversation) linkChildren() {
	for _, uuid := range c.order {
		node := c.nodes[uuid]
		parent := node.ParentUUID
		if parent == "" || parent == uuid {
			c.roots = append(c.roots, uuid)
			continue
		}
		p, ok := c.nodes[parent]
		if !ok {
			// Dangling parent: tolerated, node becomes an additional root.
			c.stats.DanglingParents++
			c.roots = append(c.roots, uuid)
			continue
		}
		p.Children = append(p.Children, uuid)
	}
}

// labelDepths is pass 3: depth-index every node from the roots, mark branch
// points. A visited set bounds the traversal; the on-disk format does not
// forbid cycles even though the emitter never writes one.
func (c *Conversation) labelDepths() {
	visited := make(map[string]bool, len(c.nodes))

	var walk func(uuid string, depth int)
	walk = func(uuid string, depth int) {
		if visited[uuid] {
			return
		}
		visited[uuid] = true
		node := c.nodes[uuid]
		node.Depth = depth
		if depth > c.stats.MaxDepth {
			c.stats.MaxDepth = depth
		}
		for _, child := range node.Children {
			walk(child, depth+1)
		}
	}

	for _, root := range c.roots {
		walk(root, 0)
	}

	// Nodes unreached from any root sit on a cycle. Depth-index them from
	// their encounter position so every node gets a finite depth.
	for _, uuid := range c.order {
		if !visited[uuid] {
			c.stats.CycleNodes++
			walk(uuid, 0)
		}
	}

	for _, uuid := range c.order {
		node := c.nodes[uuid]
		if len(node.Children) > 1 {
			node.IsBranchPoint = true
			c.branchPoints = append(c.branchPoints, uuid)
		}
	}
}

// selectMainThread is pass 4: from the first root, follow the first child
// to a leaf. The first child is the chronologically earliest continuation;
// alternates are branches from retries, message edits, or sidechains.
func (c *Conversation) selectMainThread() {
	if len(c.roots) == 0 {
		return
	}
	c.mainThread = c.threadFrom(c.roots[0], func(n *Node) string {
		return n.Children[0]
	})
	for _, uuid := range c.mainThread {
		c.nodes[uuid].OnMainThread = true
	}
}

// threadFrom walks from start to a leaf, selecting the next hop with pick.
// The visited guard keeps cyclic data from looping.
func (c *Conversation) threadFrom(start string, pick func(*Node) string) []string {
	var path []string
	visited := make(map[string]bool)
	for uuid := start; uuid != "" && !visited[uuid]; {
		visited[uuid] = true
		path = append(path, uuid)
		node := c.nodes[uuid]
		if len(node.Children) == 0 {
			break
		}
		uuid = pick(node)
	}
	return path
}

func (c *Conversation) finalizeStats() {
	c.stats.BranchCount = len(c.branchPoints)
	c.stats.MainThreadLength = len(c.mainThread)
	c.stats.UnmatchedToolResults = len(c.unmatchedResults)
}

// Len returns the number of nodes in the tree.
func (c *Conversation) Len() int {
	return len(c.nodes)
}

// Node returns the node for uuid, or nil.
func (c *Conversation) Node(uuid string) *Node {
	return c.nodes[uuid]
}

// UUIDs returns all node uuids in encounter order.
func (c *Conversation) UUIDs() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Records returns the session's records in file order, including those
// without a uuid.
func (c *Conversation) Records() []*schema.Record {
	return c.records
}

// Roots returns the root uuids in encounter order.
func (c *Conversation) Roots() []string {
	out := make([]string, len(c.roots))
	copy(out, c.roots)
	return out
}

// BranchPoints returns the uuids with more than one child.
func (c *Conversation) BranchPoints() []string {
	out := make([]string, len(c.branchPoints))
	copy(out, c.branchPoints)
	return out
}

// ToolLink resolves a tool_use id to the uuid of the assistant node that
// emitted it.
func (c *Conversation) ToolLink(toolUseID string) (string, bool) {
	uuid, ok := c.toolLinks[toolUseID]
	return uuid, ok
}

// ToolLinks returns a copy of the full tool-link map.
func (c *Conversation) ToolLinks() map[string]string {
	out := make(map[string]string, len(c.toolLinks))
	for k, v := range c.toolLinks {
		out[k] = v
	}
	return out
}

// UnmatchedToolResults returns the tool_use_ids of results whose call was
// not found in this session.
func (c *Conversation) UnmatchedToolResults() []string {
	out := make([]string, len(c.unmatchedResults))
	copy(out, c.unmatchedResults)
	return out
}

// MessageGroup returns the assistant uuids sharing a message id, in
// encounter order.
func (c *Conversation) MessageGroup(messageID string) []string {
	g := c.groups[messageID]
	out := make([]string, len(g))
	copy(out, g)
	return out
}

// MessageIDs returns the message ids in first-encounter order.
func (c *Conversation) MessageIDs() []string {
	out := make([]string, len(c.groupOrder))
	copy(out, c.groupOrder)
	return out
}
