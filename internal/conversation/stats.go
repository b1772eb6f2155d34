package conversation

// Stats summarizes a conversation's shape and the structural anomalies met
// while building it. Anomalies never abort construction; they surface here.
type Stats struct {
	TotalRecords   int
	UserCount      int
	AssistantCount int
	SystemCount    int

	ToolUseCount       int
	ToolResultCount    int
	ThinkingBlockCount int
	SidechainCount     int

	BranchCount      int
	MaxDepth         int
	MainThreadLength int

	DuplicateUUIDs       int
	DanglingParents      int
	CycleNodes           int
	UnmatchedToolResults int
}

// ToolsBalanced reports whether every tool_use saw a tool_result. An
// imbalance usually means the session was cut mid-turn or results live in
// a sidechain file.
func (s Stats) ToolsBalanced() bool {
	return s.ToolUseCount == s.ToolResultCount
}

// Stats returns the conversation's statistics.
func (c *Conversation) Stats() Stats {
	return c.stats
}
