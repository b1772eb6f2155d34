package conversation

// DepthFirst returns every reachable uuid in depth-first order, roots in
// encounter order, children in encounter order.
func (c *Conversation) DepthFirst() []string {
	var out []string
	visited := make(map[string]bool, len(c.nodes))

	var walk func(uuid string)
	walk = func(uuid string) {
		if visited[uuid] {
			return
		}
		visited[uuid] = true
		out = append(out, uuid)
		for _, child := range c.nodes[uuid].Children {
			walk(child)
		}
	}
	for _, root := range c.roots {
		walk(root)
	}
	return out
}

// BreadthFirst returns every reachable uuid level by level.
func (c *Conversation) BreadthFirst() []string {
	var out []string
	visited := make(map[string]bool, len(c.nodes))
	queue := append([]string(nil), c.roots...)

	for len(queue) > 0 {
		uuid := queue[0]
		queue = queue[1:]
		if visited[uuid] {
			continue
		}
		visited[uuid] = true
		out = append(out, uuid)
		queue = append(queue, c.nodes[uuid].Children...)
	}
	return out
}

// MainThread returns the canonical root-to-leaf path selected by first-child
// descent.
func (c *Conversation) MainThread() []string {
	out := make([]string, len(c.mainThread))
	copy(out, c.mainThread)
	return out
}

// DeepestThread returns the root-to-leaf path that maximizes depth. At each
// fork it descends toward the child whose subtree is deepest; encounter
// order breaks ties.
func (c *Conversation) DeepestThread() []string {
	if len(c.roots) == 0 {
		return nil
	}
	heights := c.subtreeHeights()
	return c.threadFrom(c.roots[0], func(n *Node) string {
		best := n.Children[0]
		for _, child := range n.Children[1:] {
			if heights[child] > heights[best] {
				best = child
			}
		}
		return best
	})
}

// LatestThread returns the path from the first root to the leaf with the
// latest timestamp, the "what the user ended up with" reading of a session.
func (c *Conversation) LatestThread() []string {
	if len(c.roots) == 0 {
		return nil
	}
	var latest string
	for _, leaf := range c.Leaves() {
		if latest == "" {
			latest = leaf
			continue
		}
		lt, lok := c.nodes[latest].Record.Timestamp()
		ct, cok := c.nodes[leaf].Record.Timestamp()
		if cok && (!lok || ct.After(lt)) {
			latest = leaf
		}
	}
	if latest == "" {
		return nil
	}
	return c.PathTo(latest)
}

// subtreeHeights computes the height of every node's subtree.
func (c *Conversation) subtreeHeights() map[string]int {
	heights := make(map[string]int, len(c.nodes))
	var walk func(uuid string) int
	walk = func(uuid string) int {
		if h, ok := heights[uuid]; ok {
			return h
		}
		heights[uuid] = 0 // cycle guard: a back edge contributes nothing
		max := 0
		for _, child := range c.nodes[uuid].Children {
			if h := walk(child) + 1; h > max {
				max = h
			}
		}
		heights[uuid] = max
		return max
	}
	for _, root := range c.roots {
		walk(root)
	}
	return heights
}

// PathTo returns the uuids from the nearest root down to uuid, or nil when
// the uuid is unknown.
func (c *Conversation) PathTo(uuid string) []string {
	if _, ok := c.nodes[uuid]; !ok {
		return nil
	}
	var reversed []string
	visited := make(map[string]bool)
	for cur := uuid; cur != "" && !visited[cur]; {
		visited[cur] = true
		reversed = append(reversed, cur)
		node := c.nodes[cur]
		parent := node.ParentUUID
		if parent == "" {
			break
		}
		if _, ok := c.nodes[parent]; !ok {
			break
		}
		cur = parent
	}
	out := make([]string, len(reversed))
	for i, id := range reversed {
		out[len(reversed)-1-i] = id
	}
	return out
}

// CommonAncestor returns the deepest uuid shared by the paths to a and b.
func (c *Conversation) CommonAncestor(a, b string) (string, bool) {
	pa, pb := c.PathTo(a), c.PathTo(b)
	var common string
	for i := 0; i < len(pa) && i < len(pb); i++ {
		if pa[i] != pb[i] {
			break
		}
		common = pa[i]
	}
	return common, common != ""
}

// Subtree returns uuid and every descendant, depth-first.
func (c *Conversation) Subtree(uuid string) []string {
	if _, ok := c.nodes[uuid]; !ok {
		return nil
	}
	var out []string
	visited := make(map[string]bool)

	var walk func(id string)
	walk = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		out = append(out, id)
		for _, child := range c.nodes[id].Children {
			walk(child)
		}
	}
	walk(uuid)
	return out
}

// SubtreeSize returns the number of nodes in uuid's subtree.
func (c *Conversation) SubtreeSize(uuid string) int {
	return len(c.Subtree(uuid))
}

// Leaves returns every childless uuid in encounter order.
func (c *Conversation) Leaves() []string {
	var out []string
	for _, uuid := range c.order {
		if len(c.nodes[uuid].Children) == 0 {
			out = append(out, uuid)
		}
	}
	return out
}

// NodesAtDepth returns the uuids labelled with depth d, in encounter order.
func (c *Conversation) NodesAtDepth(d int) []string {
	var out []string
	for _, uuid := range c.order {
		if c.nodes[uuid].Depth == d {
			out = append(out, uuid)
		}
	}
	return out
}
