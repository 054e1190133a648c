package graph

// Walk does a depth-first traversal from n in edge order and calls visit on
// every node reached, n included, at most once. Returning false from visit
// prunes that branch.
func Walk(n *Node, visit func(*Node) bool) {
	seen := make(map[*Node]bool)
	var dfs func(*Node)
	dfs = func(cur *Node) {
		if seen[cur] {
			return
		}
		seen[cur] = true
		if !visit(cur) {
			return // prune
		}
		for _, e := range cur.Edges {
			dfs(e.Target)
		}
	}
	dfs(n)
}

// Reachable returns the nodes reachable from the root in DFS preorder.
func (g *Graph) Reachable() ([]*Node, error) {
	root, err := g.Root()
	if err != nil {
		return nil, err
	}
	var out []*Node
	Walk(root, func(n *Node) bool {
		out = append(out, n)
		return true
	})
	return out, nil
}

// Unreachable returns the ids of nodes no exploration from the root can
// discover, sorted.
func (g *Graph) Unreachable() ([]string, error) {
	reach, err := g.Reachable()
	if err != nil {
		return nil, err
	}
	seen := make(map[*Node]bool, len(reach))
	for _, n := range reach {
		seen[n] = true
	}
	var out []string
	for _, n := range g.Nodes() {
		if !seen[n] {
			out = append(out, n.ID)
		}
	}
	return out, nil
}
