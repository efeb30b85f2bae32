// Package graph provides strongly-connected-component analysis for the
// pairwise precedence graph derived from contest results.
package graph

// Edge is one directed edge. Duplicate edges are idempotent: presence,
// not multiplicity, matters.
type Edge[N comparable] struct {
	From N
	To   N
}

// frame is a work-list entry for the iterative depth-first traversal.
// A node is pushed once tagged pending and re-pushed tagged finished;
// popping the finished tag appends the node to the postorder list.
type frame[N comparable] struct {
	finished bool
	node     N
}

// Components computes the strongly connected components of the directed
// graph described by edges, using an iterative two-pass Kosaraju
// decomposition. No recursion is used, so arbitrarily large graphs do
// not risk exhausting the call stack.
//
// The result maps every node to a representative root node of its
// component: two nodes share a root if and only if they are mutually
// reachable. Which member of a component serves as its root is
// unspecified and may differ between runs; callers must only compare
// roots for equality.
//
// Nodes are known solely through edge endpoints; a node with no edges
// at all cannot be expressed and is absent from the result.
func Components[N comparable](edges []Edge[N]) map[N]N {
	out := make(map[N][]N)
	in := make(map[N][]N)
	outSeen := make(map[Edge[N]]struct{}, len(edges))
	var nodes []N

	for _, e := range edges {
		if _, dup := outSeen[e]; dup {
			continue
		}
		outSeen[e] = struct{}{}
		if _, ok := out[e.From]; !ok {
			nodes = append(nodes, e.From)
		}
		out[e.From] = append(out[e.From], e.To)
		if _, ok := out[e.To]; !ok {
			out[e.To] = nil
			nodes = append(nodes, e.To)
		}
		in[e.To] = append(in[e.To], e.From)
	}

	// Pass 1: postorder over the forward graph via an explicit stack.
	visited := make(map[N]struct{}, len(nodes))
	postorder := make([]N, 0, len(nodes))
	stack := make([]frame[N], 0, len(nodes))
	for _, n := range nodes {
		stack = append(stack, frame[N]{node: n})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := visited[f.node]; !ok {
			visited[f.node] = struct{}{}
			stack = append(stack, frame[N]{finished: true, node: f.node})
			for _, next := range out[f.node] {
				if _, ok := visited[next]; !ok {
					stack = append(stack, frame[N]{node: next})
				}
			}
		} else if f.finished {
			postorder = append(postorder, f.node)
		}
	}

	// Pass 2: walk the transpose graph in reverse postorder, flooding
	// each unassigned node's root through its in-neighbors.
	roots := make(map[N]N, len(nodes))
	type assign struct{ node, root N }
	work := make([]assign, 0, len(postorder))
	for _, n := range postorder {
		work = append(work, assign{node: n, root: n})
	}
	for len(work) > 0 {
		a := work[len(work)-1]
		work = work[:len(work)-1]
		if _, ok := roots[a.node]; ok {
			continue
		}
		roots[a.node] = a.root
		for _, prev := range in[a.node] {
			if _, ok := roots[prev]; !ok {
				work = append(work, assign{node: prev, root: a.root})
			}
		}
	}

	return roots
}

// RootCount returns the number of distinct components in a Components
// result. The rating engine only needs this count: a strongly connected
// pool has exactly one.
func RootCount[N comparable](roots map[N]N) int {
	distinct := make(map[N]struct{}, len(roots))
	for _, r := range roots {
		distinct[r] = struct{}{}
	}
	return len(distinct)
}
