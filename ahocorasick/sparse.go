package ahocorasick

import (
	"github.com/coregx/matchbench/internal/conv"
	"github.com/coregx/matchbench/internal/idset"
	"github.com/coregx/matchbench/patternstree"
)

// sparseBuildEdge is one build-phase trie edge: a single byte, to a child node index.
type sparseBuildEdge struct {
	b     byte
	child int32
}

// sparseTreeNode is a build-phase node with a linked list of edges instead of a 256-way table.
type sparseTreeNode struct {
	edges []sparseBuildEdge
	id    patternstree.ID
}

// sparseEdge is one compiled-state edge.
type sparseEdge struct {
	b     byte
	state int32
}

// sparseState is a compiled, read-only state.
type sparseState struct {
	edges    []sparseEdge
	failure  int32
	id       patternstree.ID
	output   patternstree.ID
}

// sizeOfSparseEdge is one (byte, state) pair, rounded up for alignment.
const sizeOfSparseEdge = 8

// sizeOfSparseStateFixed is a compiled state's fixed fields, excluding its edge list.
const sizeOfSparseStateFixed = 4 + 4 + 4

func findBuildEdge(edges []sparseBuildEdge, b byte) int32 {
	for _, e := range edges {
		if e.b == b {
			return e.child
		}
	}
	return noState
}

func findStateEdge(edges []sparseEdge, b byte) int32 {
	for _, e := range edges {
		if e.b == b {
			return e.state
		}
	}
	return noState
}

// Sparse is the linked-list-of-edges Aho-Corasick engine: lower memory than Dense for dictionaries
// that don't use most of the byte alphabet at most states, at the cost of a linear scan per
// transition instead of an array index.
type Sparse struct {
	nodes   []sparseTreeNode // build-phase arena; nil after Compile
	states  []sparseState
	current int32
}

// NewSparse returns an empty Sparse engine, ready to accept patterns.
func NewSparse() *Sparse {
	s := &Sparse{}
	s.nodes = append(s.nodes, sparseTreeNode{id: patternstree.Null})
	return s
}

// AddPattern inserts pattern into the trie, tagging its terminal node with id. Must be called
// before Compile.
func (s *Sparse) AddPattern(pattern []byte, id patternstree.ID) {
	cur := int32(0)
	i := 0
	for ; i < len(pattern); i++ {
		child := findBuildEdge(s.nodes[cur].edges, pattern[i])
		if child == noState {
			break
		}
		cur = child
	}
	for ; i < len(pattern); i++ {
		s.nodes = append(s.nodes, sparseTreeNode{id: patternstree.Null})
		child := conv.IntToInt32(len(s.nodes) - 1)
		s.nodes[cur].edges = append(s.nodes[cur].edges, sparseBuildEdge{b: pattern[i], child: child})
		cur = child
	}
	s.nodes[cur].id = id
}

// Compile flattens the build-phase trie into a states array and computes failure and output links
// by BFS from the root, identically to Dense's construction but walking edge lists instead of
// indexing a 256-way table.
func (s *Sparse) Compile() {
	n := len(s.nodes)
	states := make([]sparseState, n)
	for i := range states {
		states[i].id = patternstree.Null
		states[i].output = patternstree.Null
	}

	type frame struct {
		nodeIdx  int32
		statePos int32
	}
	states[0].id = s.nodes[0].id
	next := int32(1)
	stack := []frame{{0, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := &s.nodes[f.nodeIdx]
		for _, e := range node.edges {
			pos := next
			next++
			states[pos].id = s.nodes[e.child].id
			states[f.statePos].edges = append(states[f.statePos].edges, sparseEdge{b: e.b, state: pos})
			stack = append(stack, frame{e.child, pos})
		}
	}

	addSparseFailureLinks(states)

	s.states = states
	s.nodes = nil
	s.current = 0
}

// addSparseFailureLinks is addDenseFailureLinks's sparse twin: same BFS, same failure/output-link
// rule, looking children up by a linear edge scan instead of an array index.
func addSparseFailureLinks(states []sparseState) {
	queue := make([]int32, 0, len(states))
	visited := idset.New(len(states))
	visited.Insert(0)
	for _, e := range states[0].edges {
		states[e.state].failure = 0
		queue = append(queue, e.state)
		visited.Insert(uint32(e.state))
	}

	for head := 0; head < len(queue); head++ {
		cur := queue[head]
		for _, e := range states[cur].edges {
			child := e.state
			fs := states[cur].failure
			for findStateEdge(states[fs].edges, e.b) == noState && fs != 0 {
				fs = states[fs].failure
			}
			if next := findStateEdge(states[fs].edges, e.b); next != noState && next != child {
				states[child].failure = next
			} else {
				states[child].failure = 0
			}

			if fail := &states[states[child].failure]; fail.id != patternstree.Null {
				states[child].output = fail.id
			} else {
				states[child].output = fail.output
			}

			if !visited.Contains(uint32(child)) {
				visited.Insert(uint32(child))
				queue = append(queue, child)
			}
		}
	}
}

// ReadChar follows failure links until the current state has an edge on c (or root is reached),
// steps into that edge's state (or stays at root), and returns the longest dictionary pattern
// ending at the resulting state, or patternstree.Null if none.
func (s *Sparse) ReadChar(c byte) patternstree.ID {
	cur := s.current
	states := s.states
	for findStateEdge(states[cur].edges, c) == noState && cur != 0 {
		cur = states[cur].failure
	}
	if next := findStateEdge(states[cur].edges, c); next != noState {
		cur = next
	}
	s.current = cur
	if states[cur].id != patternstree.Null {
		return states[cur].id
	}
	return states[cur].output
}

// Reset returns the engine to its post-Compile initial state.
func (s *Sparse) Reset() {
	s.current = 0
}

// TotalMem returns an honest byte count of this engine's owned allocations.
func (s *Sparse) TotalMem() int {
	total := 0
	for _, st := range s.states {
		total += sizeOfSparseStateFixed + len(st.edges)*sizeOfSparseEdge
	}
	for _, n := range s.nodes {
		total += 4 + len(n.edges)*sizeOfSparseEdge
	}
	return total
}
