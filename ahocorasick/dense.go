// Package ahocorasick implements the Aho-Corasick multi-pattern matcher described in the module's
// engine registry: insert a dictionary into a trie, link it with Aho-Corasick failure links by BFS,
// then stream bytes through read_char, following failure links until a child exists (or root is
// reached) and returning the longest dictionary pattern ending at the resulting state.
//
// Two representations share that contract. Dense keeps a 256-way child table per state (O(1) child
// lookup, more memory); Sparse keeps a linked list of (byte, state) edges per state (less memory,
// linear lookup per state). Both are grounded on the same construction; they must return identical
// identities for identical input, and the test suite checks exactly that.
package ahocorasick

import (
	"github.com/coregx/matchbench/internal/conv"
	"github.com/coregx/matchbench/internal/idset"
	"github.com/coregx/matchbench/patternstree"
)

// noState marks "no child"/"no failure computed yet" in both representations. Valid states are
// always >= 0; the root is always state 0.
const noState int32 = -1

// treeNode is a build-phase node (before Compile): a 256-way pointer trie, mirroring how the
// pattern bytes are inserted one at a time.
type treeNode struct {
	children [256]int32
	id       patternstree.ID
}

func newTreeNode(id patternstree.ID) treeNode {
	n := treeNode{id: id}
	for i := range n.children {
		n.children[i] = noState
	}
	return n
}

// denseState is a compiled, read-only state: a 256-way child table plus the Aho-Corasick
// bookkeeping computed once at Compile time.
type denseState struct {
	children [256]int32
	failure  int32
	id       patternstree.ID // this state's own pattern, or Null
	output   patternstree.ID // nearest failure-ancestor's pattern, or Null
}

// sizeOfDenseState is an honest byte estimate of one compiled state: 256 int32 children + failure +
// two patternstree.ID (int32) fields.
const sizeOfDenseState = 256*4 + 4 + 4 + 4

// Dense is the 256-way dense-child-table Aho-Corasick engine. It satisfies the engine registry's
// capability set: AddPattern before Compile, ReadChar/Reset/TotalMem after.
type Dense struct {
	nodes   []treeNode // build-phase arena; nil after Compile
	states  []denseState
	current int32
}

// NewDense returns an empty Dense engine, ready to accept patterns.
func NewDense() *Dense {
	d := &Dense{}
	d.nodes = append(d.nodes, newTreeNode(patternstree.Null))
	return d
}

// AddPattern inserts pattern into the trie, tagging its terminal node with id. Must be called
// before Compile.
func (d *Dense) AddPattern(pattern []byte, id patternstree.ID) {
	cur := int32(0)
	i := 0
	for ; i < len(pattern) && d.nodes[cur].children[pattern[i]] != noState; i++ {
		cur = d.nodes[cur].children[pattern[i]]
	}
	for ; i < len(pattern); i++ {
		d.nodes = append(d.nodes, newTreeNode(patternstree.Null))
		child := conv.IntToInt32(len(d.nodes) - 1)
		d.nodes[cur].children[pattern[i]] = child
		cur = child
	}
	d.nodes[cur].id = id
}

// Compile flattens the build-phase trie into a states array (better locality than the pointer
// trie) and computes failure and output links by BFS from the root. After Compile, AddPattern must
// not be called again.
func (d *Dense) Compile() {
	n := len(d.nodes)
	states := make([]denseState, n)
	for i := range states {
		states[i].id = patternstree.Null
		states[i].output = patternstree.Null
		for j := range states[i].children {
			states[i].children[j] = noState
		}
	}

	type frame struct {
		nodeIdx  int32
		statePos int32
	}
	states[0].id = d.nodes[0].id
	next := int32(1)
	stack := []frame{{0, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := &d.nodes[f.nodeIdx]
		for c := 0; c < 256; c++ {
			childIdx := node.children[c]
			if childIdx == noState {
				continue
			}
			pos := next
			next++
			states[pos].id = d.nodes[childIdx].id
			states[f.statePos].children[c] = pos
			stack = append(stack, frame{childIdx, pos})
		}
	}

	addDenseFailureLinks(states)

	d.states = states
	d.nodes = nil
	d.current = 0
}

// addDenseFailureLinks computes every non-root state's failure link and output link by BFS from
// the root, classic Aho-Corasick construction: a state's failure link is its parent's failure
// state's child on the same byte (walking the parent's failure chain until one exists, or root);
// its output link is the nearest failure-ancestor carrying a pattern, so ReadChar can report the
// longest dictionary pattern ending at any state, not just states that are themselves a pattern's
// own trie node.
//
// The visited set is defensive: the trie's tree shape means BFS can never actually revisit a
// state (every state has exactly one parent), so it never fires, but a malformed states array
// would hang this loop instead of terminating quietly.
func addDenseFailureLinks(states []denseState) {
	queue := make([]int32, 0, len(states))
	visited := idset.New(len(states))
	visited.Insert(0)
	for c := 0; c < 256; c++ {
		child := states[0].children[c]
		if child == noState {
			continue
		}
		states[child].failure = 0
		states[child].output = states[0].id // always Null, kept for symmetry
		queue = append(queue, child)
		visited.Insert(uint32(child))
	}

	for head := 0; head < len(queue); head++ {
		cur := queue[head]
		for c := 0; c < 256; c++ {
			child := states[cur].children[c]
			if child == noState {
				continue
			}
			fs := states[cur].failure
			for states[fs].children[c] == noState && fs != 0 {
				fs = states[fs].failure
			}
			if next := states[fs].children[c]; next != noState && next != child {
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

// ReadChar follows failure links until the current state has a child on c (or root is reached),
// steps into that child (or stays at root), and returns the longest dictionary pattern ending at
// the resulting state, or patternstree.Null if none.
func (d *Dense) ReadChar(c byte) patternstree.ID {
	cur := d.current
	s := d.states
	for s[cur].children[c] == noState && cur != 0 {
		cur = s[cur].failure
	}
	if next := s[cur].children[c]; next != noState {
		cur = next
	}
	d.current = cur
	if s[cur].id != patternstree.Null {
		return s[cur].id
	}
	return s[cur].output
}

// Reset returns the engine to its post-Compile initial state (root, with no bytes consumed).
func (d *Dense) Reset() {
	d.current = 0
}

// TotalMem returns an honest byte count of this engine's owned allocations.
func (d *Dense) TotalMem() int {
	return len(d.states)*sizeOfDenseState + len(d.nodes)*sizeOfDenseState
}
