// Package patternstree implements the suffix-ordered Patterns Tree: a structure over a
// dictionary of byte-string patterns such that, for any two distinct patterns a and b, a is a
// suffix of b iff a's node is an ancestor of b's node. Every streaming matcher in this module
// returns one of its node handles (an ID) as the identity of whatever it just matched, and
// Suffix lets a caller (or the measurement driver) test two matchers' identities for the
// longest-match / partial-match relationship without ever comparing the underlying bytes again.
//
// Construction happens in two phases. Phase A (Insert) builds a full tree: a radix-trie-like
// structure keyed on pattern suffixes, where each edge is labeled with the extra prefix bytes
// needed to extend a parent's pattern into a child's. Phase B (Compile) walks that full tree
// once, reconstructing each node's pattern bytes from its root path and handing them to a
// caller-supplied callback (the engine being fed this pattern), then discards the full tree in
// favor of a flat, read-only arena of (parent ID, source) records.
package patternstree

import (
	"bytes"

	"github.com/coregx/matchbench/internal/conv"
)

// ID is a stable handle to a node in the compiled tree - the "pattern identity" every engine in
// this module hands back from ReadChar. Null is the identity of "no match".
type ID int32

// Null is the reserved identity meaning "no pattern", analogous to a nil pointer.
const Null ID = -1

// Source records which dictionary file and line a pattern came from.
type Source struct {
	FileNumber int
	LineNumber int
}

// fullNode is a Phase-A node: every non-root fullNode was created to hold exactly one inserted
// pattern (duplicates are ignored before a new node would ever be created), so the edge leading
// to it plus its ancestors' edges spell out that pattern in full.
type fullNode struct {
	children []fullEdge
	source   Source
}

type fullEdge struct {
	label []byte
	child *fullNode
}

// isSuffix reports whether a is a suffix of b (including a == b).
func isSuffix(a, b []byte) bool {
	return len(a) <= len(b) && bytes.Equal(b[len(b)-len(a):], a)
}

// Builder accumulates patterns into a full tree (Phase A); call Compile to flatten it into a
// read-only Tree (Phase B).
type Builder struct {
	root       fullNode
	maxPattern int
}

// NewBuilder returns an empty Patterns Tree builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Insert adds pattern to the tree, tagged with source. Duplicate patterns (byte-identical to one
// already inserted) are silently ignored, per the dictionary format's duplicate-pattern rule.
func (b *Builder) Insert(pattern []byte, source Source) {
	if len(pattern) == 0 {
		return
	}
	if len(pattern) > b.maxPattern {
		b.maxPattern = len(pattern)
	}

	node := &b.root
	residual := pattern
	for {
		matched := false
		for i := range node.children {
			e := &node.children[i]
			switch {
			case isSuffix(e.label, residual):
				if len(e.label) == len(residual) {
					return // exact duplicate: node already represents this pattern
				}
				node = e.child
				residual = residual[:len(residual)-len(e.label)]
				matched = true
			case isSuffix(residual, e.label) && len(residual) != len(e.label):
				b.split(node, residual, source)
				return
			}
			if matched {
				break
			}
		}
		if matched {
			continue
		}
		// No existing edge relates to residual: attach a fresh leaf.
		label := append([]byte(nil), residual...)
		node.children = append(node.children, fullEdge{label: label, child: &fullNode{source: source}})
		return
	}
}

// split handles the case where residual is a proper suffix of some existing child edge's label:
// a new node for residual is inserted between node and every child whose label has residual as a
// suffix, each such child's label shortened by the now-shared residual portion.
func (b *Builder) split(node *fullNode, residual []byte, source Source) {
	newNode := &fullNode{source: source}
	kept := node.children[:0:0]
	for _, e := range node.children {
		if len(residual) != len(e.label) && isSuffix(residual, e.label) {
			newNode.children = append(newNode.children, fullEdge{
				label: e.label[:len(e.label)-len(residual)],
				child: e.child,
			})
		} else {
			kept = append(kept, e)
		}
	}
	kept = append(kept, fullEdge{label: append([]byte(nil), residual...), child: newNode})
	node.children = kept
}

// compactNode is a Phase-B node: read-only once built, reachable only via ID and via parent-chain
// walks from a descendant.
type compactNode struct {
	parent ID
	source Source
}

// Tree is the compiled, read-only Patterns Tree.
type Tree struct {
	nodes []compactNode // nodes[0] is an implicit root sentinel never returned as an ID
}

// stackFrame is one entry of Compile's explicit DFS work stack, replacing the natural recursion
// the source tree walk would otherwise use - pattern dictionaries can contain long suffix chains
// (S5-style: "e" ⊂ "cde" ⊂ "bcde" ⊂ "abcde" ...), and an explicit stack keeps traversal depth off
// the goroutine stack regardless of how long that chain gets.
type stackFrame struct {
	node   *fullNode
	id     ID     // node's own identity; Null for the root
	label  []byte // edge label leading into node, written to buf[offset:] when the frame is popped
	offset int    // into buf; buf[offset:] is node's full reconstructed pattern
}

// Compile flattens the full tree built by Insert into a read-only Tree, invoking addPattern once
// per distinct pattern with its reconstructed bytes and its new identity. The reconstructed slice
// passed to addPattern is only valid for the duration of that call (it aliases Compile's internal
// scratch buffer) - callers needing to keep it must copy it.
func (b *Builder) Compile(addPattern func(pattern []byte, id ID)) *Tree {
	t := &Tree{nodes: []compactNode{{parent: Null}}}
	if b.maxPattern == 0 {
		return t
	}
	buf := make([]byte, b.maxPattern)

	stack := []stackFrame{{node: &b.root, id: Null, offset: b.maxPattern}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.id != Null {
			copy(buf[f.offset:], f.label)
			addPattern(buf[f.offset:b.maxPattern], f.id)
		}
		for _, e := range f.node.children {
			id := ID(conv.IntToInt32(len(t.nodes)))
			t.nodes = append(t.nodes, compactNode{parent: f.id, source: e.child.source})
			stack = append(stack, stackFrame{node: e.child, id: id, label: e.label, offset: f.offset - len(e.label)})
		}
	}
	return t
}

// Len returns the number of patterns in the compiled tree.
func (t *Tree) Len() int {
	return len(t.nodes) - 1
}

// Source returns the dictionary file/line a pattern identity came from. Calling it with Null is
// invalid.
func (t *Tree) Source(id ID) Source {
	return t.nodes[id].source
}

// Suffix reports whether a is a suffix of b: equivalently, whether a's node is an ancestor of (or
// equal to) b's node. Null is never a suffix of anything, nor is anything a suffix of Null.
func (t *Tree) Suffix(a, b ID) bool {
	if a == Null || b == Null {
		return false
	}
	for cur := b; ; cur = t.nodes[cur].parent {
		if cur == a {
			return true
		}
		if cur == Null {
			return false
		}
	}
}

// TotalMem returns an honest byte count of the compiled tree's owned allocations.
func (t *Tree) TotalMem() int {
	return len(t.nodes) * 16 // parent ID (4 bytes) + Source (2 ints, rounded)
}
