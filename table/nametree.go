// Package table implements the NameTree, FIB, Content Store, PIT, PIT-assist
// token index and Dead-Nonce List (spec.md C4-C7) — the state the
// forwarding pipelines in package fw read and mutate on every packet.
package table

import (
	"github.com/cespare/xxhash/v2"

	"github.com/reflexndn/rfwd/enc"
)

// NameTree is the arena-indexed trie all longest-prefix lookups walk
// (spec.md §9 design note: "the NameTree owns entries; PIT entries and FIB
// entries hold indices into the NameTree, never back-pointers"). Keys are
// reflexive-stripped, matching spec.md §4.1's prefix-match contract: a
// reflexive component never introduces a new trie level that a consumer's
// plain filter wouldn't also reach.
type NameTree struct {
	nodes []*treeNode
	root  int
}

type treeNode struct {
	name     enc.Name
	parent   int
	children map[uint64]int

	fib *FibEntry
	pit map[string]*PitEntry
	cs  *CsEntry
}

func newTreeNode(name enc.Name, parent int) *treeNode {
	return &treeNode{name: name, parent: parent, children: make(map[uint64]int)}
}

// NewNameTree constructs an empty tree with just the root node (the empty
// Name).
func NewNameTree() *NameTree {
	t := &NameTree{root: 0}
	t.nodes = append(t.nodes, newTreeNode(enc.Name{}, -1))
	return t
}

func componentHash(c enc.Component) uint64 {
	h := xxhash.New()
	var typBuf [8]byte
	typ := uint64(c.Typ)
	for i := range typBuf {
		typBuf[i] = byte(typ >> (8 * i))
	}
	h.Write(typBuf[:])
	h.Write(c.Val)
	return h.Sum64()
}

// findOrInsert walks (creating nodes as needed) to the node for name's
// reflexive-stripped form and returns its arena index.
func (t *NameTree) findOrInsert(name enc.Name) int {
	stripped := name.Strip()
	cur := t.root
	for _, c := range stripped {
		h := componentHash(c)
		node := t.nodes[cur]
		if idx, ok := node.children[h]; ok {
			cur = idx
			continue
		}
		child := newTreeNode(append(node.name.Clone(), c), cur)
		t.nodes = append(t.nodes, child)
		idx := len(t.nodes) - 1
		node.children[h] = idx
		cur = idx
	}
	return cur
}

// find walks to the node for name's stripped form without creating
// anything, returning (-1, false) on a miss.
func (t *NameTree) find(name enc.Name) (int, bool) {
	stripped := name.Strip()
	cur := t.root
	for _, c := range stripped {
		h := componentHash(c)
		node := t.nodes[cur]
		idx, ok := node.children[h]
		if !ok {
			return -1, false
		}
		cur = idx
	}
	return cur, true
}

// longestPrefixFib walks name's stripped components from the root,
// returning the deepest node along that path carrying a FIB entry — the
// longest-prefix FIB match (spec.md §4.7).
func (t *NameTree) longestPrefixFib(name enc.Name) *FibEntry {
	stripped := name.Strip()
	cur := t.root
	var best *FibEntry
	if t.nodes[cur].fib != nil {
		best = t.nodes[cur].fib
	}
	for _, c := range stripped {
		h := componentHash(c)
		node := t.nodes[cur]
		idx, ok := node.children[h]
		if !ok {
			break
		}
		cur = idx
		if t.nodes[cur].fib != nil {
			best = t.nodes[cur].fib
		}
	}
	return best
}

// allPitAlongPrefix walks name's stripped components from the root,
// collecting every PIT entry attached to a node on that path — exactly the
// set of PIT entries whose Name is a reflexive-aware prefix of name
// (spec.md §4.2 findAllDataMatches).
func (t *NameTree) allPitAlongPrefix(name enc.Name) []*PitEntry {
	stripped := name.Strip()
	cur := t.root
	var out []*PitEntry
	collect := func(idx int) {
		for _, e := range t.nodes[idx].pit {
			out = append(out, e)
		}
	}
	collect(cur)
	for _, c := range stripped {
		h := componentHash(c)
		node := t.nodes[cur]
		idx, ok := node.children[h]
		if !ok {
			break
		}
		cur = idx
		collect(cur)
	}
	return out
}

// allPitEntries returns every live PIT entry in the tree, in no particular
// order — used by Pit.RemoveFace's Face-removal cleanup sweep (spec.md §5).
func (t *NameTree) allPitEntries() []*PitEntry {
	var out []*PitEntry
	for _, n := range t.nodes {
		for _, e := range n.pit {
			out = append(out, e)
		}
	}
	return out
}

// prune drops an empty leaf node (and any empty ancestors) once it carries
// no FIB/PIT/CS attachment and no children, matching the teacher's
// NameTrie compaction (std/engine/basic) without actually shrinking the
// arena slice — indices already handed out elsewhere stay valid.
func (t *NameTree) prune(idx int) {
	for idx != t.root && idx >= 0 {
		n := t.nodes[idx]
		if n.fib != nil || n.cs != nil || len(n.pit) != 0 || len(n.children) != 0 {
			return
		}
		parent := t.nodes[n.parent]
		lastComp := n.name[len(n.name)-1]
		delete(parent.children, componentHash(lastComp))
		next := n.parent
		idx = next
	}
}
