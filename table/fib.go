package table

import (
	"golang.org/x/exp/slices"

	"github.com/reflexndn/rfwd/enc"
)

// NextHop is one egress choice for a FIB entry (spec.md §3).
type NextHop struct {
	Face uint64
	Cost int
}

// FibEntry is a Name's registered next-hop list, kept sorted ascending by
// cost (spec.md §3).
type FibEntry struct {
	Name     enc.Name
	NextHops []NextHop
}

// Fib is the Forwarding Information Base: longest reflexive-aware-prefix
// lookup over a NameTree (spec.md §4.7).
type Fib struct {
	tree *NameTree
}

// NewFib constructs a Fib sharing tree with the table's Pit and Cs, so FIB
// registration and PIT/CS lookups walk the same trie (spec.md §9).
func NewFib(tree *NameTree) *Fib { return &Fib{tree: tree} }

// AddNextHop registers (or updates the cost of) a next hop for name,
// re-sorting the entry's next-hop list ascending by cost (spec.md §3).
func (f *Fib) AddNextHop(name enc.Name, face uint64, cost int) *FibEntry {
	idx := f.tree.findOrInsert(name)
	node := f.tree.nodes[idx]
	if node.fib == nil {
		node.fib = &FibEntry{Name: name.Clone()}
	}
	e := node.fib

	for i := range e.NextHops {
		if e.NextHops[i].Face == face {
			e.NextHops[i].Cost = cost
			f.sortNextHops(e)
			return e
		}
	}
	e.NextHops = append(e.NextHops, NextHop{Face: face, Cost: cost})
	f.sortNextHops(e)
	return e
}

func (f *Fib) sortNextHops(e *FibEntry) {
	slices.SortFunc(e.NextHops, func(a, b NextHop) int { return a.Cost - b.Cost })
}

// RemoveNextHop drops face from name's next-hop list, removing the FIB
// entry entirely (and pruning the tree) once empty.
func (f *Fib) RemoveNextHop(name enc.Name, face uint64) {
	idx, ok := f.tree.find(name)
	if !ok {
		return
	}
	node := f.tree.nodes[idx]
	if node.fib == nil {
		return
	}
	out := node.fib.NextHops[:0]
	for _, nh := range node.fib.NextHops {
		if nh.Face != face {
			out = append(out, nh)
		}
	}
	node.fib.NextHops = out
	if len(node.fib.NextHops) == 0 {
		node.fib = nil
		f.tree.prune(idx)
	}
}

// RemoveFace drops face from every FIB entry, used when a Face is closed
// (spec.md §5: "removal of a Face triggers a cleanup pass").
func (f *Fib) RemoveFace(face uint64) {
	for i, n := range f.tree.nodes {
		if n == nil || n.fib == nil {
			continue
		}
		out := n.fib.NextHops[:0]
		for _, nh := range n.fib.NextHops {
			if nh.Face != face {
				out = append(out, nh)
			}
		}
		n.fib.NextHops = out
		if len(n.fib.NextHops) == 0 {
			n.fib = nil
			f.tree.prune(i)
		}
	}
}

// LongestPrefixMatch returns the FIB entry with the longest reflexive-aware
// prefix of name, or nil.
func (f *Fib) LongestPrefixMatch(name enc.Name) *FibEntry {
	return f.tree.longestPrefixFib(name)
}

// AllEntries returns every registered FIB entry, for the "fib list"
// management verb.
func (f *Fib) AllEntries() []*FibEntry {
	var out []*FibEntry
	for _, n := range f.tree.nodes {
		if n != nil && n.fib != nil {
			out = append(out, n.fib)
		}
	}
	return out
}
