package table

import (
	"container/list"
	"time"

	"github.com/reflexndn/rfwd/packet"
)

// CsEntry is one cached Data packet (spec.md §3).
type CsEntry struct {
	Data       *packet.Data
	InsertedAt time.Time
	Freshness  time.Duration
	node       int
	lruElem    *list.Element
}

// Fresh reports whether the entry is still within its FreshnessPeriod as
// of now.
func (e *CsEntry) Fresh(now time.Time) bool {
	return e.Freshness <= 0 || now.Before(e.InsertedAt.Add(e.Freshness))
}

// Cs is the Content Store: a capacity-bounded, FIFO-evicted Data cache
// (spec.md §4.5). Cache admission policy beyond a bare size bound is a
// non-goal (spec.md §1), so this mirrors the teacher's simplest CS shape
// rather than the full NFD priority-queue cache replacement policy.
type Cs struct {
	tree     *NameTree
	capacity int
	order    *list.List // front = oldest
}

// NewCs constructs a Cs sharing tree with the table's Pit/Fib, bounded to
// capacity entries (0 means unbounded).
func NewCs(tree *NameTree, capacity int) *Cs {
	return &Cs{tree: tree, capacity: capacity, order: list.New()}
}

// Insert admits d into the cache, evicting the oldest entry first if the
// Cs is at capacity.
func (c *Cs) Insert(d *packet.Data) *CsEntry {
	idx := c.tree.findOrInsert(d.Name)
	node := c.tree.nodes[idx]
	if node.cs != nil {
		c.order.Remove(node.cs.lruElem)
	} else if c.capacity > 0 && c.order.Len() >= c.capacity {
		c.evictOldest()
	}
	e := &CsEntry{Data: d, InsertedAt: time.Now(), Freshness: d.FreshnessPeriod, node: idx}
	e.lruElem = c.order.PushBack(e)
	node.cs = e
	return e
}

func (c *Cs) evictOldest() {
	front := c.order.Front()
	if front == nil {
		return
	}
	e := front.Value.(*CsEntry)
	c.order.Remove(front)
	node := c.tree.nodes[e.node]
	node.cs = nil
	c.tree.prune(e.node)
}

// Find looks up a hit for i: the entry cached under i's Name with reflexive
// components stripped (the NameTree node), or, when i.CanBePrefix is set,
// the first entry found in the subtree rooted there. Freshness is required
// only when i.MustBeFresh is set.
func (c *Cs) Find(i *packet.Interest) (*CsEntry, bool) {
	idx, ok := c.tree.find(i.Name)
	if !ok {
		return nil, false
	}
	now := time.Now()
	if e := c.tree.nodes[idx].cs; e != nil {
		if !i.MustBeFresh || e.Fresh(now) {
			return e, true
		}
	}
	if !i.CanBePrefix {
		return nil, false
	}
	return c.findUnderSubtree(idx, i.MustBeFresh, now)
}

// Len reports the number of entries currently cached, for the "cs info"
// management verb.
func (c *Cs) Len() int { return c.order.Len() }

// Capacity reports the configured capacity (0 means unbounded).
func (c *Cs) Capacity() int { return c.capacity }

func (c *Cs) findUnderSubtree(idx int, mustBeFresh bool, now time.Time) (*CsEntry, bool) {
	node := c.tree.nodes[idx]
	if node.cs != nil && (!mustBeFresh || node.cs.Fresh(now)) {
		return node.cs, true
	}
	for _, childIdx := range node.children {
		if e, ok := c.findUnderSubtree(childIdx, mustBeFresh, now); ok {
			return e, true
		}
	}
	return nil, false
}
