package face

import (
	"sync"

	"github.com/reflexndn/rfwd/core"
)

// Table is the Face registry (spec.md §3, C3): it assigns face ids,
// and runs the afterAdd/beforeRemove hooks the rest of the forwarder
// (strategies, mgmt) attaches to react to topology changes, mirroring the
// teacher's fw/face FaceTable.
type Table struct {
	mu     sync.RWMutex
	faces  map[uint64]Face
	nextID uint64

	afterAdd    []func(Face)
	beforeRemove []func(Face)
}

// NewTable constructs an empty Face table. Face id 0 is reserved
// (InvalidFaceID) and id 1 is reserved for the Content Store pseudo-face,
// so real faces start numbering at 2.
func NewTable() *Table {
	return &Table{
		faces:  make(map[uint64]Face),
		nextID: 2,
	}
}

// OnAfterAdd registers a callback invoked synchronously after a Face is
// added.
func (t *Table) OnAfterAdd(fn func(Face)) { t.afterAdd = append(t.afterAdd, fn) }

// OnBeforeRemove registers a callback invoked synchronously before a Face
// is removed, giving strategies and the PIT a chance to purge the id's
// in-records/out-records/nexthops.
func (t *Table) OnBeforeRemove(fn func(Face)) { t.beforeRemove = append(t.beforeRemove, fn) }

// Add assigns the next face id to f, registers it, and runs the afterAdd
// hooks.
func (t *Table) Add(f Face) uint64 {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	f.SetID(id)
	t.faces[id] = f
	t.mu.Unlock()

	core.Log.Info(t, "face added", "id", id, "face", f.String())
	for _, fn := range t.afterAdd {
		fn(f)
	}
	return id
}

// Remove runs the beforeRemove hooks, closes the Face, and drops it from
// the table.
func (t *Table) Remove(id uint64) {
	t.mu.Lock()
	f, ok := t.faces[id]
	t.mu.Unlock()
	if !ok {
		return
	}

	for _, fn := range t.beforeRemove {
		fn(f)
	}
	f.Close()

	t.mu.Lock()
	delete(t.faces, id)
	t.mu.Unlock()
	core.Log.Info(t, "face removed", "id", id)
}

// Get returns the Face registered under id, or nil.
func (t *Table) Get(id uint64) Face {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.faces[id]
}

// List returns a snapshot slice of every registered Face.
func (t *Table) List() []Face {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Face, 0, len(t.faces))
	for _, f := range t.faces {
		out = append(out, f)
	}
	return out
}

func (t *Table) String() string { return "face.Table" }
