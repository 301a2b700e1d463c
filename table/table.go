package table

import "time"

// Table bundles the NameTree-backed Pit, Fib and Cs plus the Dead-Nonce
// List: the process-wide singletons spec.md §5 describes ("FIB and PIT are
// process-wide singletons created at forwarder construction and torn down
// at shutdown").
type Table struct {
	Tree *NameTree
	Pit  *Pit
	Fib  *Fib
	Cs   *Cs
	Dnl  *DeadNonceList
}

// Options configures a Table's construction.
type Options struct {
	CsCapacity   int
	DnlLifetime  time.Duration
	DnlDir       string // "" for in-memory
	NewTimer     NewTimerFunc
}

// New constructs a fresh Table: one shared NameTree, a Pit/Fib/Cs over it,
// and a Badger-backed Dead-Nonce List.
func New(opts Options) (*Table, error) {
	tree := NewNameTree()
	dnl, err := NewDeadNonceList(opts.DnlDir, opts.DnlLifetime)
	if err != nil {
		return nil, err
	}
	return &Table{
		Tree: tree,
		Pit:  NewPit(tree, opts.NewTimer),
		Fib:  NewFib(tree),
		Cs:   NewCs(tree, opts.CsCapacity),
		Dnl:  dnl,
	}, nil
}

// Close releases resources the Table owns (currently just the DNL).
func (t *Table) Close() error {
	if t.Dnl != nil {
		return t.Dnl.Close()
	}
	return nil
}
