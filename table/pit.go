package table

import (
	"fmt"
	"time"

	"github.com/reflexndn/rfwd/enc"
	"github.com/reflexndn/rfwd/packet"
)

// DuplicateNonce classifies an incoming Interest's Nonce against a PIT
// entry's existing records (spec.md §4.2).
type DuplicateNonce int

const (
	DuplicateNonceNone DuplicateNonce = iota
	DuplicateNonceInSame
	DuplicateNonceInOther
	DuplicateNonceOut
)

// Timer is the minimal scheduling contract a PIT entry needs for its
// expiry deadline. package fw's scheduler (C10) implements this; table
// takes it as a constructor dependency to avoid importing fw.
type Timer interface {
	Reset(d time.Duration)
	Stop()
}

// NewTimerFunc constructs a Timer firing cb after d.
type NewTimerFunc func(d time.Duration, cb func()) Timer

// InRecord tracks one downstream face's outstanding Interest (spec.md §3).
type InRecord struct {
	Face         uint64
	LastNonce    uint32
	LastInterest *packet.Interest
	Expiry       time.Time
}

// OutRecord tracks one upstream face's outstanding Interest (spec.md §3).
type OutRecord struct {
	Face         uint64
	LastNonce    uint32
	LastInterest *packet.Interest
	Expiry       time.Time
	LastNack     *packet.Nack
}

// PitEntry is a pending-Interest record (spec.md §3). Selectors are frozen
// at insertion; the Name+selector pair is the PIT key.
type PitEntry struct {
	Name        enc.Name
	MustBeFresh bool
	CanBePrefix bool

	InRecords  map[uint64]*InRecord
	OutRecords map[uint64]*OutRecord

	IsSatisfied         bool
	DataFreshnessPeriod time.Duration

	expiry   Timer
	onExpire func(*PitEntry)
	node     int
}

// InsertInRecord finds-or-creates the in-record for face, overwriting its
// Nonce/Interest/expiry if it already existed. It returns the record, plus
// whether this is a retransmission on an already-known face and the Nonce
// that was previously recorded there (0 if new).
func (e *PitEntry) InsertInRecord(i *packet.Interest, face uint64, expiry time.Time) (rec *InRecord, existed bool, prevNonce uint32) {
	rec, existed = e.InRecords[face]
	if existed {
		prevNonce = rec.LastNonce
		rec.LastNonce = i.Nonce
		rec.LastInterest = i
		rec.Expiry = expiry
		return rec, true, prevNonce
	}
	rec = &InRecord{Face: face, LastNonce: i.Nonce, LastInterest: i, Expiry: expiry}
	e.InRecords[face] = rec
	return rec, false, 0
}

// InsertOutRecord finds-or-creates the out-record for face, same shape as
// InsertInRecord.
func (e *PitEntry) InsertOutRecord(i *packet.Interest, face uint64, expiry time.Time) (rec *OutRecord, existed bool) {
	rec, existed = e.OutRecords[face]
	if existed {
		rec.LastNonce = i.Nonce
		rec.LastInterest = i
		rec.Expiry = expiry
		rec.LastNack = nil
		return rec, true
	}
	rec = &OutRecord{Face: face, LastNonce: i.Nonce, LastInterest: i, Expiry: expiry}
	e.OutRecords[face] = rec
	return rec, false
}

// ClassifyDuplicateNonce implements spec.md §4.2's duplicate-Nonce
// classification. When several records hold the Nonce, an in-record on
// ingress wins, then any out-record, then an in-record on another face.
func (e *PitEntry) ClassifyDuplicateNonce(nonce uint32, ingress uint64) DuplicateNonce {
	if rec, ok := e.InRecords[ingress]; ok && rec.LastNonce == nonce {
		return DuplicateNonceInSame
	}
	for _, rec := range e.OutRecords {
		if rec.LastNonce == nonce {
			return DuplicateNonceOut
		}
	}
	for _, rec := range e.InRecords {
		if rec.LastNonce == nonce {
			return DuplicateNonceInOther
		}
	}
	return DuplicateNonceNone
}

// LatestInRecordExpiry returns the latest expiry across all in-records,
// used to (re)set the entry's single expiry timer (spec.md §4.5, §5).
func (e *PitEntry) LatestInRecordExpiry() time.Time {
	var latest time.Time
	for _, rec := range e.InRecords {
		if rec.Expiry.After(latest) {
			latest = rec.Expiry
		}
	}
	return latest
}

func (e *PitEntry) String() string {
	return fmt.Sprintf("pit-entry(%s)", e.Name.String())
}

// selectorKey derives the PIT key within a NameTree node: the full Name
// (the node is keyed by the reflexive-stripped Name, so Names differing only
// in reflexive components share it) plus the selectors. The ordering of
// fields here is private to this implementation but is stable (spec.md
// §4.2).
func selectorKey(i *packet.Interest) string {
	hint := ""
	if len(i.ForwardingHint) > 0 {
		hint = i.ForwardingHint.String()
	}
	return fmt.Sprintf("name=%s|mbf=%v|cbp=%v|fh=%s", i.Name.String(), i.MustBeFresh, i.CanBePrefix, hint)
}

// Pit is the Pending Interest Table plus its embedded PIT-assist token
// index (spec.md §4.3, §9: "the PIT-assist rows live inside the PIT
// entry's node"). The four assist maps are global to the table (a token
// arriving on any face must resolve regardless of which node created it)
// but a row's lifetime is tied 1:1 to the PitEntry that created it,
// satisfying invariant 3 (spec.md §8).
type Pit struct {
	tree     *NameTree
	newTimer NewTimerFunc

	nameToToken     map[string]uint32
	tokenToName     map[uint32]string
	nameToPrevToken map[string]uint32
	prevTokenToName map[uint32]string
	nameByKey       map[string]enc.Name

	rand tokenSource
}

// NewPit constructs a Pit backed by tree, scheduling expirations with
// newTimer.
func NewPit(tree *NameTree, newTimer NewTimerFunc) *Pit {
	return &Pit{
		tree:            tree,
		newTimer:        newTimer,
		nameToToken:     make(map[string]uint32),
		tokenToName:     make(map[uint32]string),
		nameToPrevToken: make(map[string]uint32),
		prevTokenToName: make(map[uint32]string),
		nameByKey:       make(map[string]enc.Name),
		rand:            defaultTokenSource{},
	}
}

// Insert finds-or-creates the PIT entry for i's Name+Selectors (spec.md
// §4.2).
func (p *Pit) Insert(i *packet.Interest, onExpire func(*PitEntry)) (*PitEntry, bool) {
	idx := p.tree.findOrInsert(i.Name)
	node := p.tree.nodes[idx]
	if node.pit == nil {
		node.pit = make(map[string]*PitEntry)
	}
	key := selectorKey(i)
	if e, ok := node.pit[key]; ok {
		return e, false
	}
	e := &PitEntry{
		Name:        i.Name.Clone(),
		MustBeFresh: i.MustBeFresh,
		CanBePrefix: i.CanBePrefix,
		InRecords:   make(map[uint64]*InRecord),
		OutRecords:  make(map[uint64]*OutRecord),
		onExpire:    onExpire,
		node:        idx,
	}
	node.pit[key] = e
	return e, true
}

// SetExpiry (re)schedules e's finalization timer for at, cancelling any
// previous schedule first (spec.md §5: "setting a new expiry cancels the
// previous schedule atomically"). The timer is created lazily on first
// use so a brand-new entry never races against a zero-duration fire.
func (p *Pit) SetExpiry(e *PitEntry, at time.Time) {
	if p.newTimer == nil {
		return
	}
	d := time.Until(at)
	if d < 0 {
		d = 0
	}
	if e.expiry == nil {
		e.expiry = p.newTimer(d, func() { e.onExpire(e) })
		return
	}
	e.expiry.Reset(d)
}

// Find looks up the PIT entry for i's exact Name+Selectors key, never
// inserting.
func (p *Pit) Find(i *packet.Interest) (*PitEntry, bool) {
	idx, ok := p.tree.find(i.Name)
	if !ok {
		return nil, false
	}
	node := p.tree.nodes[idx]
	e, ok := node.pit[selectorKey(i)]
	return e, ok
}

// FindBasedOnName keys by Name alone (spec.md §4.2), returning an arbitrary
// one of the matching entries if more than one Selector variant shares the
// Name; that case is neither logged nor counted (spec.md §9 open question:
// token-tagged flows use Names unique modulo Selectors).
func (p *Pit) FindBasedOnName(name enc.Name) (*PitEntry, bool) {
	idx, ok := p.tree.find(name)
	if !ok {
		return nil, false
	}
	node := p.tree.nodes[idx]
	for _, e := range node.pit {
		if e.Name.Equal(name) {
			return e, true
		}
	}
	return nil, false
}

// FindAllDataMatches returns every PIT entry whose Name is a
// reflexive-aware prefix of d's Name (spec.md §4.2, §4.9).
func (p *Pit) FindAllDataMatches(d *packet.Data) []*PitEntry {
	return p.tree.allPitAlongPrefix(d.Name)
}

// RemoveFace implements spec.md §5's Face-removal cleanup pass: drop every
// in-record and out-record naming faceID across the whole PIT, then erase
// any entry left with no in-records, since nothing downstream remains to
// satisfy. Mirrors the teacher's FaceTable.beforeRemove cleanup connection.
func (p *Pit) RemoveFace(faceID uint64) {
	for _, e := range p.tree.allPitEntries() {
		delete(e.InRecords, faceID)
		delete(e.OutRecords, faceID)
		if len(e.InRecords) == 0 {
			p.Erase(e)
		}
	}
}

// Erase removes e from the PIT and purges its PIT-assist rows, stopping
// its expiry timer first (spec.md §5: "when an entry is erased, its timer
// is cancelled first").
func (p *Pit) Erase(e *PitEntry) {
	if e.expiry != nil {
		e.expiry.Stop()
	}
	node := p.tree.nodes[e.node]
	for key, cand := range node.pit {
		if cand == e {
			delete(node.pit, key)
			break
		}
	}
	p.eraseAssist(e.Name)
	p.tree.prune(e.node)
}
