package fw

import (
	"fmt"
	"time"

	"github.com/reflexndn/rfwd/core"
	"github.com/reflexndn/rfwd/core/optional"
	"github.com/reflexndn/rfwd/enc"
	"github.com/reflexndn/rfwd/face"
	"github.com/reflexndn/rfwd/packet"
	"github.com/reflexndn/rfwd/table"
)

// localhostPrefix marks the /localhost namespace a non-local Face may
// never cross (spec.md §4.4, §4.9).
var localhostPrefix enc.Name

func init() {
	c, err := enc.ParseComponent("localhost", false)
	if err != nil {
		panic(err)
	}
	localhostPrefix = enc.Name{c}
}

func isLocalhost(name enc.Name) bool {
	return localhostPrefix.IsPrefixOf(name)
}

// Forwarder wires the Table, the Face table and a Scheduler together and
// drives every pipeline spec.md §4 describes. It is the single
// construction point strategies and management both hold a reference to.
type Forwarder struct {
	Table    *table.Table
	Faces    *face.Table
	Sched    *Scheduler
	Counters *core.Counters
	Config   core.Config

	defaultStrategy Strategy
	prefixStrategy  map[string]Strategy

	// producerPrefixes are the namespaces this forwarder serves as
	// producer; an incoming ForwardingHint naming one of these is
	// cleared (spec.md §4.4 step 5).
	producerPrefixes []enc.Name
}

// NewForwarder constructs a Forwarder, instantiating the best-route
// strategy as its default (spec.md §4.7, §9).
func NewForwarder(tbl *table.Table, faces *face.Table, cfg core.Config) (*Forwarder, error) {
	f := &Forwarder{
		Table:          tbl,
		Faces:          faces,
		Sched:          NewScheduler(),
		Counters:       &core.Counters{},
		Config:         cfg,
		prefixStrategy: make(map[string]Strategy),
	}
	strat, err := NewStrategy(f, "best-route", 1)
	if err != nil {
		return nil, err
	}
	f.defaultStrategy = strat
	faces.OnBeforeRemove(f.onFaceRemoved)
	return f, nil
}

func (f *Forwarder) String() string { return "forwarder" }

// HandleInterest, HandleData and HandleNack are the entry points a Face's
// Handlers wire up (spec.md §3, §4): each is just the exported name for the
// matching pipeline's incoming half, since onIncomingInterest/
// onIncomingData/onIncomingNack are unexported package internals that a
// transport sitting in package face cannot call directly.
func (f *Forwarder) HandleInterest(i *packet.Interest, ingress uint64) { f.onIncomingInterest(i, ingress) }
func (f *Forwarder) HandleData(d *packet.Data, ingress uint64)         { f.onIncomingData(d, ingress) }
func (f *Forwarder) HandleNack(n *packet.Nack, ingress uint64)         { f.onIncomingNack(n, ingress) }

// RegisterProducerPrefix marks prefix as served locally by this
// forwarder, so incoming ForwardingHints naming it are cleared (spec.md
// §4.4 step 5).
func (f *Forwarder) RegisterProducerPrefix(prefix enc.Name) {
	f.producerPrefixes = append(f.producerPrefixes, prefix.Clone())
}

func (f *Forwarder) hintNamesOwnRegion(hint enc.Name) bool {
	for _, p := range f.producerPrefixes {
		if p.IsPrefixOf(hint) {
			return true
		}
	}
	return false
}

// SetStrategy installs strategy as the handler for prefix, overriding the
// default for that subtree (spec.md §9).
func (f *Forwarder) SetStrategy(prefix enc.Name, s Strategy) {
	f.prefixStrategy[prefix.String()] = s
}

// StrategyChoices returns every registered prefix-override strategy as
// "name/version", keyed by prefix URI, for the strategy-choice "list" verb.
func (f *Forwarder) StrategyChoices() map[string]string {
	out := make(map[string]string, len(f.prefixStrategy))
	for prefix, s := range f.prefixStrategy {
		out[prefix] = fmt.Sprintf("%s/%d", s.Name(), s.Version())
	}
	return out
}

// UnsetStrategy removes prefix's strategy override, reverting it to the
// default (spec.md §9).
func (f *Forwarder) UnsetStrategy(prefix enc.Name) {
	delete(f.prefixStrategy, prefix.String())
}

// DefaultStrategy reports the forwarder-wide default strategy as
// "name/version".
func (f *Forwarder) DefaultStrategy() string {
	return fmt.Sprintf("%s/%d", f.defaultStrategy.Name(), f.defaultStrategy.Version())
}

// effectiveStrategy picks the strategy governing name: the longest
// registered prefix override, or the default.
func (f *Forwarder) effectiveStrategy(name enc.Name) Strategy {
	best := f.defaultStrategy
	bestLen := -1
	for key, s := range f.prefixStrategy {
		prefix, err := enc.NameFromStr(key)
		if err != nil {
			continue
		}
		if prefix.IsPrefixOf(name) && len(prefix) > bestLen {
			best, bestLen = s, len(prefix)
		}
	}
	return best
}

// onFaceRemoved implements the Face-removal cleanup pass spec.md §5
// describes: every FIB nexthop naming the closed face is dropped, and
// every PIT in/out-record referring to it is purged (entries left with no
// in-records are erased outright).
func (f *Forwarder) onFaceRemoved(fc face.Face) {
	f.Table.Fib.RemoveFace(fc.ID())
	f.Table.Pit.RemoveFace(fc.ID())
}

func (f *Forwarder) applyDefaultHopLimit(i *packet.Interest) {
	if _, ok := i.HopLimit.Get(); !ok && f.Config.DefaultHopLimit > 0 {
		i.HopLimit = optional.Some(f.Config.DefaultHopLimit)
	}
}

// insertDnlIfConditionsHold implements spec.md §4.12's Dead-Nonce-List
// admission predicate, shared between the immediate satisfaction path
// (§4.9) and finalization on expiry (§4.12).
func (f *Forwarder) insertDnlIfConditionsHold(e *table.PitEntry) {
	dnlLifetime := time.Duration(f.Config.DeadNonceListLifetimeMs) * time.Millisecond
	shouldInsert := !e.IsSatisfied || (e.MustBeFresh && e.DataFreshnessPeriod < dnlLifetime)
	if !shouldInsert {
		return
	}
	for _, rec := range e.OutRecords {
		if err := f.Table.Dnl.Insert(e.Name, rec.LastNonce); err != nil {
			core.Log.Warn(f, "dnl insert failed", "name", e.Name.String(), "err", err)
		}
	}
}

// sendNack emits a bare Nack directly on egress, bypassing the PIT
// in-record bookkeeping outgoing-Nack normally requires — used by the loop
// pipeline and by strategies reporting NO_ROUTE/NONE (spec.md §4.6, §4.7).
func (f *Forwarder) sendNack(i *packet.Interest, egress uint64, reason packet.NackReason) {
	fc := f.Faces.Get(egress)
	if fc == nil {
		return
	}
	if err := fc.SendNack(&packet.Nack{Interest: i, Reason: reason}); err != nil {
		core.Log.Debug(f, "nack send failed", "err", err)
		return
	}
	f.Counters.NOutNacks.Add(1)
}

// onLoop is the loop pipeline spec.md §4.4 falls into when the Dead-Nonce
// List already holds (name, nonce): silently dropped on a non-p2p link,
// else NACKed DUPLICATE without creating an in-record.
func (f *Forwarder) onLoop(i *packet.Interest, ingress uint64, inFace face.Face) {
	if inFace == nil || inFace.LinkType() != face.LinkPointToPoint {
		core.Log.Debug(f, "dropped loop on non-p2p link", "name", i.Name.String())
		return
	}
	f.sendNack(i, ingress, packet.NackReasonDuplicate)
}

// onIncomingInterest is spec.md §4.4: tag, HopLimit, scope, loop, hint,
// PIT-insert, and dispatch to either the RI branch (§4.6) or the
// Content-Store branches (§4.5).
func (f *Forwarder) onIncomingInterest(i *packet.Interest, ingress uint64) {
	i.IncomingFaceId = optional.Some(ingress)
	f.Counters.NInInterests.Add(1)

	if hl, ok := i.HopLimit.Get(); ok {
		if hl == 0 {
			f.Counters.NInHopLimitZero.Add(1)
			core.Log.Debug(f, "dropped interest with zero hop limit", "name", i.Name.String())
			return
		}
		i.HopLimit = optional.Some(hl - 1)
	}

	inFace := f.Faces.Get(ingress)
	if inFace != nil && inFace.Scope() == face.ScopeNonLocal && isLocalhost(i.Name) {
		core.Log.Debug(f, "dropped localhost-scope violation", "name", i.Name.String())
		return
	}

	if has, _ := f.Table.Dnl.Has(i.Name, i.Nonce); has {
		f.onLoop(i, ingress, inFace)
		return
	}

	if len(i.ForwardingHint) > 0 && f.hintNamesOwnRegion(i.ForwardingHint) {
		i.ForwardingHint = nil
	}

	pitEntry, isNew := f.Table.Pit.Insert(i, f.onPitExpire)

	if i.IsReflexiveInterestFromProducer() {
		f.onSendingRI(i, ingress, pitEntry)
		return
	}

	if i.IsReflexive() && isNew {
		prevToken := i.PitTokenOrZero()
		if _, err := f.Table.Pit.CreateName(i.Name, prevToken); err != nil {
			core.Log.Error(f, "pit-assist token exhausted", "name", i.Name.String(), "err", err)
			f.Table.Pit.Erase(pitEntry)
			return
		}
	}

	if !isNew {
		cls := pitEntry.ClassifyDuplicateNonce(i.Nonce, ingress)
		isP2P := inFace != nil && inFace.LinkType() == face.LinkPointToPoint
		if cls != table.DuplicateNonceNone && !(isP2P && cls == table.DuplicateNonceInSame) {
			f.onLoop(i, ingress, inFace)
			return
		}
	}

	if len(pitEntry.InRecords) == 0 {
		if csEntry, hit := f.Table.Cs.Find(i); hit {
			f.onContentStoreHit(csEntry, ingress, pitEntry)
			return
		}
		f.Counters.NCsMisses.Add(1)
		f.onContentStoreMiss(i, ingress, pitEntry)
		return
	}
	f.onContentStoreMiss(i, ingress, pitEntry)
}

// onContentStoreMiss is spec.md §4.5's miss branch: record the in-record,
// reschedule expiry, honor a NextHopFaceId override, attach the
// downstream PIT-assist token for a reflexive Interest, and dispatch to
// the effective strategy.
func (f *Forwarder) onContentStoreMiss(i *packet.Interest, ingress uint64, pitEntry *table.PitEntry) {
	f.applyDefaultHopLimit(i)
	expiry := time.Now().Add(i.Lifetime)
	pitEntry.InsertInRecord(i, ingress, expiry)
	f.Table.Pit.SetExpiry(pitEntry, pitEntry.LatestInRecordExpiry())

	if nh, ok := i.NextHopFaceId.Get(); ok {
		f.onOutgoingInterest(i, nh, pitEntry)
		return
	}

	if i.IsReflexive() {
		if tok, ok := f.Table.Pit.NameToToken(i.Name); ok {
			i.PitToken = optional.Some(tok)
		}
	}

	f.effectiveStrategy(i.Name).AfterReceiveInterest(i, ingress, pitEntry)
}

// onContentStoreHit is spec.md §4.5's hit branch.
func (f *Forwarder) onContentStoreHit(cs *table.CsEntry, ingress uint64, pitEntry *table.PitEntry) {
	f.Counters.NCsHits.Add(1)
	pitEntry.IsSatisfied = true
	pitEntry.DataFreshnessPeriod = cs.Freshness
	f.Table.Pit.SetExpiry(pitEntry, time.Now())
	f.effectiveStrategy(pitEntry.Name).AfterContentStoreHit(cs.Data, ingress, pitEntry)
}

// onSendingRI is spec.md §4.6, the protocol's heart: recover the original
// exchange from the carried PitToken, rewrite it to the token the upstream
// neighbour gave this forwarder, and hand the Interest back to the
// strategy keyed on the *original* exchange's PIT entry.
func (f *Forwarder) onSendingRI(i *packet.Interest, ingress uint64, pitEntry *table.PitEntry) {
	tok := i.PitTokenOrZero()
	if tok == 0 {
		f.sendNack(i, ingress, packet.NackReasonNone)
		f.Table.Pit.Erase(pitEntry)
		return
	}

	originalName, ok := f.Table.Pit.TokenToName(tok)
	if !ok {
		f.sendNack(i, ingress, packet.NackReasonNoRoute)
		f.Table.Pit.Erase(pitEntry)
		return
	}

	originalPitEntry, ok := f.Table.Pit.FindBasedOnName(originalName)
	if !ok {
		core.Log.Error(f, "reflexive interest points at a vanished pit entry", "name", originalName.String())
		f.Table.Pit.Erase(pitEntry)
		return
	}

	prevToken, _ := f.Table.Pit.NameToPrevToken(originalName)
	i.PitToken = optional.Some(prevToken)

	f.applyDefaultHopLimit(i)
	expiry := time.Now().Add(i.Lifetime)
	pitEntry.InsertInRecord(i, ingress, expiry)
	f.Table.Pit.SetExpiry(pitEntry, pitEntry.LatestInRecordExpiry())

	f.effectiveStrategy(i.Name).AfterReceiveInterest(i, ingress, originalPitEntry)

	if !f.Config.InsertPitEntryForRI {
		f.Table.Pit.Erase(pitEntry)
	}
}

// onOutgoingInterest is spec.md §4.8: HopLimit-zero drop on a non-local
// egress, token rewriting for reflexive traffic, out-record bookkeeping,
// and the actual Face send.
func (f *Forwarder) onOutgoingInterest(i *packet.Interest, egress uint64, pitEntry *table.PitEntry) {
	egressFace := f.Faces.Get(egress)

	if hl, ok := i.HopLimit.Get(); ok && hl == 0 && egressFace != nil && egressFace.Scope() == face.ScopeNonLocal {
		f.Counters.NOutHopLimitZero.Add(1)
		return
	}

	out := i
	switch {
	case i.IsReflexiveInterestFromProducer():
		if prevToken, ok := f.Table.Pit.NameToPrevToken(pitEntry.Name); ok {
			out = i.Clone()
			out.PitToken = optional.Some(prevToken)
		}
	case i.IsReflexive():
		if tok, ok := f.Table.Pit.NameToToken(i.Name); ok {
			out = i.Clone()
			out.PitToken = optional.Some(tok)
		}
	}

	expiry := time.Now().Add(out.Lifetime)
	pitEntry.InsertOutRecord(out, egress, expiry)

	if egressFace == nil {
		core.Log.Debug(f, "dropped outgoing interest, no such face", "egress", egress)
		return
	}
	if err := egressFace.SendInterest(out); err != nil {
		core.Log.Debug(f, "face send failed", "err", err)
		return
	}
	f.Counters.NOutInterests.Add(1)
}

// onUnsolicitedData handles Data that matches no PIT entry (spec.md §4.9):
// counted and dropped, since caching unsolicited Data is a non-goal
// (spec.md §1).
func (f *Forwarder) onUnsolicitedData(d *packet.Data, ingress uint64) {
	f.Counters.NUnsolicitedData.Add(1)
	core.Log.Debug(f, "dropped unsolicited data", "name", d.Name.String(), "ingress", ingress)
}

// onIncomingData is spec.md §4.9: localhost-scope check, collect every
// reflexive-aware-prefix PIT match, admit to the Content Store, and
// either hand the single match to its strategy or fan the Data out to
// every pending downstream across all matches directly.
func (f *Forwarder) onIncomingData(d *packet.Data, ingress uint64) {
	d.IncomingFaceId = optional.Some(ingress)
	f.Counters.NInData.Add(1)

	inFace := f.Faces.Get(ingress)
	if inFace != nil && inFace.Scope() == face.ScopeNonLocal && isLocalhost(d.Name) {
		core.Log.Debug(f, "dropped localhost-scope violation", "name", d.Name.String())
		return
	}

	matches := f.Table.Pit.FindAllDataMatches(d)
	if len(matches) == 0 {
		f.onUnsolicitedData(d, ingress)
		return
	}
	f.Table.Cs.Insert(d)

	if len(matches) == 1 {
		e := matches[0]
		f.Table.Pit.SetExpiry(e, time.Now())
		f.effectiveStrategy(e.Name).AfterReceiveData(d, ingress, e)
		e.IsSatisfied = true
		e.DataFreshnessPeriod = d.FreshnessPeriod
		f.insertDnlIfConditionsHold(e)
		delete(e.OutRecords, ingress)
		return
	}

	pending := make(map[uint64]bool)
	for _, e := range matches {
		for faceID := range e.InRecords {
			pending[faceID] = true
		}
	}
	for _, e := range matches {
		f.effectiveStrategy(e.Name).BeforeSatisfyInterest(e, ingress)
		e.IsSatisfied = true
		e.DataFreshnessPeriod = d.FreshnessPeriod
		f.insertDnlIfConditionsHold(e)
		e.InRecords = make(map[uint64]*table.InRecord)
		e.OutRecords = make(map[uint64]*table.OutRecord)
	}
	for faceID := range pending {
		if faceID == ingress {
			fc := f.Faces.Get(faceID)
			if fc == nil || fc.LinkType() != face.LinkAdHoc {
				continue
			}
		}
		f.onOutgoingData(d, faceID)
	}
}

// onOutgoingData is spec.md §4.10.
func (f *Forwarder) onOutgoingData(d *packet.Data, egress uint64) {
	fc := f.Faces.Get(egress)
	if fc == nil {
		core.Log.Debug(f, "dropped outgoing data, no such face", "egress", egress)
		return
	}
	if fc.Scope() == face.ScopeNonLocal && isLocalhost(d.Name) {
		core.Log.Debug(f, "dropped localhost-scope violation", "name", d.Name.String())
		return
	}
	if err := fc.SendData(d); err != nil {
		core.Log.Debug(f, "face send failed", "err", err)
		return
	}
	f.Counters.NOutData.Add(1)
}

// onIncomingNack is spec.md §4.11's incoming half: dropped on a non-p2p
// link or absent a matching out-record Nonce, else recorded and dispatched
// to the effective strategy (which shares processNack for the
// all-upstreams-nacked propagation rule).
func (f *Forwarder) onIncomingNack(n *packet.Nack, ingress uint64) {
	f.Counters.NInNacks.Add(1)

	inFace := f.Faces.Get(ingress)
	if inFace == nil || inFace.LinkType() != face.LinkPointToPoint {
		core.Log.Debug(f, "dropped nack on non-p2p link", "name", n.Interest.Name.String())
		return
	}

	pitEntry, ok := f.Table.Pit.Find(n.Interest)
	if !ok {
		core.Log.Debug(f, "dropped nack, no matching pit entry", "name", n.Interest.Name.String())
		return
	}
	rec, ok := pitEntry.OutRecords[ingress]
	if !ok || rec.LastNonce != n.Interest.Nonce {
		core.Log.Debug(f, "dropped nack, no matching out-record nonce", "name", n.Interest.Name.String())
		return
	}

	f.effectiveStrategy(pitEntry.Name).AfterReceiveNack(n, ingress, pitEntry)
}

// onOutgoingNack is spec.md §4.11's outgoing half: requires an in-record
// on egress, drops on a non-p2p link, then sends and erases the in-record.
func (f *Forwarder) onOutgoingNack(n *packet.Nack, egress uint64, pitEntry *table.PitEntry) {
	fc := f.Faces.Get(egress)
	if fc == nil || fc.LinkType() != face.LinkPointToPoint {
		return
	}
	rec, ok := pitEntry.InRecords[egress]
	if !ok {
		return
	}
	out := &packet.Nack{Interest: rec.LastInterest, Reason: n.Reason}
	delete(pitEntry.InRecords, egress)
	if err := fc.SendNack(out); err != nil {
		core.Log.Debug(f, "face send failed", "err", err)
		return
	}
	f.Counters.NOutNacks.Add(1)
}

// onPitExpire is spec.md §4.12's finalization pipeline, run when a PIT
// entry's expiry timer fires: admit outstanding out-record Nonces to the
// Dead-Nonce List per the shared predicate, account satisfied vs
// unsatisfied, and erase.
func (f *Forwarder) onPitExpire(e *table.PitEntry) {
	f.insertDnlIfConditionsHold(e)
	if e.IsSatisfied {
		f.Counters.NSatisfiedInterests.Add(1)
	} else {
		f.Counters.NUnsatisfiedInterests.Add(1)
	}
	f.Table.Pit.Erase(e)
}
