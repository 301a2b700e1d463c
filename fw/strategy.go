package fw

import (
	"fmt"

	"github.com/reflexndn/rfwd/core"
	"github.com/reflexndn/rfwd/face"
	"github.com/reflexndn/rfwd/packet"
	"github.com/reflexndn/rfwd/table"
)

// Strategy is the capability set every forwarding policy implements
// (spec.md §9): {afterReceiveInterest, afterReceiveData, afterReceiveNack,
// afterContentStoreHit, beforeSatisfyInterest, afterNewNextHop,
// onDroppedInterest}.
type Strategy interface {
	Instantiate(fwd *Forwarder, name string, version uint64)
	Name() string
	Version() uint64

	AfterReceiveInterest(i *packet.Interest, ingress uint64, pitEntry *table.PitEntry)
	AfterContentStoreHit(d *packet.Data, ingress uint64, pitEntry *table.PitEntry)
	AfterReceiveData(d *packet.Data, ingress uint64, pitEntry *table.PitEntry)
	AfterReceiveNack(n *packet.Nack, ingress uint64, pitEntry *table.PitEntry)
	BeforeSatisfyInterest(pitEntry *table.PitEntry, ingress uint64)
	AfterNewNextHop(nh table.NextHop, pitEntry *table.PitEntry)
	OnDroppedInterest(i *packet.Interest)
}

// StrategyBase provides the fields and egress helpers shared by every
// strategy, mirroring the teacher's StrategyBase in fw/fw/multicast.go.
type StrategyBase struct {
	fwd     *Forwarder
	name    string
	version uint64
}

func (s *StrategyBase) NewStrategyBase(fwd *Forwarder, name string, version uint64) {
	s.fwd, s.name, s.version = fwd, name, version
}

func (s *StrategyBase) Name() string     { return s.name }
func (s *StrategyBase) Version() uint64  { return s.version }
func (s *StrategyBase) String() string   { return fmt.Sprintf("strategy(%s=%d)", s.name, s.version) }

// SendInterest hands i to the outgoing-Interest pipeline (spec.md §4.8).
func (s *StrategyBase) SendInterest(i *packet.Interest, pitEntry *table.PitEntry, egress uint64) {
	s.fwd.onOutgoingInterest(i, egress, pitEntry)
}

// emitToInRecords hands d to the outgoing-Data pipeline (spec.md §4.10)
// for every downstream still recorded on pitEntry, skipping the face the
// Data itself arrived on unless that face is ad-hoc (spec.md §8
// invariant 6). Shared by every strategy's AfterReceiveData.
func (s *StrategyBase) emitToInRecords(d *packet.Data, pitEntry *table.PitEntry, ingress uint64) {
	for faceID := range pitEntry.InRecords {
		if faceID == ingress {
			fc := s.fwd.Faces.Get(faceID)
			if fc == nil || fc.LinkType() != face.LinkAdHoc {
				continue
			}
		}
		s.fwd.onOutgoingData(d, faceID)
	}
}

// BeforeSatisfyInterest, OnDroppedInterest and AfterNewNextHop default to
// no-ops; strategies override only the hooks they care about.
func (s *StrategyBase) BeforeSatisfyInterest(*table.PitEntry, uint64)     {}
func (s *StrategyBase) OnDroppedInterest(*packet.Interest)               {}
func (s *StrategyBase) AfterNewNextHop(table.NextHop, *table.PitEntry)    {}

// strategyInit maps a strategy name to its constructor, populated by each
// variant's init() (spec.md §9: "register variants ... by name and version
// at construction time").
var strategyInit = map[string]func() Strategy{}

// StrategyVersions maps a strategy name to the version numbers it accepts.
var StrategyVersions = map[string][]uint64{}

// NewStrategy instantiates the named strategy at the given version,
// validating the version against StrategyVersions (spec.md §9:
// "mismatches fail with InvalidStrategyVersion").
func NewStrategy(fwd *Forwarder, name string, version uint64) (Strategy, error) {
	ctor, known := strategyInit[name]
	if !known {
		return nil, core.ErrInvalidStrategyVersion{Strategy: name, Version: version}
	}
	valid := false
	for _, v := range StrategyVersions[name] {
		if v == version {
			valid = true
			break
		}
	}
	if !valid {
		return nil, core.ErrInvalidStrategyVersion{Strategy: name, Version: version}
	}
	s := ctor()
	s.Instantiate(fwd, name, version)
	return s, nil
}
