package fw

import (
	"time"

	"github.com/reflexndn/rfwd/core"
	"github.com/reflexndn/rfwd/packet"
	"github.com/reflexndn/rfwd/table"
)

// retransmissionSuppressionWindow bounds how soon a repeated Interest on
// the same PIT entry is treated as a new request rather than a
// retransmission. The exact arithmetic is a non-goal (spec.md §1); this is
// a single fixed window, matching the teacher's MulticastSuppressionTime
// shape rather than the source's full exponential suppression model.
const retransmissionSuppressionWindow = 500 * time.Millisecond

// BestRoute is the default strategy (spec.md §4.7, §9): it follows the
// single lowest-cost FIB nexthop not equal to the ingress face, except for
// the reflexive-from-producer branch, which bypasses the FIB entirely and
// routes back along one of the original exchange's in-records.
type BestRoute struct {
	StrategyBase
}

func init() {
	strategyInit["best-route"] = func() Strategy { return &BestRoute{} }
	StrategyVersions["best-route"] = []uint64{1}
}

func (s *BestRoute) Instantiate(fwd *Forwarder, name string, version uint64) {
	s.NewStrategyBase(fwd, name, version)
}

// AfterReceiveInterest implements spec.md §4.7.
func (s *BestRoute) AfterReceiveInterest(i *packet.Interest, ingress uint64, pitEntry *table.PitEntry) {
	if i.IsReflexiveInterestFromProducer() {
		s.forwardReflexive(i, ingress, pitEntry)
		return
	}

	if len(pitEntry.OutRecords) > 0 {
		switch s.classifyRetransmission(pitEntry) {
		case retransmitSuppress:
			core.Log.Debug(s, "suppressed retransmission", "name", i.Name.String())
			return
		case retransmitForward:
			s.forwardRetransmission(i, ingress, pitEntry)
			return
		}
	}

	fib := s.fwd.Table.Fib.LongestPrefixMatch(i.Name)
	if fib == nil {
		core.Log.Debug(s, "no FIB nexthop", "name", i.Name.String())
		s.fwd.sendNack(i, ingress, packet.NackReasonNoRoute)
		return
	}
	for _, nh := range fib.NextHops {
		if nh.Face == ingress {
			continue
		}
		s.SendInterest(i, pitEntry, nh.Face)
		return
	}
	core.Log.Debug(s, "no eligible FIB nexthop besides ingress", "name", i.Name.String())
	s.fwd.sendNack(i, ingress, packet.NackReasonNoRoute)
}

type retransmitDecision int

const (
	retransmitSuppress retransmitDecision = iota
	retransmitForward
)

// classifyRetransmission implements the SUPPRESS/FORWARD half of spec.md
// §4.7's retransmission-suppression contract for an entry that already has
// at least one out-record: forward once the oldest out-record is past the
// suppression window, otherwise suppress.
func (s *BestRoute) classifyRetransmission(pitEntry *table.PitEntry) retransmitDecision {
	now := time.Now()
	for _, rec := range pitEntry.OutRecords {
		sent := rec.Expiry.Add(-rec.LastInterest.Lifetime)
		if sent.Add(retransmissionSuppressionWindow).Before(now) {
			return retransmitForward
		}
	}
	return retransmitSuppress
}

// forwardReflexive is §4.6 step 7 / §4.7's reflexive branch: pitEntry here
// is the *original* exchange's PIT entry, handed in by onSendingRI, and the
// RI goes out on the face of one of its in-records (the original consumer's
// face). With several in-records, which one is used is not defined: the
// records are kept in a map with no arrival order.
func (s *BestRoute) forwardReflexive(i *packet.Interest, ingress uint64, pitEntry *table.PitEntry) {
	if len(pitEntry.InRecords) == 0 {
		core.Log.Debug(s, "reflexive Interest has no original in-record", "name", pitEntry.Name.String())
		s.fwd.sendNack(i, ingress, packet.NackReasonNoRoute)
		return
	}
	var outFace uint64
	for face := range pitEntry.InRecords {
		outFace = face
		break
	}
	s.SendInterest(i, pitEntry, outFace)
}

// forwardRetransmission prefers an unused upstream of lowest cost; else the
// eligible upstream with the earliest out-record (spec.md §4.7).
func (s *BestRoute) forwardRetransmission(i *packet.Interest, ingress uint64, pitEntry *table.PitEntry) {
	fib := s.fwd.Table.Fib.LongestPrefixMatch(i.Name)
	if fib == nil {
		s.fwd.sendNack(i, ingress, packet.NackReasonNoRoute)
		return
	}
	for _, nh := range fib.NextHops {
		if nh.Face == ingress {
			continue
		}
		if _, used := pitEntry.OutRecords[nh.Face]; !used {
			s.SendInterest(i, pitEntry, nh.Face)
			return
		}
	}

	var earliestFace uint64
	var earliest time.Time
	found := false
	for face, rec := range pitEntry.OutRecords {
		if face == ingress {
			continue
		}
		if !found || rec.Expiry.Before(earliest) {
			earliestFace, earliest, found = face, rec.Expiry, true
		}
	}
	if !found {
		s.fwd.sendNack(i, ingress, packet.NackReasonNoRoute)
		return
	}
	s.SendInterest(i, pitEntry, earliestFace)
}

// AfterReceiveData forwards d to every pending downstream recorded on
// pitEntry (spec.md §4.9's single-match branch delegates the actual send
// to the strategy).
func (s *BestRoute) AfterReceiveData(d *packet.Data, ingress uint64, pitEntry *table.PitEntry) {
	s.emitToInRecords(d, pitEntry, ingress)
}

// AfterContentStoreHit emits the cached Data back to the ingress face that
// asked for it.
func (s *BestRoute) AfterContentStoreHit(d *packet.Data, ingress uint64, pitEntry *table.PitEntry) {
	s.fwd.onOutgoingData(d, ingress)
}

// AfterReceiveNack delegates to the shared Nack-processing trait (spec.md
// §4.7).
func (s *BestRoute) AfterReceiveNack(n *packet.Nack, ingress uint64, pitEntry *table.PitEntry) {
	processNack(s.fwd, n, ingress, pitEntry)
}
