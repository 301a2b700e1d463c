package fw

import (
	"time"

	"github.com/reflexndn/rfwd/core"
	"github.com/reflexndn/rfwd/packet"
	"github.com/reflexndn/rfwd/table"
)

// multicastSuppressionTime mirrors the teacher's fw/fw/multicast.go
// constant of the same purpose.
const multicastSuppressionTime = 500 * time.Millisecond

// Multicast forwards every Interest to every FIB nexthop, adapted from the
// teacher's fw/fw/multicast.go.
type Multicast struct {
	StrategyBase
}

func init() {
	strategyInit["multicast"] = func() Strategy { return &Multicast{} }
	StrategyVersions["multicast"] = []uint64{1}
}

func (s *Multicast) Instantiate(fwd *Forwarder, name string, version uint64) {
	s.NewStrategyBase(fwd, name, version)
}

func (s *Multicast) AfterContentStoreHit(d *packet.Data, ingress uint64, pitEntry *table.PitEntry) {
	core.Log.Trace(s, "content store hit", "name", d.Name.String())
	s.fwd.onOutgoingData(d, ingress)
}

func (s *Multicast) AfterReceiveData(d *packet.Data, ingress uint64, pitEntry *table.PitEntry) {
	core.Log.Trace(s, "received data", "name", d.Name.String(), "inrecords", len(pitEntry.InRecords))
	s.emitToInRecords(d, pitEntry, ingress)
}

func (s *Multicast) AfterReceiveInterest(i *packet.Interest, ingress uint64, pitEntry *table.PitEntry) {
	fib := s.fwd.Table.Fib.LongestPrefixMatch(i.Name)
	if fib == nil || len(fib.NextHops) == 0 {
		core.Log.Debug(s, "no nexthop for interest", "name", i.Name.String())
		return
	}

	now := time.Now()
	for _, rec := range pitEntry.OutRecords {
		if rec.LastNonce != i.Nonce && rec.Expiry.Add(-multicastSuppressionTime).After(now) {
			core.Log.Debug(s, "suppressed interest", "name", i.Name.String())
			return
		}
	}

	for _, nh := range fib.NextHops {
		if nh.Face == ingress {
			continue
		}
		s.SendInterest(i, pitEntry, nh.Face)
	}
}

func (s *Multicast) AfterReceiveNack(n *packet.Nack, ingress uint64, pitEntry *table.PitEntry) {
	processNack(s.fwd, n, ingress, pitEntry)
}
