package core

import "sync/atomic"

// Counters holds the forwarder-wide packet counters referenced throughout
// spec.md (§4, §8 scenario S1). Grounded on Forwarder's m_counters fields
// in forwarder.cpp; kept atomic since Faces may in principle run on
// separate goroutines even though the pipeline itself is single-threaded
// (spec.md §5).
type Counters struct {
	NInInterests         atomic.Uint64
	NOutInterests        atomic.Uint64
	NInData              atomic.Uint64
	NOutData             atomic.Uint64
	NInNacks             atomic.Uint64
	NOutNacks            atomic.Uint64
	NInHopLimitZero      atomic.Uint64
	NOutHopLimitZero     atomic.Uint64
	NCsHits              atomic.Uint64
	NCsMisses            atomic.Uint64
	NUnsolicitedData     atomic.Uint64
	NSatisfiedInterests  atomic.Uint64
	NUnsatisfiedInterests atomic.Uint64
}

// Snapshot is a point-in-time copy of Counters, suitable for the
// forwarder-status management response (fw/mgmt/forwarder-status.go in the
// teacher).
type Snapshot struct {
	NInInterests          uint64
	NOutInterests         uint64
	NInData               uint64
	NOutData              uint64
	NInNacks              uint64
	NOutNacks             uint64
	NInHopLimitZero       uint64
	NOutHopLimitZero      uint64
	NCsHits               uint64
	NCsMisses             uint64
	NUnsolicitedData      uint64
	NSatisfiedInterests   uint64
	NUnsatisfiedInterests uint64
}

// Snapshot reads every counter without requiring external synchronization.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		NInInterests:          c.NInInterests.Load(),
		NOutInterests:         c.NOutInterests.Load(),
		NInData:               c.NInData.Load(),
		NOutData:              c.NOutData.Load(),
		NInNacks:              c.NInNacks.Load(),
		NOutNacks:             c.NOutNacks.Load(),
		NInHopLimitZero:       c.NInHopLimitZero.Load(),
		NOutHopLimitZero:      c.NOutHopLimitZero.Load(),
		NCsHits:               c.NCsHits.Load(),
		NCsMisses:             c.NCsMisses.Load(),
		NUnsolicitedData:      c.NUnsolicitedData.Load(),
		NSatisfiedInterests:   c.NSatisfiedInterests.Load(),
		NUnsatisfiedInterests: c.NUnsatisfiedInterests.Load(),
	}
}
