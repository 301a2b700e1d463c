package fw

import (
	"time"

	"github.com/reflexndn/rfwd/packet"
	"github.com/reflexndn/rfwd/table"
)

// processNack is the shared Nack-processing trait spec.md §4.7 describes:
// once every upstream out-record has NACKed, propagate the least-severe
// reason to every pending downstream.
func processNack(fwd *Forwarder, n *packet.Nack, ingress uint64, pitEntry *table.PitEntry) {
	if rec, ok := pitEntry.OutRecords[ingress]; ok {
		rec.LastNack = n
	}

	reason := n.Reason
	allNacked := true
	for _, rec := range pitEntry.OutRecords {
		if rec.LastNack == nil {
			allNacked = false
			break
		}
		reason = packet.LeastSevere(reason, rec.LastNack.Reason)
	}
	if !allNacked {
		return
	}
	fwd.Table.Pit.SetExpiry(pitEntry, time.Now())

	for face := range pitEntry.InRecords {
		fwd.onOutgoingNack(&packet.Nack{Interest: n.Interest, Reason: reason}, face, pitEntry)
	}
}
