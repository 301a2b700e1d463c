package mgmt

import (
	"net/url"

	"github.com/reflexndn/rfwd/core"
	"github.com/reflexndn/rfwd/fw"
)

// CSModule is the "cs" management noun: info only, grounded on the
// teacher's fw/mgmt/cs.go (its "config"/"erase" verbs have no analogue
// here: CS capacity is fixed at construction, spec.md §9, and cache
// eviction beyond a bare size bound is a non-goal, spec.md §1).
type CSModule struct {
	fwd *fw.Forwarder
}

func (c *CSModule) Noun() string { return "cs" }

func (c *CSModule) String() string { return "mgmt-cs" }

// CSInfo is the "cs info" dataset body.
type CSInfo struct {
	Capacity int
	Entries  int
	Hits     uint64
	Misses   uint64
}

func (c *CSModule) Dispatch(verb string, args url.Values) (*ControlResponse, error) {
	if verb != "info" {
		return nil, core.ErrNoSuchCommand{Noun: c.Noun(), Verb: verb}
	}
	snap := c.fwd.Counters.Snapshot()
	return &ControlResponse{Code: 200, Text: "OK", Body: CSInfo{
		Capacity: c.fwd.Table.Cs.Capacity(),
		Entries:  c.fwd.Table.Cs.Len(),
		Hits:     snap.NCsHits,
		Misses:   snap.NCsMisses,
	}}, nil
}
