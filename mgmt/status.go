package mgmt

import (
	"net/url"
	"time"

	"github.com/reflexndn/rfwd/core"
	"github.com/reflexndn/rfwd/face"
	"github.com/reflexndn/rfwd/fw"
)

// StatusModule is the "status" management noun: general only, grounded on
// the teacher's fw/mgmt/forwarder-status.go. This build runs a single
// forwarding thread (spec.md §5's single cooperative event loop), so unlike
// the teacher there is no per-thread counter fan-in to sum.
type StatusModule struct {
	fwd   *fw.Forwarder
	faces *face.Table
}

func (m *StatusModule) Noun() string { return "status" }

func (m *StatusModule) String() string { return "mgmt-status" }

// GeneralStatus is the "status general" dataset body.
type GeneralStatus struct {
	StartTimestamp   time.Time
	CurrentTimestamp time.Time
	NFibEntries      int
	NFaces           int
	Counters         core.Snapshot
}

func (m *StatusModule) Dispatch(verb string, args url.Values) (*ControlResponse, error) {
	if verb != "general" {
		return nil, core.ErrNoSuchCommand{Noun: m.Noun(), Verb: verb}
	}
	return &ControlResponse{Code: 200, Text: "OK", Body: GeneralStatus{
		StartTimestamp:   core.StartTimestamp,
		CurrentTimestamp: time.Now(),
		NFibEntries:      len(m.fwd.Table.Fib.AllEntries()),
		NFaces:           len(m.faces.List()),
		Counters:         m.fwd.Counters.Snapshot(),
	}}, nil
}
