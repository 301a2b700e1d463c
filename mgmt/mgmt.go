// Package mgmt is the nfdc-style management surface (spec.md §6): a
// noun/verb dispatcher over the running Forwarder, adapted from the
// teacher's fw/mgmt Thread/Module pattern. There is no over-the-wire
// ControlParameters TLV codec in this build (the wire format is the
// length-prefixed gob frame in package face, not NDN-TLV), so verbs travel
// from the CLI to the daemon as one gob-encoded request per connection over
// a unix management socket (rpc.go) rather than over a management Face; the
// module/verb shape and response contract otherwise match the teacher's
// management protocol.
package mgmt

import (
	"net/url"

	"github.com/gorilla/schema"

	"github.com/reflexndn/rfwd/core"
	"github.com/reflexndn/rfwd/face"
	"github.com/reflexndn/rfwd/fw"
)

var decoder = schema.NewDecoder()

func init() {
	decoder.IgnoreUnknownKeys(true)
}

// decodeParams fills dst (a pointer to a struct tagged with `schema:"..."`)
// from args, the same role gorilla/schema plays decoding an HTTP form —
// here it decodes a noun/verb command's argument set instead.
func decodeParams(dst any, args url.Values) error {
	return decoder.Decode(dst, args)
}

// ControlResponse mirrors the teacher's ControlResponse{StatusCode,
// StatusText, Body} shape (mgmt_2022.ControlResponse in the teacher), since
// every verb in this package reports the same (code, text, body) triple
// regardless of which module handled it.
type ControlResponse struct {
	Code int
	Text string
	Body any
}

// Module is one management noun's verb dispatcher (spec.md §6), mirroring
// the teacher's mgmt.Module interface (registerManager/getManager dropped:
// a Module here only ever needs the Forwarder it was constructed with).
type Module interface {
	Noun() string
	Dispatch(verb string, args url.Values) (*ControlResponse, error)
}

// Dispatcher is the management noun registry (spec.md §6's "Unknown verbs
// raise NoSuchCommand"), grounded on the teacher's mgmt.Thread.
type Dispatcher struct {
	modules map[string]Module
}

// NewDispatcher registers the standard set of management nouns against fwd:
// fib, cs, strategy-choice and status, mirroring the teacher's
// fw/mgmt/{fib,cs,strategy-choice,forwarder-status}.go.
func NewDispatcher(fwd *fw.Forwarder, faces *face.Table) *Dispatcher {
	d := &Dispatcher{modules: make(map[string]Module)}
	d.register(&FIBModule{fwd: fwd, faces: faces})
	d.register(&CSModule{fwd: fwd})
	d.register(&StrategyModule{fwd: fwd})
	d.register(&StatusModule{fwd: fwd, faces: faces})
	return d
}

func (d *Dispatcher) register(m Module) { d.modules[m.Noun()] = m }

// Dispatch routes (noun, verb) to its module, returning ErrNoSuchCommand if
// noun is unregistered (the module itself raises ErrNoSuchCommand for an
// unrecognized verb, matching the teacher's per-module "Unknown verb"
// ctrl-response but surfaced here as a Go error since there is no wire
// response to send).
func (d *Dispatcher) Dispatch(noun, verb string, args url.Values) (*ControlResponse, error) {
	m, ok := d.modules[noun]
	if !ok {
		return nil, core.ErrNoSuchCommand{Noun: noun, Verb: verb}
	}
	return m.Dispatch(verb, args)
}

func (d *Dispatcher) String() string { return "mgmt-dispatcher" }
