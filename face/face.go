// Package face implements the Face table (spec.md §3, C3): a registry of
// bidirectional packet endpoints, each with a scope (local/non-local) and
// link type (point-to-point/multi-access/ad-hoc). The wire codec and the
// reliability semantics of any one transport are external collaborators
// (spec.md §1) — this package defines the Face contract the forwarding
// pipelines depend on, plus a handful of concrete transports adapted from
// the teacher's fw/face tree.
package face

import (
	"fmt"
	"sync/atomic"

	"github.com/reflexndn/rfwd/packet"
)

// Scope is a Face's locality, used for the /localhost scope-control checks
// in spec.md §4.4 and §4.9.
type Scope int

const (
	ScopeNonLocal Scope = iota
	ScopeLocal
)

func (s Scope) String() string {
	if s == ScopeLocal {
		return "local"
	}
	return "non-local"
}

// LinkType classifies a Face's underlying link, used by the duplicate-Nonce
// and Nack pipelines (spec.md §4.2, §4.11).
type LinkType int

const (
	LinkPointToPoint LinkType = iota
	LinkMultiAccess
	LinkAdHoc
)

func (l LinkType) String() string {
	switch l {
	case LinkPointToPoint:
		return "point-to-point"
	case LinkMultiAccess:
		return "multi-access"
	case LinkAdHoc:
		return "ad-hoc"
	default:
		return "unknown"
	}
}

// InvalidFaceID marks the absence of a face, matching face::INVALID_FACEID
// in the original source.
const InvalidFaceID uint64 = 0

// ContentStoreFaceID is the pseudo incoming-face-id used to tag Data
// delivered from a Content Store hit (spec.md §4.5), matching
// face::FACEID_CONTENT_STORE.
const ContentStoreFaceID uint64 = 1

// Face is the contract the forwarding pipelines depend on (spec.md §3). A
// concrete transport (Unix, WebSocket, QUIC, or an in-memory test double)
// implements this by embedding Base and filling in the three Send methods.
type Face interface {
	ID() uint64
	SetID(id uint64)
	Scope() Scope
	LinkType() LinkType
	IsRunning() bool
	Close()

	SendInterest(i *packet.Interest) error
	SendData(d *packet.Data) error
	SendNack(n *packet.Nack) error

	// SetHandlers wires the forwarding pipeline's callbacks; a transport
	// invokes these as frames arrive, passing its own face id as the
	// ingress endpoint.
	SetHandlers(h Handlers)

	fmt.Stringer
}

// Handlers are the forwarder-side callbacks a Face invokes on packet
// arrival, the Go equivalent of the teacher's
// face.afterReceiveInterest/afterReceiveData/afterReceiveNack signals.
type Handlers struct {
	OnInterest func(i *packet.Interest, faceID uint64)
	OnData     func(d *packet.Data, faceID uint64)
	OnNack     func(n *packet.Nack, faceID uint64)
	OnDropped  func(i *packet.Interest)
}

// Base provides the fields and getters common to every transport, mirroring
// the teacher's transportBase (fw/face/transport.go).
type Base struct {
	id       atomic.Uint64
	scope    Scope
	linkType LinkType
	running  atomic.Bool
	handlers Handlers

	nInBytes  atomic.Uint64
	nOutBytes atomic.Uint64
}

// Init configures the Base's immutable scope/link-type and marks it
// running.
func (b *Base) Init(scope Scope, linkType LinkType) {
	b.scope = scope
	b.linkType = linkType
	b.running.Store(true)
}

func (b *Base) ID() uint64          { return b.id.Load() }
func (b *Base) SetID(id uint64)     { b.id.Store(id) }
func (b *Base) Scope() Scope        { return b.scope }
func (b *Base) LinkType() LinkType  { return b.linkType }
func (b *Base) IsRunning() bool     { return b.running.Load() }
func (b *Base) SetHandlers(h Handlers) { b.handlers = h }
func (b *Base) NInBytes() uint64    { return b.nInBytes.Load() }
func (b *Base) NOutBytes() uint64   { return b.nOutBytes.Load() }

// MarkStopped flips the running flag off, returning whether it was
// previously running (so Close() implementations only tear down once).
func (b *Base) MarkStopped() bool { return b.running.Swap(false) }
