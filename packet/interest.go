// Package packet implements the Interest/Data/Nack value objects (spec.md
// §3, §4, C2) and the PitToken link-layer tag that binds a reflexive
// Interest's round trip to its originating exchange.
package packet

import (
	"time"

	"github.com/reflexndn/rfwd/core/optional"
	"github.com/reflexndn/rfwd/enc"
)

// Interest is the immutable wire-field subset plus the mutable forwarder
// tags described in spec.md §3. Unlike the teacher's full TLV-backed
// Interest, this type carries plain Go fields since Interest/Data/NACK wire
// encoding is explicitly out of scope (spec.md §1).
type Interest struct {
	Name            enc.Name
	Nonce           uint32
	HopLimit        optional.Optional[uint8]
	Lifetime        time.Duration
	MustBeFresh     bool
	ForwardingHint  enc.Name // empty means "not present"
	CanBePrefix     bool

	// Mutable tags, not wire-encoded by the forwarder unless re-emitted.
	IncomingFaceId optional.Optional[uint64]
	NextHopFaceId  optional.Optional[uint64]
	PitToken       optional.Optional[uint32]
}

// IsReflexive reports whether the Interest's Name is reflexive (spec.md §3).
func (i *Interest) IsReflexive() bool { return i.Name.IsReflexive() }

// IsReflexiveInterestFromProducer reports whether the Name is reflexive AND
// matches the sentinel producer-RI discriminator (spec.md §3, §6).
func (i *Interest) IsReflexiveInterestFromProducer() bool {
	return i.Name.IsReflexiveInterestFromProducer()
}

// PitTokenOrZero returns the carried PitToken value, or 0 if absent —
// spec.md §4.6 step 1's "let tok = 0 if absent" convention, reused
// throughout the pipelines.
func (i *Interest) PitTokenOrZero() uint32 {
	return i.PitToken.GetOr(0)
}

// Clone deep-copies the Interest (the Name and ForwardingHint are cloned;
// tags are independent optionals copied by value).
func (i *Interest) Clone() *Interest {
	c := *i
	c.Name = i.Name.Clone()
	if len(i.ForwardingHint) > 0 {
		c.ForwardingHint = i.ForwardingHint.Clone()
	}
	return &c
}
