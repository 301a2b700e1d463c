package packet

import (
	"time"

	"github.com/reflexndn/rfwd/core/optional"
	"github.com/reflexndn/rfwd/enc"
)

// Data is the Data packet value object (spec.md §3).
type Data struct {
	Name             enc.Name
	FreshnessPeriod  time.Duration
	Content          []byte
	Signature        []byte

	IncomingFaceId optional.Optional[uint64]
	// PitToken is carried when this Data is emitted in response to a
	// token-tagged Interest (spec.md §3).
	PitToken optional.Optional[uint32]
}

// Clone deep-copies the Data packet.
func (d *Data) Clone() *Data {
	c := *d
	c.Name = d.Name.Clone()
	c.Content = append([]byte(nil), d.Content...)
	c.Signature = append([]byte(nil), d.Signature...)
	return &c
}
