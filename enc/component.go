// Package enc implements the Name and Component model (spec.md §4.1, C1):
// hierarchical names whose prefix-match ignores a special "reflexive"
// component type. The wire TLV codec for full Interest/Data packets is out
// of scope (spec.md §1); only the Name-local encoding needed for URI
// round-tripping (spec.md §8 invariant 7) is implemented here.
package enc

import (
	"fmt"
	"strconv"
	"strings"
)

// TLNum is a TLV type or length number, matching the teacher's
// std/encoding.TLNum role.
type TLNum uint64

// Component type codes. Generic/Implicit/ParametersSha256 mirror NDN's own
// assigned numbers; ReflexiveNameComponent is new, chosen inside the legal
// marker-component range the same way Segment/Version/Timestamp are.
const (
	TypeInvalidComponent                TLNum = 0x00
	TypeImplicitSha256DigestComponent   TLNum = 0x01
	TypeParametersSha256DigestComponent TLNum = 0x02
	TypeGenericNameComponent            TLNum = 0x08
	TypeKeywordNameComponent            TLNum = 0x20
	TypeSegmentNameComponent            TLNum = 0x32
	TypeVersionNameComponent            TLNum = 0x36
	TypeSequenceNumNameComponent        TLNum = 0x3a

	// TypeReflexiveNameComponent marks a component as reflexive (spec.md
	// §3, §4.1, §6). A Name is reflexive iff it contains one of these.
	TypeReflexiveNameComponent TLNum = 0x6767
)

// NameComponentMin and NameComponentMax bound legal component type numbers
// (spec.md §4.1, §6). A Name parsed from URI text with a type number
// outside this range fails with ErrInvalidComponent.
const (
	NameComponentMin TLNum = 0x01
	NameComponentMax TLNum = 0xFFFE
)

// ReflexiveProducerSentinel is the literal value ("RN9999" in the source
// comments) that, when carried as a reflexive component's numeric value,
// marks an Interest as travelling from the producer back toward the
// consumer (spec.md §4, §6). Grounded on
// Experiments/consumer-producer_RI/producer.cpp's reflectInterest name.
const ReflexiveProducerSentinel uint64 = 960051513

// Component is one element of a Name: a type tag plus an opaque byte value.
type Component struct {
	Typ TLNum
	Val []byte
}

// IsReflexive reports whether this component carries the reflexive type.
func (c Component) IsReflexive() bool { return c.Typ == TypeReflexiveNameComponent }

// Equal compares type and value exactly; no stripping (spec.md §4.1).
func (c Component) Equal(o Component) bool {
	return c.Typ == o.Typ && string(c.Val) == string(o.Val)
}

// Compare orders components first by type, then by value, matching the
// canonical NDN component ordering used by Name.Compare.
func (c Component) Compare(o Component) int {
	if c.Typ != o.Typ {
		if c.Typ < o.Typ {
			return -1
		}
		return 1
	}
	if len(c.Val) != len(o.Val) {
		if len(c.Val) < len(o.Val) {
			return -1
		}
		return 1
	}
	return strings.Compare(string(c.Val), string(o.Val))
}

// NumberComponent builds a component carrying v as a big-endian minimal
// non-negative-integer value, the convention used for marker components
// like the reflexive producer sentinel (spec.md §6).
func NumberComponent(typ TLNum, v uint64) Component {
	if v == 0 {
		return Component{Typ: typ, Val: []byte{0}}
	}
	var buf [8]byte
	n := 0
	for i := 7; i >= 0; i-- {
		buf[7-i] = byte(v >> (8 * i))
	}
	started := false
	out := make([]byte, 0, 8)
	for _, b := range buf {
		if b != 0 {
			started = true
		}
		if started {
			out = append(out, b)
		}
	}
	n = len(out)
	_ = n
	return Component{Typ: typ, Val: out}
}

// AsNumber decodes a component's value as a big-endian unsigned integer,
// the inverse of NumberComponent.
func (c Component) AsNumber() (uint64, bool) {
	if len(c.Val) == 0 || len(c.Val) > 8 {
		return 0, false
	}
	var v uint64
	for _, b := range c.Val {
		v = (v << 8) | uint64(b)
	}
	return v, true
}

// ReflexiveProducerComponent is the canonical reflexive component carrying
// the producer-RI sentinel.
func ReflexiveProducerComponent() Component {
	return NumberComponent(TypeReflexiveNameComponent, ReflexiveProducerSentinel)
}

// String renders the component in "type=value" text form (generic
// components omit the type prefix), matching the teacher's Component.String.
func (c Component) String() string {
	var sb strings.Builder
	c.WriteTo(&sb)
	return sb.String()
}

func (c Component) WriteTo(sb *strings.Builder) {
	if c.Typ != TypeGenericNameComponent {
		sb.WriteString(strconv.FormatUint(uint64(c.Typ), 10))
		sb.WriteByte('=')
	}
	sb.WriteString(escapeValue(c.Val))
}

func escapeValue(val []byte) string {
	var sb strings.Builder
	for _, b := range val {
		if isUnreserved(b) {
			sb.WriteByte(b)
		} else {
			fmt.Fprintf(&sb, "%%%02X", b)
		}
	}
	return sb.String()
}

func isUnreserved(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	case b == '-' || b == '.' || b == '_' || b == '~':
		return true
	}
	return false
}

// ParseComponent parses one "type=value" or "value" text segment. reflexive
// selects whether an un-typed last component should be tagged reflexive
// (used by the reflexive-aware URI constructor, spec.md §6).
func ParseComponent(s string, reflexive bool) (Component, error) {
	typ := TypeGenericNameComponent
	value := s
	if idx := strings.IndexByte(s, '='); idx >= 0 {
		if n, err := strconv.ParseUint(s[:idx], 10, 64); err == nil {
			typ = TLNum(n)
			value = s[idx+1:]
		}
	}
	if reflexive && !strings.Contains(s, "=") {
		typ = TypeReflexiveNameComponent
	}
	if typ < NameComponentMin || typ > NameComponentMax {
		return Component{}, ErrInvalidComponent{Type: uint64(typ)}
	}
	val, err := unescapeValue(value)
	if err != nil {
		return Component{}, err
	}
	return Component{Typ: typ, Val: val}, nil
}

func unescapeValue(s string) ([]byte, error) {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' {
			if i+2 >= len(s) {
				return nil, fmt.Errorf("truncated percent-escape in %q", s)
			}
			n, err := strconv.ParseUint(s[i+1:i+3], 16, 8)
			if err != nil {
				return nil, fmt.Errorf("bad percent-escape in %q: %w", s, err)
			}
			out = append(out, byte(n))
			i += 2
		} else {
			out = append(out, s[i])
		}
	}
	return out, nil
}

// ErrInvalidComponent is returned when a component's type number is out of
// [NameComponentMin, NameComponentMax] (spec.md §4.1).
type ErrInvalidComponent struct {
	Type uint64
}

func (e ErrInvalidComponent) Error() string {
	return fmt.Sprintf("invalid name component type: %d", e.Type)
}
