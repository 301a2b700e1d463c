package enc

import "strings"

// Name is an ordered sequence of Components (spec.md §3, §4.1).
type Name []Component

// NameFromStr parses a generic (non-reflexive-aware) Name URI.
func NameFromStr(s string) (Name, error) { return parseURI(s, false) }

// NameFromStrReflexive parses a Name URI in reflexive-aware mode: the last
// component, if it carries no explicit "type=" prefix, is tagged
// ReflexiveNameComponent instead of Generic (spec.md §6, "a dedicated
// constructor that encodes the last component as reflexive when parsed
// from a URI").
func NameFromStrReflexive(s string) (Name, error) { return parseURI(s, true) }

func parseURI(s string, reflexiveLast bool) (Name, error) {
	s = strings.TrimPrefix(s, "ndn:")
	s = strings.TrimPrefix(s, "/")
	if s == "" {
		return Name{}, nil
	}
	parts := strings.Split(s, "/")
	name := make(Name, 0, len(parts))
	for i, p := range parts {
		isLast := i == len(parts)-1
		c, err := ParseComponent(p, reflexiveLast && isLast)
		if err != nil {
			return nil, err
		}
		name = append(name, c)
	}
	return name, nil
}

// String renders the Name as a URI, "/"-joined per component (spec.md §8
// invariant 7: URI round-trip).
func (n Name) String() string {
	if len(n) == 0 {
		return "/"
	}
	var sb strings.Builder
	for _, c := range n {
		sb.WriteByte('/')
		c.WriteTo(&sb)
	}
	return sb.String()
}

// Append returns a new Name with c appended.
func (n Name) Append(c Component) Name {
	out := make(Name, len(n)+1)
	copy(out, n)
	out[len(n)] = c
	return out
}

// AppendNumber appends a numeric component under the given type.
func (n Name) AppendNumber(typ TLNum, v uint64) Name {
	return n.Append(NumberComponent(typ, v))
}

// Get returns the component at index i; negative i counts from the end
// (spec.md §4.1). The zero Component is returned if i is out of range.
func (n Name) Get(i int) Component {
	idx := i
	if idx < 0 {
		idx += len(n)
	}
	if idx < 0 || idx >= len(n) {
		return Component{}
	}
	return n[idx]
}

// GetPrefix returns the first k components; negative k counts back from
// the end (e.g. GetPrefix(-1) drops the last component).
func (n Name) GetPrefix(k int) Name {
	end := k
	if end < 0 {
		end = len(n) + k
	}
	if end < 0 {
		end = 0
	}
	if end > len(n) {
		end = len(n)
	}
	out := make(Name, end)
	copy(out, n[:end])
	return out
}

// Equal compares two Names component-by-component without stripping
// reflexive components (spec.md §4.1: "plain equality and order do not
// strip").
func (n Name) Equal(o Name) bool {
	if len(n) != len(o) {
		return false
	}
	for i := range n {
		if !n[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// Compare orders two Names lexicographically by component.
func (n Name) Compare(o Name) int {
	l := len(n)
	if len(o) < l {
		l = len(o)
	}
	for i := 0; i < l; i++ {
		if c := n[i].Compare(o[i]); c != 0 {
			return c
		}
	}
	return len(n) - len(o)
}

// Strip returns the sub-sequence of non-reflexive components, in order
// (spec.md §4.1's strip(n)).
func (n Name) Strip() Name {
	out := make(Name, 0, len(n))
	for _, c := range n {
		if !c.IsReflexive() {
			out = append(out, c)
		}
	}
	return out
}

// IsReflexive reports whether the Name contains any reflexive component
// (spec.md §3).
func (n Name) IsReflexive() bool {
	for _, c := range n {
		if c.IsReflexive() {
			return true
		}
	}
	return false
}

// IsPrefixOf implements the central routing invariant of spec.md §4.1:
// reflexive components are stripped from both operands before an ordinary
// prefix comparison. Plain Equal/Compare do not strip.
func (a Name) IsPrefixOf(b Name) bool {
	sa, sb := a.Strip(), b.Strip()
	if len(sa) > len(sb) {
		return false
	}
	for i := range sa {
		if !sa[i].Equal(sb[i]) {
			return false
		}
	}
	return true
}

// IsReflexiveInterestFromProducer reports whether this Name matches the
// sentinel producer-RI discriminator: reflexive, and carrying the
// ReflexiveProducerSentinel value on (at least) one reflexive component
// (spec.md §3, §6).
func (n Name) IsReflexiveInterestFromProducer() bool {
	for _, c := range n {
		if c.IsReflexive() {
			if v, ok := c.AsNumber(); ok && v == ReflexiveProducerSentinel {
				return true
			}
		}
	}
	return false
}

// GetSuccessor returns the smallest Name greater than n under canonical
// ordering, by incrementing the last component's value as a big-endian
// integer (carrying into a longer value on overflow), or the minimal
// ImplicitSha256Digest name on an empty Name.
func (n Name) GetSuccessor() Name {
	if len(n) == 0 {
		return Name{Component{Typ: TypeImplicitSha256DigestComponent, Val: make([]byte, 32)}}
	}
	last := n.Get(-1)
	val := append([]byte(nil), last.Val...)
	i := len(val) - 1
	for ; i >= 0; i-- {
		val[i]++
		if val[i] != 0 {
			break
		}
	}
	if i < 0 {
		val = append([]byte{1}, val...)
	}
	out := n.GetPrefix(-1)
	return out.Append(Component{Typ: last.Typ, Val: val})
}

// Clone deep-copies the Name.
func (n Name) Clone() Name {
	out := make(Name, len(n))
	for i, c := range n {
		out[i] = Component{Typ: c.Typ, Val: append([]byte(nil), c.Val...)}
	}
	return out
}
