package packet

import "github.com/reflexndn/rfwd/core"

// EncodePitToken renders tok as the 4-byte little-endian link-layer PitToken
// wire form (spec.md §6). Grounded verbatim on
// Experiments/consumer-producer_RI/assist.hpp's setPitToken.
func EncodePitToken(tok uint32) []byte {
	return []byte{
		byte(tok),
		byte(tok >> 8),
		byte(tok >> 16),
		byte(tok >> 24),
	}
}

// DecodePitToken is the inverse of EncodePitToken, grounded on
// assist.hpp's readPitToken.
func DecodePitToken(b []byte) (uint32, error) {
	if len(b) != 4 {
		return 0, core.ErrInvalidValue{Item: "pit-token", Value: b}
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24, nil
}
