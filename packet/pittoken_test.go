package packet_test

import (
	"testing"

	"github.com/reflexndn/rfwd/core/optional"
	"github.com/reflexndn/rfwd/enc"
	"github.com/reflexndn/rfwd/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPitTokenRoundTrip(t *testing.T) {
	for _, tok := range []uint32{1, 2345, 0x00000929, 0xDEADBEEF, 0xFFFFFFFF} {
		b := packet.EncodePitToken(tok)
		require.Len(t, b, 4)
		got, err := packet.DecodePitToken(b)
		require.NoError(t, err)
		assert.Equal(t, tok, got)
	}
}

func TestDecodePitTokenRejectsWrongLength(t *testing.T) {
	_, err := packet.DecodePitToken([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestIsReflexiveInterestFromProducer(t *testing.T) {
	ri, err := enc.NameFromStrReflexive("/testApp/reflect/9999")
	require.NoError(t, err)

	i := &packet.Interest{Name: ri}
	assert.True(t, i.IsReflexive())
	assert.True(t, i.IsReflexiveInterestFromProducer())

	plain, err := enc.NameFromStr("/example/testApp/1234")
	require.NoError(t, err)
	j := &packet.Interest{Name: plain}
	assert.False(t, j.IsReflexive())
	assert.False(t, j.IsReflexiveInterestFromProducer())
}

func TestPitTokenOrZero(t *testing.T) {
	i := &packet.Interest{}
	assert.Equal(t, uint32(0), i.PitTokenOrZero())

	i.PitToken = optional.Some(uint32(2345))
	assert.Equal(t, uint32(2345), i.PitTokenOrZero())
}

func TestLeastSevereNackReason(t *testing.T) {
	assert.Equal(t, packet.NackReasonDuplicate, packet.LeastSevere(packet.NackReasonDuplicate, packet.NackReasonNoRoute))
	assert.Equal(t, packet.NackReasonNone, packet.LeastSevere(packet.NackReasonCongestion, packet.NackReasonNone))
}
