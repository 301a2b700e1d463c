package table

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTokenUniqueness exercises spec.md §8 invariant 1: no two live
// PIT-assist rows share the same forward token.
func TestTokenUniqueness(t *testing.T) {
	pit := newTestPit()
	seen := make(map[uint32]bool)

	for i := 0; i < 200; i++ {
		name := mustName(t, fmt.Sprintf("/flow/%d", i))
		tok, err := pit.CreateName(name, 0)
		require.NoError(t, err)
		assert.False(t, seen[tok], "token %d reused across live rows", tok)
		seen[tok] = true
	}
}

func TestCreateNameNeverProducesZero(t *testing.T) {
	pit := newTestPit()
	for i := 0; i < 50; i++ {
		name := mustName(t, fmt.Sprintf("/flow/%d", i))
		tok, err := pit.CreateName(name, 0)
		require.NoError(t, err)
		assert.NotZero(t, tok)
	}
}

func TestRoundTripLabelling(t *testing.T) {
	pit := newTestPit()
	originalName := mustName(t, "/example/testApp/1234")
	const prevToken uint32 = 2345

	downstreamToken, err := pit.CreateName(originalName, prevToken)
	require.NoError(t, err)

	gotName, ok := pit.TokenToName(downstreamToken)
	require.True(t, ok)
	assert.True(t, gotName.Equal(originalName))

	gotPrev, ok := pit.NameToPrevToken(originalName)
	require.True(t, ok)
	assert.Equal(t, prevToken, gotPrev)

	gotNameByPrev, ok := pit.PrevTokenToName(prevToken)
	require.True(t, ok)
	assert.True(t, gotNameByPrev.Equal(originalName))
}
