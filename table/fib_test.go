package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFibNextHopsSortedByCost(t *testing.T) {
	tree := NewNameTree()
	fib := NewFib(tree)
	name := mustName(t, "/a/b")

	fib.AddNextHop(name, 3, 50)
	fib.AddNextHop(name, 1, 10)
	fib.AddNextHop(name, 2, 20)

	e := fib.LongestPrefixMatch(name)
	require.NotNil(t, e)
	require.Len(t, e.NextHops, 3)
	assert.Equal(t, uint64(1), e.NextHops[0].Face)
	assert.Equal(t, uint64(2), e.NextHops[1].Face)
	assert.Equal(t, uint64(3), e.NextHops[2].Face)
}

func TestFibLongestPrefixMatch(t *testing.T) {
	tree := NewNameTree()
	fib := NewFib(tree)
	fib.AddNextHop(mustName(t, "/a"), 1, 10)
	fib.AddNextHop(mustName(t, "/a/b"), 2, 10)

	e := fib.LongestPrefixMatch(mustName(t, "/a/b/c"))
	require.NotNil(t, e)
	assert.True(t, e.Name.Equal(mustName(t, "/a/b")))
}

func TestFibRemoveFaceClearsAllEntries(t *testing.T) {
	tree := NewNameTree()
	fib := NewFib(tree)
	fib.AddNextHop(mustName(t, "/a"), 1, 10)
	fib.AddNextHop(mustName(t, "/b"), 1, 20)

	fib.RemoveFace(1)

	assert.Nil(t, fib.LongestPrefixMatch(mustName(t, "/a")))
	assert.Nil(t, fib.LongestPrefixMatch(mustName(t, "/b")))
}
