package table

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeadNonceListInsertAndHas(t *testing.T) {
	dnl, err := NewDeadNonceList("", 50*time.Millisecond)
	require.NoError(t, err)
	defer dnl.Close()

	name := mustName(t, "/a/b")
	ok, err := dnl.Has(name, 7)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, dnl.Insert(name, 7))

	ok, err = dnl.Has(name, 7)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDeadNonceListEntryExpires(t *testing.T) {
	dnl, err := NewDeadNonceList("", 20*time.Millisecond)
	require.NoError(t, err)
	defer dnl.Close()

	name := mustName(t, "/a/b")
	require.NoError(t, dnl.Insert(name, 9))

	time.Sleep(200 * time.Millisecond)

	ok, err := dnl.Has(name, 9)
	require.NoError(t, err)
	assert.False(t, ok, "entry must not outlive its TTL")
}
