package table

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reflexndn/rfwd/enc"
	"github.com/reflexndn/rfwd/packet"
)

func newTestPit() *Pit {
	return NewPit(NewNameTree(), nil)
}

func mustName(t *testing.T, s string) enc.Name {
	t.Helper()
	n, err := enc.NameFromStr(s)
	require.NoError(t, err)
	return n
}

func TestPitInsertIsIdempotent(t *testing.T) {
	pit := newTestPit()
	i := &packet.Interest{Name: mustName(t, "/a/b"), Nonce: 1}

	e1, isNew1 := pit.Insert(i, nil)
	assert.True(t, isNew1)

	e2, isNew2 := pit.Insert(i, nil)
	assert.False(t, isNew2)
	assert.Same(t, e1, e2)
}

func TestPitFindBasedOnNameIgnoresSelectors(t *testing.T) {
	pit := newTestPit()
	name := mustName(t, "/a/b")
	i := &packet.Interest{Name: name, Nonce: 1, MustBeFresh: true}
	pit.Insert(i, nil)

	e, ok := pit.FindBasedOnName(name)
	assert.True(t, ok)
	assert.True(t, e.Name.Equal(name))
}

func TestClassifyDuplicateNonce(t *testing.T) {
	pit := newTestPit()
	i := &packet.Interest{Name: mustName(t, "/a"), Nonce: 42}
	e, _ := pit.Insert(i, nil)

	assert.Equal(t, DuplicateNonceNone, e.ClassifyDuplicateNonce(42, 1))

	e.InsertInRecord(i, 1, time.Now().Add(time.Second))
	assert.Equal(t, DuplicateNonceInSame, e.ClassifyDuplicateNonce(42, 1))
	assert.Equal(t, DuplicateNonceInOther, e.ClassifyDuplicateNonce(42, 2))

	e.InsertOutRecord(i, 3, time.Now().Add(time.Second))
	assert.Equal(t, DuplicateNonceOut, e.ClassifyDuplicateNonce(42, 3))
}

func TestFindAllDataMatchesIsReflexiveAwarePrefix(t *testing.T) {
	pit := newTestPit()
	filterName := mustName(t, "/testApp")
	pit.Insert(&packet.Interest{Name: filterName, Nonce: 1}, nil)

	dataName, err := enc.NameFromStrReflexive("/testApp/reflect/RN9999")
	require.NoError(t, err)

	matches := pit.FindAllDataMatches(&packet.Data{Name: dataName})
	require.Len(t, matches, 1)
	assert.True(t, matches[0].Name.Equal(filterName))
}

func TestFindAllDataMatchesExcludesNonPrefix(t *testing.T) {
	pit := newTestPit()
	pit.Insert(&packet.Interest{Name: mustName(t, "/other"), Nonce: 1}, nil)

	matches := pit.FindAllDataMatches(&packet.Data{Name: mustName(t, "/testApp/reflect")})
	assert.Empty(t, matches)
}

func TestPitRemoveFacePurgesRecordsAndErasesEmptyEntries(t *testing.T) {
	pit := newTestPit()

	soleName := mustName(t, "/a/sole")
	soleInterest := &packet.Interest{Name: soleName, Nonce: 1}
	sole, _ := pit.Insert(soleInterest, nil)
	sole.InsertInRecord(soleInterest, 1, time.Now().Add(time.Second))

	sharedName := mustName(t, "/a/shared")
	sharedInterest := &packet.Interest{Name: sharedName, Nonce: 2}
	shared, _ := pit.Insert(sharedInterest, nil)
	shared.InsertInRecord(sharedInterest, 1, time.Now().Add(time.Second))
	shared.InsertInRecord(sharedInterest, 2, time.Now().Add(time.Second))
	shared.InsertOutRecord(sharedInterest, 1, time.Now().Add(time.Second))

	pit.RemoveFace(1)

	_, ok := pit.Find(soleInterest)
	assert.False(t, ok, "entry whose only in-record named the removed face must be erased")

	e, ok := pit.Find(sharedInterest)
	require.True(t, ok, "entry with a surviving in-record on another face must remain")
	_, hasFace1In := e.InRecords[1]
	assert.False(t, hasFace1In, "in-record naming the removed face must be purged")
	_, hasFace2In := e.InRecords[2]
	assert.True(t, hasFace2In, "in-record on an unaffected face must survive")
	_, hasFace1Out := e.OutRecords[1]
	assert.False(t, hasFace1Out, "out-record naming the removed face must be purged")
}

func TestPitEraseRemovesAssistRow(t *testing.T) {
	pit := newTestPit()
	name := mustName(t, "/a/b")
	e, _ := pit.Insert(&packet.Interest{Name: name, Nonce: 1}, nil)

	tok, err := pit.CreateName(name, 2345)
	require.NoError(t, err)
	assert.NotZero(t, tok)

	_, ok := pit.TokenToName(tok)
	assert.True(t, ok)

	pit.Erase(e)

	_, ok = pit.TokenToName(tok)
	assert.False(t, ok, "assist row must not outlive its PIT entry")
}
