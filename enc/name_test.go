package enc_test

import (
	"testing"

	"github.com/reflexndn/rfwd/enc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURIRoundTrip(t *testing.T) {
	n, err := enc.NameFromStr("/example/testApp/1234")
	require.NoError(t, err)
	assert.Equal(t, "/example/testApp/1234", n.String())

	back, err := enc.NameFromStr(n.String())
	require.NoError(t, err)
	assert.True(t, n.Equal(back))
}

func TestReflexiveAwareURI(t *testing.T) {
	n, err := enc.NameFromStrReflexive("/testApp/reflect/RN9999")
	require.NoError(t, err)
	require.True(t, n.IsReflexive())
	assert.True(t, n.Get(-1).IsReflexive())
}

func TestReflexivePrefixMatchIgnoresReflexiveComponents(t *testing.T) {
	filter, err := enc.NameFromStr("/testApp")
	require.NoError(t, err)

	ri := enc.Name{
		enc.Component{Typ: enc.TypeGenericNameComponent, Val: []byte("testApp")},
		enc.Component{Typ: enc.TypeGenericNameComponent, Val: []byte("reflect")},
		enc.ReflexiveProducerComponent(),
	}

	assert.True(t, ri.IsReflexive())
	assert.True(t, filter.IsPrefixOf(ri), "filter on /testApp must match the reflexive RI despite the trailing reflexive component")
}

func TestEqualAndCompareDoNotStrip(t *testing.T) {
	a := enc.Name{enc.Component{Typ: enc.TypeGenericNameComponent, Val: []byte("a")}}
	b := enc.Name{
		enc.ReflexiveProducerComponent(),
		enc.Component{Typ: enc.TypeGenericNameComponent, Val: []byte("a")},
	}
	// Equal and Compare never strip, so a one-component Name never equals
	// a two-component Name even though b.Strip() would equal a.
	assert.False(t, a.Equal(b))
	assert.NotEqual(t, 0, a.Compare(b))
	assert.True(t, a.Equal(b.Strip()))
}

func TestIsReflexiveInterestFromProducer(t *testing.T) {
	n := enc.Name{
		enc.Component{Typ: enc.TypeGenericNameComponent, Val: []byte("testApp")},
		enc.Component{Typ: enc.TypeGenericNameComponent, Val: []byte("reflect")},
		enc.ReflexiveProducerComponent(),
	}
	assert.True(t, n.IsReflexiveInterestFromProducer())

	plain, _ := enc.NameFromStr("/example/testApp/1234")
	assert.False(t, plain.IsReflexiveInterestFromProducer())
}

func TestInvalidComponentType(t *testing.T) {
	_, err := enc.ParseComponent("70000=x", false)
	require.Error(t, err)
	var typeErr enc.ErrInvalidComponent
	require.ErrorAs(t, err, &typeErr)
}

func TestGetNegativeIndex(t *testing.T) {
	n, _ := enc.NameFromStr("/a/b/c")
	assert.Equal(t, "c", string(n.Get(-1).Val))
	assert.Equal(t, "a", string(n.Get(0).Val))
}

func TestGetSuccessor(t *testing.T) {
	n, _ := enc.NameFromStr("/a/b")
	succ := n.GetSuccessor()
	assert.True(t, n.Compare(succ) < 0)
}
