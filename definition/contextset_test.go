package definition

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextSet_PreservesInsertionOrder(t *testing.T) {
	s := NewContextSet("OM", "Politie", "Rechtspraak")
	assert.Equal(t, []string{"OM", "Politie", "Rechtspraak"}, s.Values())
}

func TestContextSet_DropsDuplicatesAndEmpty(t *testing.T) {
	s := NewContextSet("OM", "om", "", "  ", "OM")
	assert.Equal(t, []string{"OM"}, s.Values())
}

func TestContextSet_EqualsIgnoresOrder(t *testing.T) {
	a := NewContextSet("Art. 27 Sv", "Art. 67 Sv")
	b := NewContextSet("Art. 67 Sv", "Art. 27 Sv")
	assert.True(t, a.Equals(b))
	assert.True(t, b.Equals(a))
}

func TestContextSet_EqualsIgnoresCase(t *testing.T) {
	a := NewContextSet("Strafrecht")
	b := NewContextSet("strafrecht")
	assert.True(t, a.Equals(b))
}

func TestContextSet_NotEqual(t *testing.T) {
	a := NewContextSet("Strafrecht")
	b := NewContextSet("Civiel recht")
	assert.False(t, a.Equals(b))

	c := NewContextSet("Strafrecht", "Civiel recht")
	assert.False(t, a.Equals(c), "different cardinality must not match")
}

func TestContextSet_JSONRoundTrip(t *testing.T) {
	s := NewContextSet("OM", "Politie")
	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `["OM","Politie"]`, string(data))

	var parsed ContextSet
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.True(t, s.Equals(parsed))
}

func TestContextSet_EmptyMarshalsAsArray(t *testing.T) {
	var s ContextSet
	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}
