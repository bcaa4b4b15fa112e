package canonical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshal_KeysAreSortedAtEveryDepth(t *testing.T) {
	v := map[string]any{
		"b": 1,
		"a": map[string]any{"z": 1, "y": 2},
		"c": []any{3, 2, 1},
	}
	b, err := Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, `{"a":{"y":2,"z":1},"b":1,"c":[3,2,1]}`, string(b))
}

func TestMarshal_ElidesFields(t *testing.T) {
	v := map[string]any{"a": 1, "signature": "deadbeef"}
	b, err := Marshal(v, "signature")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(b))
}

func TestMarshal_Deterministic(t *testing.T) {
	type s struct {
		B int `json:"b"`
		A int `json:"a"`
	}
	v := s{B: 2, A: 1}
	b1, err := Marshal(v)
	require.NoError(t, err)
	b2, err := Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, b1, b2)
	assert.Equal(t, `{"a":1,"b":2}`, string(b1))
}

func TestHash_ChangesWithContent(t *testing.T) {
	h1, err := Hash(map[string]any{"a": 1})
	require.NoError(t, err)
	h2, err := Hash(map[string]any{"a": 2})
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
	assert.Len(t, h1, 64)
}

func TestValidateContext_RejectsMalformedShape(t *testing.T) {
	// A numeric @context value is not a valid JSON-LD context shape
	// (string IRI, object, or array of either); json-gold rejects it
	// without needing to fetch anything over the network.
	err := ValidateContext(12345)
	assert.Error(t, err)
}
