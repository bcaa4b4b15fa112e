package proof

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNativeToW3C_W3CToNative_RoundTrip(t *testing.T) {
	sig := []byte("0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcd")
	p, err := NativeToW3C(sig, "did:one:sha256:abcd#keys-1", time.Now())
	require.NoError(t, err)
	assert.Equal(t, Type, p.Type)
	assert.Equal(t, PurposeAssertion, p.ProofPurpose)

	got, err := W3CToNative(p)
	require.NoError(t, err)
	assert.Equal(t, sig, got)
}

func TestW3CToNative_UnsupportedType(t *testing.T) {
	p := &Proof{Type: "JsonWebSignature2020", ProofValue: "z123"}
	_, err := W3CToNative(p)
	assert.Error(t, err)
}

func TestW3CToNative_Nil(t *testing.T) {
	_, err := W3CToNative(nil)
	assert.Error(t, err)
}
