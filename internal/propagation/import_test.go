package propagation_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juergengeck/trust.core/internal/propagation"
	"github.com/juergengeck/trust.core/internal/testutil"
	"github.com/juergengeck/trust.core/internal/vcbridge"
	"github.com/juergengeck/trust.core/pkg/certificate"
	"github.com/juergengeck/trust.core/pkg/coreerr"
	"github.com/juergengeck/trust.core/pkg/logger"
)

func sampleDocument(t *testing.T) []byte {
	t.Helper()
	c := &certificate.Certificate{
		ID:               "cert:identity:imported-subject:s1",
		Kind:             certificate.KindIdentity,
		Status:           certificate.StatusValid,
		Subject:          "subjecthash",
		SubjectPublicKey: "deadbeef",
		Issuer:           "issuerhash",
		IssuerPublicKey:  "cafebabe",
		ValidFrom:        1_700_000_000_000,
		ValidUntil:       1_800_000_000_000,
		ChainDepth:       0,
		IssuedAt:         1_700_000_000_000,
		SerialNumber:     "0001",
		Version:          1,
		Signature:        "aabbccdd",
	}
	c.Issuer = c.Subject // self-signed, so VCToCert treats it as a root

	vc, err := vcbridge.CertToVC(c)
	require.NoError(t, err)
	doc, err := json.Marshal(vc.Sanitize())
	require.NoError(t, err)
	return doc
}

// Cross-instance import via the external channel.
func TestImportExternal_StoresNewCertificate(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	transport := testutil.NewFakePeerTransport()
	store := testutil.NewFakeObjectStore()
	s := propagation.New(ctx, "ca-2", transport, store, nil, logger.NewSimple("test"))
	defer s.Close()

	doc := sampleDocument(t)

	result, err := s.ImportExternal(ctx, doc, nil, nil)
	require.NoError(t, err)
	assert.True(t, result.Stored)
	assert.Equal(t, 1, result.Certificate.Version)
}

// Importing the same VC twice yields StaleOrDuplicate on the second call.
func TestImportExternal_DuplicateImportIsStale(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	transport := testutil.NewFakePeerTransport()
	store := testutil.NewFakeObjectStore()
	s := propagation.New(ctx, "ca-2", transport, store, nil, logger.NewSimple("test"))
	defer s.Close()

	doc := sampleDocument(t)

	_, err := s.ImportExternal(ctx, doc, nil, nil)
	require.NoError(t, err)

	result, err := s.ImportExternal(ctx, doc, nil, nil)
	require.Error(t, err)
	assert.True(t, coreerr.ErrStaleOrDuplicate.Is(err))
	assert.False(t, result.Stored)
	assert.Equal(t, 1, result.ExistingVersion)
}

// Importing an older version than what's stored reports the latest
// existing version.
func TestImportExternal_OlderVersionIsStaleWithExistingVersion(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	transport := testutil.NewFakePeerTransport()
	store := testutil.NewFakeObjectStore()
	s := propagation.New(ctx, "ca-2", transport, store, nil, logger.NewSimple("test"))
	defer s.Close()

	doc := sampleDocument(t)

	result, err := s.ImportExternal(ctx, doc, nil, nil)
	require.NoError(t, err)

	// Simulate a newer version having already been reconciled through
	// another path (e.g. internal sync).
	raw, err := json.Marshal(result.Certificate)
	require.NoError(t, err)
	_, err = store.Store(ctx, propagation.ObjectKind, result.Certificate.ID, 2, raw)
	require.NoError(t, err)

	again, err := s.ImportExternal(ctx, doc, nil, nil)
	require.Error(t, err)
	assert.True(t, coreerr.ErrStaleOrDuplicate.Is(err))
	assert.Equal(t, 2, again.ExistingVersion)
}
