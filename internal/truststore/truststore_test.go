package truststore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juergengeck/trust.core/internal/testutil"
	"github.com/juergengeck/trust.core/internal/truststore"
	"github.com/juergengeck/trust.core/pkg/logger"
)

func newStore() *truststore.Store {
	return truststore.New(testutil.NewFakeObjectStore(), logger.NewSimple("test"))
}

func TestSetTrustStatus_CreateThenUpdatePreservesEstablishedAt(t *testing.T) {
	s := newStore()
	ctx := context.Background()

	r, err := s.SetTrustStatus(ctx, "peer-1", "pubkey-1", truststore.StatusPending, truststore.SetOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, r.Version)
	establishedAt := r.EstablishedAt

	r2, err := s.SetTrustStatus(ctx, "peer-1", "pubkey-1", truststore.StatusTrusted, truststore.SetOptions{Reason: "verified in person"})
	require.NoError(t, err)
	assert.Equal(t, 2, r2.Version)
	assert.Equal(t, establishedAt, r2.EstablishedAt)
	assert.Equal(t, truststore.StatusTrusted, r2.Status)

	got, err := s.Get(ctx, "peer-1")
	require.NoError(t, err)
	assert.Equal(t, truststore.StatusTrusted, got.Status)
}

func TestHistory_ReturnsEveryVersion(t *testing.T) {
	s := newStore()
	ctx := context.Background()

	_, err := s.SetTrustStatus(ctx, "peer-2", "pubkey-2", truststore.StatusPending, truststore.SetOptions{})
	require.NoError(t, err)
	_, err = s.SetTrustStatus(ctx, "peer-2", "pubkey-2", truststore.StatusTrusted, truststore.SetOptions{})
	require.NoError(t, err)
	_, err = s.SetTrustStatus(ctx, "peer-2", "pubkey-2", truststore.StatusRevoked, truststore.SetOptions{Reason: "compromised"})
	require.NoError(t, err)

	history, err := s.History(ctx, "peer-2")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, truststore.StatusPending, history[0].Status)
	assert.Equal(t, truststore.StatusTrusted, history[1].Status)
	assert.Equal(t, truststore.StatusRevoked, history[2].Status)
}

func TestByPeerPublicKey_ReverseLookup(t *testing.T) {
	s := newStore()
	ctx := context.Background()

	_, err := s.SetTrustStatus(ctx, "peer-3", "shared-pubkey", truststore.StatusTrusted, truststore.SetOptions{})
	require.NoError(t, err)

	ids, err := s.ByPeerPublicKey(ctx, "shared-pubkey")
	require.NoError(t, err)
	assert.Contains(t, ids, "peer-3")
}

func TestSubscribe_NotifiedOnStatusChange(t *testing.T) {
	s := newStore()
	ctx := context.Background()

	var gotPeer string
	var gotStatus truststore.Status
	s.Subscribe(func(peer string, status truststore.Status) {
		gotPeer = peer
		gotStatus = status
	})

	_, err := s.SetTrustStatus(ctx, "peer-4", "pubkey-4", truststore.StatusTrusted, truststore.SetOptions{})
	require.NoError(t, err)

	assert.Equal(t, "peer-4", gotPeer)
	assert.Equal(t, truststore.StatusTrusted, gotStatus)
}

func TestGet_NotFound(t *testing.T) {
	s := newStore()
	_, err := s.Get(context.Background(), "nobody")
	assert.Error(t, err)
}
