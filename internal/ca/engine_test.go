package ca_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juergengeck/trust.core/internal/ca"
	"github.com/juergengeck/trust.core/internal/testutil"
	"github.com/juergengeck/trust.core/pkg/certificate"
	"github.com/juergengeck/trust.core/pkg/logger"
	"github.com/juergengeck/trust.core/pkg/model"
)

func newTestEngine(t *testing.T) (*ca.Engine, *testutil.FakeObjectStore, *testutil.FakeKeychain) {
	t.Helper()
	store := testutil.NewFakeObjectStore()
	keychain := testutil.NewFakeKeychain()
	cfg := model.DefaultConfig()
	cfg.CAName = "test-ca"
	engine := ca.New("ca-identity", store, keychain, cfg, logger.NewSimple("test"))

	require.NoError(t, engine.Init(context.Background()))
	_, err := engine.EnsureRoot(context.Background())
	require.NoError(t, err)
	require.Equal(t, ca.StateCAReady, engine.State())

	return engine, store, keychain
}

// Issue then verify.
func TestIssue_ThenVerify(t *testing.T) {
	engine, _, keychain := newTestEngine(t)
	ctx := context.Background()

	subjectKey := keychain.Ensure("subject-1")

	c, err := engine.Issue(ctx, ca.IssueRequest{
		Kind:             certificate.KindIdentity,
		Subject:          "subject-1",
		SubjectPublicKey: subjectKey,
		Validity:         "12 months",
		Claims:           map[string]any{"name": "alice"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, c.Version)
	assert.Equal(t, c.ValidFrom+31_536_000_000, c.ValidUntil)
	assert.NotEmpty(t, c.Signature)

	res := engine.VerifyCertificate(ctx, c)
	assert.True(t, res.Valid)
}

// Extend then check history.
func TestExtend_ThenHistory(t *testing.T) {
	engine, _, keychain := newTestEngine(t)
	ctx := context.Background()
	subjectKey := keychain.Ensure("subject-2")

	c, err := engine.Issue(ctx, ca.IssueRequest{
		Kind:             certificate.KindIdentity,
		Subject:          "subject-2",
		SubjectPublicKey: subjectKey,
		Validity:         "12 months",
	})
	require.NoError(t, err)

	additional := time.Duration(15_552_000_000) * time.Millisecond
	extended, err := engine.Extend(ctx, c.ID, additional)
	require.NoError(t, err)
	assert.Equal(t, 2, extended.Version)
	assert.Equal(t, c.ValidUntil+int64(15_552_000_000), extended.ValidUntil)

	history, err := engine.History(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, ca.TransitionExtend, history[1].Transition)
}

// Revoke then verify denies.
func TestRevoke_ThenVerifyDenies(t *testing.T) {
	engine, _, keychain := newTestEngine(t)
	ctx := context.Background()
	subjectKey := keychain.Ensure("subject-3")

	c, err := engine.Issue(ctx, ca.IssueRequest{
		Kind:             certificate.KindIdentity,
		Subject:          "subject-3",
		SubjectPublicKey: subjectKey,
		Validity:         "12 months",
	})
	require.NoError(t, err)

	revoked, err := engine.Revoke(ctx, c.ID, "key compromised")
	require.NoError(t, err)
	assert.Equal(t, 2, revoked.Version)
	assert.Equal(t, certificate.StatusRevoked, revoked.Status)
	assert.Less(t, revoked.ValidUntil, time.Now().UnixMilli())

	res := engine.VerifyCertificate(ctx, revoked)
	assert.False(t, res.Valid)
	assert.Equal(t, "revoked", res.Reason)
}

// Chain verification across root/intermediate/leaf.
func TestVerifyChain(t *testing.T) {
	engine, _, keychain := newTestEngine(t)
	ctx := context.Background()
	root := engine.Root()
	require.NotNil(t, root)

	intermediateKey := keychain.Ensure("intermediate")
	intermediate, err := engine.Issue(ctx, ca.IssueRequest{
		Kind:             certificate.KindIdentity,
		Subject:          "intermediate",
		SubjectPublicKey: intermediateKey,
		Validity:         "1 year",
		ChainTo:          root.ID,
	})
	require.NoError(t, err)

	leafKey := keychain.Ensure("leaf")
	leaf, err := engine.Issue(ctx, ca.IssueRequest{
		Kind:             certificate.KindIdentity,
		Subject:          "leaf",
		SubjectPublicKey: leafKey,
		Validity:         "90 days",
		ChainTo:          intermediate.ID,
	})
	require.NoError(t, err)

	result := engine.VerifyChain(ctx, leaf, root)
	assert.True(t, result.Valid)

	_, err = engine.Revoke(ctx, intermediate.ID, "compromised")
	require.NoError(t, err)

	result = engine.VerifyChain(ctx, leaf, root)
	assert.False(t, result.Valid)
}

func TestIssue_RequiresReady(t *testing.T) {
	store := testutil.NewFakeObjectStore()
	keychain := testutil.NewFakeKeychain()
	cfg := model.DefaultConfig()
	engine := ca.New("ca-identity", store, keychain, cfg, logger.NewSimple("test"))

	_, err := engine.Issue(context.Background(), ca.IssueRequest{
		Kind:     certificate.KindIdentity,
		Subject:  "x",
		Validity: "1 year",
	})
	assert.Error(t, err)
}

func TestReduce_RejectsNonReduction(t *testing.T) {
	engine, _, keychain := newTestEngine(t)
	ctx := context.Background()
	subjectKey := keychain.Ensure("subject-4")

	c, err := engine.Issue(ctx, ca.IssueRequest{
		Kind:             certificate.KindIdentity,
		Subject:          "subject-4",
		SubjectPublicKey: subjectKey,
		Validity:         "12 months",
	})
	require.NoError(t, err)

	_, err = engine.Reduce(ctx, c.ID, c.ValidUntil+1000)
	assert.Error(t, err)

	_, err = engine.Reduce(ctx, c.ID, time.Now().UnixMilli()-1000)
	assert.Error(t, err)

	reduced, err := engine.Reduce(ctx, c.ID, time.Now().UnixMilli()+1000*60*60)
	require.NoError(t, err)
	assert.Equal(t, 2, reduced.Version)
}
