package trustgraph_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juergengeck/trust.core/internal/trustgraph"
	"github.com/juergengeck/trust.core/pkg/logger"
	"github.com/juergengeck/trust.core/pkg/model"
)

type fakeRelationship struct {
	status       string
	lastVerified int64
	validUntil   int64
}

func (r fakeRelationship) GetStatus() string      { return r.status }
func (r fakeRelationship) GetLastVerified() int64 { return r.lastVerified }
func (r fakeRelationship) GetValidUntil() int64   { return r.validUntil }

func lookup(rel fakeRelationship) trustgraph.RelationshipLookup {
	return func(ctx context.Context, peer string) (trustgraph.RelationshipView, error) {
		return rel, nil
	}
}

func TestEvaluateTrust_TrustedStatusWithRecentVerification(t *testing.T) {
	now := time.Now().UnixMilli()
	rel := fakeRelationship{status: "trusted", lastVerified: now - 1000}

	e := trustgraph.NewEvaluator(model.DefaultTrustThresholds(), lookup(rel), nil, logger.NewSimple("test"))
	res, err := e.EvaluateTrust(context.Background(), "peer-1", "general")
	require.NoError(t, err)

	assert.Equal(t, 0.9, res.Level)
	assert.InDelta(t, 0.6, res.Confidence, 0.001) // 0.5 base + 0.1 recency
	assert.Equal(t, "ok", res.Reason)
}

func TestEvaluateTrust_ExpiredShortCircuits(t *testing.T) {
	now := time.Now().UnixMilli()
	rel := fakeRelationship{status: "trusted", validUntil: now - 1000}

	e := trustgraph.NewEvaluator(model.DefaultTrustThresholds(), lookup(rel), nil, logger.NewSimple("test"))
	res, err := e.EvaluateTrust(context.Background(), "peer-1", "general")
	require.NoError(t, err)

	assert.Equal(t, 0.0, res.Level)
	assert.Equal(t, 1.0, res.Confidence)
	assert.Equal(t, "expired", res.Reason)
}

func TestEvaluateTrust_DeviceChainAdjustsConfidence(t *testing.T) {
	rel := fakeRelationship{status: "pending"}

	verified := func(ctx context.Context, peer string) (bool, bool) { return true, false }
	e := trustgraph.NewEvaluator(model.DefaultTrustThresholds(), lookup(rel), verified, logger.NewSimple("test"))
	res, err := e.EvaluateTrust(context.Background(), "peer-1", "general")
	require.NoError(t, err)
	assert.InDelta(t, 0.7, res.Confidence, 0.001) // 0.5 base + 0.2 device-verified

	failed := func(ctx context.Context, peer string) (bool, bool) { return false, true }
	e2 := trustgraph.NewEvaluator(model.DefaultTrustThresholds(), lookup(rel), failed, logger.NewSimple("test"))
	res2, err := e2.EvaluateTrust(context.Background(), "peer-1", "general")
	require.NoError(t, err)
	assert.InDelta(t, 0.4, res2.Confidence, 0.001) // 0.5 base - 0.1 lookup-failed
}

func TestEvaluateTrust_ContextThresholds(t *testing.T) {
	rel := fakeRelationship{status: "untrusted"} // level 0.1

	e := trustgraph.NewEvaluator(model.DefaultTrustThresholds(), lookup(rel), nil, logger.NewSimple("test"))

	res, err := e.EvaluateTrust(context.Background(), "peer-1", "file-transfer")
	require.NoError(t, err)
	assert.Equal(t, "insufficient_trust_for_file_transfer", res.Reason)

	res, err = e.EvaluateTrust(context.Background(), "peer-1", "general")
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Reason)
}

// Evaluator bounds: level and confidence always stay within [0,1]
// regardless of how many adjustments stack.
func TestEvaluateTrust_ResultsStayWithinBounds(t *testing.T) {
	now := time.Now().UnixMilli()
	rel := fakeRelationship{status: "revoked", lastVerified: now - 1000}
	verified := func(ctx context.Context, peer string) (bool, bool) { return true, false }

	e := trustgraph.NewEvaluator(model.DefaultTrustThresholds(), lookup(rel), verified, logger.NewSimple("test"))
	res, err := e.EvaluateTrust(context.Background(), "peer-1", "general")
	require.NoError(t, err)

	assert.GreaterOrEqual(t, res.Level, 0.0)
	assert.LessOrEqual(t, res.Level, 1.0)
	assert.GreaterOrEqual(t, res.Confidence, 0.0)
	assert.LessOrEqual(t, res.Confidence, 1.0)
}
