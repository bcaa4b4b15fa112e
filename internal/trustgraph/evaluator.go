package trustgraph

import (
	"context"
	"time"

	"github.com/juergengeck/trust.core/pkg/logger"
	"github.com/juergengeck/trust.core/pkg/model"
)

// clamp restricts v to [0,1].
func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// RelationshipView is the narrow slice of a TrustRelationship the
// Evaluator needs, declared here (rather than importing
// internal/truststore) to avoid a package cycle; *truststore.Relationship
// satisfies it structurally.
type RelationshipView interface {
	GetStatus() string
	GetLastVerified() int64
	GetValidUntil() int64
}

// RelationshipLookup resolves a peer's current TrustRelationship.
type RelationshipLookup func(ctx context.Context, peer string) (RelationshipView, error)

// DeviceChainVerifier reports whether a device-trust certificate chain
// verifies the given peer's key. Declared narrowly to avoid depending on
// internal/ca's full Engine surface.
type DeviceChainVerifier func(ctx context.Context, peer string) (verified bool, lookupFailed bool)

// Result is the outcome of EvaluateTrust.
type Result struct {
	Level      float64
	Confidence float64
	Reason     string
	TrustLevel Level
}

// Evaluator scores a peer relationship into a trust level/confidence
// pair, combining relationship status, device-chain verification,
// verification recency, expiration, and per-context thresholds.
type Evaluator struct {
	log          *logger.Log
	thresholds   model.TrustThresholds
	relationship RelationshipLookup
	deviceChain  DeviceChainVerifier
}

// NewEvaluator creates an Evaluator. deviceChain may be nil to skip step 2.
func NewEvaluator(thresholds model.TrustThresholds, relationship RelationshipLookup, deviceChain DeviceChainVerifier, log *logger.Log) *Evaluator {
	return &Evaluator{
		log:          log.New("trustgraph"),
		thresholds:   thresholds,
		relationship: relationship,
		deviceChain:  deviceChain,
	}
}

// statusBaseline gives the base level/confidence by relationship status.
func statusBaseline(status string) (level, confidence float64) {
	switch status {
	case "trusted":
		return 0.9, 0.5
	case "pending":
		return 0.3, 0.5
	case "untrusted":
		return 0.1, 0.8
	case "revoked":
		return 0.0, 1.0
	default:
		return 0.0, 0.5
	}
}

// EvaluateTrust resolves peer's relationship, applies device-chain and
// recency adjustments, short-circuits on expiration, then checks the
// result against evalContext's threshold.
func (e *Evaluator) EvaluateTrust(ctx context.Context, peer, evalContext string) (Result, error) {
	rel, err := e.relationship(ctx, peer)
	if err != nil {
		return Result{}, err
	}

	level, confidence := statusBaseline(rel.GetStatus())

	if e.deviceChain != nil {
		verified, lookupFailed := e.deviceChain(ctx, peer)
		switch {
		case verified:
			confidence = clamp(confidence + 0.2)
		case lookupFailed:
			confidence = clamp(confidence - 0.1)
		}
	}

	now := time.Now().UnixMilli()
	lastVerified := rel.GetLastVerified()
	if lastVerified > 0 {
		age := time.Duration(now-lastVerified) * time.Millisecond
		switch {
		case age <= 7*24*time.Hour:
			confidence = clamp(confidence + 0.1)
		case age > 30*24*time.Hour:
			confidence = clamp(confidence - 0.1)
		}
	}

	if vu := rel.GetValidUntil(); vu != 0 && vu < now {
		return Result{Level: 0, Confidence: 1.0, Reason: "expired"}, nil
	}

	return e.applyContext(level, confidence, evalContext), nil
}

// applyContext checks level against evalContext's minimum threshold.
func (e *Evaluator) applyContext(level, confidence float64, evalContext string) Result {
	thresholds := e.thresholds
	fileTransfer := thresholds.FileTransfer
	if fileTransfer == 0 {
		fileTransfer = 0.7
	}
	communication := thresholds.Communication
	if communication == 0 {
		communication = 0.5
	}

	switch evalContext {
	case "file-transfer":
		if level < fileTransfer {
			return Result{Level: level, Confidence: confidence, Reason: "insufficient_trust_for_file_transfer"}
		}
	case "communication":
		if level < communication {
			return Result{Level: level, Confidence: confidence, Reason: "insufficient_trust_for_communication"}
		}
	}

	return Result{Level: level, Confidence: confidence, Reason: "ok"}
}
