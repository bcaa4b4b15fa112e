package ca

import (
	"context"
	"time"

	"github.com/juergengeck/trust.core/pkg/certificate"
)

// VerificationResult is the outcome of VerifyCertificate.
type VerificationResult struct {
	Valid  bool
	Reason string
}

// VerifyCertificate checks status, validity window, and signature.
func (e *Engine) VerifyCertificate(ctx context.Context, c *certificate.Certificate) VerificationResult {
	now := time.Now().UnixMilli()
	status := certificate.DeriveStatus(c, now)

	switch status {
	case certificate.StatusRevoked:
		return VerificationResult{false, "revoked"}
	case certificate.StatusSuspended:
		return VerificationResult{false, "suspended"}
	}

	if now < c.ValidFrom {
		return VerificationResult{false, "not_yet_valid"}
	}
	if now > c.ValidUntil {
		return VerificationResult{false, "expired"}
	}
	if err := e.verifySignature(ctx, c); err != nil {
		return VerificationResult{false, "bad_signature"}
	}

	return VerificationResult{true, "valid"}
}

// ChainResult is the outcome of VerifyChain.
type ChainResult struct {
	Valid    bool
	Chain    []*certificate.Certificate
	FailedAt int // index into Chain, -1 if not applicable
	Reason   string
}

// VerifyChain follows issued_by links, verifying each link and checking
// that each parent's validity period contains the child's issued_at and
// that chain_depth decrements by exactly 1 at each step.
func (e *Engine) VerifyChain(ctx context.Context, leaf *certificate.Certificate, root *certificate.Certificate) ChainResult {
	chain := []*certificate.Certificate{leaf}

	cur := leaf
	for {
		res := e.VerifyCertificate(ctx, cur)
		idx := len(chain) - 1
		if !res.Valid {
			return ChainResult{Valid: false, Chain: chain, FailedAt: idx, Reason: res.Reason}
		}

		if cur.IsRoot() {
			if root != nil && !sameCertificate(cur, root) {
				return ChainResult{Valid: false, Chain: chain, FailedAt: idx, Reason: "chain_broken"}
			}
			return ChainResult{Valid: true, Chain: chain, FailedAt: -1}
		}

		if cur.IssuedBy == "" {
			return ChainResult{Valid: false, Chain: chain, FailedAt: idx, Reason: "chain_broken"}
		}

		parentPtr, err := e.loadLatest(ctx, cur.IssuedBy)
		if err != nil {
			return ChainResult{Valid: false, Chain: chain, FailedAt: idx, Reason: "chain_broken"}
		}
		parent := *parentPtr

		if parent.ChainDepth != cur.ChainDepth-1 {
			chain = append(chain, &parent)
			return ChainResult{Valid: false, Chain: chain, FailedAt: idx + 1, Reason: "chain_broken"}
		}
		if !(parent.ValidFrom <= cur.IssuedAt && cur.IssuedAt <= parent.ValidUntil) {
			chain = append(chain, &parent)
			return ChainResult{Valid: false, Chain: chain, FailedAt: idx + 1, Reason: "chain_broken"}
		}

		chain = append(chain, &parent)

		if len(chain) > 64 {
			// Guards against a corrupted/cyclic store looping forever.
			return ChainResult{Valid: false, Chain: chain, FailedAt: len(chain) - 1, Reason: "chain_broken"}
		}

		cur = &parent
	}
}

func sameCertificate(a, b *certificate.Certificate) bool {
	ha, errA := contentHash(a)
	hb, errB := contentHash(b)
	if errA != nil || errB != nil {
		return false
	}
	return ha == hb
}
