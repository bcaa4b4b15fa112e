package ca

import (
	"context"
	"encoding/json"
	"time"

	"github.com/juergengeck/trust.core/pkg/certificate"
	"github.com/juergengeck/trust.core/pkg/coreerr"
)

// Transition names the inferred change between two consecutive versions
// of a certificate.
type Transition string

const (
	TransitionExtend Transition = "extend"
	TransitionReduce Transition = "reduce"
	TransitionRevoke Transition = "revoke"
	TransitionRenew  Transition = "renew"
)

// LatestVersion returns the highest-version stored object for id.
func (e *Engine) LatestVersion(ctx context.Context, id string) (*certificate.Certificate, error) {
	return e.loadLatest(ctx, id)
}

// HistoryEntry pairs a stored certificate version with the transition
// that produced it relative to its predecessor (empty for the first).
type HistoryEntry struct {
	Certificate *certificate.Certificate
	Transition  Transition
}

// History returns every version of id in increasing order, each tagged
// with its inferred transition type.
func (e *Engine) History(ctx context.Context, id string) ([]HistoryEntry, error) {
	versions, err := e.store.Versions(ctx, ObjectKind, id)
	if err != nil {
		return nil, coreerr.NewDetails(coreerr.KindStoreFailure, err.Error())
	}

	entries := make([]HistoryEntry, 0, len(versions))
	var prev *certificate.Certificate

	for _, v := range versions {
		var c certificate.Certificate
		if err := json.Unmarshal(v.Object, &c); err != nil {
			return nil, coreerr.NewDetails(coreerr.KindStoreFailure, err.Error())
		}

		entry := HistoryEntry{Certificate: &c}
		if prev != nil {
			entry.Transition = inferTransition(prev, &c)
		}
		entries = append(entries, entry)
		prev = &c
	}

	return entries, nil
}

// inferTransition classifies the change between two consecutive stored
// versions of the same certificate.
func inferTransition(prev, curr *certificate.Certificate) Transition {
	now := time.Now().UnixMilli()

	if curr.Status == certificate.StatusRevoked || curr.ValidUntil < now {
		return TransitionRevoke
	}
	if curr.ValidUntil > prev.ValidUntil {
		return TransitionExtend
	}
	if now < curr.ValidUntil && curr.ValidUntil < prev.ValidUntil {
		return TransitionReduce
	}
	return TransitionRenew
}
