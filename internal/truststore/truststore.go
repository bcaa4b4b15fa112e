// Package truststore persists and queries TrustRelationship versioned
// objects reverse-indexed by peer, following the same versioned
// persist-then-reverse-lookup pattern internal/ca uses for certificates,
// adapted to device/peer-level trust records.
package truststore

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/juergengeck/trust.core/pkg/coreerr"
	"github.com/juergengeck/trust.core/pkg/logger"
	"github.com/juergengeck/trust.core/pkg/ports"
)

// ObjectKind is the Object Store "kind" TrustRelationships are persisted
// under.
const ObjectKind = "trust_relationship"

// Status is a TrustRelationship's lifecycle state.
type Status string

const (
	StatusTrusted   Status = "trusted"
	StatusUntrusted Status = "untrusted"
	StatusPending   Status = "pending"
	StatusRevoked   Status = "revoked"
)

// Level is the optional fine-grained trust level of a relationship.
type Level string

const (
	LevelSelf   Level = "self"
	LevelHigh   Level = "high"
	LevelMedium Level = "medium"
	LevelLow    Level = "low"
)

// Relationship is a TrustRelationship entity, versioned and
// reverse-indexed by Peer.
type Relationship struct {
	Peer               string         `json:"peer"`
	PeerPublicKey      string         `json:"peer_public_key"`
	Status             Status         `json:"status"`
	TrustLevel         Level          `json:"trust_level,omitempty"`
	Permissions        map[string]any `json:"permissions,omitempty"`
	EstablishedAt      int64          `json:"established_at"`
	LastVerified       int64          `json:"last_verified"`
	ValidUntil         int64          `json:"valid_until,omitempty"`
	Reason             string         `json:"reason,omitempty"`
	Context            string         `json:"context,omitempty"`
	VerificationMethod string         `json:"verification_method,omitempty"`
	VerificationProof  string         `json:"verification_proof,omitempty"`
	Version            int            `json:"version"`
}

// GetStatus, GetLastVerified, and GetValidUntil satisfy
// trustgraph.RelationshipView structurally, letting the Evaluator consume
// a *Relationship without internal/trustgraph importing this package.
func (r *Relationship) GetStatus() string      { return string(r.Status) }
func (r *Relationship) GetLastVerified() int64 { return r.LastVerified }
func (r *Relationship) GetValidUntil() int64   { return r.ValidUntil }

// SetOptions are the optional fields accepted by SetTrustStatus.
type SetOptions struct {
	TrustLevel         Level
	Permissions        map[string]any
	ValidUntil         int64
	Reason             string
	Context            string
	VerificationMethod string
	VerificationProof  string
}

// Listener is notified of trust status changes (TrustChanged).
type Listener func(peer string, status Status)

// Store is the Trust Store.
type Store struct {
	store ports.ObjectStore
	log   *logger.Log

	mu        sync.Mutex
	listeners []Listener
}

// New creates a Trust Store bound to the given Object Store.
func New(store ports.ObjectStore, log *logger.Log) *Store {
	return &Store{store: store, log: log.New("truststore")}
}

// Subscribe registers fn to receive TrustChanged notifications.
func (s *Store) Subscribe(fn Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Store) notify(peer string, status Status) {
	s.mu.Lock()
	listeners := append([]Listener{}, s.listeners...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(peer, status)
	}
}

// Get returns the latest stored Relationship for peer.
func (s *Store) Get(ctx context.Context, peer string) (*Relationship, error) {
	_, obj, err := s.store.LatestVersion(ctx, ObjectKind, peer)
	if err != nil {
		return nil, coreerr.NewDetails(coreerr.KindNotFound, err.Error())
	}
	var r Relationship
	if err := json.Unmarshal(obj, &r); err != nil {
		return nil, coreerr.NewDetails(coreerr.KindStoreFailure, err.Error())
	}
	return &r, nil
}

// ByPeerPublicKey reverse-looks-up relationship ids whose peer_public_key
// field matches publicKeyHex.
func (s *Store) ByPeerPublicKey(ctx context.Context, publicKeyHex string) ([]string, error) {
	ids, err := s.store.ReverseLookup(ctx, ObjectKind, "peer_public_key", publicKeyHex)
	if err != nil {
		return nil, coreerr.NewDetails(coreerr.KindStoreFailure, err.Error())
	}
	return ids, nil
}

// SetTrustStatus creates a new version of peer's relationship, preserving
// established_at from any existing relationship and always refreshing
// last_verified. Emits TrustChanged.
func (s *Store) SetTrustStatus(ctx context.Context, peer, peerPublicKey string, status Status, opts SetOptions) (*Relationship, error) {
	now := time.Now().UnixMilli()

	version := 1
	establishedAt := now
	if existing, err := s.Get(ctx, peer); err == nil {
		version = existing.Version + 1
		establishedAt = existing.EstablishedAt
	}

	r := &Relationship{
		Peer:               peer,
		PeerPublicKey:      peerPublicKey,
		Status:             status,
		TrustLevel:         opts.TrustLevel,
		Permissions:        opts.Permissions,
		EstablishedAt:      establishedAt,
		LastVerified:       now,
		ValidUntil:         opts.ValidUntil,
		Reason:             opts.Reason,
		Context:            opts.Context,
		VerificationMethod: opts.VerificationMethod,
		VerificationProof:  opts.VerificationProof,
		Version:            version,
	}

	raw, err := json.Marshal(r)
	if err != nil {
		return nil, coreerr.NewDetails(coreerr.KindStoreFailure, err.Error())
	}
	if _, err := s.store.Store(ctx, ObjectKind, peer, version, raw); err != nil {
		return nil, coreerr.NewDetails(coreerr.KindStoreFailure, err.Error())
	}

	s.notify(peer, status)
	s.log.Info("trust status set", "peer", peer, "status", status, "version", version)

	return r, nil
}

// History returns every stored version of peer's relationship in
// increasing version order.
func (s *Store) History(ctx context.Context, peer string) ([]*Relationship, error) {
	versions, err := s.store.Versions(ctx, ObjectKind, peer)
	if err != nil {
		return nil, coreerr.NewDetails(coreerr.KindStoreFailure, err.Error())
	}
	out := make([]*Relationship, 0, len(versions))
	for _, v := range versions {
		var r Relationship
		if err := json.Unmarshal(v.Object, &r); err != nil {
			return nil, coreerr.NewDetails(coreerr.KindStoreFailure, err.Error())
		}
		out = append(out, &r)
	}
	return out, nil
}
