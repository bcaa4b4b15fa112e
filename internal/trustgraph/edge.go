// Package trustgraph implements the social Trust Graph (directed
// TrustEdges between persons) and the Evaluator that combines device-level
// trust (internal/truststore), certificate chain verification, and
// recency/expiration signals into a single evaluate_trust score.
package trustgraph

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/juergengeck/trust.core/pkg/coreerr"
	"github.com/juergengeck/trust.core/pkg/logger"
	"github.com/juergengeck/trust.core/pkg/ports"
)

// ObjectKind is the Object Store "kind" TrustEdges are persisted under.
// TrustEdges are logically unversioned; each update is stored as a new
// monotonic version purely so the Object Store's versioned-object API can
// hold them, but the Graph never inspects history, only the latest value.
const ObjectKind = "trust_edge"

// Level is the directed relationship strength between two persons.
type Level string

const (
	LevelInvited  Level = "invited"
	LevelKnown    Level = "known"
	LevelVerified Level = "verified"
	LevelTrusted  Level = "trusted"
	LevelCore     Level = "core"

	// LevelSelf marks the root node of a GetTrustChain tree; it is never
	// stored as an Edge.Level.
	LevelSelf Level = "self"
)

// Edge is a directed TrustEdge between two persons.
type Edge struct {
	From       string  `json:"from"`
	To         string  `json:"to"`
	Level      Level   `json:"level"`
	Confidence float64 `json:"confidence"`
	Origin     string  `json:"origin"`

	EstablishedAt int64 `json:"established_at"`
	UpdatedAt     int64 `json:"updated_at"`

	ChainDepth int     `json:"chain_depth"`
	PathTrust  float64 `json:"path_trust"`

	Interactions int `json:"interactions"`
	Endorsements int `json:"endorsements"`
	Disputes     int `json:"disputes"`

	Scope string `json:"scope,omitempty"`

	Revoked       bool   `json:"revoked,omitempty"`
	RevokedAt     int64  `json:"revoked_at,omitempty"`
	RevokedReason string `json:"revoked_reason,omitempty"`

	version int
}

func edgeKey(from, to string) string { return from + "->" + to }

// Graph holds the directed social trust graph for one instance. Edges are
// persisted through the Object Store (so they survive restarts and
// propagate like any other versioned object) but also kept in an in-memory
// index, since the Object Store port exposes no "list all ids of a kind"
// operation and graph algorithms need to enumerate every edge. The index
// holds every edge with no size limit; it starts empty and is not reloaded
// from edges persisted by an earlier Graph.
type Graph struct {
	store ports.ObjectStore
	log   *logger.Log

	mu    sync.RWMutex
	edges map[string]*Edge
}

// NewGraph creates an empty Trust Graph bound to store.
func NewGraph(store ports.ObjectStore, log *logger.Log) *Graph {
	return &Graph{
		store: store,
		log:   log.New("trustgraph"),
		edges: make(map[string]*Edge),
	}
}

// UpsertEdge creates or updates the directed edge from->to, persisting it
// and updating the in-memory index used by path/graph queries.
func (g *Graph) UpsertEdge(ctx context.Context, e Edge) (*Edge, error) {
	now := time.Now().UnixMilli()

	g.mu.Lock()
	existing, ok := g.edges[edgeKey(e.From, e.To)]
	g.mu.Unlock()

	if ok {
		e.version = existing.version + 1
		if e.EstablishedAt == 0 {
			e.EstablishedAt = existing.EstablishedAt
		}
	} else {
		e.version = 1
		if e.EstablishedAt == 0 {
			e.EstablishedAt = now
		}
	}
	e.UpdatedAt = now

	raw, err := json.Marshal(e)
	if err != nil {
		return nil, coreerr.NewDetails(coreerr.KindStoreFailure, err.Error())
	}
	if _, err := g.store.Store(ctx, ObjectKind, edgeKey(e.From, e.To), e.version, raw); err != nil {
		return nil, coreerr.NewDetails(coreerr.KindStoreFailure, err.Error())
	}

	cp := e
	g.mu.Lock()
	g.edges[edgeKey(e.From, e.To)] = &cp
	g.mu.Unlock()

	g.log.WithPeer(e.To).Info("edge upserted", "from", e.From, "level", e.Level, "version", e.version)

	return &cp, nil
}

// RevokeEdge marks the edge from->to revoked.
func (g *Graph) RevokeEdge(ctx context.Context, from, to, reason string) (*Edge, error) {
	g.mu.RLock()
	existing, ok := g.edges[edgeKey(from, to)]
	g.mu.RUnlock()
	if !ok {
		return nil, coreerr.New(coreerr.KindNotFound)
	}

	next := *existing
	next.Revoked = true
	next.RevokedAt = time.Now().UnixMilli()
	next.RevokedReason = reason

	g.log.WithPeer(to).Info("edge revoked", "from", from, "reason", reason)

	return g.UpsertEdge(ctx, next)
}

// Edge returns the current edge from->to, if any.
func (g *Graph) Edge(from, to string) (*Edge, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	e, ok := g.edges[edgeKey(from, to)]
	return e, ok
}

// Edges returns every non-revoked edge, sorted by From and then by To.
func (g *Graph) Edges() []*Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Edge, 0, len(g.edges))
	for _, e := range g.edges {
		if !e.Revoked {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}

// outgoing returns the non-revoked edges leaving node.
func (g *Graph) outgoing(node string) []*Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []*Edge
	for _, e := range g.edges {
		if e.From == node && !e.Revoked {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].To < out[j].To })
	return out
}
