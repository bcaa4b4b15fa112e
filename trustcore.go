// Package trustcore wires the certificate/CA/trust-graph/VC-bridge/
// propagation core into one embeddable Instance: every component is
// constructed independently and handed its narrow dependencies, rather
// than a single god-object owning everything directly.
package trustcore

import (
	"context"

	"github.com/juergengeck/trust.core/internal/audit"
	"github.com/juergengeck/trust.core/internal/ca"
	"github.com/juergengeck/trust.core/internal/propagation"
	"github.com/juergengeck/trust.core/internal/truststore"
	"github.com/juergengeck/trust.core/internal/trustgraph"
	"github.com/juergengeck/trust.core/internal/vcbridge"
	"github.com/juergengeck/trust.core/pkg/certificate"
	"github.com/juergengeck/trust.core/pkg/logger"
	"github.com/juergengeck/trust.core/pkg/model"
	"github.com/juergengeck/trust.core/pkg/ports"
)

// Instance is one fully-wired CA instance: the CA Engine, Audit Log,
// Trust Store, Trust Graph/Evaluator, and Propagation Service, sharing a
// single identity and the three external ports.
type Instance struct {
	Identity string

	CA          *ca.Engine
	Audit       *audit.Log
	TrustStore  *truststore.Store
	TrustGraph  *trustgraph.Graph
	Evaluator   *trustgraph.Evaluator
	Propagation *propagation.Service
}

// New constructs a fully-wired Instance. identity is this instance's own
// identity hash (issuer/subject of its root certificate).
func New(ctx context.Context, identity string, store ports.ObjectStore, keychain ports.Keychain, transport ports.PeerTransport, cfg *model.Config, log *logger.Log) *Instance {
	auditLog := audit.New(ctx, log)
	engine := ca.New(identity, store, keychain, cfg, log)
	engine.SetAuditor(auditLog)

	prop := propagation.New(ctx, identity, transport, store, auditLog, log)
	engine.SetPropagator(prop)

	ts := truststore.New(store, log)
	tg := trustgraph.NewGraph(store, log)

	relationshipLookup := func(ctx context.Context, peer string) (trustgraph.RelationshipView, error) {
		return ts.Get(ctx, peer)
	}
	deviceChainVerifier := func(ctx context.Context, peer string) (verified bool, lookupFailed bool) {
		ids, err := store.ReverseLookup(ctx, ca.ObjectKind, "subject", peer)
		if err != nil || len(ids) == 0 {
			return false, err != nil
		}
		for _, id := range ids {
			c, err := engine.LatestVersion(ctx, id)
			if err != nil || c.Kind != certificate.KindDevice {
				continue
			}
			res := engine.VerifyCertificate(ctx, c)
			if res.Valid {
				return true, false
			}
		}
		return false, false
	}
	evaluator := trustgraph.NewEvaluator(cfg.Trust, relationshipLookup, deviceChainVerifier, log)

	return &Instance{
		Identity:    identity,
		CA:          engine,
		Audit:       auditLog,
		TrustStore:  ts,
		TrustGraph:  tg,
		Evaluator:   evaluator,
		Propagation: prop,
	}
}

// Close stops the Instance's background services (Propagation, Audit).
func (i *Instance) Close() {
	i.Propagation.Close()
	i.Audit.Close()
}

// VerifierFunc adapts CA.VerifyCertificate to propagation.Verifier.
func (i *Instance) VerifierFunc() propagation.Verifier {
	return func(ctx context.Context, c *certificate.Certificate) (bool, string) {
		res := i.CA.VerifyCertificate(ctx, c)
		return res.Valid, res.Reason
	}
}

// KeyResolverFunc adapts the Keychain's PublicKey lookup to
// vcbridge.KeyResolver, used when importing external VC documents.
func KeyResolverFunc(ctx context.Context, keychain ports.Keychain) vcbridge.KeyResolver {
	return func(issuerHash string) (string, error) {
		return keychain.PublicKey(ctx, issuerHash)
	}
}
