package ca

import (
	"context"
	"encoding/json"
	"time"

	"github.com/juergengeck/trust.core/pkg/certificate"
	"github.com/juergengeck/trust.core/pkg/coreerr"
)

// EnsureRoot looks up any root certificate authored by this instance's
// identity; if none exists it mints one, otherwise it loads the latest
// version. Either way the Engine transitions to CAReady.
func (e *Engine) EnsureRoot(ctx context.Context) (*certificate.Certificate, error) {
	ids, err := e.store.ReverseLookup(ctx, ObjectKind, "issuer", e.identity)
	if err != nil {
		return nil, coreerr.NewDetails(coreerr.KindStoreFailure, err.Error())
	}

	for _, id := range ids {
		_, obj, err := e.store.LatestVersion(ctx, ObjectKind, id)
		if err != nil {
			continue
		}
		var c certificate.Certificate
		if err := json.Unmarshal(obj, &c); err != nil {
			continue
		}
		if c.IsRoot() {
			e.stateMu.Lock()
			e.root = &c
			e.state = StateCAReady
			e.stateMu.Unlock()
			e.log.WithCertificate(c.ID).Info("root loaded")
			return &c, nil
		}
	}

	return e.createRoot(ctx)
}

func (e *Engine) createRoot(ctx context.Context) (*certificate.Certificate, error) {
	validity := e.cfg.RootValidity
	if validity == "" {
		validity = "10 years"
	}
	d, err := certificate.ParseDuration(validity)
	if err != nil {
		return nil, err
	}

	now := time.Now().UnixMilli()
	c := &certificate.Certificate{
		ID:               "cert:identity:" + e.identity + ":root",
		Kind:             certificate.KindIdentity,
		Subject:          e.identity,
		SubjectPublicKey: "",
		Issuer:           e.identity,
		IssuerPublicKey:  "",
		ValidFrom:        now,
		ValidUntil:       now + d.Milliseconds(),
		ChainDepth:       0,
		Claims:           map[string]any{"name": e.cfg.CAName},
		IssuedAt:         now,
		Version:          1,
		Status:           certificate.StatusValid,
	}

	pub, err := e.keychain.PublicKey(ctx, e.identity)
	if err != nil {
		return nil, coreerr.NewDetails(coreerr.KindSubjectKeyMissing, err.Error())
	}
	c.SubjectPublicKey = pub
	c.IssuerPublicKey = pub
	c.SerialNumber = e.serials.Next(now)

	if err := e.signAndPersist(ctx, c); err != nil {
		return nil, err
	}

	e.stateMu.Lock()
	e.root = c
	e.state = StateCAReady
	e.stateMu.Unlock()

	e.audit(ctx, "certificate_issued", e.identity, c.ID, c.Signature, c.Version, "", nil, true, "")
	e.emit(Event{Type: EventRootCreated, Certificate: c})
	e.log.WithCertificate(c.ID).Info("root created")

	return c, nil
}

// Root returns the currently loaded root certificate, if any.
func (e *Engine) Root() *certificate.Certificate {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	return e.root
}

// signAndPersist canonicalizes, signs, and stores a certificate as its
// declared Version.
func (e *Engine) signAndPersist(ctx context.Context, c *certificate.Certificate) error {
	sig, err := e.sign(ctx, c)
	if err != nil {
		return err
	}
	c.Signature = sig

	raw, err := json.Marshal(c)
	if err != nil {
		return coreerr.NewDetails(coreerr.KindStoreFailure, err.Error())
	}

	if _, err := e.store.Store(ctx, ObjectKind, c.ID, c.Version, raw); err != nil {
		return coreerr.NewDetails(coreerr.KindStoreFailure, err.Error())
	}

	e.propagate(ctx, c.ID, c.Version, raw, c.Status == certificate.StatusRevoked)
	return nil
}
