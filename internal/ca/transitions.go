package ca

import (
	"context"
	"time"

	"github.com/juergengeck/trust.core/pkg/certificate"
	"github.com/juergengeck/trust.core/pkg/coreerr"
)

// Extend pushes valid_until further out by additional, minting a new
// version.
func (e *Engine) Extend(ctx context.Context, id string, additional time.Duration) (*certificate.Certificate, error) {
	if err := e.requireReady(); err != nil {
		return nil, err
	}
	if additional <= 0 {
		return nil, coreerr.New(coreerr.KindInvalidDuration)
	}

	lock := e.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	prev, err := e.loadLatest(ctx, id)
	if err != nil {
		e.audit(ctx, "certificate_extended", "", id, "", 0, "", nil, false, err.Error())
		return nil, err
	}

	next := cloneForTransition(prev)
	next.ValidUntil = prev.ValidUntil + additional.Milliseconds()

	if err := e.signAndPersist(ctx, next); err != nil {
		e.audit(ctx, "certificate_extended", prev.Subject, id, "", next.Version, "", nil, false, err.Error())
		return nil, err
	}

	e.audit(ctx, "certificate_extended", prev.Subject, id, next.Signature, next.Version, "", nil, true, "")
	e.emit(Event{Type: EventCertificateExtended, Certificate: next})
	e.log.WithCertificate(id).Info("extended", "version", next.Version)

	return next, nil
}

// Reduce pulls valid_until in to newValidUntil, minting a new version.
// Rejects a target at or past the current value (not a reduction) and a
// target in the past (use Revoke instead).
func (e *Engine) Reduce(ctx context.Context, id string, newValidUntil int64) (*certificate.Certificate, error) {
	if err := e.requireReady(); err != nil {
		return nil, err
	}

	lock := e.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	prev, err := e.loadLatest(ctx, id)
	if err != nil {
		e.audit(ctx, "certificate_reduced", "", id, "", 0, "", nil, false, err.Error())
		return nil, err
	}

	now := time.Now().UnixMilli()
	if newValidUntil <= now {
		err := coreerr.New(coreerr.KindUseRevoke)
		e.audit(ctx, "certificate_reduced", prev.Subject, id, "", prev.Version, "", nil, false, err.Error())
		return nil, err
	}
	if newValidUntil >= prev.ValidUntil {
		err := coreerr.New(coreerr.KindNotAReduction)
		e.audit(ctx, "certificate_reduced", prev.Subject, id, "", prev.Version, "", nil, false, err.Error())
		return nil, err
	}

	next := cloneForTransition(prev)
	next.ValidUntil = newValidUntil

	if err := e.signAndPersist(ctx, next); err != nil {
		e.audit(ctx, "certificate_reduced", prev.Subject, id, "", next.Version, "", nil, false, err.Error())
		return nil, err
	}

	e.audit(ctx, "certificate_reduced", prev.Subject, id, next.Signature, next.Version, "", nil, true, "")
	e.emit(Event{Type: EventCertificateReduced, Certificate: next})
	e.log.WithCertificate(id).Info("reduced", "version", next.Version)

	return next, nil
}

// Revoke sets status to revoked and backdates valid_until to one
// millisecond before now.
// Propagation for revocations is flagged urgent (enforced in
// signAndPersist via next.Status == StatusRevoked).
func (e *Engine) Revoke(ctx context.Context, id, reason string) (*certificate.Certificate, error) {
	if err := e.requireReady(); err != nil {
		return nil, err
	}

	lock := e.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	prev, err := e.loadLatest(ctx, id)
	if err != nil {
		e.audit(ctx, "certificate_revoked", "", id, "", 0, reason, nil, false, err.Error())
		return nil, err
	}

	next := cloneForTransition(prev)
	next.ValidUntil = time.Now().UnixMilli() - 1
	next.Status = certificate.StatusRevoked
	next.RevocationReason = reason

	if err := e.signAndPersist(ctx, next); err != nil {
		e.audit(ctx, "certificate_revoked", prev.Subject, id, "", next.Version, reason, nil, false, err.Error())
		return nil, err
	}

	e.audit(ctx, "certificate_revoked", prev.Subject, id, next.Signature, next.Version, reason, nil, true, "")
	e.emit(Event{Type: EventCertificateRevoked, Certificate: next})
	e.log.WithCertificate(id).Info("revoked", "reason", reason)

	return next, nil
}

// cloneForTransition derives a new version preserving every field that
// extend/reduce/revoke must not touch.
func cloneForTransition(prev *certificate.Certificate) *certificate.Certificate {
	claims := make(map[string]any, len(prev.Claims))
	for k, v := range prev.Claims {
		claims[k] = v
	}

	return &certificate.Certificate{
		ID:               prev.ID,
		Kind:             prev.Kind,
		Status:           certificate.StatusValid,
		Subject:          prev.Subject,
		SubjectPublicKey: prev.SubjectPublicKey,
		Issuer:           prev.Issuer,
		IssuerPublicKey:  prev.IssuerPublicKey,
		ValidFrom:        prev.ValidFrom,
		ValidUntil:       prev.ValidUntil,
		IssuedBy:         prev.IssuedBy,
		ChainDepth:       prev.ChainDepth,
		Claims:           claims,
		IssuedAt:         prev.IssuedAt,
		SerialNumber:     prev.SerialNumber,
		Version:          prev.Version + 1,
	}
}
