package propagation

import (
	"context"
	"encoding/json"

	"github.com/juergengeck/trust.core/internal/vcbridge"
	"github.com/juergengeck/trust.core/pkg/canonical"
	"github.com/juergengeck/trust.core/pkg/certificate"
	"github.com/juergengeck/trust.core/pkg/coreerr"
)

// ObjectKind matches internal/ca.ObjectKind; duplicated as a constant
// here (rather than imported) to keep internal/propagation from depending
// on internal/ca, avoiding an import cycle with ca.Propagator.
const ObjectKind = "certificate"

// Verifier is the narrow slice of the CA Engine's verification surface
// import reconciliation needs. Callers typically pass a closure wrapping
// ca.Engine.VerifyCertificate, e.g.:
//
//	func(ctx context.Context, c *certificate.Certificate) (bool, string) {
//	    r := engine.VerifyCertificate(ctx, c)
//	    return r.Valid, r.Reason
//	}
type Verifier func(ctx context.Context, c *certificate.Certificate) (valid bool, reason string)

// ImportResult is the outcome of ImportExternal.
type ImportResult struct {
	Certificate     *certificate.Certificate
	Stored          bool
	ExistingVersion int // set when rejected as stale/duplicate
}

// ImportExternal parses an incoming JSON-LD document, converts it via the
// VC Bridge, verifies it, and reconciles it against the store by
// version, rejecting anything stale or already seen.
func (s *Service) ImportExternal(ctx context.Context, document []byte, verifier Verifier, resolver vcbridge.KeyResolver) (*ImportResult, error) {
	var vc vcbridge.VerifiableCredential
	if err := json.Unmarshal(document, &vc); err != nil {
		s.audit(ctx, "vc_imported", "", "", 0, false, err.Error())
		return nil, coreerr.NewDetails(coreerr.KindStoreFailure, err.Error())
	}

	if err := canonical.ValidateContext(toAnySlice(vc.Context)); err != nil {
		s.audit(ctx, "vc_imported", "", "", 0, false, err.Error())
		return nil, coreerr.NewDetails(coreerr.KindInvalidDID, err.Error())
	}

	c, err := vcbridge.VCToCert(&vc, resolver)
	if err != nil {
		s.audit(ctx, "vc_imported", "", "", 0, false, err.Error())
		return nil, err
	}

	if verifier != nil {
		if valid, reason := verifier(ctx, c); !valid {
			s.audit(ctx, "vc_imported", c.Subject, c.ID, c.Version, false, reason)
			return nil, coreerr.NewDetails(coreerr.KindBadSignature, reason)
		}
	}

	latestVersion, existingObj, err := s.store.LatestVersion(ctx, ObjectKind, c.ID)
	if err == nil && latestVersion >= c.Version {
		var existing certificate.Certificate
		_ = json.Unmarshal(existingObj, &existing)
		s.audit(ctx, "vc_imported", c.Subject, c.ID, c.Version, false, string(coreerr.KindStaleOrDuplicate))
		return &ImportResult{Certificate: &existing, Stored: false, ExistingVersion: latestVersion},
			coreerr.NewDetails(coreerr.KindStaleOrDuplicate, latestVersion)
	}

	raw, jsonErr := json.Marshal(c)
	if jsonErr != nil {
		return nil, coreerr.NewDetails(coreerr.KindStoreFailure, jsonErr.Error())
	}
	if _, err := s.store.Store(ctx, ObjectKind, c.ID, c.Version, raw); err != nil {
		s.audit(ctx, "vc_imported", c.Subject, c.ID, c.Version, false, err.Error())
		return nil, coreerr.NewDetails(coreerr.KindStoreFailure, err.Error())
	}

	s.Enqueue(ctx, c.ID, c.Version, raw, false)
	s.audit(ctx, "vc_imported", c.Subject, c.ID, c.Version, true, "")
	s.log.Info("imported", "id", c.ID, "version", c.Version)

	return &ImportResult{Certificate: c, Stored: true}, nil
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
