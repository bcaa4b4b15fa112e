package ca

import (
	"context"
	"encoding/hex"

	"github.com/juergengeck/trust.core/pkg/canonical"
	"github.com/juergengeck/trust.core/pkg/certificate"
	"github.com/juergengeck/trust.core/pkg/coreerr"
)

// canonicalBytes returns c's canonical serialization with "signature"
// elided, the exact byte string used both for hashing into the store and
// for computing the Ed25519 signature input.
func canonicalBytes(c *certificate.Certificate) ([]byte, error) {
	b, err := canonical.Marshal(c, "signature")
	if err != nil {
		return nil, coreerr.NewDetails(coreerr.KindStoreFailure, err.Error())
	}
	return b, nil
}

// sign produces the hex-encoded Ed25519 signature over c's canonical form.
func (e *Engine) sign(ctx context.Context, c *certificate.Certificate) (string, error) {
	data, err := canonicalBytes(c)
	if err != nil {
		return "", err
	}
	sig, err := e.keychain.Sign(ctx, e.identity, data)
	if err != nil {
		return "", coreerr.NewDetails(coreerr.KindSigningFailure, err.Error())
	}
	return hex.EncodeToString(sig), nil
}

// contentHash returns the content-addressing hash of c's full canonical
// serialization (signature included), distinct from the signing input
// (which elides signature). Used to compare two certificates for
// equality (e.g. the terminal root of a chain against an expected root).
func contentHash(c *certificate.Certificate) (string, error) {
	h, err := canonical.Hash(c)
	if err != nil {
		return "", coreerr.NewDetails(coreerr.KindStoreFailure, err.Error())
	}
	return h, nil
}

// verifySignature checks that c.Signature verifies against
// c.IssuerPublicKey over the canonical form with Signature elided.
func (e *Engine) verifySignature(ctx context.Context, c *certificate.Certificate) error {
	if c.Signature == "" {
		return coreerr.New(coreerr.KindBadSignature)
	}
	sig, err := hex.DecodeString(c.Signature)
	if err != nil {
		return coreerr.NewDetails(coreerr.KindBadSignature, err.Error())
	}
	data, err := canonicalBytes(c)
	if err != nil {
		return err
	}
	if err := e.keychain.Verify(ctx, c.IssuerPublicKey, data, sig); err != nil {
		return coreerr.New(coreerr.KindBadSignature)
	}
	return nil
}
