// Package proof translates between a raw Ed25519 signature and its
// Ed25519Signature2020 W3C proof block representation, grounded on the
// multibase base58btc encoding used by the Data Integrity eddsa-rdfc-2022
// cryptosuite.
package proof

import (
	"time"

	"github.com/juergengeck/trust.core/pkg/coreerr"
	"github.com/multiformats/go-multibase"
)

// Type is the proof type this package produces and consumes.
const Type = "Ed25519Signature2020"

// PurposeAssertion is the only proof purpose the core emits.
const PurposeAssertion = "assertionMethod"

// Proof is the Ed25519Signature2020 proof block.
type Proof struct {
	Type               string `json:"type"`
	Created            string `json:"created"`
	ProofPurpose       string `json:"proofPurpose"`
	VerificationMethod string `json:"verificationMethod"`
	ProofValue         string `json:"proofValue"`
}

// NativeToW3C builds a proof block from a raw signature.
func NativeToW3C(signature []byte, verificationMethod string, issuedAt time.Time) (*Proof, error) {
	enc, err := multibase.Encode(multibase.Base58BTC, signature)
	if err != nil {
		return nil, coreerr.NewDetails(coreerr.KindSigningFailure, err.Error())
	}

	return &Proof{
		Type:               Type,
		Created:            issuedAt.UTC().Format(time.RFC3339),
		ProofPurpose:        PurposeAssertion,
		VerificationMethod: verificationMethod,
		ProofValue:         enc,
	}, nil
}

// W3CToNative extracts the raw signature from a proof block.
func W3CToNative(p *Proof) ([]byte, error) {
	if p == nil {
		return nil, coreerr.New(coreerr.KindUnsupportedProofType)
	}
	if p.Type != Type {
		return nil, coreerr.NewDetails(coreerr.KindUnsupportedProofType, p.Type)
	}

	_, sig, err := multibase.Decode(p.ProofValue)
	if err != nil {
		return nil, coreerr.NewDetails(coreerr.KindBadSignature, err.Error())
	}
	return sig, nil
}
