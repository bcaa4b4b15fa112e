// Package didcodec implements the did:one:sha256 DID method used to wrap
// identity hashes for external (Verifiable Credential) presentation, plus
// helpers for parsing verification method fragments and decoding
// multikey-encoded Ed25519 keys out of DID documents.
package didcodec

import (
	"strings"

	"github.com/juergengeck/trust.core/pkg/coreerr"
	"github.com/multiformats/go-multibase"
)

const (
	method = "one"
	prefix = "did:one:sha256:"

	// DefaultKeyRef is the verification method fragment convention used
	// by certificates issued by this module.
	DefaultKeyRef = "keys-1"
)

// HashToDID maps an identity hash to its did:one:sha256 form.
func HashToDID(hash string) string {
	return prefix + strings.ToLower(hash)
}

// DIDToHash extracts the identity hash from a did:one:sha256 DID.
func DIDToHash(did string) (string, error) {
	if !strings.HasPrefix(did, prefix) {
		return "", coreerr.NewDetails(coreerr.KindUnsupportedDIDMethod, did)
	}
	hash := strings.TrimPrefix(did, prefix)
	if hash == "" {
		return "", coreerr.NewDetails(coreerr.KindInvalidDID, did)
	}
	return hash, nil
}

// VerificationMethod builds the full verification method identifier for a
// hash using the given key reference fragment (defaults to "keys-1").
func VerificationMethod(hash, keyRef string) string {
	if keyRef == "" {
		keyRef = DefaultKeyRef
	}
	return HashToDID(hash) + "#" + keyRef
}

// SignerHash extracts the signer's identity hash from a verification
// method of the form "did:one:sha256:<hash>#<key-ref>".
func SignerHash(verificationMethod string) (string, error) {
	did, _ := splitFragment(verificationMethod)
	return DIDToHash(did)
}

// splitFragment separates a DID URL into its DID and fragment parts.
func splitFragment(didURL string) (did, fragment string) {
	if idx := strings.Index(didURL, "#"); idx >= 0 {
		return didURL[:idx], didURL[idx+1:]
	}
	return didURL, ""
}

// DecodeMultikeyEd25519 decodes a multikey-encoded Ed25519 public key, as
// found in publicKeyMultibase entries of imported DID documents. The
// multicodec prefix for Ed25519 public keys is 0xed 0x01.
func DecodeMultikeyEd25519(multikey string) ([]byte, error) {
	_, decoded, err := multibase.Decode(multikey)
	if err != nil {
		return nil, coreerr.NewDetails(coreerr.KindInvalidDID, err.Error())
	}
	if len(decoded) != 34 || decoded[0] != 0xed || decoded[1] != 0x01 {
		return nil, coreerr.NewDetails(coreerr.KindInvalidDID, "not an Ed25519 multikey")
	}
	return decoded[2:], nil
}
