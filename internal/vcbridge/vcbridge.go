// Package vcbridge implements the bidirectional Certificate <-> Verifiable
// Credential conversion: cert_to_vc, vc_to_cert, and the JSON-LD document
// shape they produce/consume. The W3C VC data model shape (@context,
// type, credentialSubject, proof) is kept, but graph canonicalization is
// traded for a simpler structural round trip (see DESIGN.md).
package vcbridge

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/juergengeck/trust.core/pkg/certificate"
	"github.com/juergengeck/trust.core/pkg/coreerr"
	"github.com/juergengeck/trust.core/pkg/didcodec"
	"github.com/juergengeck/trust.core/pkg/proof"
)

// ContextCredentialsV1 and ContextEd25519Suite2020 are the two fixed
// context URIs every credential emitted by this bridge carries.
const (
	ContextCredentialsV1    = "https://www.w3.org/2018/credentials/v1"
	ContextEd25519Suite2020 = "https://w3id.org/security/suites/ed25519-2020/v1"

	// TypeVerifiableCredential is the base type every credential carries.
	TypeVerifiableCredential = "VerifiableCredential"
)

// Issuer is the VC issuer block, always an object: the issuer DID as id,
// plus name when the certificate carries a name claim.
type Issuer struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Subject is the VC credentialSubject block: required id/publicKey plus
// whatever kind-specific claims the certificate carried.
type Subject struct {
	ID        string
	PublicKey string
	Claims    map[string]any
}

// metadata is the private extension riding along with a VerifiableCredential.
// Only Version belongs to the public wire contract; ChainDepth/IssuedBy/
// SerialNumber/ValidFrom are implementation-private fields this bridge adds
// so a round trip through the bridge stays lossless even though those
// fields have no home in the public wire form (IssuanceDate only carries
// issued_at, which isn't always equal to valid_from, e.g. after reduce).
// Sanitize strips them before a document leaves the instance; see
// DESIGN.md for the reasoning.
type metadata struct {
	Version      int    `json:"version"`
	ChainDepth   int    `json:"chain_depth,omitempty"`
	IssuedBy     string `json:"issued_by,omitempty"`
	SerialNumber string `json:"serial_number,omitempty"`
	ValidFrom    int64  `json:"valid_from,omitempty"`
}

// Sanitize returns a copy of vc with implementation-private metadata
// fields stripped, leaving only the version field the public wire
// contract recognizes. Use before handing a document to an external
// channel (QR code, email, download, web endpoint); internal round trips
// and internal sync should use the full form.
func (vc *VerifiableCredential) Sanitize() *VerifiableCredential {
	out := *vc
	if vc.Metadata != nil {
		m := metadata{Version: vc.Metadata.Version}
		out.Metadata = &m
	}
	return &out
}

// VerifiableCredential is the JSON-LD document shape this bridge
// produces and consumes.
type VerifiableCredential struct {
	Context           []string       `json:"@context"`
	ID                string         `json:"id"`
	Type              []string       `json:"type"`
	Issuer            Issuer         `json:"issuer"`
	IssuanceDate      string         `json:"issuanceDate"`
	ExpirationDate    string         `json:"expirationDate"`
	CredentialSubject map[string]any `json:"credentialSubject"`
	Proof             *proof.Proof   `json:"proof,omitempty"`
	CredentialStatus  any            `json:"credentialStatus,omitempty"`
	Metadata          *metadata      `json:"_metadata,omitempty"`
}

// IDPrefix is the URN prefix used for VC ids minted from certificate ids.
const IDPrefix = "urn:one:cert:"

// kindCredentialTag maps a certificate Kind to its VC type tag. Device
// trust certificates get "DeviceTrustCredential" rather than the
// mechanical "DeviceCertificate".
func kindCredentialTag(k certificate.Kind) string {
	if k == certificate.KindDevice {
		return "DeviceTrustCredential"
	}
	return titleCase(string(k)) + "Certificate"
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// credentialTagToKind is the inverse of kindCredentialTag, used by
// VCToCert to recover Kind from the VC's type array.
func credentialTagToKind(tag string) certificate.Kind {
	if tag == "DeviceTrustCredential" {
		return certificate.KindDevice
	}
	lower := strings.ToLower(tag)
	lower = strings.TrimSuffix(lower, "certificate")
	if lower == "" {
		return certificate.KindIdentity
	}
	return certificate.Kind(lower)
}

// CertToVC converts a Certificate into its Verifiable Credential form.
func CertToVC(c *certificate.Certificate) (*VerifiableCredential, error) {
	issuerDID := didcodec.HashToDID(c.Issuer)
	subjectDID := didcodec.HashToDID(c.Subject)

	subj := map[string]any{
		"id":        subjectDID,
		"publicKey": c.SubjectPublicKey,
	}
	for k, v := range c.Claims {
		subj[k] = v
	}

	vc := &VerifiableCredential{
		Context: []string{ContextCredentialsV1, ContextEd25519Suite2020},
		ID:      IDPrefix + c.ID,
		Type:    []string{TypeVerifiableCredential, kindCredentialTag(c.Kind)},
		Issuer:  Issuer{ID: issuerDID},
		IssuanceDate:      msToISO8601(c.IssuedAt),
		ExpirationDate:    msToISO8601(c.ValidUntil),
		CredentialSubject: subj,
		Metadata: &metadata{
			Version:      c.Version,
			ChainDepth:   c.ChainDepth,
			IssuedBy:     c.IssuedBy,
			SerialNumber: c.SerialNumber,
			ValidFrom:    c.ValidFrom,
		},
	}

	if name, ok := c.Claims["name"].(string); ok {
		vc.Issuer.Name = name
	}

	if c.Signature != "" {
		sigBytes, err := hex.DecodeString(c.Signature)
		if err != nil {
			return nil, coreerr.NewDetails(coreerr.KindSigningFailure, err.Error())
		}
		issuedAt := time.UnixMilli(c.IssuedAt).UTC()
		p, err := proof.NativeToW3C(sigBytes, issuerDID+"#"+didcodec.DefaultKeyRef, issuedAt)
		if err != nil {
			return nil, err
		}
		vc.Proof = p
	}

	return vc, nil
}

// KeyResolver looks up a known current public key for an issuer identity
// hash, since a VC never carries the issuer's public key directly.
// Returns ("", nil) when unknown.
type KeyResolver func(issuerHash string) (publicKeyHex string, err error)

// VCToCert converts a VerifiableCredential back into a Certificate.
// resolver may be nil, in which case IssuerPublicKey is left empty and
// the certificate stays unverified until resolved.
func VCToCert(vc *VerifiableCredential, resolver KeyResolver) (*certificate.Certificate, error) {
	kind := certificate.KindIdentity
	for _, t := range vc.Type {
		if t == TypeVerifiableCredential {
			continue
		}
		kind = credentialTagToKind(t)
		break
	}

	issuerHash, err := didcodec.DIDToHash(vc.Issuer.ID)
	if err != nil {
		return nil, err
	}

	subjDID, _ := vc.CredentialSubject["id"].(string)
	subjectHash, err := didcodec.DIDToHash(subjDID)
	if err != nil {
		return nil, err
	}

	sig, err := proof.W3CToNative(vc.Proof)
	if err != nil {
		return nil, err
	}

	issuedAt, err := iso8601ToMS(vc.IssuanceDate)
	if err != nil {
		return nil, coreerr.NewDetails(coreerr.KindInvalidDuration, err.Error())
	}
	validUntil, err := iso8601ToMS(vc.ExpirationDate)
	if err != nil {
		return nil, coreerr.NewDetails(coreerr.KindInvalidDuration, err.Error())
	}

	claims := make(map[string]any, len(vc.CredentialSubject))
	for k, v := range vc.CredentialSubject {
		if k == "id" || k == "publicKey" {
			continue
		}
		claims[k] = v
	}

	version := 1
	chainDepth := 1
	validFrom := issuedAt
	var issuedBy, serialNumber string
	if vc.Metadata != nil {
		if vc.Metadata.Version > 0 {
			version = vc.Metadata.Version
		}
		chainDepth = vc.Metadata.ChainDepth
		issuedBy = vc.Metadata.IssuedBy
		serialNumber = vc.Metadata.SerialNumber
		if vc.Metadata.ValidFrom > 0 {
			validFrom = vc.Metadata.ValidFrom
		}
	}

	c := &certificate.Certificate{
		ID:               strings.TrimPrefix(vc.ID, IDPrefix),
		Kind:             kind,
		Status:           certificate.StatusValid,
		Subject:          subjectHash,
		SubjectPublicKey: toString(vc.CredentialSubject["publicKey"]),
		Issuer:           issuerHash,
		ValidFrom:        validFrom,
		ValidUntil:       validUntil,
		IssuedBy:         issuedBy,
		ChainDepth:       chainDepth,
		Claims:           claims,
		IssuedAt:         issuedAt,
		SerialNumber:     serialNumber,
		Version:          version,
		Signature:        hex.EncodeToString(sig),
	}

	if c.Subject == c.Issuer && vc.Metadata == nil {
		c.ChainDepth = 0
	}

	if resolver != nil {
		if pub, err := resolver(issuerHash); err == nil && pub != "" {
			c.IssuerPublicKey = pub
		}
	}

	return c, nil
}

func toString(v any) string {
	s, _ := v.(string)
	return s
}

func msToISO8601(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

func iso8601ToMS(s string) (int64, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0, err
	}
	return t.UnixMilli(), nil
}
