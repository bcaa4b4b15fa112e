// Package certificate defines the typed certificate model, its validity
// arithmetic, and the derivation of its status from time and explicit
// revocation state.
package certificate

// Kind discriminates the certificate variants. It is a tagged-union
// discriminator, not a type hierarchy: device-trust certificates are a
// structural subset of Certificate distinguished by Kind and the shape of
// Claims, not a subclass.
type Kind string

const (
	KindIdentity    Kind = "identity"
	KindDevice      Kind = "device"
	KindService     Kind = "service"
	KindAttestation Kind = "attestation"
	KindDelegation  Kind = "delegation"
	KindRevocation  Kind = "revocation"
)

// Status is the derived lifecycle state of a certificate.
type Status string

const (
	StatusValid     Status = "valid"
	StatusExpired   Status = "expired"
	StatusRevoked   Status = "revoked"
	StatusSuspended Status = "suspended"
)

// Certificate is a signed, versioned attestation linking an issuer to a
// subject's public key with validity and claims.
type Certificate struct {
	ID       string `json:"id"`
	Kind     Kind   `json:"kind"`
	Status   Status `json:"status"`
	Subject  string `json:"subject"`

	SubjectPublicKey string `json:"subject_public_key"`

	Issuer          string `json:"issuer"`
	IssuerPublicKey string `json:"issuer_public_key"`

	ValidFrom  int64 `json:"valid_from"`
	ValidUntil int64 `json:"valid_until"`

	IssuedBy   string `json:"issued_by,omitempty"`
	ChainDepth int    `json:"chain_depth"`

	Claims map[string]any `json:"claims"`

	IssuedAt     int64  `json:"issued_at"`
	SerialNumber string `json:"serial_number"`
	Version      int    `json:"version"`

	// RevocationReason is set only once Status == StatusRevoked.
	RevocationReason string `json:"revocation_reason,omitempty"`

	Signature string `json:"signature,omitempty"`
}

// IsRoot reports whether c is a self-signed trust anchor.
func (c *Certificate) IsRoot() bool {
	return c.Kind == KindIdentity && c.ChainDepth == 0 && c.Issuer == c.Subject
}

// DeviceTrustLevel is the trust_level claim of a device-trust certificate.
type DeviceTrustLevel string

const (
	DeviceTrustFull      DeviceTrustLevel = "full"
	DeviceTrustLimited   DeviceTrustLevel = "limited"
	DeviceTrustTemporary DeviceTrustLevel = "temporary"
)

// DeviceTrustClaims is the canonical claim shape of a Kind == KindDevice
// certificate.
type DeviceTrustClaims struct {
	TrustLevel         DeviceTrustLevel  `json:"trust_level"`
	TrustReason        string            `json:"trust_reason,omitempty"`
	VerificationMethod string            `json:"verification_method,omitempty"`
	Permissions        map[string]bool   `json:"permissions,omitempty"`
}

// NewDeviceTrustClaims builds the opaque claims map for a device-trust
// certificate.
func NewDeviceTrustClaims(dc DeviceTrustClaims) map[string]any {
	m := map[string]any{
		"trust_level": string(dc.TrustLevel),
	}
	if dc.TrustReason != "" {
		m["trust_reason"] = dc.TrustReason
	}
	if dc.VerificationMethod != "" {
		m["verification_method"] = dc.VerificationMethod
	}
	if dc.Permissions != nil {
		perms := make(map[string]any, len(dc.Permissions))
		for k, v := range dc.Permissions {
			perms[k] = v
		}
		m["permissions"] = perms
	}
	return m
}

// ParseDeviceTrustClaims projects the opaque claims map of a device
// certificate back to a typed DeviceTrustClaims value.
func ParseDeviceTrustClaims(claims map[string]any) DeviceTrustClaims {
	dc := DeviceTrustClaims{}
	if v, ok := claims["trust_level"].(string); ok {
		dc.TrustLevel = DeviceTrustLevel(v)
	}
	if v, ok := claims["trust_reason"].(string); ok {
		dc.TrustReason = v
	}
	if v, ok := claims["verification_method"].(string); ok {
		dc.VerificationMethod = v
	}
	if v, ok := claims["permissions"].(map[string]any); ok {
		perms := make(map[string]bool, len(v))
		for k, raw := range v {
			if b, ok := raw.(bool); ok {
				perms[k] = b
			}
		}
		dc.Permissions = perms
	}
	return dc
}

// DeriveStatus computes a certificate's effective status from its
// explicit fields and the current time, expressed in milliseconds since
// epoch.
func DeriveStatus(c *Certificate, nowMS int64) Status {
	if c.Status == StatusSuspended {
		return StatusSuspended
	}
	if c.RevocationReason != "" || (c.ValidUntil < nowMS && c.Status == StatusRevoked) {
		return StatusRevoked
	}
	if c.ValidUntil < nowMS {
		return StatusExpired
	}
	return StatusValid
}
