package certificate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeriveStatus(t *testing.T) {
	now := time.Now().UnixMilli()

	valid := &Certificate{ValidFrom: now - 1000, ValidUntil: now + 1000}
	assert.Equal(t, StatusValid, DeriveStatus(valid, now))

	expired := &Certificate{ValidFrom: now - 2000, ValidUntil: now - 1000}
	assert.Equal(t, StatusExpired, DeriveStatus(expired, now))

	revoked := &Certificate{ValidUntil: now - 1, RevocationReason: "key compromised"}
	assert.Equal(t, StatusRevoked, DeriveStatus(revoked, now))

	suspended := &Certificate{Status: StatusSuspended, ValidUntil: now + 1000}
	assert.Equal(t, StatusSuspended, DeriveStatus(suspended, now))
}

func TestDeviceTrustClaimsRoundTrip(t *testing.T) {
	dc := DeviceTrustClaims{
		TrustLevel:         DeviceTrustFull,
		TrustReason:        "verified in person",
		VerificationMethod: "qr",
		Permissions:        map[string]bool{"sync": true, "admin": false},
	}

	claims := NewDeviceTrustClaims(dc)
	got := ParseDeviceTrustClaims(claims)

	assert.Equal(t, dc.TrustLevel, got.TrustLevel)
	assert.Equal(t, dc.TrustReason, got.TrustReason)
	assert.Equal(t, dc.VerificationMethod, got.VerificationMethod)
	assert.Equal(t, dc.Permissions, got.Permissions)
}

func TestIsRoot(t *testing.T) {
	root := &Certificate{Kind: KindIdentity, ChainDepth: 0, Issuer: "h", Subject: "h"}
	assert.True(t, root.IsRoot())

	leaf := &Certificate{Kind: KindIdentity, ChainDepth: 1, Issuer: "h", Subject: "h2"}
	assert.False(t, leaf.IsRoot())
}
