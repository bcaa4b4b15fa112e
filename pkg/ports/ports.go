// Package ports declares the narrow external collaborator interfaces the
// core depends on but never implements: the signing keychain, the
// content-addressed object store, and the peer transport. Each is kept
// small and capability-oriented rather than one fat interface per
// collaborator.
package ports

import "context"

// Keychain signs and verifies on behalf of identities without ever
// disclosing private key material to the core.
type Keychain interface {
	// Sign signs data on behalf of identity and returns the raw signature.
	Sign(ctx context.Context, identity string, data []byte) (signature []byte, err error)

	// Verify checks a signature against data using the given hex-encoded
	// Ed25519 public key.
	Verify(ctx context.Context, publicKeyHex string, data, signature []byte) error

	// PublicKey returns the hex-encoded current public key for identity.
	PublicKey(ctx context.Context, identity string) (publicKeyHex string, err error)

	// Encrypt encrypts plaintext for the holder of publicKeyHex.
	Encrypt(ctx context.Context, publicKeyHex string, plaintext []byte) ([]byte, error)

	// Decrypt decrypts ciphertext addressed to identity.
	Decrypt(ctx context.Context, identity string, ciphertext []byte) ([]byte, error)

	// RandomNonce returns a cryptographically random nonce of size bytes.
	RandomNonce(ctx context.Context, size int) ([]byte, error)
}

// VersionedObject is one stored version of a versioned entity.
type VersionedObject struct {
	Version int
	Hash    string
	Object  []byte
}

// ObjectStore is the content-addressed, versioned object store. The core
// holds no mutable global state beyond bounded caches; this is the single
// source of truth.
type ObjectStore interface {
	// Store persists obj as the given version of (kind, id) and returns
	// its content hash. Persistence is atomic per object.
	Store(ctx context.Context, kind, id string, version int, obj []byte) (hash string, err error)

	// Load retrieves a previously stored object by its content hash.
	Load(ctx context.Context, hash string) (obj []byte, err error)

	// LatestVersion returns the highest stored version of (kind, id).
	LatestVersion(ctx context.Context, kind, id string) (version int, obj []byte, err error)

	// Versions returns every stored version of (kind, id) in increasing
	// version order.
	Versions(ctx context.Context, kind, id string) ([]VersionedObject, error)

	// ReverseLookup returns the ids of (kind) objects whose indexKey field
	// equals indexValue (e.g. TrustRelationship by peer).
	ReverseLookup(ctx context.Context, kind, indexKey, indexValue string) (ids []string, err error)
}

// PeerTransport delivers new object versions to connected peers.
type PeerTransport interface {
	// Publish hands a new object version to the transport for delivery.
	// Revocations are published with urgent=true.
	Publish(ctx context.Context, kind, id string, version int, obj []byte, urgent bool) error

	// Connected reports whether the transport currently has a live peer
	// connection.
	Connected(ctx context.Context) bool
}
