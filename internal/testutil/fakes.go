// Package testutil holds in-memory fake implementations of pkg/ports,
// hand-rolled fixtures rather than a mocking framework.
package testutil

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"

	"github.com/juergengeck/trust.core/pkg/coreerr"
	"github.com/juergengeck/trust.core/pkg/ports"
)

// FakeKeychain is an in-memory Keychain backed by real Ed25519 keys, one
// generated lazily per identity on first use.
type FakeKeychain struct {
	mu   sync.Mutex
	keys map[string]ed25519.PrivateKey
}

// NewFakeKeychain creates an empty FakeKeychain.
func NewFakeKeychain() *FakeKeychain {
	return &FakeKeychain{keys: make(map[string]ed25519.PrivateKey)}
}

// Ensure generates (or returns the existing) key pair for identity and
// returns its hex-encoded public key, for tests that need to seed keys
// ahead of a Keychain.PublicKey call.
func (k *FakeKeychain) Ensure(identity string) string {
	return hex.EncodeToString(k.keyFor(identity).Public().(ed25519.PublicKey))
}

func (k *FakeKeychain) keyFor(identity string) ed25519.PrivateKey {
	k.mu.Lock()
	defer k.mu.Unlock()
	priv, ok := k.keys[identity]
	if !ok {
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			panic(err)
		}
		k.keys[identity] = priv
		return priv
	}
	return priv
}

func (k *FakeKeychain) Sign(ctx context.Context, identity string, data []byte) ([]byte, error) {
	priv := k.keyFor(identity)
	return ed25519.Sign(priv, data), nil
}

func (k *FakeKeychain) Verify(ctx context.Context, publicKeyHex string, data, signature []byte) error {
	pub, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return coreerr.New(coreerr.KindBadSignature)
	}
	if !ed25519.Verify(ed25519.PublicKey(pub), data, signature) {
		return coreerr.New(coreerr.KindBadSignature)
	}
	return nil
}

func (k *FakeKeychain) PublicKey(ctx context.Context, identity string) (string, error) {
	return hex.EncodeToString(k.keyFor(identity).Public().(ed25519.PublicKey)), nil
}

func (k *FakeKeychain) Encrypt(ctx context.Context, publicKeyHex string, plaintext []byte) ([]byte, error) {
	return append([]byte(nil), plaintext...), nil
}

func (k *FakeKeychain) Decrypt(ctx context.Context, identity string, ciphertext []byte) ([]byte, error) {
	return append([]byte(nil), ciphertext...), nil
}

func (k *FakeKeychain) RandomNonce(ctx context.Context, size int) ([]byte, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

var _ ports.Keychain = (*FakeKeychain)(nil)

// FakeObjectStore is an in-memory, versioned, content-addressed
// ObjectStore with reverse indexing over whichever top-level JSON fields
// tests ask it to index.
type FakeObjectStore struct {
	mu sync.Mutex

	// versions[kind][id] -> ordered slice of stored objects by version.
	versions map[string]map[string][]ports.VersionedObject
	// byHash[hash] -> raw object, for content-addressed Load.
	byHash map[string][]byte
}

// NewFakeObjectStore creates an empty FakeObjectStore.
func NewFakeObjectStore() *FakeObjectStore {
	return &FakeObjectStore{
		versions: make(map[string]map[string][]ports.VersionedObject),
		byHash:   make(map[string][]byte),
	}
}

func (s *FakeObjectStore) Store(ctx context.Context, kind, id string, version int, obj []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hash := fmt.Sprintf("%s:%s:%d:%x", kind, id, version, hashBytes(obj))
	s.byHash[hash] = append([]byte(nil), obj...)

	if s.versions[kind] == nil {
		s.versions[kind] = make(map[string][]ports.VersionedObject)
	}
	s.versions[kind][id] = append(s.versions[kind][id], ports.VersionedObject{
		Version: version,
		Hash:    hash,
		Object:  obj,
	})
	sort.Slice(s.versions[kind][id], func(i, j int) bool {
		return s.versions[kind][id][i].Version < s.versions[kind][id][j].Version
	})

	return hash, nil
}

func (s *FakeObjectStore) Load(ctx context.Context, hash string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.byHash[hash]
	if !ok {
		return nil, coreerr.New(coreerr.KindNotFound)
	}
	return obj, nil
}

func (s *FakeObjectStore) LatestVersion(ctx context.Context, kind, id string) (int, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vs := s.versions[kind][id]
	if len(vs) == 0 {
		return 0, nil, coreerr.New(coreerr.KindNotFound)
	}
	last := vs[len(vs)-1]
	return last.Version, last.Object, nil
}

func (s *FakeObjectStore) Versions(ctx context.Context, kind, id string) ([]ports.VersionedObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vs := s.versions[kind][id]
	out := make([]ports.VersionedObject, len(vs))
	copy(out, vs)
	return out, nil
}

func (s *FakeObjectStore) ReverseLookup(ctx context.Context, kind, indexKey, indexValue string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for id, vs := range s.versions[kind] {
		if len(vs) == 0 {
			continue
		}
		latest := vs[len(vs)-1].Object
		if jsonFieldEquals(latest, indexKey, indexValue) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

var _ ports.ObjectStore = (*FakeObjectStore)(nil)

// FakePeerTransport is an in-memory PeerTransport recording every publish
// call; Online toggles Connected for tests exercising the offline path.
type FakePeerTransport struct {
	mu       sync.Mutex
	Online   bool
	Published []PublishedObject
}

// PublishedObject is one recorded Publish call.
type PublishedObject struct {
	Kind    string
	ID      string
	Version int
	Object  []byte
	Urgent  bool
}

// NewFakePeerTransport creates a FakePeerTransport that starts online.
func NewFakePeerTransport() *FakePeerTransport {
	return &FakePeerTransport{Online: true}
}

func (t *FakePeerTransport) Publish(ctx context.Context, kind, id string, version int, obj []byte, urgent bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.Online {
		return coreerr.New(coreerr.KindTransportOffline)
	}
	t.Published = append(t.Published, PublishedObject{Kind: kind, ID: id, Version: version, Object: obj, Urgent: urgent})
	return nil
}

func (t *FakePeerTransport) Connected(ctx context.Context) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.Online
}

var _ ports.PeerTransport = (*FakePeerTransport)(nil)
