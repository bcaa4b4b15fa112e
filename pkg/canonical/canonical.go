// Package canonical implements the deterministic serialization used both
// for signing certificates and for hashing them into content-addressed
// storage. It is a JSON Canonicalization Scheme (keys ordered
// lexicographically at every depth, no insignificant whitespace) rather
// than full RDF dataset canonicalization (URDNA2015); see DESIGN.md for
// why: certificates are plain JSON objects, not JSON-LD graphs, so RDFC-1.0
// normalization (as used for the W3C Data Integrity proofs the VC bridge
// imports) would be canonicalizing a representation we don't have.
package canonical

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/piprate/json-gold/ld"
)

// Marshal produces the canonical byte form of v: a JSON encoding with
// object keys sorted lexicographically at every depth and no
// insignificant whitespace. Fields named in elide are dropped from any
// top-level map before encoding (used to strip "signature"/"proof" prior
// to signing or hashing).
func Marshal(v any, elide ...string) ([]byte, error) {
	raw, err := toJSONValue(v)
	if err != nil {
		return nil, err
	}

	if m, ok := raw.(map[string]any); ok {
		for _, field := range elide {
			delete(m, field)
		}
	}

	var buf bytes.Buffer
	if err := encodeValue(&buf, raw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Hash returns the lowercase hex SHA-256 digest of the canonical form of v.
func Hash(v any, elide ...string) (string, error) {
	b, err := Marshal(v, elide...)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// toJSONValue round-trips v through encoding/json to obtain a plain
// map[string]any / []any / scalar tree, regardless of the concrete Go
// type of v (struct, map, pointer...).
func toJSONValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	d := json.NewDecoder(bytes.NewReader(b))
	d.UseNumber()
	if err := d.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// emptyContextLoader answers every remote @context dereference with an
// empty context document instead of fetching over the network. Expand
// then only checks the shape of the @context value itself (string,
// object, or array of either) rather than resolving and validating every
// term a well-known context defines, which is all ValidateContext
// promises to check.
type emptyContextLoader struct{}

func (emptyContextLoader) LoadDocument(u string) (*ld.RemoteDocument, error) {
	return &ld.RemoteDocument{
		DocumentURL: u,
		Document:    map[string]any{"@context": map[string]any{}},
	}, nil
}

// ValidateContext checks that an imported VC document's @context array
// expands without error under standard JSON-LD processing, without
// running full RDF dataset normalization (URDNA2015) or dereferencing any
// context IRI over the network. The canonical form above is what this
// module actually signs over; this is only a sanity check that an
// imported document's context isn't malformed JSON-LD before VCToCert
// extracts fields from it positionally.
func ValidateContext(contextValue any) error {
	proc := ld.NewJsonLdProcessor()
	opts := ld.NewJsonLdOptions("")
	opts.DocumentLoader = emptyContextLoader{}
	doc := map[string]any{"@context": contextValue}
	if _, err := proc.Expand(doc, opts); err != nil {
		return fmt.Errorf("canonical: invalid JSON-LD context: %w", err)
	}
	return nil
}

func encodeValue(buf *bytes.Buffer, v any) error {
	switch t := v.(type) {
	case nil:
		buf.WriteString("null")
		return nil
	case bool:
		if t {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case json.Number:
		buf.WriteString(t.String())
		return nil
	case string:
		enc, err := json.Marshal(t)
		if err != nil {
			return err
		}
		buf.Write(enc)
		return nil
	case []any:
		buf.WriteByte('[')
		for i, item := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeValue(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			keyEnc, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(keyEnc)
			buf.WriteByte(':')
			if err := encodeValue(buf, t[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	default:
		return fmt.Errorf("canonical: unsupported value type %T", v)
	}
}
