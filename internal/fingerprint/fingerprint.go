// Package fingerprint produces stable, fixed-length identifiers for
// arbitrary values. Content fingerprints hash an artifact's serialized
// definition; input fingerprints hash a test's input payload. Both are
// insensitive to incidental formatting: map key order, struct field order,
// and surrounding whitespace never change the result.
//
// Hashing is 64-bit and non-cryptographic. The threat model is accidental
// collision between unrelated inputs, not adversarial forgery.
package fingerprint

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/mitchellh/hashstructure/v2"
)

// Value hashes an arbitrary Go value, independent of map iteration order
// and struct field declaration order.
func Value(v any) (string, error) {
	sum, err := hashstructure.Hash(v, hashstructure.FormatV2, &hashstructure.HashOptions{
		Hasher: xxhash.New(),
	})
	if err != nil {
		return "", fmt.Errorf("hash value: %w", err)
	}
	return format(sum), nil
}

// JSON hashes a raw JSON document by structure rather than by bytes, so two
// encodings of the same document (different key order, different whitespace)
// fingerprint identically. Input that does not parse as JSON is hashed as a
// whitespace-trimmed string instead of failing, since callers may pass
// opaque payloads.
func JSON(raw []byte) (string, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return String(strings.TrimSpace(string(raw))), nil
	}
	return Value(v)
}

// String hashes a string directly. The caller is responsible for canonical
// form; prefer Value or JSON for structured input.
func String(s string) string {
	return format(xxhash.Sum64String(s))
}

// format renders a 64-bit sum as a fixed-width hex identifier.
func format(sum uint64) string {
	return fmt.Sprintf("%016x", sum)
}
