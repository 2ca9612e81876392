package core

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// HashData computes a stable sha256 hash of a string map such as ConfigMap or Secret data.
// Keys are sorted and joined as key\u0000value pairs so map iteration order never matters.
func HashData(data map[string]string) string {
	if len(data) == 0 {
		return ""
	}
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	b := strings.Builder{}
	for _, k := range keys {
		b.WriteString(k)
		b.WriteRune('\u0000')
		b.WriteString(data[k])
		b.WriteRune('\n')
	}
	return HashBytes([]byte(b.String()))
}

// HashBytes returns the hex sha256 digest of raw.
func HashBytes(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// HashObject hashes the JSON encoding of v. encoding/json sorts map keys,
// so equal values always produce equal digests.
func HashObject(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("hash object: %w", err)
	}
	return HashBytes(raw), nil
}
