package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// hashKey builds a "<kind>:<sha256>" key from the JSON encoding of parts.
// KeyType relies on the kind prefix.
func hashKey(kind string, parts ...any) string {
	// Key inputs are strings, ints and flat structs, which always encode.
	data, _ := json.Marshal(parts)
	return kind + ":" + Hash(data)
}

// Hash returns the hex SHA-256 of data. FileCache names its entry files
// after the hash of the key.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
