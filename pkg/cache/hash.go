package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// hashKey builds a namespaced cache key: "<prefix>:<sha256 of parts>". The
// keyers use it so that a package key ("pkg", source, fileID) and an artifact
// key ("artifact", trace hash, options) can never collide, and so keys stay
// fixed-length no matter how long a store path or URI is.
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(sum[:]))
}

// Hash returns the hex SHA-256 of data. The pipeline hashes rendered DOT text
// with it to key SVG artifacts by trace content.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
