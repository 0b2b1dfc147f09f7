// Package cache provides the layered artifact cache used to skip repeat
// agent invocations for deterministic stages.
package cache

import (
	"strings"
	"time"

	"github.com/ppiankov/veridraft/internal/gate"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// StageKey generates a cache key for one stage invocation from the stage
// name and its input material. Keys are content-addressed, so the same
// stage over the same input always hits the same entry.
func StageKey(stage string, parts ...string) string {
	material := stage + "\x00" + strings.Join(parts, "\x00")
	return "veridraft:v1:" + gate.ContentHash(material)
}
