package planner

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// CollisionResolver tracks destinations claimed within one batch. Under the
// separate policy "clip.mkv" and "clip.avi" in the same directory both map to
// "clip.mp4"; the second claimant gets "clip - dup1.mp4".
type CollisionResolver struct {
	mu       sync.Mutex
	owners   map[string]string // destination → source that owns it
	counters map[string]int    // base destination → next dup counter
}

// NewCollisionResolver creates a ready-to-use resolver.
func NewCollisionResolver() *CollisionResolver {
	return &CollisionResolver{
		owners:   make(map[string]string),
		counters: make(map[string]int),
	}
}

// Resolve returns the final destination for source. An unclaimed (or
// self-owned) destination is returned as-is.
func (cr *CollisionResolver) Resolve(source, destination string) string {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	if owner, ok := cr.owners[destination]; !ok || owner == source {
		cr.owners[destination] = source
		return destination
	}

	dir := filepath.Dir(destination)
	base := filepath.Base(destination)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	n := max(cr.counters[destination], 1)
	for {
		candidate := filepath.Join(dir, fmt.Sprintf("%s - dup%d%s", stem, n, ext))
		if owner, ok := cr.owners[candidate]; !ok || owner == source {
			cr.counters[destination] = n + 1
			cr.owners[candidate] = source
			return candidate
		}
		n++
	}
}
