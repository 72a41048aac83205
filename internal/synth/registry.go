package synth

import (
	"sort"
	"sync"
)

// Factory constructs a backend instance with the given options. Backend
// packages register their factory under their tag in init().
type Factory func(Options) Backend

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the factory for tag. It is typically
// called from backend packages' init() functions; importing
// internal/synth/all registers all built-in backends.
func Register(tag string, fn Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[tag] = fn
}

// New constructs a fresh backend for tag. Unknown tags fail with
// *UnsupportedBackendError listing the registered tags.
func New(tag string, opts Options) (Backend, error) {
	regMu.RLock()
	fn, ok := factories[tag]
	regMu.RUnlock()
	if !ok {
		return nil, &UnsupportedBackendError{Tag: tag, Known: Tags()}
	}
	return fn(opts), nil
}

// Tags returns the registered backend tags in sorted order.
func Tags() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	tags := make([]string, 0, len(factories))
	for tag := range factories {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
