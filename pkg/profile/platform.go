// Platform registration.

package profile

import (
	"sync"
)

// Info describes a platform adapter package. Each adapter registers itself
// via Register() in an init() function.
type Info interface {
	// Name returns the platform identifier.
	Name() Platform

	// Match returns true if the URL is a profile URL on this platform.
	Match(url string) bool

	// ValidUsername reports whether s is a syntactically valid handle.
	ValidUsername(s string) bool
}

var (
	registryMu sync.RWMutex
	registry   []Info
	byName     = make(map[Platform]Info)
)

// Register adds a platform to the global registry.
func Register(p Info) {
	registryMu.Lock()
	defer registryMu.Unlock()

	name := p.Name()
	if _, exists := byName[name]; exists {
		panic("platform already registered: " + string(name))
	}
	registry = append(registry, p)
	byName[name] = p
}

// Platforms returns all registered platforms in registration order.
func Platforms() []Info {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]Info, len(registry))
	copy(result, registry)
	return result
}

// Lookup returns the registered platform with the given name, or nil.
func Lookup(name Platform) Info {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return byName[name]
}

// MatchURL returns the first registered platform matching url, or nil.
func MatchURL(url string) Info {
	registryMu.RLock()
	defer registryMu.RUnlock()

	for _, p := range registry {
		if p.Match(url) {
			return p
		}
	}
	return nil
}
