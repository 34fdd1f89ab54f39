package provider

import (
	"fmt"
	"sort"
	"sync"

	"swissjobs-utils/internal/config"
	"swissjobs-utils/internal/logging"
	"swissjobs-utils/internal/session"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Constructor)
)

// Register adds a provider constructor under a name. Providers call
// this from an init function; duplicate names panic at startup.
func Register(name string, ctor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("provider %q registered twice", name))
	}
	registry[name] = ctor
}

// New instantiates a registered provider by name.
func New(name string, cfg *config.Config, mode session.Mode, proxies *session.ProxyPool, logger logging.Logger) (Provider, error) {
	registryMu.RLock()
	ctor, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown provider %q (registered: %v)", name, Names())
	}
	return ctor(cfg, mode, proxies, logger)
}

// Names lists the registered provider names in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
