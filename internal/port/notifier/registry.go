package notifier

import (
	"fmt"
	"sort"
	"sync"
)

// Factory builds a Notifier from provider-specific configuration, e.g.
// {"webhook_url": ...} for webhook providers.
type Factory func(config map[string]string) (Notifier, error)

var (
	mu        sync.RWMutex
	providers = make(map[string]Factory)
)

// Register adds a provider factory under the given name. Adapters call
// this from init(), so a duplicate name is a programming error.
func Register(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, dup := providers[name]; dup {
		panic(fmt.Sprintf("notifier: provider %q registered twice", name))
	}
	providers[name] = factory
}

// New builds the named provider from its configuration.
func New(name string, config map[string]string) (Notifier, error) {
	mu.RLock()
	factory, ok := providers[name]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("notifier: unknown provider %q (have %v)", name, Available())
	}
	return factory(config)
}

// Available lists the registered provider names in stable order.
func Available() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
