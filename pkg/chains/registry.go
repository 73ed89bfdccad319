package chains

import (
	"fmt"
	"sort"
	"sync"

	"github.com/sigweihq/tipjar/pkg/types"
)

// Registry manages signing adapter factories per chain family
type Registry struct {
	factories map[types.Chain]AdapterFactory
	mu        sync.RWMutex
}

var (
	globalRegistry     *Registry
	globalRegistryOnce sync.Once
)

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[types.Chain]AdapterFactory),
	}
}

// InitGlobalRegistry initializes the global adapter registry
func InitGlobalRegistry() *Registry {
	globalRegistryOnce.Do(func() {
		globalRegistry = NewRegistry()
	})
	return globalRegistry
}

// GetGlobalRegistry returns the global adapter registry (returns nil if not initialized)
func GetGlobalRegistry() *Registry {
	return globalRegistry
}

// Register registers a factory for a chain family.
// If a factory already exists for the chain, it will be replaced (idempotent)
func (r *Registry) Register(chain types.Chain, factory AdapterFactory) error {
	if !chain.Valid() {
		return fmt.Errorf("unsupported chain: %q", chain)
	}
	if factory == nil {
		return fmt.Errorf("nil factory for chain %s", chain)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[chain] = factory
	return nil
}

// Get retrieves the factory for a chain family
func (r *Registry) Get(chain types.Chain) (AdapterFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.factories[chain]
	if !exists {
		return nil, fmt.Errorf("no adapter registered for chain: %s", chain)
	}

	return factory, nil
}

// GetSupportedChains returns all registered chain families in sorted order
func (r *Registry) GetSupportedChains() []types.Chain {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.Chain, 0, len(r.factories))
	for chain := range r.factories {
		out = append(out, chain)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// IsSupported checks if a chain family has a factory
func (r *Registry) IsSupported(chain types.Chain) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.factories[chain]
	return exists
}

// Unregister removes a factory (useful for testing)
func (r *Registry) Unregister(chain types.Chain) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.factories, chain)
}

// NewAdapter selects the adapter implementation for wallet.Chain once, at construction time
func (r *Registry) NewAdapter(wallet types.DestinationWallet, env Environment) (SigningAdapter, error) {
	factory, err := r.Get(wallet.Chain)
	if err != nil {
		return nil, err
	}
	adapter, err := factory(wallet, env)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s adapter: %w", wallet.Chain, err)
	}
	return adapter, nil
}

// ResetGlobalRegistry resets the global registry (useful for testing)
func ResetGlobalRegistry() {
	globalRegistry = nil
	globalRegistryOnce = sync.Once{}
}

// NewAdapter builds an adapter from the global registry
func NewAdapter(wallet types.DestinationWallet, env Environment) (SigningAdapter, error) {
	registry := GetGlobalRegistry()
	if registry == nil {
		return nil, fmt.Errorf("chain registry is not initialized")
	}
	return registry.NewAdapter(wallet, env)
}
