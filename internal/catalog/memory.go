package catalog

import (
	"context"
	"fmt"
	"os"
	"sync"
)

// MemoryProvider serves a catalog held in memory. Used by tests and when
// the service boots from a catalog file.
type MemoryProvider struct {
	mu      sync.RWMutex
	items   map[string]MenuItem
	bundles map[string]BundleOffer
}

// NewMemoryProvider indexes a catalog snapshot by name.
func NewMemoryProvider(c *Catalog) *MemoryProvider {
	p := &MemoryProvider{
		items:   make(map[string]MenuItem),
		bundles: make(map[string]BundleOffer),
	}
	if c != nil {
		p.Replace(c)
	}
	return p
}

// LoadFile reads and decodes a catalog document from disk.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file %s: %w", path, err)
	}
	return DecodeCatalog(data)
}

// Replace swaps the whole snapshot.
func (p *MemoryProvider) Replace(c *Catalog) {
	items := make(map[string]MenuItem, len(c.Items))
	for _, it := range c.Items {
		items[it.Name] = it
	}
	bundles := make(map[string]BundleOffer, len(c.Bundles))
	for _, b := range c.Bundles {
		bundles[b.Name] = b
	}

	p.mu.Lock()
	p.items = items
	p.bundles = bundles
	p.mu.Unlock()
}

// Remove drops an item, e.g. when it is taken off the menu.
func (p *MemoryProvider) Remove(name string) {
	p.mu.Lock()
	delete(p.items, name)
	delete(p.bundles, name)
	p.mu.Unlock()
}

// GetItem returns a copy of the named item.
func (p *MemoryProvider) GetItem(ctx context.Context, name string) (*MenuItem, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	it, ok := p.items[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, name)
	}
	return &it, nil
}

// GetBundle returns a copy of the named bundle.
func (p *MemoryProvider) GetBundle(ctx context.Context, name string) (*BundleOffer, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	b, ok := p.bundles[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBundleNotFound, name)
	}
	return &b, nil
}
