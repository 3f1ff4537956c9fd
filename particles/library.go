package particles

import (
	"fmt"
	"sort"
	"sync"
)

// Library holds the effect assets known to the overlay by name. Assets may be
// replaced at runtime when their files change.
type Library struct {
	mu     sync.RWMutex
	assets map[string]*EffectAsset
}

func NewLibrary() *Library {
	return &Library{assets: make(map[string]*EffectAsset)}
}

// Put validates and stores asset under its name.
func (l *Library) Put(asset *EffectAsset) error {
	if err := asset.Validate(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.assets[asset.Name] = asset
	return nil
}

// Get returns the asset registered under name.
func (l *Library) Get(name string) (*EffectAsset, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	a, ok := l.assets[name]
	if !ok {
		return nil, fmt.Errorf("particles: unknown effect %q", name)
	}
	return a, nil
}

// Names returns the registered names in sorted order.
func (l *Library) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.assets))
	for name := range l.assets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
