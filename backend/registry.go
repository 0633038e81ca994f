// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/g3d/internal/logx"
)

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	backends   = make(map[string]FactoryFunc)
	// Priority order for backend selection (first that opens wins).
	// Hardware HAL first, in-process reference device as the fallback.
	backendPriority = []string{BackendWGPU, BackendSoftware}
)

// Register registers a backend factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it will be replaced.
func Register(name string, open FactoryFunc) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = open
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Available returns the registered backend names, sorted.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[name]
	return ok
}

// Open opens the named backend.
func Open(name string) (gpucore.Factory, error) {
	registryMu.RLock()
	open, ok := backends[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotAvailable, name)
	}
	f, err := open()
	if err != nil {
		return nil, fmt.Errorf("backend %q: %w", name, err)
	}
	return f, nil
}

// OpenDefault opens the best available backend based on priority.
// Backends that fail to open are skipped with a warning; the error of the
// last failure is returned when none opens.
func OpenDefault() (gpucore.Factory, string, error) {
	registryMu.RLock()
	candidates := make([]string, 0, len(backends))
	for _, name := range backendPriority {
		if _, ok := backends[name]; ok {
			candidates = append(candidates, name)
		}
	}
	// Unprioritized backends come last, in name order.
	var rest []string
	for name := range backends {
		if !contains(backendPriority, name) {
			rest = append(rest, name)
		}
	}
	registryMu.RUnlock()

	sort.Strings(rest)
	candidates = append(candidates, rest...)

	lastErr := ErrBackendNotAvailable
	for _, name := range candidates {
		f, err := Open(name)
		if err != nil {
			logx.Logger().Warn("backend unavailable, trying next", "backend", name, "err", err)
			lastErr = err
			continue
		}
		return f, name, nil
	}
	return nil, "", lastErr
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
