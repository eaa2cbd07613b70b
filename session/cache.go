package session

import (
	"context"
	"errors"
	"sync"
)

// Cache is a flat key/value store. Implementations must be safe for
// concurrent use.
type Cache[S any] interface {
	Set(ctx context.Context, key string, val S) error
	Get(ctx context.Context, key string) (S, bool, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

type MemoryCache[S any] struct {
	mu sync.RWMutex
	m  map[string]S
}

func NewMemoryCache[S any]() *MemoryCache[S] {
	return &MemoryCache[S]{m: map[string]S{}}
}

func (m *MemoryCache[S]) Set(ctx context.Context, key string, val S) error {
	m.mu.Lock()
	m.m[key] = val
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache[S]) Get(ctx context.Context, key string) (S, bool, error) {
	m.mu.RLock()
	val, ok := m.m[key]
	m.mu.RUnlock()
	return val, ok, nil
}

func (m *MemoryCache[S]) Del(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.m, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache[S]) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	_, ok := m.m[key]
	m.mu.RUnlock()
	return ok, nil
}

// Namespaced wraps a Cache with a fixed namespace and a context-derived key,
// so several stores can share one backend without colliding.
type Namespaced[S any] struct {
	core      Cache[S]
	namespace string
	keyFn     func(ctx context.Context) (string, bool)
}

func NewNamespaced[S any](core Cache[S], namespace string, keyFn func(ctx context.Context) (string, bool)) Namespaced[S] {
	return Namespaced[S]{
		core:      core,
		namespace: namespace,
		keyFn:     keyFn,
	}
}

func (c Namespaced[S]) key(ctx context.Context) (string, bool) {
	key, exist := c.keyFn(ctx)
	if !exist {
		return "", false
	}
	return c.namespace + ":" + key, true
}

func (c Namespaced[S]) Set(ctx context.Context, val S) error {
	key, ok := c.key(ctx)
	if !ok {
		return errors.New("key not found")
	}
	return c.core.Set(ctx, key, val)
}

func (c Namespaced[S]) Get(ctx context.Context) (S, bool, error) {
	key, ok := c.key(ctx)
	if !ok {
		var zero S
		return zero, false, errors.New("key not found")
	}
	return c.core.Get(ctx, key)
}

func (c Namespaced[S]) Del(ctx context.Context) error {
	key, ok := c.key(ctx)
	if !ok {
		return errors.New("key not found")
	}
	return c.core.Del(ctx, key)
}

func (c Namespaced[S]) Exists(ctx context.Context) (bool, error) {
	key, ok := c.key(ctx)
	if !ok {
		return false, errors.New("key not found")
	}
	return c.core.Exists(ctx, key)
}
