package com

import (
	"errors"
	"sync"
)

// Map defines a concurrent-safe map structure.
type Map[K comparable, V any] struct {
	m  map[K]V
	mu sync.Mutex
}

var ErrNotFound = errors.New("not found")

func NewMap[K comparable, V any]() *Map[K, V] { return &Map[K, V]{m: make(map[K]V, 10)} }

func (m *Map[K, _]) Has(key K) bool    { _, err := m.Find(key); return err == nil }
func (m *Map[_, _]) Len() int          { m.mu.Lock(); defer m.mu.Unlock(); return len(m.m) }
func (m *Map[_, _]) IsEmpty() bool     { return m.Len() == 0 }
func (m *Map[K, V]) Put(key K, v V)    { m.mu.Lock(); m.m[key] = v; m.mu.Unlock() }
func (m *Map[K, _]) RemoveByKey(key K) { m.mu.Lock(); delete(m.m, key); m.mu.Unlock() }

// Pop removes the value from the map and returns it.
func (m *Map[K, V]) Pop(key K) (v V, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok = m.m[key]; ok {
		delete(m.m, key)
	}
	return
}

// Find searches for the first match by a specified key value,
// returns ErrNotFound otherwise.
func (m *Map[K, V]) Find(key K) (v V, err error) {
	var empty K
	if key == empty {
		return v, ErrNotFound
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.m[key]; ok {
		return c, nil
	}
	return v, ErrNotFound
}

// ForEach processes every element with the provided callback function.
// The map is locked for the whole iteration.
func (m *Map[K, V]) ForEach(fn func(v V)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.m {
		fn(v)
	}
}
