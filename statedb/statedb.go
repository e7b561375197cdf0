// Package statedb implements the versioned key/value store with stackable
// in-memory write layers described in spec §4.2: new_layer/put/delete/get,
// get_by_prefix, solidify_layer (FIFO, bottom-first), and discard_layers.
package statedb

import (
	"sync"

	"github.com/opentron/opentron-sub001/types"
)

// StateDB is a write-through key/value store fronted by a stack of overlay
// layers (spec §4.2). The persistent tail is a PersistentStore; overlays are
// speculative and only become durable via SolidifyLayer.
type StateDB struct {
	mu      sync.RWMutex
	store   *PersistentStore
	layers  []*Overlay // layers[0] is the oldest (bottom); last is the top
}

// New wraps an already-open PersistentStore.
func New(store *PersistentStore) *StateDB {
	return &StateDB{store: store}
}

// NewLayer pushes an empty overlay onto the top of the stack (spec §4.2).
func (s *StateDB) NewLayer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layers = append(s.layers, newOverlay())
}

// top returns the current top overlay, creating one if the stack is empty.
// Callers must hold s.mu.
func (s *StateDB) top() *Overlay {
	if len(s.layers) == 0 {
		s.layers = append(s.layers, newOverlay())
	}
	return s.layers[len(s.layers)-1]
}

// Put writes key/value into the top overlay (spec §4.2).
func (s *StateDB) Put(col Column, key, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.top().Put(namespace(col, key), value)
}

// Delete writes a tombstone for key into the top overlay (spec §4.2).
func (s *StateDB) Delete(col Column, key []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.top().Delete(namespace(col, key))
}

// Get walks layers top-down, returning the first overlay's value for key; a
// tombstone short-circuits to (nil, false, nil) without falling through to
// older layers or the persistent store (spec §4.2).
func (s *StateDB) Get(col Column, key []byte) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	nsKey := namespace(col, key)

	for i := len(s.layers) - 1; i >= 0; i-- {
		if entry, ok := s.layers[i].Get(nsKey); ok {
			if entry.Tombstone {
				return nil, false, nil
			}
			return entry.Value, true, nil
		}
	}
	return s.store.Get(nsKey)
}

// prefixEntry is one (key, value) pair surfaced by GetByPrefix, with the
// column prefix already stripped off the key.
type prefixEntry struct {
	Key   []byte
	Value []byte
}

// GetByPrefix returns every live (non-tombstoned) key/value pair whose key
// (within col) has the given prefix, honoring overlay shadowing: a key
// touched by any layer is resolved exactly once, using the topmost layer
// that mentions it (spec §4.2).
func (s *StateDB) GetByPrefix(col Column, prefix []byte) ([]prefixEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nsPrefix := namespace(col, prefix)
	seen := make(map[string]struct{})
	var results []prefixEntry

	for i := len(s.layers) - 1; i >= 0; i-- {
		s.layers[i].AscendPrefix(nsPrefix, func(e overlayEntry) bool {
			key := string(e.Key)
			if _, already := seen[key]; already {
				return true
			}
			seen[key] = struct{}{}
			if !e.Tombstone {
				results = append(results, prefixEntry{
					Key:   append([]byte(nil), e.Key[len(nsPrefix)-len(prefix):]...),
					Value: append([]byte(nil), e.Value...),
				})
			}
			return true
		})
	}

	iter := s.store.PrefixIterator(nsPrefix)
	defer iter.Release()
	for iter.Next() {
		key := append([]byte(nil), iter.Key()...)
		if _, already := seen[string(key)]; already {
			continue
		}
		seen[string(key)] = struct{}{}
		value := append([]byte(nil), iter.Value()...)
		results = append(results, prefixEntry{
			Key:   key[len(nsPrefix)-len(prefix):],
			Value: value,
		})
	}
	if err := iter.Error(); err != nil {
		return nil, types.Wrap(types.KindStateConsistency, err, "prefix iteration")
	}

	return results, nil
}

// SolidifyLayer pops the bottom overlay and atomically writes it to the
// persistent store. Layers solidify FIFO (oldest first), so a block's
// overlay only becomes durable once every older speculative layer beneath
// it has already been written (spec §4.2).
func (s *StateDB) SolidifyLayer() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.layers) == 0 {
		return nil
	}
	bottom := s.layers[0]

	puts := make(map[string][]byte)
	var deletes [][]byte
	bottom.tree.Ascend(func(e overlayEntry) bool {
		if e.Tombstone {
			deletes = append(deletes, e.Key)
		} else {
			puts[string(e.Key)] = e.Value
		}
		return true
	})

	if err := s.store.WriteBatch(puts, deletes); err != nil {
		return err
	}
	s.layers = s.layers[1:]
	return nil
}

// DiscardLayers clears every overlay, abandoning all speculative writes
// (spec §4.2) — used when push_block fails after NewLayer was called.
func (s *StateDB) DiscardLayers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layers = nil
}

// LayerCount reports how many speculative overlays are currently stacked.
func (s *StateDB) LayerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.layers)
}
