package statedb

import (
	"bytes"

	"github.com/google/btree"
)

// overlayEntry is one write recorded in a layer: Value == nil with
// Tombstone == true represents a delete; otherwise it's a put (spec §4.2:
// "value Some(v) for puts, None for tombstones").
type overlayEntry struct {
	Key       []byte
	Value     []byte
	Tombstone bool
}

func entryLess(a, b overlayEntry) bool {
	return bytes.Compare(a.Key, b.Key) < 0
}

// Overlay is one speculative write layer. It keeps writes in an ordered
// btree (google/btree, as erigon's pack depends on) rather than a plain map
// so GetByPrefix can iterate a contiguous key range instead of scanning the
// whole layer (spec §4.2 "get_by_prefix ... honor tombstones and overlay
// shadowing").
type Overlay struct {
	tree *btree.BTreeG[overlayEntry]
}

func newOverlay() *Overlay {
	return &Overlay{tree: btree.NewG(32, entryLess)}
}

// Put records a write in this layer.
func (o *Overlay) Put(key, value []byte) {
	cp := make([]byte, len(value))
	copy(cp, value)
	o.tree.ReplaceOrInsert(overlayEntry{Key: append([]byte(nil), key...), Value: cp})
}

// Delete records a tombstone in this layer.
func (o *Overlay) Delete(key []byte) {
	o.tree.ReplaceOrInsert(overlayEntry{Key: append([]byte(nil), key...), Tombstone: true})
}

// Get returns the entry stored for key in this layer, if any.
func (o *Overlay) Get(key []byte) (entry overlayEntry, ok bool) {
	item, found := o.tree.Get(overlayEntry{Key: key})
	return item, found
}

// AscendPrefix visits, in key order, every entry in this layer whose key has
// the given prefix.
func (o *Overlay) AscendPrefix(prefix []byte, visit func(overlayEntry) bool) {
	upperBound := prefixUpperBound(prefix)
	pivot := overlayEntry{Key: prefix}
	o.tree.AscendGreaterOrEqual(pivot, func(e overlayEntry) bool {
		if upperBound != nil && bytes.Compare(e.Key, upperBound) >= 0 {
			return false
		}
		if !bytes.HasPrefix(e.Key, prefix) {
			// Only possible if upperBound is nil (prefix is all 0xff);
			// AscendGreaterOrEqual already ordered us past it.
			return false
		}
		return visit(e)
	})
}

// prefixUpperBound returns the smallest key that is strictly greater than
// every key with the given prefix, or nil if prefix is all 0xff (no finite
// upper bound exists, so callers must also check HasPrefix).
func prefixUpperBound(prefix []byte) []byte {
	upper := append([]byte(nil), prefix...)
	for i := len(upper) - 1; i >= 0; i-- {
		if upper[i] != 0xff {
			upper[i]++
			return upper[:i+1]
		}
	}
	return nil
}
