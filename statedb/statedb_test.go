package statedb

import (
	"testing"
)

func newTestStateDB(t *testing.T) *StateDB {
	t.Helper()
	store, err := OpenPersistentStore(t.TempDir())
	if err != nil {
		t.Fatalf("open persistent store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return New(store)
}

func TestLayeringShadowsOlderWrites(t *testing.T) {
	db := newTestStateDB(t)
	key := []byte("k")

	db.NewLayer()
	db.Put(ColumnAccount, key, []byte("v1"))
	db.NewLayer()
	db.Put(ColumnAccount, key, []byte("v2"))

	got, ok, err := db.Get(ColumnAccount, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok || string(got) != "v2" {
		t.Fatalf("get = %q, %v; want v2, true", got, ok)
	}
}

func TestDiscardLayersFallsThroughToPersisted(t *testing.T) {
	db := newTestStateDB(t)
	key := []byte("k")

	if err := db.store.Put(namespace(ColumnAccount, key), []byte("persisted")); err != nil {
		t.Fatalf("seed persisted value: %v", err)
	}

	db.NewLayer()
	db.Put(ColumnAccount, key, []byte("speculative"))
	db.DiscardLayers()

	got, ok, err := db.Get(ColumnAccount, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok || string(got) != "persisted" {
		t.Fatalf("get = %q, %v; want persisted, true", got, ok)
	}
}

func TestSolidifyLayerIsFIFO(t *testing.T) {
	db := newTestStateDB(t)
	key := []byte("k")

	db.NewLayer()
	db.Put(ColumnAccount, key, []byte("bottom"))
	db.NewLayer()
	db.Put(ColumnAccount, key, []byte("top"))

	if err := db.SolidifyLayer(); err != nil {
		t.Fatalf("solidify: %v", err)
	}
	if db.LayerCount() != 1 {
		t.Fatalf("expected one remaining layer, got %d", db.LayerCount())
	}

	// The bottom layer's write ("bottom") is now persisted, but the top
	// overlay still shadows it with "top".
	got, ok, err := db.Get(ColumnAccount, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok || string(got) != "top" {
		t.Fatalf("get = %q, %v; want top, true", got, ok)
	}

	persisted, ok, err := db.store.Get(namespace(ColumnAccount, key))
	if err != nil {
		t.Fatalf("store get: %v", err)
	}
	if !ok || string(persisted) != "bottom" {
		t.Fatalf("persisted = %q, %v; want bottom, true", persisted, ok)
	}
}

func TestTombstoneShadowsWithoutFallthrough(t *testing.T) {
	db := newTestStateDB(t)
	key := []byte("k")

	if err := db.store.Put(namespace(ColumnAccount, key), []byte("persisted")); err != nil {
		t.Fatalf("seed persisted value: %v", err)
	}

	db.NewLayer()
	db.Delete(ColumnAccount, key)

	_, ok, err := db.Get(ColumnAccount, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatalf("expected tombstone to hide the persisted value")
	}
}

func TestGetByPrefixHonorsShadowing(t *testing.T) {
	db := newTestStateDB(t)

	db.NewLayer()
	db.Put(ColumnWitness, []byte("w/1"), []byte("alpha"))
	db.Put(ColumnWitness, []byte("w/2"), []byte("beta"))
	db.NewLayer()
	db.Put(ColumnWitness, []byte("w/1"), []byte("alpha-v2"))
	db.Delete(ColumnWitness, []byte("w/2"))

	entries, err := db.GetByPrefix(ColumnWitness, []byte("w/"))
	if err != nil {
		t.Fatalf("get by prefix: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 live entry, got %d", len(entries))
	}
	if string(entries[0].Key) != "w/1" || string(entries[0].Value) != "alpha-v2" {
		t.Fatalf("unexpected entry: %+v", entries[0])
	}
}
