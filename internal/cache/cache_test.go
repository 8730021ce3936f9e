package cache

import (
	"path/filepath"
	"testing"
)

func open(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "verdicts.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestLookupMissOnEmptyCache(t *testing.T) {
	c := open(t)
	_, ok, err := c.Lookup(Key("(assert true)"))
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if ok {
		t.Fatalf("expected a miss on an empty cache")
	}
}

func TestStoreThenLookup(t *testing.T) {
	c := open(t)
	key := Key("(assert (= x 1))")
	want := Entry{Verdict: "ok", Model: ""}
	if err := c.Store(key, want); err != nil {
		t.Fatalf("Store: %v", err)
	}
	got, ok, err := c.Lookup(key)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !ok {
		t.Fatalf("expected a hit after Store")
	}
	if got != want {
		t.Fatalf("Lookup returned %+v, want %+v", got, want)
	}
}

func TestStoreOverwritesPreviousEntry(t *testing.T) {
	c := open(t)
	key := Key("formula")
	if err := c.Store(key, Entry{Verdict: "unknown"}); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := c.Store(key, Entry{Verdict: "counterexample", Model: "x=3"}); err != nil {
		t.Fatalf("Store (overwrite): %v", err)
	}
	got, ok, err := c.Lookup(key)
	if err != nil || !ok {
		t.Fatalf("Lookup after overwrite: ok=%v err=%v", ok, err)
	}
	if got.Verdict != "counterexample" || got.Model != "x=3" {
		t.Fatalf("Store did not overwrite: got %+v", got)
	}
}

func TestKeyIsDeterministicAndDistinguishesFormulas(t *testing.T) {
	if Key("a") != Key("a") {
		t.Fatalf("Key is not deterministic")
	}
	if Key("a") == Key("b") {
		t.Fatalf("Key collided for distinct formulas")
	}
}

func TestClean(t *testing.T) {
	c := open(t)
	key := Key("x")
	if err := c.Store(key, Entry{Verdict: "ok"}); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := c.Clean(); err != nil {
		t.Fatalf("Clean: %v", err)
	}
	_, ok, err := c.Lookup(key)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if ok {
		t.Fatalf("expected Clean to remove every entry")
	}
}
