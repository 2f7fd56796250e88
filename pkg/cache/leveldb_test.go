package cache

import (
	"context"
	"testing"
)

func setupLevelDB(t *testing.T) *LevelDBStore {
	t.Helper()

	store, err := OpenLevelDBStore(t.TempDir())
	if err != nil {
		t.Fatalf("OpenLevelDBStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestLevelDBStore_SetAndGet(t *testing.T) {
	store := setupLevelDB(t)
	ctx := context.Background()
	ns := Namespace{Family: FamilyStatic, Generation: "v1"}
	key := KeyForPath("/logo.png")

	entry := testEntry("png-bytes")
	entry.Headers.Set("ETag", `"abc123"`)

	if err := store.Set(ctx, ns, key, entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := store.Get(ctx, ns, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got.Body) != "png-bytes" {
		t.Errorf("Body = %q, want %q", got.Body, "png-bytes")
	}
	if got.Headers.Get("ETag") != `"abc123"` {
		t.Errorf("ETag header not preserved: %q", got.Headers.Get("ETag"))
	}
}

func TestLevelDBStore_Get_CacheMiss(t *testing.T) {
	store := setupLevelDB(t)
	ns := Namespace{Family: FamilyStatic, Generation: "v1"}

	_, err := store.Get(context.Background(), ns, KeyForPath("/missing"))
	if err != ErrCacheMiss {
		t.Errorf("Expected ErrCacheMiss, got %v", err)
	}
}

func TestLevelDBStore_Namespaces(t *testing.T) {
	store := setupLevelDB(t)
	ctx := context.Background()

	for _, ns := range []Namespace{
		{Family: FamilyStatic, Generation: "v0"},
		{Family: FamilyPages, Generation: "v1"},
	} {
		if err := store.Set(ctx, ns, KeyForPath("/"), testEntry("x")); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}

	got, err := store.Namespaces(ctx)
	if err != nil {
		t.Fatalf("Namespaces failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Namespaces returned %d, want 2", len(got))
	}
}

func TestLevelDBStore_DropNamespace(t *testing.T) {
	store := setupLevelDB(t)
	ctx := context.Background()

	stale := Namespace{Family: FamilyStatic, Generation: "v0"}
	current := Namespace{Family: FamilyStatic, Generation: "v1"}

	paths := []string{"/", "/logo.png", "/app.js"}
	for _, p := range paths {
		if err := store.Set(ctx, stale, KeyForPath(p), testEntry(p)); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		if err := store.Set(ctx, current, KeyForPath(p), testEntry(p)); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}

	if err := store.DropNamespace(ctx, stale); err != nil {
		t.Fatalf("DropNamespace failed: %v", err)
	}

	n, err := store.Len(ctx, stale)
	if err != nil {
		t.Fatalf("Len failed: %v", err)
	}
	if n != 0 {
		t.Errorf("stale namespace holds %d entries after drop", n)
	}

	n, err = store.Len(ctx, current)
	if err != nil {
		t.Fatalf("Len failed: %v", err)
	}
	if n != len(paths) {
		t.Errorf("current namespace = %d entries, want %d", n, len(paths))
	}
}

func TestLevelDBStore_Keys(t *testing.T) {
	store := setupLevelDB(t)
	ctx := context.Background()
	ns := Namespace{Family: FamilyPages, Generation: "v1"}

	if err := store.Set(ctx, ns, KeyForPath("/dashboard?tab=2"), testEntry("x")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	keys, err := store.Keys(ctx, ns)
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if len(keys) != 1 || keys[0] != "GET /dashboard?tab=2" {
		t.Errorf("Keys = %v, want the namespace prefix stripped", keys)
	}
}

func TestLevelDBStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	ns := Namespace{Family: FamilyStatic, Generation: "v1"}
	key := KeyForPath("/")

	store, err := OpenLevelDBStore(dir)
	if err != nil {
		t.Fatalf("OpenLevelDBStore failed: %v", err)
	}
	if err := store.Set(ctx, ns, key, testEntry("persisted")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := OpenLevelDBStore(dir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ctx, ns, key)
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if string(got.Body) != "persisted" {
		t.Errorf("Body = %q, want %q", got.Body, "persisted")
	}
}
