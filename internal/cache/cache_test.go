package cache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/funvibe/tlua/internal/pipeline"
)

func openTemp(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache", "units.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestComputeKey(t *testing.T) {
	src := []byte("local n :: number = 1")
	base := pipeline.DefaultOptions()
	k := ComputeKey(src, base, 0)

	if ComputeKey(src, base, 0) != k {
		t.Fatal("key is not deterministic")
	}
	if k.UnitID() != ComputeKey(src, base, 0).UnitID() {
		t.Error("unit id is not stable")
	}

	variants := map[string]pipeline.Options{
		"checks off":  {Registry: base.Registry, TempPrefix: base.TempPrefix, Checks: false},
		"registry":    {Registry: "T", TempPrefix: base.TempPrefix, Checks: true},
		"temp prefix": {Registry: base.Registry, TempPrefix: "_t", Checks: true},
	}
	for name, opts := range variants {
		if ComputeKey(src, opts, 0) == k {
			t.Errorf("%s: key did not change", name)
		}
	}
	if ComputeKey(src, base, 80) == k {
		t.Error("width change did not change the key")
	}
	if ComputeKey([]byte("local n = 1"), base, 0) == k {
		t.Error("source change did not change the key")
	}
	// Field boundaries are delimited.
	a := ComputeKey(nil, pipeline.Options{Registry: "ab", TempPrefix: "c"}, 0)
	b := ComputeKey(nil, pipeline.Options{Registry: "a", TempPrefix: "bc"}, 0)
	if a == b {
		t.Error("registry and prefix run together in the key")
	}
}

func TestGetPut(t *testing.T) {
	ctx := context.Background()
	c := openTemp(t)
	key := ComputeKey([]byte("print(1)"), pipeline.DefaultOptions(), 0)

	if _, ok, err := c.Get(ctx, key); err != nil || ok {
		t.Fatalf("empty cache: ok=%v err=%v", ok, err)
	}

	put, err := c.Put(ctx, key, "a.tlua", "print(1)\n")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if put.ID != key.UnitID() {
		t.Errorf("got id %s, want %s", put.ID, key.UnitID())
	}

	got, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		t.Fatalf("Get after Put: ok=%v err=%v", ok, err)
	}
	if got.Output != "print(1)\n" || got.SourceName != "a.tlua" || got.ID != put.ID {
		t.Errorf("got %+v", got)
	}

	other := ComputeKey([]byte("print(2)"), pipeline.DefaultOptions(), 0)
	if _, ok, _ := c.Get(ctx, other); ok {
		t.Error("hit for a key that was never stored")
	}
}

func TestPutReplaces(t *testing.T) {
	ctx := context.Background()
	c := openTemp(t)
	key := ComputeKey([]byte("x"), pipeline.DefaultOptions(), 0)

	if _, err := c.Put(ctx, key, "a.tlua", "old"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Put(ctx, key, "b.tlua", "new"); err != nil {
		t.Fatal(err)
	}

	n, err := c.Len(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("got %d entries, want 1", n)
	}
	got, _, _ := c.Get(ctx, key)
	if got.Output != "new" || got.SourceName != "b.tlua" {
		t.Errorf("got %+v", got)
	}
}

func TestClean(t *testing.T) {
	ctx := context.Background()
	c := openTemp(t)
	for _, src := range []string{"a", "b", "c"} {
		if _, err := c.Put(ctx, ComputeKey([]byte(src), pipeline.DefaultOptions(), 0), src, src); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Clean(ctx); err != nil {
		t.Fatal(err)
	}
	if n, _ := c.Len(ctx); n != 0 {
		t.Errorf("got %d entries after Clean", n)
	}
}

func TestReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "units.db")
	key := ComputeKey([]byte("x"), pipeline.DefaultOptions(), 0)

	c, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Put(ctx, key, "x.tlua", "out"); err != nil {
		t.Fatal(err)
	}
	c.Close()

	c, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if _, ok, _ := c.Get(ctx, key); !ok {
		t.Error("entry did not survive reopening")
	}
}
