package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

func TestPutGet(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key := Key([]byte("func @main() {\n  return\n}\n"), "symbolic")
	want := Summary{Path: "main.qir", Funcs: 1, QubitCount: 4, Must: 1, Segments: 2}
	if err := c.Put(key, &want); err != nil {
		t.Fatal(err)
	}

	var got Summary
	ok, err := c.Get(key, &got)
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	want.Schema = schemaVersion
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}

	if ok, err := c.Get(Key([]byte("other"), "symbolic"), &got); ok || err != nil {
		t.Fatalf("missing key: %v, %v", ok, err)
	}
}

func TestKeyDependsOnOptions(t *testing.T) {
	content := []byte("x")
	if Key(content, "flat") == Key(content, "symbolic") {
		t.Fatal("options must change the key")
	}
	if Key(content, "flat") != Key(content, "flat") {
		t.Fatal("key must be deterministic")
	}
}

func TestSchemaMismatchIsMiss(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key := Key([]byte("y"), "")
	data, err := msgpack.Marshal(&Summary{Schema: schemaVersion + 1, Path: "old.qir"})
	if err != nil {
		t.Fatal(err)
	}
	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, data, 0o600); err != nil {
		t.Fatal(err)
	}
	var s Summary
	if ok, err := c.Get(key, &s); ok || err != nil {
		t.Fatalf("stale schema: %v, %v", ok, err)
	}
}

func TestDropAll(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key := Key([]byte("z"), "")
	if err := c.Put(key, &Summary{Path: "z.qir"}); err != nil {
		t.Fatal(err)
	}
	if err := c.DropAll(); err != nil {
		t.Fatal(err)
	}
	var s Summary
	if ok, _ := c.Get(key, &s); ok {
		t.Fatal("entry survived DropAll")
	}
	var nilCache *Disk
	if err := nilCache.Put(key, &s); err != nil {
		t.Fatal(err)
	}
}
