package catalog

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/vearutop/cr3"
)

func TestCatalogRoundTrip(t *testing.T) {
	c, err := Open("", nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer c.Close()

	key := Key("IMG_0001.CR3", 1234, time.Unix(1700000000, 0))
	if _, ok, err := c.Ranges(key); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	want := []cr3.JPEGRange{{Start: 10, End: 100}, {Start: 200, End: 5000}}
	if err := c.StoreRanges(key, want); err != nil {
		t.Fatalf("store: %v", err)
	}
	got, ok, err := c.Ranges(key)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ranges mismatch: got %v want %v", got, want)
	}
}

func TestCatalogEmptyResultIsCached(t *testing.T) {
	c, err := Open("", nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer c.Close()

	if err := c.StoreRanges("k", nil); err != nil {
		t.Fatalf("store: %v", err)
	}
	got, ok, err := c.Ranges("k")
	if err != nil || !ok || len(got) != 0 {
		t.Fatalf("expected cached empty result, got %v ok=%v err=%v", got, ok, err)
	}
}

func TestKey(t *testing.T) {
	mtime := time.Unix(1700000000, 0)
	base := Key("IMG_0001.CR3", 100, mtime)

	for name, other := range map[string]string{
		"size":  Key("IMG_0001.CR3", 101, mtime),
		"mtime": Key("IMG_0001.CR3", 100, mtime.Add(time.Second)),
		"path":  Key("IMG_0002.CR3", 100, mtime),
	} {
		if other == base {
			t.Fatalf("key does not depend on %s: %s", name, base)
		}
	}

	abs, err := filepath.Abs("IMG_0001.CR3")
	if err != nil {
		t.Fatal(err)
	}
	if Key(abs, 100, mtime) != base {
		t.Fatal("relative and absolute paths give different keys")
	}
}
