package storage

import (
	"errors"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
)

// brokenOpenFS fails every Open with an I/O error.
type brokenOpenFS struct {
	billy.Filesystem
}

func (brokenOpenFS) Open(string) (billy.File, error) {
	return nil, errors.New("input/output error")
}

func newTestFile(t *testing.T, quota int64) *File {
	t.Helper()
	f, err := NewFile(memfs.New(), quota)
	if err != nil {
		t.Fatalf("NewFile failed: %v", err)
	}
	return f
}

func TestFile_GetSetRemove(t *testing.T) {
	f := newTestFile(t, 0)

	if _, ok, _ := f.Get("root"); ok {
		t.Error("Get should miss on empty store")
	}

	if err := f.Set("root", `{"a":{}}`); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	val, ok, _ := f.Get("root")
	if !ok || val != `{"a":{}}` {
		t.Errorf("Get = %q (ok=%v), want stored value", val, ok)
	}

	// Overwrite replaces the whole value
	if err := f.Set("root", "{}"); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	if val, _, _ := f.Get("root"); val != "{}" {
		t.Errorf("Get after overwrite = %q, want {}", val)
	}

	if err := f.Remove("root"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, ok, _ := f.Get("root"); ok {
		t.Error("Get should miss after Remove")
	}
	if err := f.Remove("root"); err != nil {
		t.Errorf("second Remove should be a no-op, got %v", err)
	}
}

func TestFile_KeyEscaping(t *testing.T) {
	f := newTestFile(t, 0)

	if err := f.Set("a/b", "nested"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if val, ok, _ := f.Get("a/b"); !ok || val != "nested" {
		t.Errorf("Get(a/b) = %q (ok=%v)", val, ok)
	}
	if _, ok, _ := f.Get("a"); ok {
		t.Error("slash in key must not create a directory entry")
	}
}

func TestFile_Quota(t *testing.T) {
	f := newTestFile(t, 10)

	if err := f.Set("a", "123456"); err != nil {
		t.Fatalf("Set within quota failed: %v", err)
	}

	err := f.Set("b", "123456")
	if !IsQuotaExceeded(err) {
		t.Fatalf("expected quota error, got %v", err)
	}
	if _, ok, _ := f.Get("b"); ok {
		t.Error("rejected write should not be stored")
	}

	// Replacing a key discounts its current size
	if err := f.Set("a", "1234567890"); err != nil {
		t.Errorf("replacement within quota failed: %v", err)
	}

	used, err := f.Used()
	if err != nil {
		t.Fatalf("Used failed: %v", err)
	}
	if used != 10 {
		t.Errorf("Used() = %d, want 10", used)
	}
}

func TestFile_Get_ReadErrorIsNotMiss(t *testing.T) {
	fs := memfs.New()
	f, err := NewFile(fs, 0)
	if err != nil {
		t.Fatalf("NewFile failed: %v", err)
	}
	if err := f.Set("root", "{}"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	f.fs = brokenOpenFS{Filesystem: fs}

	val, ok, err := f.Get("root")
	if err == nil {
		t.Fatal("expected read error to be returned")
	}
	if ok || val != "" {
		t.Errorf("Get = %q (ok=%v), want empty on error", val, ok)
	}
}
