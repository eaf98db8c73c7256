package cache

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/ZaguanLabs/tlcache/storage"
)

// fakeAdapter is an in-memory adapter whose reads and writes can be made to fail.
type fakeAdapter struct {
	data   map[string]string
	getErr error                // Returned by every Get when set
	setErr func(call int) error // Error for the n-th Set call (1-based), nil to succeed
	sets   int
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{data: make(map[string]string)}
}

func (a *fakeAdapter) Get(key string) (string, bool, error) {
	if a.getErr != nil {
		return "", false, a.getErr
	}
	v, ok := a.data[key]
	return v, ok, nil
}

func (a *fakeAdapter) Set(key string, value string) error {
	a.sets++
	if a.setErr != nil {
		if err := a.setErr(a.sets); err != nil {
			return err
		}
	}
	a.data[key] = value
	return nil
}

func (a *fakeAdapter) Remove(key string) error {
	delete(a.data, key)
	return nil
}

var _ storage.Adapter = (*fakeAdapter)(nil)

// failFirst makes the first n Set calls fail with err.
func failFirst(n int, err error) func(int) error {
	return func(call int) error {
		if call <= n {
			return err
		}
		return nil
	}
}

// fakeClock is a settable time source.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

// storedDocument decodes the persisted document, failing the test if it is unreadable.
func storedDocument(t *testing.T, a *fakeAdapter) Document {
	t.Helper()
	raw, ok := a.data[DefaultRootKey]
	if !ok {
		return Document{}
	}
	var doc Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("stored document is not valid JSON: %v", err)
	}
	return doc
}

// seed writes a document directly into the adapter, bypassing the store.
func seed(t *testing.T, a *fakeAdapter, doc Document) {
	t.Helper()
	raw, err := doc.encode()
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	a.data[DefaultRootKey] = raw
}

func entryAt(content string, ts int64) Entry {
	return Entry{Translated: true, Content: content, Timestamp: ts}
}
