package tlcache_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/rs/zerolog"

	"github.com/ZaguanLabs/tlcache"
	"github.com/ZaguanLabs/tlcache/cache"
	"github.com/ZaguanLabs/tlcache/provider"
	"github.com/ZaguanLabs/tlcache/storage"
)

// Integration tests using all real components

// tickingClock advances by one second on every call.
type tickingClock struct {
	now time.Time
}

func (c *tickingClock) Now() time.Time {
	c.now = c.now.Add(time.Second)
	return c.now
}

func TestIntegration_BasicTranslation(t *testing.T) {
	p := provider.NewMockBackend()
	store := cache.New(storage.NewMemory(0))

	translator := tlcache.NewTranslator(p, tlcache.WithCache(store))

	result, err := translator.Translate(context.Background(), tlcache.Request{
		Text:       "Hello World",
		TargetLang: "es",
		Format:     tlcache.FormatHTML,
		ItemType:   "image",
		ItemID:     "abc123",
	})
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}

	if result.Content != "Hola Mundo" || !result.Trusted {
		t.Errorf("Unexpected result: %+v", result)
	}
	if store.Len() != 1 {
		t.Errorf("Expected 1 cached translation, got %d", store.Len())
	}
}

func TestIntegration_FileStoragePersists(t *testing.T) {
	fs := memfs.New()
	p := provider.NewMockBackend()
	ctx := context.Background()
	req := tlcache.Request{Text: "Hello", TargetLang: "es", ItemType: "comment", ItemID: "1"}

	// First "page load"
	adapter, err := storage.NewFile(fs, 0)
	if err != nil {
		t.Fatalf("NewFile failed: %v", err)
	}
	tlcache.NewTranslator(p, tlcache.WithCache(cache.New(adapter))).Translate(ctx, req)

	// Second page load on the same filesystem
	adapter, err = storage.NewFile(fs, 0)
	if err != nil {
		t.Fatalf("NewFile failed: %v", err)
	}
	translator := tlcache.NewTranslator(p, tlcache.WithCache(cache.New(adapter)))

	if !translator.HasTranslation("comment", "1") {
		t.Fatal("Translation should survive a new store on the same storage")
	}
	translator.Translate(ctx, req)

	if p.CallCount != 1 {
		t.Errorf("Expected 1 backend call, got %d", p.CallCount)
	}
}

func TestIntegration_QuotaEviction(t *testing.T) {
	for _, tc := range []struct {
		name    string
		adapter func(t *testing.T) storage.Adapter
	}{
		{"memory", func(t *testing.T) storage.Adapter { return storage.NewMemory(1200) }},
		{"file", func(t *testing.T) storage.Adapter {
			a, err := storage.NewFile(memfs.New(), 1200)
			if err != nil {
				t.Fatalf("NewFile failed: %v", err)
			}
			return a
		}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			clock := &tickingClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
			store := cache.New(tc.adapter(t), cache.WithClock(clock.Now))
			translator := tlcache.NewTranslator(provider.NewMockBackend(),
				tlcache.WithCache(store),
				tlcache.WithClock(clock.Now),
			)

			ctx := context.Background()
			const n = 40
			for i := 0; i < n; i++ {
				_, err := translator.Translate(ctx, tlcache.Request{
					Text:       fmt.Sprintf("comment number %d", i),
					SourceLang: "en",
					TargetLang: "es",
					ItemType:   "comment",
					ItemID:     fmt.Sprint(i),
				})
				if err != nil {
					t.Fatalf("Translate %d failed: %v", i, err)
				}

				// The entry just written always survives eviction
				if !translator.HasTranslation("comment", fmt.Sprint(i)) {
					t.Fatalf("newest translation %d missing", i)
				}
			}

			if translator.HasTranslation("comment", "0") {
				t.Error("oldest translation should have been evicted")
			}
			if got := store.Len(); got == 0 || got >= n {
				t.Errorf("Expected a partially evicted cache, got %d entries", got)
			}
		})
	}
}

func TestIntegration_RetryableBackend(t *testing.T) {
	inner := &failingMockBackend{failCount: 2}
	retryable := tlcache.NewRetryableBackend(inner, tlcache.RetryConfig{
		MaxRetries: 3,
		BaseDelay:  1, // 1 nanosecond for fast tests
		MaxDelay:   10,
	}, zerolog.Nop())

	translator := tlcache.NewTranslator(retryable,
		tlcache.WithCache(cache.New(storage.NewMemory(0))),
	)

	result, err := translator.Translate(context.Background(), tlcache.Request{
		Text: "Hello", TargetLang: "es", ItemType: "comment", ItemID: "1",
	})
	if err != nil {
		t.Fatalf("Translate failed after retries: %v", err)
	}

	if !strings.Contains(result.Content, "translated") {
		t.Errorf("Expected translated content, got: %s", result.Content)
	}

	if inner.callCount != 3 {
		t.Errorf("Expected 3 calls (2 failures + 1 success), got %d", inner.callCount)
	}
}

func TestIntegration_ExportImport(t *testing.T) {
	src := cache.New(storage.NewMemory(0))
	translator := tlcache.NewTranslator(provider.NewMockBackend(), tlcache.WithCache(src))

	for _, id := range []string{"1", "2", "3"} {
		translator.Translate(context.Background(), tlcache.Request{
			Text: "Hello", TargetLang: "es", ItemType: "comment", ItemID: id,
		})
	}

	var buf strings.Builder
	if err := cache.NewExporter(src).Export(&buf, nil); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	dstFS := memfs.New()
	adapter, _ := storage.NewFile(dstFS, 0)
	dst := cache.New(adapter)

	result, err := cache.NewImporter(dst).Import(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if result.Imported != 3 {
		t.Errorf("Expected 3 imported, got %d", result.Imported)
	}

	cached, ok := tlcache.NewTranslator(nil, tlcache.WithCache(dst)).Cached("comment", "2", tlcache.FormatPlain)
	if !ok || cached.Content != "Hola" {
		t.Errorf("Expected imported 'Hola', got %+v (found %v)", cached, ok)
	}
}

// Helper: failing backend for retry tests
type failingMockBackend struct {
	failCount int
	callCount int
}

func (p *failingMockBackend) Translate(ctx context.Context, req tlcache.BackendRequest) (string, error) {
	p.callCount++
	if p.callCount <= p.failCount {
		return "", &tlcache.ProviderError{Message: "temporary failure", Retryable: true}
	}
	return "translated", nil
}
