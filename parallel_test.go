package tlcache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ZaguanLabs/tlcache/cache"
	"github.com/ZaguanLabs/tlcache/storage"
)

// slowBackend simulates a backend with latency and tracks peak concurrency.
type slowBackend struct {
	delay    time.Duration
	inFlight atomic.Int32
	peak     atomic.Int32
	calls    atomic.Int32
	failOn   string
}

func (b *slowBackend) Translate(ctx context.Context, req BackendRequest) (string, error) {
	b.calls.Add(1)
	n := b.inFlight.Add(1)
	defer b.inFlight.Add(-1)

	for {
		peak := b.peak.Load()
		if n <= peak || b.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	time.Sleep(b.delay)
	if req.Text == b.failOn {
		return "", &ProviderError{Message: "cannot translate"}
	}
	return "es:" + req.Text, nil
}

func pageOfComments(n int) []Request {
	reqs := make([]Request, n)
	for i := range reqs {
		reqs[i] = Request{
			Text:       fmt.Sprintf("comment %d", i),
			TargetLang: "es",
			ItemType:   "comment",
			ItemID:     fmt.Sprint(i),
		}
	}
	return reqs
}

func TestTranslateAll_Order(t *testing.T) {
	backend := &slowBackend{delay: time.Millisecond}
	tr := NewTranslator(backend, WithCache(cache.New(storage.NewMemory(0))))

	results := tr.TranslateAll(context.Background(), pageOfComments(10), 3)

	if len(results) != 10 {
		t.Fatalf("Expected 10 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Err != nil {
			t.Errorf("result %d: unexpected error %v", i, r.Err)
		}
		if want := fmt.Sprintf("es:comment %d", i); r.Content.Content != want {
			t.Errorf("result %d = %q, want %q", i, r.Content.Content, want)
		}
	}
}

func TestTranslateAll_ConcurrencyLimit(t *testing.T) {
	backend := &slowBackend{delay: 20 * time.Millisecond}
	tr := NewTranslator(backend)

	tr.TranslateAll(context.Background(), pageOfComments(12), 3)

	if peak := backend.peak.Load(); peak > 3 {
		t.Errorf("Expected at most 3 concurrent calls, got %d", peak)
	}
	if backend.calls.Load() != 12 {
		t.Errorf("Expected 12 calls, got %d", backend.calls.Load())
	}
}

func TestTranslateAll_FasterThanSequential(t *testing.T) {
	delay := 20 * time.Millisecond
	tr := NewTranslator(&slowBackend{delay: delay})

	start := time.Now()
	tr.TranslateAll(context.Background(), pageOfComments(8), 8)
	elapsed := time.Since(start)

	if sequential := 8 * delay; elapsed >= sequential {
		t.Errorf("Parallel batch took %v, sequential would take %v", elapsed, sequential)
	}
}

func TestTranslateAll_PartialFailure(t *testing.T) {
	backend := &slowBackend{failOn: "comment 2"}
	store := cache.New(storage.NewMemory(0))
	tr := NewTranslator(backend, WithCache(store))

	results := tr.TranslateAll(context.Background(), pageOfComments(4), 2)

	var providerErr *ProviderError
	if !errors.As(results[2].Err, &providerErr) {
		t.Errorf("Expected ProviderError for item 2, got %v", results[2].Err)
	}
	for _, i := range []int{0, 1, 3} {
		if results[i].Err != nil {
			t.Errorf("item %d: unexpected error %v", i, results[i].Err)
		}
	}
	if store.Len() != 3 {
		t.Errorf("Expected 3 cached translations, got %d", store.Len())
	}
}

func TestTranslateAll_UsesCache(t *testing.T) {
	backend := &slowBackend{}
	tr := NewTranslator(backend, WithCache(cache.New(storage.NewMemory(0))))
	ctx := context.Background()

	tr.TranslateAll(ctx, pageOfComments(5), 0)
	tr.TranslateAll(ctx, pageOfComments(5), 0)

	if backend.calls.Load() != 5 {
		t.Errorf("Expected 5 backend calls, got %d", backend.calls.Load())
	}
}

func TestTranslateAll_Cancelled(t *testing.T) {
	backend := &slowBackend{}
	tr := NewTranslator(backend)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for i, r := range tr.TranslateAll(ctx, pageOfComments(3), 1) {
		if !errors.Is(r.Err, context.Canceled) {
			t.Errorf("item %d: expected context.Canceled, got %v", i, r.Err)
		}
	}
	if backend.calls.Load() != 0 {
		t.Errorf("Expected no backend calls, got %d", backend.calls.Load())
	}
}

func TestTranslateAll_Empty(t *testing.T) {
	tr := NewTranslator(&slowBackend{})
	if results := tr.TranslateAll(context.Background(), nil, 2); len(results) != 0 {
		t.Errorf("Expected no results, got %d", len(results))
	}
}

func BenchmarkTranslateAll(b *testing.B) {
	var mu sync.Mutex
	backend := TranslationBackendFunc(func(ctx context.Context, req BackendRequest) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		return req.Text, nil
	})
	tr := NewTranslator(backend)
	reqs := pageOfComments(50)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tr.TranslateAll(context.Background(), reqs, 8)
	}
}
