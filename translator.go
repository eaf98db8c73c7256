package tlcache

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ZaguanLabs/tlcache/cache"
)

// Translator serves translations from a cache and falls back to a backend on a miss.
type Translator struct {
	backend TranslationBackend
	cache   TranslationCache
	now     func() time.Time
	logger  zerolog.Logger
}

// TranslationCache is the interface for the per-item translation store.
// *cache.Store implements it.
type TranslationCache interface {
	Enabled() bool
	Get(itemType, itemID string) (cache.Entry, bool)
	Put(itemType, itemID string, entry cache.Entry) error
	Remove(itemType, itemID string)
}

// TranslatorOption is a functional option for configuring the Translator.
type TranslatorOption func(*Translator)

// WithCache sets the translation cache. Without a cache, or with a disabled one,
// every call goes to the backend.
func WithCache(c TranslationCache) TranslatorOption {
	return func(t *Translator) {
		t.cache = c
	}
}

// WithClock sets the time source used to stamp new entries.
func WithClock(now func() time.Time) TranslatorOption {
	return func(t *Translator) {
		if now != nil {
			t.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) TranslatorOption {
	return func(t *Translator) {
		t.logger = logger
	}
}

// NewTranslator creates a new Translator with the given backend.
func NewTranslator(backend TranslationBackend, opts ...TranslatorOption) *Translator {
	t := &Translator{
		backend: backend,
		now:     time.Now,
		logger:  zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Translate returns the translation of req.Text for the item. A cached translation is
// returned without calling the backend; otherwise the backend result is cached and
// returned. Backend errors are returned unchanged and nothing is cached. Failing to
// cache a result never fails the call.
func (t *Translator) Translate(ctx context.Context, req Request) (TrustedContent, error) {
	if req.TargetLang == "" {
		return TrustedContent{}, &TranslationError{Message: "target language is required"}
	}

	cacheable := t.cacheEnabled() && req.ItemType != "" && req.ItemID != ""

	if cacheable {
		if entry, ok := t.cache.Get(req.ItemType, req.ItemID); ok {
			t.logger.Debug().
				Str("item_type", req.ItemType).
				Str("item_id", req.ItemID).
				Msg("translation cache hit")
			return Gate(entry.Content, req.Format), nil
		}
	}

	if t.backend == nil {
		return TrustedContent{}, &TranslationError{Message: "no translation backend configured"}
	}

	result, err := t.backend.Translate(ctx, BackendRequest{
		Text:       req.Text,
		SourceLang: req.SourceLang,
		TargetLang: req.TargetLang,
		Format:     req.Format,
	})
	if err != nil {
		return TrustedContent{}, err
	}

	if cacheable {
		entry := cache.NewEntry(result, req.SourceLang, t.now())
		if err := t.cache.Put(req.ItemType, req.ItemID, entry); err != nil {
			t.logger.Debug().
				Err(err).
				Str("item_type", req.ItemType).
				Str("item_id", req.ItemID).
				Msg("translation not cached")
		}
	}

	return Gate(result, req.Format), nil
}

// Cached returns the cached translation of an item without calling the backend.
func (t *Translator) Cached(itemType, itemID string, format Format) (TrustedContent, bool) {
	if !t.cacheEnabled() {
		return TrustedContent{}, false
	}
	entry, ok := t.cache.Get(itemType, itemID)
	if !ok {
		return TrustedContent{}, false
	}
	return Gate(entry.Content, format), true
}

// ClearTranslation forgets the cached translation of an item, e.g. when the user
// asks to see the original. Clearing an item without a translation is a no-op.
func (t *Translator) ClearTranslation(itemType, itemID string) {
	if !t.cacheEnabled() {
		return
	}
	t.cache.Remove(itemType, itemID)
}

// HasTranslation reports whether a non-expired translation of an item is cached.
func (t *Translator) HasTranslation(itemType, itemID string) bool {
	if !t.cacheEnabled() {
		return false
	}
	_, ok := t.cache.Get(itemType, itemID)
	return ok
}

func (t *Translator) cacheEnabled() bool {
	return t.cache != nil && t.cache.Enabled()
}
