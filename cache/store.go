package cache

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ZaguanLabs/tlcache/storage"
)

// ErrUnreadable is returned by Put when the stored document could not be read.
// The write is skipped so that entries which are only temporarily unreachable
// are not overwritten.
var ErrUnreadable = errors.New("translation cache unreadable")

// Store owns the cache document persisted in a storage.Adapter.
//
// A Store created without client capability (WithClient(false)) or without an
// adapter is disabled: every read misses and every write is a no-op. This is the
// normal mode for server-side rendering.
type Store struct {
	adapter storage.Adapter
	key     string
	ttl     time.Duration
	client  bool
	now     func() time.Time
	logger  zerolog.Logger
	mu      sync.Mutex
}

// Option is a functional option for configuring the Store.
type Option func(*Store)

// WithClient declares whether the store runs in a browsing-client context.
func WithClient(client bool) Option {
	return func(s *Store) {
		s.client = client
	}
}

// WithRootKey sets the storage key the document is persisted under.
func WithRootKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithTTL sets the maximum entry age. Zero or negative disables expiration.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a Store on top of the given adapter.
func New(adapter storage.Adapter, opts ...Option) *Store {
	s := &Store{
		adapter: adapter,
		key:     DefaultRootKey,
		ttl:     DefaultTTL,
		client:  true,
		now:     time.Now,
		logger:  zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Enabled reports whether the store reads and writes at all.
func (s *Store) Enabled() bool {
	return s != nil && s.client && s.adapter != nil
}

// Now returns the store's current time.
func (s *Store) Now() time.Time {
	return s.now()
}

// RootKey returns the storage key of the document.
func (s *Store) RootKey() string {
	return s.key
}

// TTL returns the maximum entry age.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Get returns the translated entry for an item. Expired entries of the item's
// namespace are pruned, and the prune persisted, before the lookup.
func (s *Store) Get(itemType, itemID string) (Entry, bool) {
	if !s.Enabled() {
		return Entry{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return Entry{}, false
	}
	ns := s.expireNamespace(doc, itemType)

	entry, ok := ns[itemID]
	if !ok || !entry.Translated {
		return Entry{}, false
	}
	return entry, true
}

// Has reports whether a non-expired translated entry exists for an item.
func (s *Store) Has(itemType, itemID string) bool {
	_, ok := s.Get(itemType, itemID)
	return ok
}

// Namespace returns a copy of the translated entries of one item type,
// after pruning expired ones.
func (s *Store) Namespace(itemType string) Namespace {
	out := make(Namespace)
	if !s.Enabled() {
		return out
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return out
	}
	for id, e := range s.expireNamespace(doc, itemType) {
		if e.Translated {
			out[id] = e
		}
	}
	return out
}

// Put stores an entry, replacing any previous entry for the item. When the store
// is full the eviction policy runs; if the write is finally abandoned Put returns
// an error wrapping ErrWriteAbandoned. If the stored document cannot be read,
// nothing is written and the error wraps ErrUnreadable. Callers are free to
// ignore either: the cache simply will not remember the entry.
func (s *Store) Put(itemType, itemID string, entry Entry) error {
	if !s.Enabled() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("item_type", itemType).
			Str("item_id", itemID).
			Msg("skipping translation cache write, stored document unreadable")
		return fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	doc.set(itemType, itemID, entry)

	return s.persist(doc, &pendingEntry{
		itemType: itemType,
		itemID:   itemID,
		entry:    entry,
	})
}

// Remove deletes the entry for an item. Removing an absent entry is not an error.
// The document is persisted unconditionally; a failure is logged and not retried.
// When the document cannot be read the removal is skipped and logged.
func (s *Store) Remove(itemType, itemID string) {
	if !s.Enabled() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("item_type", itemType).
			Str("item_id", itemID).
			Msg("skipping translation removal, stored document unreadable")
		return
	}
	doc.remove(itemType, itemID)

	if err := s.write(doc); err != nil {
		s.logger.Warn().
			Err(err).
			Str("item_type", itemType).
			Str("item_id", itemID).
			Msg("could not persist translation removal")
	}
}

// Document returns a copy of all live translated entries. Expired entries are
// left out but not pruned from storage.
func (s *Store) Document() Document {
	out := make(Document)
	if !s.Enabled() {
		return out
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return out
	}

	now := s.now()
	for itemType, ns := range doc {
		for id, e := range ns {
			if e.Translated && !isExpired(e, now, s.ttl) {
				out.set(itemType, id, e)
			}
		}
	}
	return out
}

// Len returns the number of live translated entries.
func (s *Store) Len() int {
	return s.Document().Len()
}

// Clear removes the whole document from storage.
func (s *Store) Clear() error {
	if !s.Enabled() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.adapter.Remove(s.key)
}

// load reads the document. A missing or corrupt document reads as empty; an
// error means the adapter itself failed and the stored document is unknown.
// Must be called with the store lock held.
func (s *Store) load() (Document, error) {
	raw, ok, err := s.adapter.Get(s.key)
	if err != nil {
		s.logger.Debug().Err(err).Str("key", s.key).Msg("could not read translation cache")
		return nil, err
	}
	if !ok || raw == "" {
		return Document{}, nil
	}

	doc, err := decodeDocument(raw)
	if err != nil {
		s.logger.Debug().Err(err).Str("key", s.key).Msg("discarding corrupt translation cache")
		return Document{}, nil
	}
	return doc, nil
}
