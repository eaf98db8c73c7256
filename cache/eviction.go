package cache

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ZaguanLabs/tlcache/storage"
)

// ErrWriteAbandoned is returned when a document could not be persisted even after eviction.
var ErrWriteAbandoned = errors.New("cache write abandoned")

// EvictFraction is the share of entries removed by a prune-and-retry pass.
const EvictFraction = 0.2

// State is a step of the write state machine.
//
//	Attempting ──ok──▶ Stored
//	    │ quota exceeded
//	    ▼
//	PrunedRetry ──ok──▶ Stored
//	    │ failed, translated entry pending
//	    ▼
//	ResetRetry ──ok──▶ Stored
//	    │ failed
//	    ▼
//	Abandoned
type State int

const (
	Attempting State = iota
	PrunedRetry
	ResetRetry
	Abandoned
	Stored
)

func (s State) String() string {
	switch s {
	case Attempting:
		return "attempting"
	case PrunedRetry:
		return "pruned_retry"
	case ResetRetry:
		return "reset_retry"
	case Abandoned:
		return "abandoned"
	case Stored:
		return "stored"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// EntryRef identifies an entry and its write time, used to order evictions.
type EntryRef struct {
	ItemType  string
	ItemID    string
	Timestamp int64
}

// pendingEntry is the entry a Put is writing.
type pendingEntry struct {
	itemType string
	itemID   string
	entry    Entry
}

// writeAttempt carries the document through the state machine.
type writeAttempt struct {
	doc     Document
	pending *pendingEntry // nil when persisting a prune or removal
	evicted []EntryRef
	err     error // last write error
}

// EvictCount returns how many entries a prune pass removes from n entries.
func EvictCount(n int) int {
	count := int(float64(n) * EvictFraction)
	if count < 1 {
		count = 1
	}
	return count
}

// OldestEntries flattens doc into entry references sorted oldest first.
// Equal timestamps are ordered by item type, then item id.
func OldestEntries(doc Document) []EntryRef {
	refs := make([]EntryRef, 0, doc.Len())
	for itemType, ns := range doc {
		for itemID, e := range ns {
			refs = append(refs, EntryRef{ItemType: itemType, ItemID: itemID, Timestamp: e.Timestamp})
		}
	}

	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Timestamp != refs[j].Timestamp {
			return refs[i].Timestamp < refs[j].Timestamp
		}
		if refs[i].ItemType != refs[j].ItemType {
			return refs[i].ItemType < refs[j].ItemType
		}
		return refs[i].ItemID < refs[j].ItemID
	})
	return refs
}

// EvictOldest removes the EvictCount oldest entries of doc across all namespaces,
// dropping namespaces that become empty. Returns the removed entries.
func EvictOldest(doc Document) []EntryRef {
	return evictOldest(doc, nil)
}

// evictOldest is EvictOldest with the entry being written exempt from eviction.
// The count is still taken over every entry in doc.
func evictOldest(doc Document, keep *pendingEntry) []EntryRef {
	all := OldestEntries(doc)
	count := EvictCount(len(all))

	refs := all[:0]
	for _, ref := range all {
		if keep != nil && ref.ItemType == keep.itemType && ref.ItemID == keep.itemID {
			continue
		}
		refs = append(refs, ref)
	}
	if count > len(refs) {
		count = len(refs)
	}

	removed := refs[:count]
	for _, ref := range removed {
		doc.remove(ref.ItemType, ref.ItemID)
	}
	return removed
}

// persist writes doc, walking the eviction states on failure.
// Must be called with the store lock held.
func (s *Store) persist(doc Document, pending *pendingEntry) error {
	w := &writeAttempt{doc: doc, pending: pending}

	state := Attempting
	for {
		switch state {
		case Attempting:
			state = s.attempt(w)
		case PrunedRetry:
			state = s.prunedRetry(w)
		case ResetRetry:
			state = s.resetRetry(w)
		case Stored:
			return nil
		case Abandoned:
			s.abandon(w)
			return fmt.Errorf("%w: %w", ErrWriteAbandoned, w.err)
		default:
			return fmt.Errorf("%w: unknown state %s", ErrWriteAbandoned, state)
		}
	}
}

// attempt writes the document as is.
func (s *Store) attempt(w *writeAttempt) State {
	w.err = s.write(w.doc)
	if w.err == nil {
		return Stored
	}
	if !storage.IsQuotaExceeded(w.err) {
		return Abandoned
	}

	s.logger.Debug().Err(w.err).Int("entries", w.doc.Len()).Msg("translation cache full, pruning oldest entries")
	return PrunedRetry
}

// prunedRetry evicts the oldest share of entries, never the pending one, and
// retries once. With nothing to evict the retry is skipped.
func (s *Store) prunedRetry(w *writeAttempt) State {
	w.evicted = evictOldest(w.doc, w.pending)

	if len(w.evicted) > 0 {
		s.logger.Info().
			Int("evicted", len(w.evicted)).
			Int("remaining", w.doc.Len()).
			Msg("evicted oldest translations")

		w.err = s.write(w.doc)
		if w.err == nil {
			return Stored
		}
	}

	if w.pending == nil || !w.pending.entry.Translated {
		return Abandoned
	}
	return ResetRetry
}

// resetRetry replaces the whole document with the pending entry and retries once.
func (s *Store) resetRetry(w *writeAttempt) State {
	p := w.pending
	discarded := w.doc.Len()

	w.doc = Document{p.itemType: Namespace{p.itemID: p.entry}}

	s.logger.Info().
		Int("discarded", discarded).
		Str("item_type", p.itemType).
		Str("item_id", p.itemID).
		Msg("reset translation cache to the newest entry")

	w.err = s.write(w.doc)
	if w.err == nil {
		return Stored
	}
	return Abandoned
}

func (s *Store) abandon(w *writeAttempt) {
	ev := s.logger.Warn().Err(w.err).Int("evicted", len(w.evicted))
	if w.pending != nil {
		ev = ev.Str("item_type", w.pending.itemType).Str("item_id", w.pending.itemID)
	}
	ev.Msg("could not persist translation cache")
}

// write encodes and stores the document under the root key.
func (s *Store) write(doc Document) error {
	raw, err := doc.encode()
	if err != nil {
		return err
	}
	return s.adapter.Set(s.key, raw)
}
