package cache

import "time"

// isExpired reports whether an entry is older than ttl at now. A non-positive ttl never expires.
func isExpired(e Entry, now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return now.UnixMilli()-e.Timestamp > ttl.Milliseconds()
}

// expire removes the expired entries of ns in place and returns how many were removed.
func expire(ns Namespace, now time.Time, ttl time.Duration) int {
	removed := 0
	for id, e := range ns {
		if isExpired(e, now, ttl) {
			delete(ns, id)
			removed++
		}
	}
	return removed
}

// expireNamespace prunes one namespace of doc and persists the document if anything
// was removed. The pruned namespace is returned even when persisting fails.
// Must be called with the store lock held.
func (s *Store) expireNamespace(doc Document, itemType string) Namespace {
	ns, ok := doc[itemType]
	if !ok {
		return nil
	}

	removed := expire(ns, s.now(), s.ttl)
	if removed == 0 {
		return ns
	}

	if len(ns) == 0 {
		delete(doc, itemType)
	}

	s.logger.Debug().
		Str("item_type", itemType).
		Int("expired", removed).
		Msg("pruned expired translations")

	// Eviction mutates what it persists; the caller still gets the expiry-pruned view.
	_ = s.persist(doc.Clone(), nil)
	return ns
}
