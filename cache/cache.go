// Package cache provides the persistent translation cache.
//
// All cached translations live in a single Document (item type → item id → Entry)
// serialized as JSON under one root key of a storage.Adapter. Expired entries are
// pruned lazily when their namespace is read, and writes that exceed the store's
// capacity go through a staged eviction policy.
package cache

import (
	"encoding/json"
	"time"
)

const (
	// DefaultRootKey is the storage key the document is persisted under.
	DefaultRootKey = "astrobin_translations"

	// DefaultTTL is the maximum age of an entry (30 days).
	DefaultTTL = 30 * 24 * time.Hour
)

// Entry is one cached translation record for a single item.
type Entry struct {
	Translated bool   // Whether a translation is recorded for the item
	Content    string // Translated text
	Language   string // Source language of the translation ("" when unknown)
	Timestamp  int64  // Creation time in milliseconds since epoch
}

// NewEntry creates a translated entry stamped with the given time.
func NewEntry(content, language string, now time.Time) Entry {
	return Entry{
		Translated: true,
		Content:    content,
		Language:   language,
		Timestamp:  now.UnixMilli(),
	}
}

// Time returns the entry's creation time.
func (e Entry) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// entryJSON is the persisted shape of an Entry. An unknown language is stored as null.
type entryJSON struct {
	Translated bool    `json:"translated"`
	Content    string  `json:"content"`
	Language   *string `json:"language"`
	Timestamp  int64   `json:"timestamp"`
}

func (e Entry) MarshalJSON() ([]byte, error) {
	out := entryJSON{
		Translated: e.Translated,
		Content:    e.Content,
		Timestamp:  e.Timestamp,
	}
	if e.Language != "" {
		lang := e.Language
		out.Language = &lang
	}
	return json.Marshal(out)
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var in entryJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*e = Entry{
		Translated: in.Translated,
		Content:    in.Content,
		Timestamp:  in.Timestamp,
	}
	if in.Language != nil {
		e.Language = *in.Language
	}
	return nil
}

// Namespace holds the entries of one item type, keyed by item id.
type Namespace map[string]Entry

// Document is the whole persisted cache, keyed by item type.
type Document map[string]Namespace

// decodeDocument parses a persisted document. Anything that is not a mapping of
// mappings of entries yields an error.
func decodeDocument(raw string) (Document, error) {
	var doc Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return Document{}, nil
	}
	for itemType, ns := range doc {
		if len(ns) == 0 {
			delete(doc, itemType)
		}
	}
	return doc, nil
}

func (d Document) encode() (string, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// set stores an entry, creating its namespace if needed.
func (d Document) set(itemType, itemID string, entry Entry) {
	ns, ok := d[itemType]
	if !ok {
		ns = make(Namespace)
		d[itemType] = ns
	}
	ns[itemID] = entry
}

// remove deletes an entry and drops its namespace once empty.
// Returns true if the entry existed.
func (d Document) remove(itemType, itemID string) bool {
	ns, ok := d[itemType]
	if !ok {
		return false
	}
	_, existed := ns[itemID]
	delete(ns, itemID)
	if len(ns) == 0 {
		delete(d, itemType)
	}
	return existed
}

// Len returns the number of entries across all namespaces.
func (d Document) Len() int {
	n := 0
	for _, ns := range d {
		n += len(ns)
	}
	return n
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for itemType, ns := range d {
		cp := make(Namespace, len(ns))
		for id, e := range ns {
			cp[id] = e
		}
		out[itemType] = cp
	}
	return out
}
