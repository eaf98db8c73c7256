package cache

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"
)

// ExportFormat represents the JSON structure for cache export/import.
type ExportFormat struct {
	Version    string            `json:"version"`
	ExportedAt string            `json:"exported_at"`
	RootKey    string            `json:"root_key"`
	Entries    []ExportEntry     `json:"entries"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// ExportEntry represents a single cached translation.
type ExportEntry struct {
	ItemType  string `json:"item_type"`
	ItemID    string `json:"item_id"`
	Content   string `json:"content"`
	Language  string `json:"language,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

const exportVersion = "1.0"

// Exporter provides cache export functionality.
type Exporter struct {
	store *Store
}

// NewExporter creates a new cache exporter.
func NewExporter(store *Store) *Exporter {
	return &Exporter{store: store}
}

// Export writes the live cache entries to a writer in JSON format.
// Entries are ordered by item type, then item id.
func (e *Exporter) Export(w io.Writer, metadata map[string]string) error {
	export := ExportFormat{
		Version:    exportVersion,
		ExportedAt: e.store.Now().UTC().Format(time.RFC3339),
		RootKey:    e.store.RootKey(),
		Entries:    exportEntries(e.store.Document()),
		Metadata:   metadata,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(export); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}

	return nil
}

// ExportToFile exports the cache to a file.
// The path is provided by the caller and is intentionally user-controlled.
func (e *Exporter) ExportToFile(path string, metadata map[string]string) error {
	f, err := os.Create(path) // #nosec G304 - path is intentionally user-provided
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	return e.Export(f, metadata)
}

func exportEntries(doc Document) []ExportEntry {
	entries := make([]ExportEntry, 0, doc.Len())
	for itemType, ns := range doc {
		for itemID, entry := range ns {
			entries = append(entries, ExportEntry{
				ItemType:  itemType,
				ItemID:    itemID,
				Content:   entry.Content,
				Language:  entry.Language,
				Timestamp: entry.Timestamp,
			})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].ItemType != entries[j].ItemType {
			return entries[i].ItemType < entries[j].ItemType
		}
		return entries[i].ItemID < entries[j].ItemID
	})
	return entries
}

// Importer provides cache import functionality.
type Importer struct {
	store *Store
}

// NewImporter creates a new cache importer.
func NewImporter(store *Store) *Importer {
	return &Importer{store: store}
}

// Import reads exported entries and stores them, keeping their original timestamps.
// Entries that already expired are skipped.
func (i *Importer) Import(r io.Reader) (*ImportResult, error) {
	var export ExportFormat
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return nil, fmt.Errorf("decoding JSON: %w", err)
	}

	result := &ImportResult{
		Version:  export.Version,
		Metadata: export.Metadata,
	}

	if !i.store.Enabled() {
		result.Skipped = len(export.Entries)
		return result, nil
	}

	now := i.store.Now()
	for _, ee := range export.Entries {
		entry := Entry{
			Translated: true,
			Content:    ee.Content,
			Language:   ee.Language,
			Timestamp:  ee.Timestamp,
		}

		if ee.ItemType == "" || ee.ItemID == "" || isExpired(entry, now, i.store.TTL()) {
			result.Skipped++
			continue
		}

		if err := i.store.Put(ee.ItemType, ee.ItemID, entry); err != nil {
			result.Failed++
			continue
		}
		result.Imported++
	}

	return result, nil
}

// ImportFromFile imports cache entries from a file.
// The path is provided by the caller and is intentionally user-controlled.
func (i *Importer) ImportFromFile(path string) (*ImportResult, error) {
	f, err := os.Open(path) // #nosec G304 - path is intentionally user-provided
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	return i.Import(f)
}

// ImportResult contains statistics about the import operation.
type ImportResult struct {
	Version  string
	Metadata map[string]string
	Imported int
	Skipped  int // Expired or incomplete entries
	Failed   int // Entries the store could not persist
}
