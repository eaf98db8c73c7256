package tlcache

import "context"

// Format declares the markup language of a text.
type Format string

const (
	// FormatHTML is HTML markup.
	FormatHTML Format = "html"
	// FormatBBCode is BBCode markup.
	FormatBBCode Format = "bbcode"
	// FormatPlain is plain text. Any format other than html or bbcode is treated the same way.
	FormatPlain Format = "plain"
)

// Request describes one translation of one item.
type Request struct {
	Text       string // Source text
	SourceLang string // Source language code, empty to let the backend detect it
	TargetLang string // Target language code (e.g., "es", "ja_JP")
	Format     Format // Markup format of Text
	ItemType   string // Cache namespace (e.g., "comment", "image-description")
	ItemID     string // Item identifier within ItemType
}

// BackendRequest contains the parameters passed to a TranslationBackend.
type BackendRequest struct {
	Text       string
	SourceLang string
	TargetLang string
	Format     Format
}

// TranslationBackend is the interface for remote translation services.
type TranslationBackend interface {
	Translate(ctx context.Context, req BackendRequest) (string, error)
}

// TranslationBackendFunc adapts a function to the TranslationBackend interface.
type TranslationBackendFunc func(ctx context.Context, req BackendRequest) (string, error)

// Translate calls f.
func (f TranslationBackendFunc) Translate(ctx context.Context, req BackendRequest) (string, error) {
	return f(ctx, req)
}
