package tlcache

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// TrustedContent is translated text together with the trust decision for rendering it.
// No sanitization is performed here: trusted markup must come from a backend that only
// ever translates already-sanitized source material.
type TrustedContent struct {
	Content string // Text as returned by the backend or the cache
	Format  Format // Declared format of Content
	Trusted bool   // Whether Content may be rendered as markup
}

// Gate decides whether content of the given format may be rendered as markup.
// Only html and bbcode are trusted; every other format is plain text.
func Gate(content string, format Format) TrustedContent {
	return TrustedContent{
		Content: content,
		Format:  format,
		Trusted: IsMarkup(format),
	}
}

// IsMarkup reports whether format is rendered as markup.
func IsMarkup(format Format) bool {
	return format == FormatHTML || format == FormatBBCode
}

// String returns the raw content.
func (c TrustedContent) String() string {
	return c.Content
}

// HTML returns content ready to embed in an HTML page: trusted markup verbatim,
// anything else escaped.
func (c TrustedContent) HTML() string {
	if c.Trusted {
		return c.Content
	}
	return html.EscapeString(c.Content)
}

// PlainText returns the text with HTML markup removed. BBCode and plain text are
// returned unchanged.
func (c TrustedContent) PlainText() string {
	if !c.Trusted || c.Format != FormatHTML {
		return c.Content
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(c.Content))
	if err != nil {
		return c.Content
	}
	return doc.Text()
}
