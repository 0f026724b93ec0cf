package utils

import "github.com/microcosm-cc/bluemonday"

// Two sanitization passes guard post content: a storage whitelist applied
// on every write, and a stricter display whitelist applied again on every
// read. Both drop script/style injection, event handlers, and data-*
// attributes unconditionally. Comment text never goes through either pass.

// storagePolicy keeps the authoring surface's formatting vocabulary:
// paragraphs, spans, and bold/italic markup, with inline style on a
// subset of those tags.
var storagePolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "span", "b", "strong", "i", "em")
	p.AllowAttrs("style").OnElements("p", "span", "strong", "em")
	return p
}()

// displayPolicy is the narrower render-time whitelist: minimal structure,
// hyperlinks restricted to standard URL schemes, no inline styles.
var displayPolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "i", "u", "s", "ul", "ol", "li", "br", "em", "a")
	p.AllowStandardURLs()
	p.AllowAttrs("href", "target", "rel").OnElements("a")
	return p
}()

// SanitizeStorage cleans user HTML before it is persisted. Empty input is
// passed through; emptiness checks belong to the caller.
func SanitizeStorage(input string) string {
	return storagePolicy.Sanitize(input)
}

// SanitizeDisplay applies the stricter whitelist to stored content before
// it is returned to readers.
func SanitizeDisplay(input string) string {
	return displayPolicy.Sanitize(input)
}
