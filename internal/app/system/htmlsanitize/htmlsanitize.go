// internal/app/system/htmlsanitize/htmlsanitize.go

// Package htmlsanitize cleans operator-supplied text before it is
// stored. Descriptions may carry limited rich text; names, codes, and
// other identity fields must come out as plain text.
package htmlsanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// richText allows the formatting the console's description editor
	// produces and nothing executable.
	richText = bluemonday.UGCPolicy()

	// plain strips every tag.
	plain = bluemonday.StrictPolicy()
)

// Sanitize cleans rich-text input (descriptions, notes). Safe
// formatting is preserved; scripts, event handlers, and unsafe URLs are
// removed.
func Sanitize(s string) string {
	return richText.Sanitize(s)
}

// StripTags reduces input to plain text. Used for names, codes, and any
// field that is rendered verbatim elsewhere.
func StripTags(s string) string {
	return strings.TrimSpace(plain.Sanitize(s))
}
