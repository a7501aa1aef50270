// Package htmlsanitize strips unsafe markup from user-supplied text
// before it is stored.
package htmlsanitize

import "github.com/microcosm-cc/bluemonday"

// strict removes all HTML. Titles, descriptions, and names are plain
// text in this application, so nothing richer is allowed through.
var strict = bluemonday.StrictPolicy()

// Strict returns s with every HTML element and attribute removed.
func Strict(s string) string {
	return strict.Sanitize(s)
}
