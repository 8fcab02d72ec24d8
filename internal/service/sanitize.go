package service

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var stripPolicy = bluemonday.StrictPolicy()

// plainText removes all HTML markup from user-supplied text. Entities the
// policy escapes are decoded again since responses are JSON, not HTML.
func plainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(stripPolicy.Sanitize(s)))
}
