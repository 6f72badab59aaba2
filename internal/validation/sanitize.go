package validation

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var plainText = bluemonday.StrictPolicy()

// CleanText strips markup from user text and trims it. Entities escaped by the
// policy are decoded again so the stored value stays plain text.
func CleanText(s string) string {
	return strings.TrimSpace(html.UnescapeString(plainText.Sanitize(s)))
}
