// Package htmlsanitize cleans user-submitted text before it is stored.
// Event reviews and descriptions arrive from an open signup form, so markup
// is stripped with bluemonday rather than trusted.
package htmlsanitize

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy *bluemonday.Policy
	strictOnce   sync.Once
)

func getStrictPolicy() *bluemonday.Policy {
	strictOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strictPolicy
}

// Review strips all HTML from a review and trims surrounding whitespace.
// Reviews are stored and rendered as plain text.
func Review(text string) string {
	if text == "" {
		return ""
	}
	return strings.TrimSpace(getStrictPolicy().Sanitize(text))
}

// Description strips all HTML from an event description. Descriptions are
// plain text in the API; any markup in the input is attacker-controlled.
func Description(text string) string {
	if text == "" {
		return ""
	}
	return strings.TrimSpace(getStrictPolicy().Sanitize(text))
}
