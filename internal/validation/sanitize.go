package validation

import (
	"regexp"
	"strings"
)

// Free-text fields (auction titles, descriptions) accept arbitrary prose, so
// instead of a charset allowlist they get active stripping of the markup
// classes that enable stored XSS.
var (
	scriptTagPattern = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`)
	iframeTagPattern = regexp.MustCompile(`(?is)<iframe\b[^>]*>.*?</iframe\s*>`)
	danglingTag      = regexp.MustCompile(`(?i)<\s*/?\s*(?:script|iframe)\b[^>]*>`)
	eventHandler     = regexp.MustCompile(`(?i)\son\w+\s*=\s*(?:"[^"]*"|'[^']*'|[^\s>]+)`)
	jsURIPattern     = regexp.MustCompile(`(?i)javascript\s*:`)
)

// StripDangerousHTML removes script and iframe elements, inline on* event
// handlers and javascript: URIs from free text. It loops until the value is
// stable so nested payloads ("<scr<script>ipt>") cannot survive one pass.
func StripDangerousHTML(raw string) string {
	s := raw
	for {
		prev := s
		s = scriptTagPattern.ReplaceAllString(s, "")
		s = iframeTagPattern.ReplaceAllString(s, "")
		s = danglingTag.ReplaceAllString(s, "")
		s = eventHandler.ReplaceAllString(s, "")
		s = jsURIPattern.ReplaceAllString(s, "")
		if s == prev {
			return strings.TrimSpace(s)
		}
	}
}
