package relay

import "regexp"

// Denylist sanitizer for recipient-supplied text reflected into the
// landing page. Not a substitute for an allowlist HTML parser; the
// page renderer accepts any func(string) string so one can be
// swapped in.
var (
	reScript = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`)
	reIframe = regexp.MustCompile(`(?is)<iframe\b[^>]*>.*?</iframe\s*>`)
	reAnchor = regexp.MustCompile(`(?is)<a\b[^>]*\bhref\s*=\s*["']?([^"'\s>]+)["']?[^>]*>(.*?)</a\s*>`)
	reATag   = regexp.MustCompile(`(?i)</?a\b[^>]*>`)
	reOnAttr = regexp.MustCompile(`(?i)\son[a-z]+\s*=\s*("[^"]*"|'[^']*'|[^\s>]+)`)
	reJSURI  = regexp.MustCompile(`(?i)javascript\s*:`)
)

// Sanitize strips script/iframe blocks, defangs anchors into
// "URL TEXT" plain text and removes event handlers and javascript:
// schemes. Plain text passes through unchanged.
func Sanitize(s string) string {
	s = reScript.ReplaceAllString(s, "")
	s = reIframe.ReplaceAllString(s, "")
	s = reAnchor.ReplaceAllString(s, "$1 $2")
	s = reATag.ReplaceAllString(s, "")
	s = reOnAttr.ReplaceAllString(s, "")
	s = reJSURI.ReplaceAllString(s, "")
	return s
}
