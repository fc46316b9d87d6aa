package slack

import "unicode/utf8"

// maxSectionTextBytes is Slack's limit for the text of a section block
const maxSectionTextBytes = 3000

// truncateToMaxBytes cuts s to at most max bytes without splitting a UTF-8
// sequence. An ellipsis is appended when anything was cut.
func truncateToMaxBytes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	const ellipsis = "…"
	limit := max - len(ellipsis)
	if limit <= 0 {
		return ""
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit] + ellipsis
}
