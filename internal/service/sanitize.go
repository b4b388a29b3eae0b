package service

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// FREE TEXT IS PLAIN TEXT:
// Post content, comments and bios are stored and served as plain text.
// bluemonday's StrictPolicy removes every tag (and the body of <script>
// and <style>), then escapes what is left as HTML entities. We unescape
// once so "fish & chips" is stored as typed, not as "fish &amp; chips".
//
// A bluemonday.Policy is safe for concurrent use once built, so a single
// package-level policy serves every request.
var strictPolicy = bluemonday.StrictPolicy()

// cleanText strips markup and surrounding whitespace.
func cleanText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

// tooLong counts runes, not bytes: "é" is one character to a user.
func tooLong(s string, max int) bool {
	return utf8.RuneCountInString(s) > max
}
