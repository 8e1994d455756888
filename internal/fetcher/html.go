package fetcher

import (
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// cleanHTML unescapes HTML entities, strips tags with a tolerant HTML
// parser, and collapses runs of whitespace — the same pipeline the
// listing parser and the comment-page parser both apply to raw body
// fragments before a Post or comment body is considered clean.
func cleanHTML(raw string) string {
	unescaped := html.UnescapeString(raw)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(unescaped))
	if err != nil {
		return collapseWhitespace(unescaped)
	}
	return collapseWhitespace(doc.Text())
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}
