package scraper

import (
	"html"
	"strings"
	"unicode/utf16"

	"github.com/microcosm-cc/bluemonday"

	"pinsaver/internal/domain"
)

// paragraphSelectors are tried in order by ExtractDescription.
var paragraphSelectors = []string{
	"article p",
	".content p",
	".post-content p",
	".entry-content p",
	"main p",
	"p",
}

const (
	minParagraphLen = 50
	maxParagraphLen = 500
)

var strictPolicy = bluemonday.StrictPolicy()

// rawPage is what the in-page query returns before cleanup.
type rawPage struct {
	Title           string
	URL             string
	MetaDescription string
	OGDescription   string
	OGImage         string
	Keywords        string
}

// stripMarkup removes HTML tags that publishers leave in og:description values,
// which are often copied straight from the post body.
func stripMarkup(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

// buildPageMetadata keeps the page's values as the page reports them. Only the
// og:description fallback is cleaned up.
func buildPageMetadata(raw rawPage) domain.PageMetadata {
	md := domain.PageMetadata{
		Title:       raw.Title,
		URL:         raw.URL,
		Description: raw.MetaDescription,
		Image:       raw.OGImage,
		Tags:        splitKeywords(raw.Keywords),
	}
	if md.Description == "" {
		md.Description = stripMarkup(raw.OGDescription)
	}
	return md
}

// splitKeywords turns a meta keywords value into trimmed, non-empty tags.
func splitKeywords(keywords string) []string {
	tags := []string{}
	for _, tag := range strings.Split(keywords, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// pickParagraph returns the first paragraph whose length is strictly between the
// bounds. groups holds the paragraph texts matched by each of paragraphSelectors.
func pickParagraph(groups [][]string) string {
	for _, group := range groups {
		for _, p := range group {
			text := strings.TrimSpace(p)
			n := utf16Len(text)
			if n > minParagraphLen && n < maxParagraphLen {
				return text
			}
		}
	}
	return ""
}

// utf16Len measures text the way a browser's String.length does.
func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}
