// Package describe derives a human-readable description for a saved image.
package describe

import (
	"strings"

	"pinsaver/internal/domain"
)

const (
	separator       = " | "
	fallbackGeneric = "Saved image"
)

// Build returns the best available description for req. It never fails: missing or
// malformed inputs are skipped and the result degrades to a filename or a generic label.
func Build(req domain.ImageSaveRequest) string {
	var parts []string

	if md := req.Metadata; md != nil {
		alt := strings.TrimSpace(md.AltText)
		title := strings.TrimSpace(md.TitleText)
		if alt != "" {
			parts = append(parts, alt)
		}
		if title != "" && title != alt {
			parts = append(parts, title)
		}
	}

	if host := hostname(req.PageURL); host != "" {
		parts = append(parts, "Source: "+host)
	}

	if len(parts) > 0 {
		return strings.Join(parts, separator)
	}

	if name := filename(req.ImageURL); name != "" {
		return "Image: " + name
	}
	return fallbackGeneric
}

// hostname is empty when pageURL is not an absolute URL.
func hostname(pageURL string) string {
	u, ok := domain.ParseAbsoluteURL(pageURL)
	if !ok {
		return ""
	}
	return u.Hostname()
}

// filename returns the last path segment of imageURL if it looks like a file name.
func filename(imageURL string) string {
	u, ok := domain.ParseAbsoluteURL(imageURL)
	if !ok {
		return ""
	}
	segments := strings.Split(u.EscapedPath(), "/")
	last := segments[len(segments)-1]
	if !strings.Contains(last, ".") {
		return ""
	}
	return last
}
