package scraper

import (
	"context"

	"pinsaver/internal/domain"
)

// Scraper queries a live page for metadata. All results are best-effort.
type Scraper interface {
	// ImageMetadata looks up the alt and title attributes of the <img> on pageURL
	// whose src or currentSrc equals imageURL.
	ImageMetadata(ctx context.Context, pageURL, imageURL string) (domain.DOMMetadata, error)

	// PageMetadata summarizes the page's title and meta tags.
	PageMetadata(ctx context.Context, pageURL string) (domain.PageMetadata, error)

	// ExtractDescription returns the first paragraph of reasonable length, or "".
	ExtractDescription(ctx context.Context, pageURL string) (string, error)
}
