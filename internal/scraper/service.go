package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/sirupsen/logrus"

	"pinsaver/internal/domain"
	"pinsaver/internal/metrics"
)

const findImageJS = `(src) => {
	for (const img of document.querySelectorAll('img')) {
		if (img.src === src || img.currentSrc === src) {
			return {alt: img.getAttribute('alt') || '', title: img.getAttribute('title') || '', found: true};
		}
	}
	return {alt: '', title: '', found: false};
}`

const pageMetaJS = `() => {
	const content = (sel) => {
		const el = document.querySelector(sel);
		return (el && el.getAttribute('content')) || '';
	};
	return {
		title: document.title || '',
		url: window.location.href,
		description: content('meta[name="description"]'),
		ogDescription: content('meta[property="og:description"]'),
		ogImage: content('meta[property="og:image"]'),
		keywords: content('meta[name="keywords"]'),
	};
}`

const paragraphsJS = `(selectors) => selectors.map(
	(sel) => Array.from(document.querySelectorAll(sel)).map((p) => p.textContent || '')
)`

// RodScraper implements Scraper by loading the page in a headless browser.
type RodScraper struct {
	timeout time.Duration
	log     logrus.FieldLogger
}

// NewRodScraper creates a scraper that gives each page at most timeout to load and answer.
func NewRodScraper(timeout time.Duration, logger logrus.FieldLogger) *RodScraper {
	return &RodScraper{
		timeout: timeout,
		log:     logger.WithField("component", "scraper"),
	}
}

// ImageMetadata finds the right-clicked image on the page and reads its alt and title.
func (s *RodScraper) ImageMetadata(ctx context.Context, pageURL, imageURL string) (domain.DOMMetadata, error) {
	var md domain.DOMMetadata
	err := s.withPage(ctx, pageURL, func(page *rod.Page) error {
		res, err := page.Eval(findImageJS, imageURL)
		if err != nil {
			return fmt.Errorf("failed to query images: %w", err)
		}
		md = domain.DOMMetadata{
			AltText:   res.Value.Get("alt").Str(),
			TitleText: res.Value.Get("title").Str(),
			Found:     res.Value.Get("found").Bool(),
		}
		return nil
	})
	switch {
	case err != nil:
		metrics.ObserveMetadataLookup("failed")
		return domain.DOMMetadata{}, err
	case md.Found:
		metrics.ObserveMetadataLookup("found")
	default:
		metrics.ObserveMetadataLookup("missing")
	}
	return md, nil
}

// PageMetadata reads the title and meta tags of pageURL.
func (s *RodScraper) PageMetadata(ctx context.Context, pageURL string) (domain.PageMetadata, error) {
	var md domain.PageMetadata
	err := s.withPage(ctx, pageURL, func(page *rod.Page) error {
		res, err := page.Eval(pageMetaJS)
		if err != nil {
			return fmt.Errorf("failed to read meta tags: %w", err)
		}
		md = buildPageMetadata(rawPage{
			Title:           res.Value.Get("title").Str(),
			URL:             res.Value.Get("url").Str(),
			MetaDescription: res.Value.Get("description").Str(),
			OGDescription:   res.Value.Get("ogDescription").Str(),
			OGImage:         res.Value.Get("ogImage").Str(),
			Keywords:        res.Value.Get("keywords").Str(),
		})
		return nil
	})
	if err != nil {
		return domain.PageMetadata{}, err
	}
	return md, nil
}

// ExtractDescription picks a paragraph from the page body to use as a description.
func (s *RodScraper) ExtractDescription(ctx context.Context, pageURL string) (string, error) {
	var description string
	err := s.withPage(ctx, pageURL, func(page *rod.Page) error {
		res, err := page.Eval(paragraphsJS, paragraphSelectors)
		if err != nil {
			return fmt.Errorf("failed to read paragraphs: %w", err)
		}
		var groups [][]string
		for _, group := range res.Value.Arr() {
			var texts []string
			for _, text := range group.Arr() {
				texts = append(texts, text.Str())
			}
			groups = append(groups, texts)
		}
		description = pickParagraph(groups)
		return nil
	})
	if err != nil {
		return "", err
	}
	return description, nil
}

// withPage launches a browser, loads pageURL and runs fn against it.
// The browser and page are closed before returning.
func (s *RodScraper) withPage(ctx context.Context, pageURL string, fn func(*rod.Page) error) (err error) {
	log := s.log.WithField("url", pageURL)
	log.Debug("Loading page")

	path, exists := launcher.LookPath()
	if !exists {
		log.Error("Cannot find browser executable for rod")
		return errors.New("rod browser dependency not found")
	}
	l := launcher.New().Bin(path)
	defer func() {
		l.Kill()
		l.Cleanup()
	}()

	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err = browser.Connect(); err != nil {
		log.WithError(err).Error("Failed to connect to rod browser")
		return fmt.Errorf("failed to connect to browser: %w", err)
	}
	defer func() {
		if closeErr := browser.Close(); closeErr != nil {
			log.WithError(closeErr).Warn("Error closing rod browser instance")
		}
	}()

	pageCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	page, err := browser.Context(pageCtx).Page(proto.TargetCreateTarget{URL: pageURL})
	if err != nil {
		return fmt.Errorf("failed to create page: %w", err)
	}

	if err = page.WaitLoad(); err != nil {
		if errors.Is(pageCtx.Err(), context.DeadlineExceeded) {
			log.WithError(pageCtx.Err()).Warn("Page load timed out")
			return fmt.Errorf("page load timed out for %s: %w", pageURL, pageCtx.Err())
		}
		return fmt.Errorf("failed waiting for page load: %w", err)
	}

	return fn(page)
}
