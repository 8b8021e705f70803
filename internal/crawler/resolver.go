package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"communes/internal/document"
	"communes/internal/extractor"
	"communes/internal/models"
)

// Resolver errors. Both are row-scoped.
var (
	ErrMissingHref = errors.New("commune link has no href")
	ErrInvalidHref = errors.New("commune link href is not a valid URL")
)

// Resolution is what a commune's own page says about it.
type Resolution struct {
	Code        string
	Locator     string
	Coordinates models.Coordinates
	// Resolved is true when the linked page yielded a table to read from.
	Resolved bool
}

// Resolver follows the link of a commune name cell to the commune's page and
// reads its infobox, the first table of that page.
type Resolver struct {
	fetcher   TableFetcher
	extractor *extractor.Extractor
	base      *url.URL
	fallback  models.Coordinates
}

// NewResolver creates a resolver; relative links are resolved against baseURL.
func NewResolver(fetcher TableFetcher, ex *extractor.Extractor, baseURL string, fallback models.Coordinates) (*Resolver, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}

	return &Resolver{
		fetcher:   fetcher,
		extractor: ex,
		base:      base,
		fallback:  fallback,
	}, nil
}

// Resolve returns the code and coordinates for the commune named in cell.
// A cell without a link, or a page without tables, yields the unresolved
// defaults. Exactly one fetch happens per call that finds a link.
func (r *Resolver) Resolve(ctx context.Context, cell document.Cell) (Resolution, error) {
	res := Resolution{
		Code:        models.UnresolvedCode,
		Coordinates: r.fallback,
	}

	link, ok := cell.FirstLink()
	if !ok {
		return res, nil
	}

	locator, err := r.Locator(link)
	if err != nil {
		return Resolution{}, err
	}

	res.Locator = locator

	tables := r.fetcher.FetchTables(ctx, locator)
	if len(tables) == 0 {
		return res, nil
	}

	infobox := tables[0]
	res.Code = r.extractor.Code(infobox)
	res.Coordinates = r.extractor.Coordinates(infobox)
	res.Resolved = true

	return res, nil
}

// Locator turns a link into an absolute URL.
func (r *Resolver) Locator(link document.Link) (string, error) {
	href, ok := link.Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return "", ErrMissingHref
	}

	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidHref, href, err)
	}

	return r.base.ResolveReference(ref).String(), nil
}
