package pagination

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ortex-financial/ortex-go/pkg/response"
)

// Fetcher is the client surface the pager needs: a relative-path call for
// the first page and an absolute-link call for cursors.
type Fetcher interface {
	Get(ctx context.Context, path string, params url.Values) (*response.Response, error)
	GetLink(ctx context.Context, link string) (*response.Response, error)
}

// Config holds pager settings.
type Config struct {
	// MaxPages caps how many pages one FetchAll may retrieve.
	MaxPages int
}

// DefaultConfig returns safe pager defaults.
func DefaultConfig() Config {
	return Config{
		MaxPages: 100,
	}
}

// Pager follows pagination links and merges the pages into one envelope.
type Pager struct {
	fetcher Fetcher
	config  Config
}

// New creates a Pager.
func New(fetcher Fetcher, config Config) *Pager {
	if config.MaxPages <= 0 {
		config.MaxPages = 100
	}
	return &Pager{
		fetcher: fetcher,
		config:  config,
	}
}

// FetchAll fetches every page of an endpoint and returns a combined
// envelope: all rows concatenated, creditsUsed summed across pages,
// creditsLeft from the final page, and no remaining pagination links.
func (p *Pager) FetchAll(ctx context.Context, path string, params url.Values) (*response.Response, error) {
	start := time.Now()

	page, err := p.fetcher.Get(ctx, path, params)
	if err != nil {
		return nil, fmt.Errorf("fetch first page: %w", err)
	}

	combined := &response.Response{
		Rows:        page.Rows,
		Data:        page.Data,
		Length:      page.Length,
		CreditsUsed: page.CreditsUsed,
		CreditsLeft: page.CreditsLeft,
		Company:     page.Company,
		Period:      page.Period,
		Category:    page.Category,
	}

	pages := 1
	for page.HasNextPage() && pages < p.config.MaxPages {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		page, err = p.fetcher.GetLink(ctx, page.NextLink())
		if err != nil {
			return nil, fmt.Errorf("fetch page %d: %w", pages+1, err)
		}

		combined.Rows = append(combined.Rows, page.Rows...)
		combined.CreditsUsed += page.CreditsUsed
		combined.CreditsLeft = page.CreditsLeft
		pages++

		if pages%10 == 0 {
			log.Info().
				Str("endpoint", path).
				Int("pages", pages).
				Int("rows", len(combined.Rows)).
				Msg("Fetch progress")
		}
	}

	if page.HasNextPage() {
		log.Warn().
			Str("endpoint", path).
			Int("max_pages", p.config.MaxPages).
			Msg("Page limit reached before chain end - returning partial result")
	}

	log.Debug().
		Str("endpoint", path).
		Int("pages", pages).
		Int("rows", len(combined.Rows)).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return combined, nil
}
