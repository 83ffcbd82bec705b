package ingest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/text/language"

	"github.com/mlefevre/skypulse/app/bluesky"
)

// PageFetcher fetches one page of search results. An empty cursor requests
// the first page.
type PageFetcher interface {
	FetchPage(ctx context.Context, query, lang string, limit int, cursor string) (*bluesky.SearchPage, error)
}

// Collector walks the paginated feed for one query and accumulates raw
// items. Collection stops when the feed is exhausted, the page cap is
// reached, or an item older than the since boundary appears. The feed
// returns items newest first, so the first item behind the boundary means
// everything after it is behind it too.
type Collector struct {
	fetcher   PageFetcher
	lang      string
	pageLimit int
	maxPages  int
	since     time.Time // zero disables the date boundary
}

func NewCollector(fetcher PageFetcher, lang string, pageLimit, maxPages int, since time.Time) *Collector {
	return &Collector{
		fetcher:   fetcher,
		lang:      lang,
		pageLimit: pageLimit,
		maxPages:  maxPages,
		since:     since,
	}
}

// Collect fetches pages until a stop condition holds. Authentication
// failures are fatal and return no items; any other fetch failure ends
// pagination and keeps what was collected so far.
func (c *Collector) Collect(ctx context.Context, query string) ([]bluesky.PostView, error) {
	var collected []bluesky.PostView
	cursor := ""

	for page := 0; page < c.maxPages; page++ {
		result, err := c.fetcher.FetchPage(ctx, query, c.lang, c.pageLimit, cursor)
		if err != nil {
			if errors.Is(err, bluesky.ErrAuthentication) {
				return nil, err
			}
			slog.Warn("Page fetch failed, stopping pagination",
				"query", query, "page", page, "error", err)
			return collected, nil
		}

		for _, item := range result.Posts {
			if c.crossedBoundary(item) {
				slog.Debug("Date boundary crossed, halting collection",
					"query", query, "collected", len(collected))
				return collected, nil
			}
			if !c.langMatches(item.Record.Langs) {
				slog.Debug("Dropping item with non-matching language",
					"uri", item.URI, "langs", item.Record.Langs)
				continue
			}
			collected = append(collected, item)
		}

		if result.Cursor == "" || len(result.Posts) == 0 {
			break
		}
		cursor = result.Cursor
	}

	return collected, nil
}

func (c *Collector) crossedBoundary(item bluesky.PostView) bool {
	if c.since.IsZero() {
		return false
	}
	createdAt, ok := parseTimestamp(item.Record.CreatedAt)
	if !ok {
		return false
	}
	return createdAt.Before(c.since)
}

// langMatches re-validates the feed's advisory language filter. Items with
// no language tags are kept.
func (c *Collector) langMatches(langs []string) bool {
	if c.lang == "" || len(langs) == 0 {
		return true
	}

	want, err := language.Parse(c.lang)
	if err != nil {
		return true
	}
	wantBase, _ := want.Base()

	for _, l := range langs {
		tag, err := language.Parse(l)
		if err != nil {
			continue
		}
		base, _ := tag.Base()
		if base == wantBase {
			return true
		}
	}

	return false
}
