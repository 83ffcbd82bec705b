package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/mlefevre/skypulse/app/bluesky"
	"github.com/mlefevre/skypulse/app/database"
	"github.com/mlefevre/skypulse/app/textclean"
	"github.com/mlefevre/skypulse/app/translate"
)

// TextTranslator translates a batch of texts to English, one result per
// input in input order.
type TextTranslator interface {
	TranslateAll(ctx context.Context, texts []string) []translate.Result
}

// Normalizer maps raw feed items into persistable posts. Translation runs
// before cleaning: the character allow-list would destroy non-Latin text,
// so the original text must reach the translator intact.
type Normalizer struct {
	cleaner    *textclean.Cleaner
	translator TextTranslator // nil disables translation
}

func NewNormalizer(cleaner *textclean.Cleaner, translator TextTranslator) *Normalizer {
	return &Normalizer{
		cleaner:    cleaner,
		translator: translator,
	}
}

// NormalizeAll converts raw items to posts for the given query. Items
// without a URI cannot be deduplicated and are dropped; unparseable
// timestamps yield a nil timestamp, not a dropped item.
func (n *Normalizer) NormalizeAll(ctx context.Context, items []bluesky.PostView, query string) []database.Post {
	var usable []bluesky.PostView
	for _, item := range items {
		if item.URI == "" {
			slog.Warn("Dropping item without URI", "author", item.Author.Handle)
			continue
		}
		usable = append(usable, item)
	}

	translations := n.translateAll(ctx, usable)

	posts := make([]database.Post, 0, len(usable))
	for i, item := range usable {
		post := database.Post{
			URI:      item.URI,
			Text:     n.cleaner.Clean(translations[i].Text),
			Author:   item.Author.Handle,
			Language: translations[i].Language,
			Query:    query,
		}

		if createdAt, ok := parseTimestamp(item.Record.CreatedAt); ok {
			post.CreatedAt = &createdAt
		} else if item.Record.CreatedAt != "" {
			slog.Warn("Unparseable creation timestamp",
				"uri", item.URI, "createdAt", item.Record.CreatedAt)
		}

		posts = append(posts, post)
	}

	return posts
}

func (n *Normalizer) translateAll(ctx context.Context, items []bluesky.PostView) []translate.Result {
	if n.translator != nil {
		texts := make([]string, len(items))
		for i, item := range items {
			texts[i] = item.Record.Text
		}
		return n.translator.TranslateAll(ctx, texts)
	}

	results := make([]translate.Result, len(items))
	for i, item := range items {
		results[i] = translate.Result{
			Text:     item.Record.Text,
			Language: claimedLanguage(item),
		}
	}
	return results
}

func claimedLanguage(item bluesky.PostView) string {
	if len(item.Record.Langs) > 0 {
		return item.Record.Langs[0]
	}
	return translate.LanguageUnknown
}

// parseTimestamp accepts RFC 3339 timestamps, with a trailing "Z" standing
// in for the UTC offset, and returns the parsed time in UTC.
func parseTimestamp(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}
