package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mlefevre/skypulse/app/database"
	"github.com/mlefevre/skypulse/app/sentiment"
)

// SentimentAnalyzer scores a batch of cleaned texts, one result per input
// in input order.
type SentimentAnalyzer interface {
	AnalyzeBatch(ctx context.Context, texts []string) ([]sentiment.Score, error)
}

// Report summarizes one pipeline run.
type Report struct {
	Query      string
	Purged     bool
	Fetched    int
	Normalized int
	Candidates int
	Inserted   int
	Duplicates int
	Skipped    int
}

// Runner orchestrates one ingestion run: resolve the active query, load the
// dedup key set, collect and normalize feed items, score sentiment in one
// batch, and insert the survivors row by row.
type Runner struct {
	repo       database.PostRepository
	resolver   *Resolver
	collector  *Collector
	normalizer *Normalizer
	analyzer   SentimentAnalyzer
}

func NewRunner(repo database.PostRepository, resolver *Resolver, collector *Collector,
	normalizer *Normalizer, analyzer SentimentAnalyzer) *Runner {
	return &Runner{
		repo:       repo,
		resolver:   resolver,
		collector:  collector,
		normalizer: normalizer,
		analyzer:   analyzer,
	}
}

func (r *Runner) Run(ctx context.Context, override string) (*Report, error) {
	resolution, err := r.resolver.Resolve(override)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Query:  resolution.Query,
		Purged: resolution.Purged,
	}

	// The key set is loaded after the resolver's purge has committed, so
	// old-query posts are never mistaken for already seen.
	existing, err := r.repo.GetExistingURIs()
	if err != nil {
		return nil, err
	}

	items, err := r.collector.Collect(ctx, resolution.Query)
	if err != nil {
		return nil, err
	}
	report.Fetched = len(items)

	if len(items) == 0 {
		slog.Info("Feed returned no items", "query", resolution.Query)
		return report, nil
	}

	posts := r.normalizer.NormalizeAll(ctx, items, resolution.Query)
	report.Normalized = len(posts)

	candidates := dedup(posts, existing)
	report.Candidates = len(candidates)

	if len(candidates) == 0 {
		slog.Info("No new posts after deduplication", "query", resolution.Query)
		return report, nil
	}

	texts := make([]string, len(candidates))
	for i, post := range candidates {
		texts[i] = post.Text
	}

	scores, err := r.analyzer.AnalyzeBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("sentiment scoring failed: %w", err)
	}

	if len(scores) < len(candidates) {
		slog.Warn("Sentiment backend returned fewer results than candidates",
			"candidates", len(candidates), "results", len(scores))
	}

	for i, post := range candidates {
		if i >= len(scores) {
			report.Skipped++
			slog.Warn("Skipping candidate without sentiment result", "uri", post.URI)
			continue
		}
		post.Sentiment = scores[i].Label
		post.Confidence = scores[i].Confidence

		status, err := r.repo.InsertPost(post)
		if err != nil {
			report.Skipped++
			slog.Error("Failed to insert post", "uri", post.URI, "error", err)
			continue
		}
		if status == database.InsertStatusDuplicate {
			report.Duplicates++
			slog.Debug("Post inserted concurrently elsewhere, skipping", "uri", post.URI)
			continue
		}
		report.Inserted++
	}

	slog.Info("Ingestion run complete",
		"query", report.Query,
		"fetched", report.Fetched,
		"candidates", report.Candidates,
		"inserted", report.Inserted,
		"duplicates", report.Duplicates,
		"skipped", report.Skipped)

	return report, nil
}

// dedup drops posts whose URI is already stored or repeated in the batch.
func dedup(posts []database.Post, existing map[string]struct{}) []database.Post {
	seen := make(map[string]struct{}, len(posts))
	var fresh []database.Post

	for _, post := range posts {
		if _, ok := existing[post.URI]; ok {
			continue
		}
		if _, ok := seen[post.URI]; ok {
			continue
		}
		seen[post.URI] = struct{}{}
		fresh = append(fresh, post)
	}

	return fresh
}
