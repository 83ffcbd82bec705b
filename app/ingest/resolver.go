package ingest

import (
	"fmt"
	"log/slog"

	"github.com/mlefevre/skypulse/app/database"
)

// Resolution is the outcome of reconciling the stored query marker against
// the configured override.
type Resolution struct {
	Query        string
	Purged       bool
	PurgedPosts  int64
	PrunedMarker int64
}

// Resolver decides which query is active for this run. Storage holds the
// results of exactly one query at a time: when the configured override
// disagrees with the marker left by the previous run, every stored post
// belongs to the old query and is purged before fetching begins.
//
// The override wins a disagreement. The marker records what was fetched
// last, but the override is the operator's current intent; letting the
// marker win would leave the override permanently ineffective.
type Resolver struct {
	repo         database.PostRepository
	defaultQuery string
}

func NewResolver(repo database.PostRepository, defaultQuery string) *Resolver {
	return &Resolver{
		repo:         repo,
		defaultQuery: defaultQuery,
	}
}

// Resolve reads and consumes the stored marker, applies the override rules,
// purges posts on a query change, and records the active query as the new
// marker. The purge commits before the caller loads existing dedup keys.
func (r *Resolver) Resolve(override string) (*Resolution, error) {
	marker, err := r.repo.GetLatestMarker()
	if err != nil {
		return nil, fmt.Errorf("failed to read query marker: %w", err)
	}

	res := &Resolution{}

	switch {
	case marker == nil && override == "":
		res.Query = r.defaultQuery
	case marker == nil:
		res.Query = override
	case override == "" || override == marker.Query:
		res.Query = marker.Query
	default:
		res.Query = override
		res.Purged = true
	}

	if res.Purged {
		deleted, err := r.repo.DeleteAllPosts()
		if err != nil {
			return nil, fmt.Errorf("failed to purge posts on query change: %w", err)
		}
		res.PurgedPosts = deleted

		slog.Info("Active query changed, purged stored posts",
			"previous", marker.Query, "active", res.Query, "purged", deleted)
	}

	if marker != nil {
		pruned, err := r.repo.PruneMarkers()
		if err != nil {
			return nil, fmt.Errorf("failed to prune query markers: %w", err)
		}
		res.PrunedMarker = pruned
	}

	if err := r.repo.SetMarker(res.Query); err != nil {
		return nil, fmt.Errorf("failed to record active query: %w", err)
	}

	slog.Debug("Resolved active query", "query", res.Query, "purged", res.Purged)

	return res, nil
}
