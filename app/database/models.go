package database

import (
	"time"
)

// Sentiment labels as stored on a post. Anything the scoring backend returns
// outside POSITIVE/NEGATIVE is mapped to UNKNOWN before it reaches storage.
const (
	SentimentPositive = "POSITIVE"
	SentimentNegative = "NEGATIVE"
	SentimentUnknown  = "UNKNOWN"
)

// Post is a persisted, fully normalized post. URI is the dedup key: unique
// across all rows, a duplicate is rejected on insert rather than overwritten.
type Post struct {
	ID         int64
	URI        string
	Text       string // cleaned, possibly machine-translated
	Author     string
	Language   string // "en", "machine-en", "unknown", or the feed's own tag
	Sentiment  string
	Confidence float64
	Query      string     // the query this post was fetched for
	CreatedAt  *time.Time // nil when the feed timestamp was unparseable
	InsertedAt time.Time
}

// QueryMarker records the query that was active for a completed run. The
// latest row is the stored marker read by the next run; markers are pruned
// once consumed.
type QueryMarker struct {
	ID        int64
	Query     string
	CreatedAt time.Time
}
