package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mlefevre/skypulse/app/database"
	"github.com/mlefevre/skypulse/app/ingest"
	"github.com/mlefevre/skypulse/app/stats"
)

const defaultPostLimit = 50

// IngestRunner runs one ingestion pass and reports what it did.
type IngestRunner interface {
	Run(ctx context.Context, override string) (*ingest.Report, error)
}

type Handler struct {
	postRepo database.PostRepository
	runner   IngestRunner
	query    string
}

func NewHandler(postRepo database.PostRepository, runner IngestRunner, query string) *Handler {
	return &Handler{
		postRepo: postRepo,
		runner:   runner,
		query:    query,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if count, err := h.postRepo.GetPostCount(); err == nil {
		health["posts"] = count
	}

	if marker, err := h.postRepo.GetLatestMarker(); err == nil && marker != nil {
		health["active_query"] = marker.Query
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetPosts(c *gin.Context) {
	limit := defaultPostLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		limit = parsed
	}

	posts, err := h.postRepo.GetRecentPosts(limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_recent_posts", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if s := c.Query("sentiment"); s != "" {
		posts = stats.FilterBySentiment(posts, s)
	}
	if keyword := c.Query("keyword"); keyword != "" {
		posts = stats.FilterByKeywords(posts, strings.Split(keyword, ","))
	}

	results := make([]map[string]interface{}, 0, len(posts))
	for _, post := range posts {
		entry := map[string]interface{}{
			"uri":        post.URI,
			"text":       post.Text,
			"author":     post.Author,
			"language":   post.Language,
			"sentiment":  post.Sentiment,
			"confidence": post.Confidence,
			"query":      post.Query,
		}
		if post.CreatedAt != nil {
			entry["created_at"] = post.CreatedAt.Format(time.RFC3339)
		}
		results = append(results, entry)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"posts": results,
		"total": len(results),
	})
}

func (h *Handler) GetSummary(c *gin.Context) {
	posts, err := h.postRepo.GetAllPosts()
	if err != nil {
		slog.Error("Database error", "operation", "get_all_posts", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	processor, err := stats.NewProcessor(posts)
	if err != nil {
		slog.Error("Failed to build statistics processor", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Statistics error"})
		return
	}

	overTime, byHour := processor.SentimentOverTime()

	c.JSON(http.StatusOK, map[string]interface{}{
		"post_count":             len(posts),
		"sentiment_distribution": processor.SentimentDistribution(),
		"posts_by_date":          processor.AggregateByDate(),
		"sentiment_over_time":    overTime,
		"hourly_buckets":         byHour,
		"word_frequency":         processor.WordFrequency(3, true),
		"top_words":              processor.TopWordsBySentiment(10, 3),
		"length_sentiment":       processor.TextLengthSentiment(),
		"heatmap":                processor.Heatmap(),
	})
}

func (h *Handler) APITriggerIngest(c *gin.Context) {
	report, err := h.runner.Run(c.Request.Context(), h.query)
	if err != nil {
		slog.Error("Ingestion run failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Ingestion failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"query":      report.Query,
		"purged":     report.Purged,
		"fetched":    report.Fetched,
		"candidates": report.Candidates,
		"inserted":   report.Inserted,
		"duplicates": report.Duplicates,
		"skipped":    report.Skipped,
	})
}
