package stats

import (
	"testing"
	"time"

	"github.com/mlefevre/skypulse/app/database"
)

func newTestProcessor(t *testing.T, posts []database.Post) *Processor {
	t.Helper()
	p, err := NewProcessor(posts)
	if err != nil {
		t.Fatalf("NewProcessor returned error: %v", err)
	}
	return p
}

func at(day, hour int) *time.Time {
	ts := time.Date(2026, 3, day, hour, 0, 0, 0, time.UTC)
	return &ts
}

func TestSentimentDistribution(t *testing.T) {
	p := newTestProcessor(t, []database.Post{
		{Sentiment: database.SentimentPositive},
		{Sentiment: database.SentimentPositive},
		{Sentiment: database.SentimentNegative},
		{Sentiment: database.SentimentUnknown},
	})

	dist := p.SentimentDistribution()
	if dist[database.SentimentPositive] != 2 {
		t.Errorf("Expected 2 positive, got %d", dist[database.SentimentPositive])
	}
	if dist[database.SentimentNegative] != 1 {
		t.Errorf("Expected 1 negative, got %d", dist[database.SentimentNegative])
	}
	if dist[database.SentimentUnknown] != 1 {
		t.Errorf("Expected 1 unknown, got %d", dist[database.SentimentUnknown])
	}
}

func TestAggregateByDate(t *testing.T) {
	p := newTestProcessor(t, []database.Post{
		{CreatedAt: at(1, 10), Confidence: 0.8},
		{CreatedAt: at(1, 14), Confidence: 0.6},
		{CreatedAt: at(2, 9), Confidence: 0.9},
		{Confidence: 0.5}, // no timestamp, excluded
	})

	aggregates := p.AggregateByDate()
	if len(aggregates) != 2 {
		t.Fatalf("Expected 2 dates, got %d", len(aggregates))
	}
	if aggregates[0].Date != "2026-03-01" || aggregates[0].PostCount != 2 {
		t.Errorf("Unexpected first aggregate: %+v", aggregates[0])
	}
	if aggregates[0].AvgConfidence != 0.7 {
		t.Errorf("Expected avg confidence 0.7, got %f", aggregates[0].AvgConfidence)
	}
	if aggregates[1].Date != "2026-03-02" || aggregates[1].PostCount != 1 {
		t.Errorf("Unexpected second aggregate: %+v", aggregates[1])
	}
}

func TestSentimentOverTimeMultipleDates(t *testing.T) {
	p := newTestProcessor(t, []database.Post{
		{CreatedAt: at(1, 10), Sentiment: database.SentimentPositive},
		{CreatedAt: at(2, 10), Sentiment: database.SentimentNegative},
	})

	buckets, byHour := p.SentimentOverTime()
	if byHour {
		t.Error("Expected date bucketing for multi-date data")
	}
	if len(buckets) != 2 {
		t.Fatalf("Expected 2 buckets, got %d", len(buckets))
	}
	if buckets[0].Bucket != "2026-03-01" {
		t.Errorf("Expected first bucket 2026-03-01, got %s", buckets[0].Bucket)
	}
}

func TestSentimentOverTimeSingleDateBucketsByHour(t *testing.T) {
	p := newTestProcessor(t, []database.Post{
		{CreatedAt: at(1, 9), Sentiment: database.SentimentPositive},
		{CreatedAt: at(1, 9), Sentiment: database.SentimentPositive},
		{CreatedAt: at(1, 17), Sentiment: database.SentimentNegative},
	})

	buckets, byHour := p.SentimentOverTime()
	if !byHour {
		t.Error("Expected hourly bucketing for single-date data")
	}
	if len(buckets) != 2 {
		t.Fatalf("Expected 2 buckets, got %d", len(buckets))
	}
	if buckets[0].Bucket != "09" || buckets[0].Count != 2 {
		t.Errorf("Unexpected first bucket: %+v", buckets[0])
	}
	if buckets[1].Bucket != "17" {
		t.Errorf("Expected bucket '17', got %s", buckets[1].Bucket)
	}
}

func TestWordFrequency(t *testing.T) {
	p := newTestProcessor(t, []database.Post{
		{Text: "the election results surprised everyone"},
		{Text: "election night was long"},
		{Text: "a22b has digits"},
	})

	frequency := p.WordFrequency(3, false)
	if frequency["election"] != 2 {
		t.Errorf("Expected 'election' count 2, got %d", frequency["election"])
	}
	if _, ok := frequency["the"]; ok {
		t.Error("Expected stopword 'the' to be excluded")
	}
	if _, ok := frequency["a22b"]; ok {
		t.Error("Expected non-alphabetic token to be excluded")
	}
}

func TestWordFrequencyFilterRare(t *testing.T) {
	p := newTestProcessor(t, []database.Post{
		{Text: "election election protest"},
	})

	frequency := p.WordFrequency(3, true)
	if frequency["election"] != 2 {
		t.Errorf("Expected 'election' kept, got %d", frequency["election"])
	}
	if _, ok := frequency["protest"]; ok {
		t.Error("Expected rare word 'protest' to be filtered")
	}
}

func TestTopWordsBySentiment(t *testing.T) {
	p := newTestProcessor(t, []database.Post{
		{Sentiment: database.SentimentPositive, Text: "wonderful speech wonderful crowd"},
		{Sentiment: database.SentimentPositive, Text: "wonderful great speech"},
		{Sentiment: database.SentimentNegative, Text: "terrible decision"},
		// "year" is in the extended stopword set
		{Sentiment: database.SentimentNegative, Text: "bad year"},
	})

	top := p.TopWordsBySentiment(2, 3)

	positive := top[database.SentimentPositive]
	if len(positive) != 2 {
		t.Fatalf("Expected 2 positive words, got %d", len(positive))
	}
	if positive[0].Word != "wonderful" || positive[0].Count != 3 {
		t.Errorf("Unexpected top positive word: %+v", positive[0])
	}

	for _, wc := range top[database.SentimentNegative] {
		if wc.Word == "year" {
			t.Error("Expected extended stopword 'year' to be excluded")
		}
	}
}

func TestTextLengthSentiment(t *testing.T) {
	p := newTestProcessor(t, []database.Post{
		{Text: "too short", Sentiment: database.SentimentPositive, Confidence: 0.9},
		{Text: "this is long enough now", Sentiment: database.SentimentPositive, Confidence: 0.9},
		{Text: "another long enough post", Sentiment: database.SentimentNegative, Confidence: 0.8},
	})

	points := p.TextLengthSentiment()
	if len(points) != 2 {
		t.Fatalf("Expected 2 points, got %d", len(points))
	}
	if points[0].TextLength != 4 {
		t.Errorf("Expected shortest point first, got length %d", points[0].TextLength)
	}
	if points[0].NetSentiment >= 0 {
		t.Errorf("Expected negative net sentiment, got %f", points[0].NetSentiment)
	}
	if points[1].NetSentiment <= 0 {
		t.Errorf("Expected positive net sentiment, got %f", points[1].NetSentiment)
	}
}

func TestFilterByKeywords(t *testing.T) {
	posts := []database.Post{
		{URI: "1", Text: "the budget vote passed"},
		{URI: "2", Text: "weather is nice"},
	}

	filtered := FilterByKeywords(posts, []string{"BUDGET", "tax"})
	if len(filtered) != 1 || filtered[0].URI != "1" {
		t.Errorf("Expected only the budget post, got %+v", filtered)
	}
}

func TestFilterBySentiment(t *testing.T) {
	posts := []database.Post{
		{URI: "1", Sentiment: database.SentimentPositive},
		{URI: "2", Sentiment: database.SentimentNegative},
	}

	filtered := FilterBySentiment(posts, "negative")
	if len(filtered) != 1 || filtered[0].URI != "2" {
		t.Errorf("Expected only the negative post, got %+v", filtered)
	}
}

func TestHeatmap(t *testing.T) {
	// 2026-03-02 is a Monday
	p := newTestProcessor(t, []database.Post{
		{CreatedAt: at(2, 9)},
		{CreatedAt: at(2, 9)},
		{CreatedAt: at(3, 15)},
	})

	heatmap := p.Heatmap()
	if len(heatmap) != 7 {
		t.Fatalf("Expected all 7 weekdays, got %d", len(heatmap))
	}
	if heatmap["Monday"][9] != 2 {
		t.Errorf("Expected 2 posts Monday 09h, got %d", heatmap["Monday"][9])
	}
	if heatmap["Tuesday"][15] != 1 {
		t.Errorf("Expected 1 post Tuesday 15h, got %d", heatmap["Tuesday"][15])
	}
	if heatmap["Sunday"][9] != 0 {
		t.Errorf("Expected zero-filled Sunday 09h, got %d", heatmap["Sunday"][9])
	}
}
