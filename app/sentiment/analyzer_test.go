package sentiment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mlefevre/skypulse/app/database"
)

func TestAnalyzeBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("Expected bearer auth header, got %s", r.Header.Get("Authorization"))
		}

		var req analyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		if len(req.Inputs) != 2 {
			t.Errorf("Expected 2 inputs, got %d", len(req.Inputs))
		}

		json.NewEncoder(w).Encode([]Score{
			{Label: "POSITIVE", Confidence: 0.98},
			{Label: "NEGATIVE", Confidence: 0.87},
		})
	}))
	defer server.Close()

	analyzer := NewAnalyzer(server.URL, "secret")

	scores, err := analyzer.AnalyzeBatch(context.Background(), []string{"great day", "awful day"})
	if err != nil {
		t.Fatalf("AnalyzeBatch returned error: %v", err)
	}
	if len(scores) != 2 {
		t.Fatalf("Expected 2 scores, got %d", len(scores))
	}
	if scores[0].Label != database.SentimentPositive {
		t.Errorf("Expected POSITIVE, got %s", scores[0].Label)
	}
	if scores[1].Confidence != 0.87 {
		t.Errorf("Expected confidence 0.87, got %f", scores[1].Confidence)
	}
}

func TestAnalyzeBatchNormalizesUnknownLabels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]Score{
			{Label: "NEUTRAL", Confidence: 0.5},
			{Label: "positive", Confidence: 0.9},
		})
	}))
	defer server.Close()

	analyzer := NewAnalyzer(server.URL, "")

	scores, err := analyzer.AnalyzeBatch(context.Background(), []string{"meh", "nice"})
	if err != nil {
		t.Fatalf("AnalyzeBatch returned error: %v", err)
	}
	for i, s := range scores {
		if s.Label != database.SentimentUnknown {
			t.Errorf("Score %d: expected UNKNOWN, got %s", i, s.Label)
		}
	}
}

func TestAnalyzeBatchEmptyInput(t *testing.T) {
	analyzer := NewAnalyzer("http://unreachable.invalid", "")

	scores, err := analyzer.AnalyzeBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("Expected no error on empty input, got %v", err)
	}
	if scores != nil {
		t.Errorf("Expected nil scores, got %v", scores)
	}
}

func TestAnalyzeBatchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	analyzer := NewAnalyzer(server.URL, "")

	_, err := analyzer.AnalyzeBatch(context.Background(), []string{"text"})
	if err == nil {
		t.Fatal("Expected error on server failure")
	}
}
