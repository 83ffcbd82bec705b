package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/mlefevre/skypulse/app/database"
)

// Score is one classification result. Label is normalized to one of the
// stored sentiment constants before it leaves this package.
type Score struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"score"`
}

type analyzeRequest struct {
	Inputs []string `json:"inputs"`
}

// Analyzer scores batches of cleaned text against an HTTP classification
// service. The service returns one result per input, in input order.
type Analyzer struct {
	url        string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewAnalyzer(url, apiKey string) *Analyzer {
	return &Analyzer{
		url:    url,
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
	}
}

// AnalyzeBatch scores all texts in a single request. Labels outside the known
// set come back as UNKNOWN rather than leaking backend vocabulary into
// storage. The result may be shorter than the input if the backend
// misbehaves; callers must pair results by index and treat unpaired inputs
// as unscored.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, texts []string) ([]Score, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter interrupted: %w", err)
	}

	payload, err := json.Marshal(analyzeRequest{Inputs: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sentiment request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create sentiment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send sentiment request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read sentiment response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sentiment scoring failed (status %d): %s", resp.StatusCode, string(body))
	}

	var scores []Score
	if err := json.Unmarshal(body, &scores); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sentiment response: %w", err)
	}

	for i := range scores {
		scores[i].Label = normalizeLabel(scores[i].Label)
	}

	return scores, nil
}

func normalizeLabel(label string) string {
	switch label {
	case database.SentimentPositive, database.SentimentNegative:
		return label
	default:
		return database.SentimentUnknown
	}
}
