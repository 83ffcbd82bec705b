package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LanguageMachine marks text that went through machine translation.
// LanguageUnknown marks text whose language could not be determined because
// the translation backend failed.
const (
	LanguageEnglish = "en"
	LanguageMachine = "machine-en"
	LanguageUnknown = "unknown"
)

// Result is the outcome for one input text. On backend failure the original
// text is kept so a translation outage never drops posts.
type Result struct {
	Text     string
	Language string
}

type translateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type translateResponse struct {
	TranslatedText   string `json:"translatedText"`
	DetectedLanguage struct {
		Language   string  `json:"language"`
		Confidence float64 `json:"confidence"`
	} `json:"detectedLanguage"`
}

// Translator detects and translates post text to English through a
// LibreTranslate-compatible endpoint.
type Translator struct {
	url        string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewTranslator(url, apiKey string) *Translator {
	return &Translator{
		url:    url,
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Every(200*time.Millisecond), 2),
	}
}

// Translate detects the language of text and translates it to English when
// needed. Text already in English keeps the "en" tag; translated text is
// tagged "machine-en"; on backend failure the original text comes back
// tagged "unknown".
func (t *Translator) Translate(ctx context.Context, text string) Result {
	if err := t.limiter.Wait(ctx); err != nil {
		return Result{Text: text, Language: LanguageUnknown}
	}

	resp, err := t.request(ctx, text)
	if err != nil {
		slog.Error("Translation failed, keeping original text", "error", err)
		return Result{Text: text, Language: LanguageUnknown}
	}

	if resp.DetectedLanguage.Language == LanguageEnglish {
		return Result{Text: text, Language: LanguageEnglish}
	}

	return Result{Text: resp.TranslatedText, Language: LanguageMachine}
}

// TranslateAll translates a batch concurrently, preserving input order.
func (t *Translator) TranslateAll(ctx context.Context, texts []string) []Result {
	results := make([]Result, len(texts))

	var wg sync.WaitGroup
	for i, text := range texts {
		wg.Add(1)
		go func(i int, text string) {
			defer wg.Done()
			results[i] = t.Translate(ctx, text)
		}(i, text)
	}
	wg.Wait()

	return results
}

func (t *Translator) request(ctx context.Context, text string) (*translateResponse, error) {
	payload, err := json.Marshal(translateRequest{
		Q:      text,
		Source: "auto",
		Target: LanguageEnglish,
		Format: "text",
		APIKey: t.apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal translate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create translate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send translate request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read translate response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("translate failed (status %d): %s", resp.StatusCode, string(body))
	}

	var result translateResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal translate response: %w", err)
	}

	return &result, nil
}
