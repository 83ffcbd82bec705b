package cfg

import (
	"testing"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestConfigFields(t *testing.T) {
	cfg := &Cfg{
		Identifier:   "alice.bsky.social",
		Password:     "app-password",
		PDSURL:       "https://bsky.social",
		AppViewURL:   "https://api.bsky.app",
		Query:        "Macron",
		Lang:         "en",
		MaxPages:     25,
		PageLimit:    100,
		SinceHours:   24,
		DBPath:       "./test.db",
		SentimentURL: "http://localhost:8001/v1/sentiment",
		TranslateURL: "http://localhost:5000/translate",
		Port:         "8080",
		APIAccessKey: "test-key",
		UserAgent:    "Test Agent",
		Timezone:     "UTC",
		Debug:        true,
		Version:      "test-version",
	}

	if cfg.Identifier != "alice.bsky.social" {
		t.Errorf("Expected identifier 'alice.bsky.social', got '%s'", cfg.Identifier)
	}
	if cfg.Query != "Macron" {
		t.Errorf("Expected query 'Macron', got '%s'", cfg.Query)
	}
	if cfg.Lang != "en" {
		t.Errorf("Expected lang 'en', got '%s'", cfg.Lang)
	}
	if cfg.MaxPages != 25 {
		t.Errorf("Expected max pages 25, got %d", cfg.MaxPages)
	}
	if cfg.PageLimit != 100 {
		t.Errorf("Expected page limit 100, got %d", cfg.PageLimit)
	}
	if cfg.SinceHours != 24 {
		t.Errorf("Expected since hours 24, got %d", cfg.SinceHours)
	}
	if cfg.DBPath != "./test.db" {
		t.Errorf("Expected DB path './test.db', got '%s'", cfg.DBPath)
	}
	if cfg.APIAccessKey != "test-key" {
		t.Errorf("Expected API key 'test-key', got '%s'", cfg.APIAccessKey)
	}
	if !cfg.Debug {
		t.Error("Expected debug to be enabled")
	}
}
