package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Bluesky configuration
	Identifier string `long:"identifier" env:"BLUESKY_IDENTIFIER" description:"Bluesky account handle or email (required for fetching)"`
	Password   string `long:"password" env:"BLUESKY_PASSWORD" description:"Bluesky app password (required for fetching)"`
	PDSURL     string `long:"pds-url" env:"PDS_URL" default:"https://bsky.social" description:"PDS endpoint used for session creation"`
	AppViewURL string `long:"appview-url" env:"APPVIEW_URL" default:"https://api.bsky.app" description:"AppView endpoint used for post search"`

	// Fetch configuration
	Query      string `long:"query" env:"FETCH_QUERY" description:"Search query override for this run (takes precedence over the stored query)"`
	Lang       string `long:"lang" env:"FETCH_LANG" default:"en" description:"Language filter passed to the search endpoint"`
	MaxPages   int    `long:"max-pages" env:"MAX_PAGES" default:"25" description:"Maximum number of result pages per run"`
	PageLimit  int    `long:"page-limit" env:"PAGE_LIMIT" default:"100" description:"Posts requested per page (1-100)"`
	SinceHours int    `long:"since-hours" env:"SINCE_HOURS" default:"0" description:"Stop collecting once posts get older than this many hours (0 = no boundary)"`

	// Storage
	DBPath string `long:"db-path" env:"DB_PATH" default:"./skypulse.db" description:"Path to the SQLite database file"`

	// Sentiment backend
	SentimentURL string `long:"sentiment-url" env:"SENTIMENT_URL" default:"http://localhost:8001/v1/sentiment" description:"Sentiment scoring endpoint (batched)"`
	SentimentKey string `long:"sentiment-key" env:"SENTIMENT_KEY" description:"Bearer token for the sentiment endpoint (optional)"`

	// Translation backend
	TranslateURL string `long:"translate-url" env:"TRANSLATE_URL" description:"Translation endpoint; empty disables translation"`

	// HTTP API
	Serve        bool   `long:"serve" env:"SERVE" description:"Run the HTTP API server instead of a one-shot ingest"`
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port (serve mode)"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for the ingest endpoint (optional)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"skypulse/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Europe/Paris)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		Identifier:   raw.Identifier,
		Password:     raw.Password,
		PDSURL:       raw.PDSURL,
		AppViewURL:   raw.AppViewURL,
		Query:        raw.Query,
		Lang:         raw.Lang,
		MaxPages:     raw.MaxPages,
		PageLimit:    raw.PageLimit,
		SinceHours:   raw.SinceHours,
		DBPath:       raw.DBPath,
		SentimentURL: raw.SentimentURL,
		SentimentKey: raw.SentimentKey,
		TranslateURL: raw.TranslateURL,
		Serve:        raw.Serve,
		Port:         raw.Port,
		APIAccessKey: raw.APIAccessKey,
		UserAgent:    raw.UserAgent,
		Timezone:     raw.Timezone,
		Debug:        raw.Debug,
		Version:      GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
