package cfg

type Cfg struct {
	// Bluesky credentials and endpoints
	Identifier string
	Password   string
	PDSURL     string
	AppViewURL string

	// Fetch configuration
	Query      string // external override; empty means "no override"
	Lang       string
	MaxPages   int
	PageLimit  int
	SinceHours int // 0 disables the date boundary

	// Storage
	DBPath string

	// Sentiment backend
	SentimentURL string
	SentimentKey string

	// Translation backend (optional)
	TranslateURL string

	// HTTP API (serve mode)
	Serve        bool
	Port         string
	APIAccessKey string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
