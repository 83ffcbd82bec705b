package bluesky

// PostView is a single search hit as returned by app.bsky.feed.searchPosts.
// Only the fields the ingestion pipeline consumes are decoded.
type PostView struct {
	URI    string `json:"uri"`
	Author Author `json:"author"`
	Record Record `json:"record"`
}

type Author struct {
	DID    string `json:"did"`
	Handle string `json:"handle"`
}

type Record struct {
	Text      string   `json:"text"`
	CreatedAt string   `json:"createdAt"`
	Langs     []string `json:"langs"`
}

// SearchPage is one page of search results. An empty Cursor means the feed
// is exhausted.
type SearchPage struct {
	Posts  []PostView `json:"posts"`
	Cursor string     `json:"cursor"`
}

type createSessionRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type createSessionResponse struct {
	AccessJwt string `json:"accessJwt"`
	DID       string `json:"did"`
	Handle    string `json:"handle"`
}
