package database

// InsertStatus reports the outcome of a single insert attempt, so callers can
// distinguish "skipped because duplicate" from "failed for another reason"
// without inspecting storage-engine error classes.
type InsertStatus int

const (
	InsertStatusInserted InsertStatus = iota
	InsertStatusDuplicate
)

type PostRepository interface {
	GetExistingURIs() (map[string]struct{}, error)
	InsertPost(post Post) (InsertStatus, error)
	GetRecentPosts(limit int) ([]Post, error)
	GetAllPosts() ([]Post, error)
	GetPostCount() (int, error)
	DeleteAllPosts() (int64, error)

	GetLatestMarker() (*QueryMarker, error)
	SetMarker(query string) error
	PruneMarkers() (int64, error)
}
