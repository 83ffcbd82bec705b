package database

import (
	"database/sql"
	"fmt"
	"time"
)

// PostRepositoryImpl handles database operations for posts and query markers
type PostRepositoryImpl struct {
	db *DB
}

var _ PostRepository = (*PostRepositoryImpl)(nil)

func NewPostRepository(db *DB) *PostRepositoryImpl {
	return &PostRepositoryImpl{db: db}
}

// GetExistingURIs loads the full dedup key set in one query, so ingestion
// does a single round-trip instead of one lookup per candidate.
func (r *PostRepositoryImpl) GetExistingURIs() (map[string]struct{}, error) {
	rows, err := r.db.Query(`SELECT uri FROM posts`)
	if err != nil {
		return nil, fmt.Errorf("failed to get existing URIs: %w", err)
	}
	defer rows.Close()

	uris := make(map[string]struct{})
	for rows.Next() {
		var uri string
		if err := rows.Scan(&uri); err != nil {
			return nil, fmt.Errorf("failed to scan URI row: %w", err)
		}
		uris[uri] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating URI rows: %w", err)
	}

	return uris, nil
}

// InsertPost inserts a single post. A row whose URI already exists is left
// untouched and reported as InsertStatusDuplicate; the caller decides whether
// that is expected (concurrent run, repeated item) or a bug.
func (r *PostRepositoryImpl) InsertPost(post Post) (InsertStatus, error) {
	res, err := r.db.Exec(`
		INSERT INTO posts (uri, text, author, language, sentiment, confidence, query, created_at, inserted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(uri) DO NOTHING
	`, post.URI, post.Text, post.Author, post.Language, post.Sentiment,
		post.Confidence, post.Query, post.CreatedAt, time.Now().UTC())
	if err != nil {
		return InsertStatusDuplicate, fmt.Errorf("failed to insert post: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return InsertStatusDuplicate, fmt.Errorf("failed to read insert result: %w", err)
	}
	if affected == 0 {
		return InsertStatusDuplicate, nil
	}

	return InsertStatusInserted, nil
}

// GetRecentPosts returns posts ordered by insertion, newest first
func (r *PostRepositoryImpl) GetRecentPosts(limit int) ([]Post, error) {
	rows, err := r.db.Query(`
		SELECT id, uri, text, author, language, sentiment, confidence, query, created_at, inserted_at
		FROM posts
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent posts: %w", err)
	}
	defer rows.Close()

	return scanPosts(rows)
}

// GetAllPosts returns every stored post in insertion order
func (r *PostRepositoryImpl) GetAllPosts() ([]Post, error) {
	rows, err := r.db.Query(`
		SELECT id, uri, text, author, language, sentiment, confidence, query, created_at, inserted_at
		FROM posts
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get posts: %w", err)
	}
	defer rows.Close()

	return scanPosts(rows)
}

func (r *PostRepositoryImpl) GetPostCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM posts`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get post count: %w", err)
	}
	return count, nil
}

// DeleteAllPosts purges the post table when the active query changes. Posts
// from two different queries must never coexist in storage.
func (r *PostRepositoryImpl) DeleteAllPosts() (int64, error) {
	res, err := r.db.Exec(`DELETE FROM posts`)
	if err != nil {
		return 0, fmt.Errorf("failed to purge posts: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read purge result: %w", err)
	}

	return deleted, nil
}

// GetLatestMarker returns the most recent query marker, or nil when no run
// has recorded one yet.
func (r *PostRepositoryImpl) GetLatestMarker() (*QueryMarker, error) {
	var marker QueryMarker
	err := r.db.QueryRow(`
		SELECT id, query, created_at
		FROM query_state
		ORDER BY id DESC
		LIMIT 1
	`).Scan(&marker.ID, &marker.Query, &marker.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get query marker: %w", err)
	}

	return &marker, nil
}

// SetMarker records the query that is active for the current run
func (r *PostRepositoryImpl) SetMarker(query string) error {
	_, err := r.db.Exec(`
		INSERT INTO query_state (query, created_at)
		VALUES (?, ?)
	`, query, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set query marker: %w", err)
	}
	return nil
}

// PruneMarkers deletes all marker rows, retaining post data
func (r *PostRepositoryImpl) PruneMarkers() (int64, error) {
	res, err := r.db.Exec(`DELETE FROM query_state`)
	if err != nil {
		return 0, fmt.Errorf("failed to prune query markers: %w", err)
	}

	pruned, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read prune result: %w", err)
	}

	return pruned, nil
}

func scanPosts(rows *sql.Rows) ([]Post, error) {
	var posts []Post
	for rows.Next() {
		var post Post
		var createdAt sql.NullTime
		err := rows.Scan(
			&post.ID, &post.URI, &post.Text, &post.Author, &post.Language,
			&post.Sentiment, &post.Confidence, &post.Query, &createdAt, &post.InsertedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post row: %w", err)
		}
		if createdAt.Valid {
			t := createdAt.Time
			post.CreatedAt = &t
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating post rows: %w", err)
	}

	return posts, nil
}
