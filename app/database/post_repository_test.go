package database

import (
	"testing"
	"time"
)

func setupTestRepository(t *testing.T) *PostRepositoryImpl {
	t.Helper()

	db, err := NewConnection(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return NewPostRepository(db)
}

func testPost(uri string) Post {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return Post{
		URI:        uri,
		Text:       "sample text",
		Author:     "alice.bsky.social",
		Language:   "en",
		Sentiment:  SentimentPositive,
		Confidence: 0.91,
		Query:      "Macron",
		CreatedAt:  &created,
	}
}

func TestInsertPost(t *testing.T) {
	repo := setupTestRepository(t)

	status, err := repo.InsertPost(testPost("at://did:plc:abc/app.bsky.feed.post/1"))
	if err != nil {
		t.Fatalf("InsertPost returned error: %v", err)
	}
	if status != InsertStatusInserted {
		t.Errorf("Expected InsertStatusInserted, got %v", status)
	}

	count, err := repo.GetPostCount()
	if err != nil {
		t.Fatalf("GetPostCount returned error: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 post, got %d", count)
	}
}

func TestInsertPostDuplicate(t *testing.T) {
	repo := setupTestRepository(t)

	post := testPost("at://did:plc:abc/app.bsky.feed.post/1")
	if _, err := repo.InsertPost(post); err != nil {
		t.Fatalf("First insert returned error: %v", err)
	}

	status, err := repo.InsertPost(post)
	if err != nil {
		t.Fatalf("Duplicate insert returned error: %v", err)
	}
	if status != InsertStatusDuplicate {
		t.Errorf("Expected InsertStatusDuplicate, got %v", status)
	}

	count, _ := repo.GetPostCount()
	if count != 1 {
		t.Errorf("Expected 1 post after duplicate insert, got %d", count)
	}
}

func TestInsertPostNilCreatedAt(t *testing.T) {
	repo := setupTestRepository(t)

	post := testPost("at://did:plc:abc/app.bsky.feed.post/1")
	post.CreatedAt = nil

	if _, err := repo.InsertPost(post); err != nil {
		t.Fatalf("InsertPost returned error: %v", err)
	}

	posts, err := repo.GetAllPosts()
	if err != nil {
		t.Fatalf("GetAllPosts returned error: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("Expected 1 post, got %d", len(posts))
	}
	if posts[0].CreatedAt != nil {
		t.Errorf("Expected nil CreatedAt, got %v", posts[0].CreatedAt)
	}
}

func TestGetExistingURIs(t *testing.T) {
	repo := setupTestRepository(t)

	uris, err := repo.GetExistingURIs()
	if err != nil {
		t.Fatalf("GetExistingURIs returned error: %v", err)
	}
	if len(uris) != 0 {
		t.Errorf("Expected empty key set, got %d entries", len(uris))
	}

	repo.InsertPost(testPost("at://did:plc:abc/app.bsky.feed.post/1"))
	repo.InsertPost(testPost("at://did:plc:abc/app.bsky.feed.post/2"))

	uris, err = repo.GetExistingURIs()
	if err != nil {
		t.Fatalf("GetExistingURIs returned error: %v", err)
	}
	if len(uris) != 2 {
		t.Errorf("Expected 2 URIs, got %d", len(uris))
	}
	if _, ok := uris["at://did:plc:abc/app.bsky.feed.post/1"]; !ok {
		t.Error("Expected key set to contain first URI")
	}
}

func TestGetRecentPosts(t *testing.T) {
	repo := setupTestRepository(t)

	repo.InsertPost(testPost("at://did:plc:abc/app.bsky.feed.post/1"))
	repo.InsertPost(testPost("at://did:plc:abc/app.bsky.feed.post/2"))
	repo.InsertPost(testPost("at://did:plc:abc/app.bsky.feed.post/3"))

	posts, err := repo.GetRecentPosts(2)
	if err != nil {
		t.Fatalf("GetRecentPosts returned error: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("Expected 2 posts, got %d", len(posts))
	}
	if posts[0].URI != "at://did:plc:abc/app.bsky.feed.post/3" {
		t.Errorf("Expected newest post first, got %s", posts[0].URI)
	}
}

func TestDeleteAllPosts(t *testing.T) {
	repo := setupTestRepository(t)

	repo.InsertPost(testPost("at://did:plc:abc/app.bsky.feed.post/1"))
	repo.InsertPost(testPost("at://did:plc:abc/app.bsky.feed.post/2"))

	deleted, err := repo.DeleteAllPosts()
	if err != nil {
		t.Fatalf("DeleteAllPosts returned error: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Expected 2 deleted rows, got %d", deleted)
	}

	count, _ := repo.GetPostCount()
	if count != 0 {
		t.Errorf("Expected empty table after purge, got %d posts", count)
	}
}

func TestMarkerLifecycle(t *testing.T) {
	repo := setupTestRepository(t)

	marker, err := repo.GetLatestMarker()
	if err != nil {
		t.Fatalf("GetLatestMarker returned error: %v", err)
	}
	if marker != nil {
		t.Errorf("Expected nil marker on empty table, got %+v", marker)
	}

	if err := repo.SetMarker("Macron"); err != nil {
		t.Fatalf("SetMarker returned error: %v", err)
	}
	if err := repo.SetMarker("climate"); err != nil {
		t.Fatalf("SetMarker returned error: %v", err)
	}

	marker, err = repo.GetLatestMarker()
	if err != nil {
		t.Fatalf("GetLatestMarker returned error: %v", err)
	}
	if marker == nil {
		t.Fatal("Expected a marker, got nil")
	}
	if marker.Query != "climate" {
		t.Errorf("Expected latest marker 'climate', got %s", marker.Query)
	}

	pruned, err := repo.PruneMarkers()
	if err != nil {
		t.Fatalf("PruneMarkers returned error: %v", err)
	}
	if pruned != 2 {
		t.Errorf("Expected 2 pruned markers, got %d", pruned)
	}

	marker, _ = repo.GetLatestMarker()
	if marker != nil {
		t.Errorf("Expected nil marker after prune, got %+v", marker)
	}
}

func TestPruneMarkersRetainsPosts(t *testing.T) {
	repo := setupTestRepository(t)

	repo.InsertPost(testPost("at://did:plc:abc/app.bsky.feed.post/1"))
	repo.SetMarker("Macron")

	if _, err := repo.PruneMarkers(); err != nil {
		t.Fatalf("PruneMarkers returned error: %v", err)
	}

	count, _ := repo.GetPostCount()
	if count != 1 {
		t.Errorf("Expected post data to survive marker prune, got %d posts", count)
	}
}
