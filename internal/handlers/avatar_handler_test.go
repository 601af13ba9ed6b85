package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"medtrack/internal/models"
	"medtrack/internal/realtime"
	"medtrack/internal/service"
)

// gatedPrefStore blocks reads for one user until released, so tests
// can hold a session's initial resolve open.
type gatedPrefStore struct {
	blockUser int64
	release   chan struct{}
}

func (s *gatedPrefStore) GetPreference(ctx context.Context, userID int64, key string) (string, error) {
	if userID == s.blockUser {
		<-s.release
	}
	return "", nil
}

func (s *gatedPrefStore) SetPreference(ctx context.Context, userID int64, key, value string) error {
	return nil
}

type emptyCatalogStore struct{}

func (emptyCatalogStore) GetItem(ctx context.Context, itemType, category string) (*models.CatalogItem, error) {
	return nil, nil
}

func (emptyCatalogStore) ListItems(ctx context.Context, category string) ([]models.CatalogItem, error) {
	return nil, nil
}

func newTestAvatarHandler(prefs service.PreferenceStore) *AvatarHandler {
	catalog := emptyCatalogStore{}
	hub := realtime.NewHub()
	return NewAvatarHandler(service.NewAvatarService(prefs, catalog, hub), prefs, catalog, hub)
}

func TestCacheForReusesSessionCache(t *testing.T) {
	h := newTestAvatarHandler(&gatedPrefStore{release: make(chan struct{})})
	defer h.Close()

	req := httptest.NewRequest(http.MethodGet, "/api/avatar", nil)

	first := h.cacheFor(req, 7)
	second := h.cacheFor(req, 7)
	if first != second {
		t.Error("expected the same cache for repeated requests from one user")
	}

	other := h.cacheFor(req, 8)
	if other == first {
		t.Error("expected a separate cache per user")
	}
}

func TestCacheForDoesNotSerializeUsers(t *testing.T) {
	store := &gatedPrefStore{blockUser: 1, release: make(chan struct{})}
	h := newTestAvatarHandler(store)
	defer h.Close()

	req := httptest.NewRequest(http.MethodGet, "/api/avatar", nil)

	blocked := make(chan struct{})
	go func() {
		h.cacheFor(req, 1)
		close(blocked)
	}()

	// While user 1's initial resolve is held open, another user's
	// request must still complete.
	done := make(chan struct{})
	go func() {
		h.cacheFor(req, 2)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("cacheFor for user 2 blocked behind user 1's resolve")
	}

	close(store.release)
	select {
	case <-blocked:
	case <-time.After(2 * time.Second):
		t.Fatal("cacheFor for user 1 did not finish after release")
	}
}
