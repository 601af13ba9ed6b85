package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"medtrack/internal/realtime"
	"medtrack/internal/service"
)

// AvatarHandler handles cosmetic avatar HTTP requests. It keeps one
// AvatarCache per authenticated user for the lifetime of the process;
// caches subscribe to the realtime hub so an equip from any device is
// reflected on the next read.
type AvatarHandler struct {
	avatars *service.AvatarService
	prefs   service.PreferenceStore
	catalog service.CatalogStore
	hub     *realtime.Hub

	mu     sync.Mutex
	caches map[int64]*service.AvatarCache
}

// NewAvatarHandler creates a new avatar handler
func NewAvatarHandler(avatars *service.AvatarService, prefs service.PreferenceStore, catalog service.CatalogStore, hub *realtime.Hub) *AvatarHandler {
	return &AvatarHandler{
		avatars: avatars,
		prefs:   prefs,
		catalog: catalog,
		hub:     hub,
		caches:  make(map[int64]*service.AvatarCache),
	}
}

func (h *AvatarHandler) cacheFor(r *http.Request, userID int64) *service.AvatarCache {
	h.mu.Lock()
	cache, ok := h.caches[userID]
	h.mu.Unlock()
	if ok {
		return cache
	}

	// The constructor's initial resolve hits the store; build outside
	// the lock so one user's slow read cannot stall the others.
	fresh := service.NewAvatarCache(r.Context(), userID, h.prefs, h.catalog, h.hub)

	h.mu.Lock()
	cache, ok = h.caches[userID]
	if !ok {
		h.caches[userID] = fresh
		cache = fresh
	}
	h.mu.Unlock()

	if cache != fresh {
		// Lost the race; release the extra subscription.
		fresh.Close()
	}
	return cache
}

// Close tears down every session cache. Called on server shutdown.
func (h *AvatarHandler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, cache := range h.caches {
		cache.Close()
		delete(h.caches, userID)
	}
}

// GetAvatar returns the authenticated user's equipped avatar
func (h *AvatarHandler) GetAvatar(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	cache := h.cacheFor(r, userID)
	respondJSON(w, http.StatusOK, toAvatarView(cache.Equipped()))
}

// RefreshAvatar forces a re-read from the authoritative store
func (h *AvatarHandler) RefreshAvatar(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	cache := h.cacheFor(r, userID)
	respondJSON(w, http.StatusOK, toAvatarView(cache.Refresh(r.Context())))
}

// EquipAvatar sets the equipped avatar and publishes the invalidation
// event that refreshes caches and connected clients.
func (h *AvatarHandler) EquipAvatar(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	var req equipAvatarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}
	if req.ItemType == "" {
		respondError(w, http.StatusBadRequest, "itemType is required", "", nil)
		return
	}

	if err := h.avatars.EquipAvatar(r.Context(), userID, req.ItemType); err != nil {
		if errors.Is(err, service.ErrCatalogItemNotFound) {
			respondError(w, http.StatusNotFound, "Unknown avatar item", "", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to equip avatar", "Failed to equip avatar", err)
		return
	}

	cache := h.cacheFor(r, userID)
	respondJSON(w, http.StatusOK, toAvatarView(cache.Refresh(r.Context())))
}

// ListCatalog returns all equippable avatar items
func (h *AvatarHandler) ListCatalog(w http.ResponseWriter, r *http.Request) {
	items, err := h.avatars.ListCatalog(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load catalog", "Failed to load catalog", err)
		return
	}

	views := make([]catalogItemView, 0, len(items))
	for _, item := range items {
		views = append(views, catalogItemView{
			ItemType: item.ItemType,
			Category: item.Category,
			Icon:     item.Icon,
			Name:     item.Name,
			CoinCost: item.CoinCost,
		})
	}
	respondJSON(w, http.StatusOK, views)
}
