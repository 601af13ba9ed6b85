package service

import (
	"context"
	"errors"
	"log"
	"sync"

	"medtrack/internal/models"
	"medtrack/internal/realtime"
)

var ErrCatalogItemNotFound = errors.New("catalog item not found")

// EquippedAvatarKey is the preference key holding the equipped item type.
const EquippedAvatarKey = "equipped_avatar"

// PreferenceStore is the per-user settings capability.
type PreferenceStore interface {
	GetPreference(ctx context.Context, userID int64, key string) (string, error)
	SetPreference(ctx context.Context, userID int64, key, value string) error
}

// CatalogStore is the cosmetic catalog read capability.
type CatalogStore interface {
	GetItem(ctx context.Context, itemType, category string) (*models.CatalogItem, error)
	ListItems(ctx context.Context, category string) ([]models.CatalogItem, error)
}

// AvatarCache holds the resolved equipped avatar for one authenticated
// session. The authoritative value lives in the preferences store; the
// cache is a read-through projection refreshed on invalidation events
// from the realtime hub. Resolution never fails outward: any error
// falls back to the default avatar.
type AvatarCache struct {
	userID  int64
	prefs   PreferenceStore
	catalog CatalogStore

	mu      sync.RWMutex
	current models.AvatarData
	closed  bool

	cancel func()
}

// NewAvatarCache creates a cache for one user, resolves the initial
// value, and subscribes to preference invalidation events. Callers
// must Close the cache when the session ends.
func NewAvatarCache(ctx context.Context, userID int64, prefs PreferenceStore, catalog CatalogStore, hub *realtime.Hub) *AvatarCache {
	c := &AvatarCache{
		userID:  userID,
		prefs:   prefs,
		catalog: catalog,
		current: models.DefaultAvatar(),
	}

	if hub != nil {
		events, cancel := hub.Subscribe(userID)
		c.cancel = cancel
		go func() {
			for range events {
				// The event is only a trigger; re-read the store.
				c.Refresh(context.Background())
			}
		}()
	}

	c.Refresh(ctx)
	return c
}

// Equipped returns the cached avatar
func (c *AvatarCache) Equipped() models.AvatarData {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Refresh re-resolves the avatar from the authoritative store and
// returns the resolved value. Calling it twice with no intervening
// preference change yields the same result.
func (c *AvatarCache) Refresh(ctx context.Context) models.AvatarData {
	resolved := c.resolve(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		// A resolve that raced Close must not repopulate state for a
		// session that no longer exists.
		return models.DefaultAvatar()
	}
	c.current = resolved
	return resolved
}

// Close tears down the subscription and resets the cache to the
// default synchronously. Safe to call more than once.
func (c *AvatarCache) Close() {
	c.mu.Lock()
	alreadyClosed := c.closed
	c.closed = true
	c.current = models.DefaultAvatar()
	c.mu.Unlock()

	if !alreadyClosed && c.cancel != nil {
		c.cancel()
	}
}

func (c *AvatarCache) resolve(ctx context.Context) models.AvatarData {
	value, err := c.prefs.GetPreference(ctx, c.userID, EquippedAvatarKey)
	if err != nil {
		log.Printf("Failed to read equipped avatar for user %d: %v", c.userID, err)
		return models.DefaultAvatar()
	}
	if value == "" || value == models.AvatarSentinel {
		return models.DefaultAvatar()
	}

	item, err := c.catalog.GetItem(ctx, value, "avatar")
	if err != nil {
		log.Printf("Failed to look up avatar %q for user %d: %v", value, c.userID, err)
		return models.DefaultAvatar()
	}
	if item == nil {
		// Dangling reference: the preference names an item that is no
		// longer in the catalog.
		return models.DefaultAvatar()
	}

	return models.AvatarData{
		Icon:     item.Icon,
		Name:     item.Name,
		ItemType: item.ItemType,
	}
}

// AvatarService writes avatar preferences and publishes the
// invalidation signal that refreshes caches and connected clients.
type AvatarService struct {
	prefs   PreferenceStore
	catalog CatalogStore
	hub     *realtime.Hub
}

// NewAvatarService creates a new avatar service
func NewAvatarService(prefs PreferenceStore, catalog CatalogStore, hub *realtime.Hub) *AvatarService {
	return &AvatarService{prefs: prefs, catalog: catalog, hub: hub}
}

// ListCatalog returns all equippable avatar items
func (s *AvatarService) ListCatalog(ctx context.Context) ([]models.CatalogItem, error) {
	return s.catalog.ListItems(ctx, "avatar")
}

// EquipAvatar sets the user's equipped avatar. The sentinel "default"
// clears the override. A non-sentinel item must exist in the catalog.
func (s *AvatarService) EquipAvatar(ctx context.Context, userID int64, itemType string) error {
	if itemType != models.AvatarSentinel {
		item, err := s.catalog.GetItem(ctx, itemType, "avatar")
		if err != nil {
			return err
		}
		if item == nil {
			return ErrCatalogItemNotFound
		}
	}

	if err := s.prefs.SetPreference(ctx, userID, EquippedAvatarKey, itemType); err != nil {
		return err
	}

	if s.hub != nil {
		s.hub.Publish(realtime.Event{Table: "preferences", UserID: userID})
	}
	return nil
}
