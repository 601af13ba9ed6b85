package models

import "time"

// Push token platforms.
const (
	PlatformIOS     = "ios"
	PlatformAndroid = "android"
)

// PushToken is a registered device token for push delivery.
type PushToken struct {
	ID        int64
	UserID    int64
	Token     string
	Platform  string
	IsActive  bool
	CreatedAt time.Time
}

// PushMessage is the payload handed to a push gateway.
type PushMessage struct {
	Title string
	Body  string
	Data  map[string]string
}

// TokenResult is the per-token outcome of a gateway send.
type TokenResult struct {
	Token     string
	Delivered bool
	Err       error
}
