package mediatransport

import "context"

// SessionMeta is the session information handed to the media transport
// collaborator when a room is requested.
type SessionMeta struct {
	SessionPublicID string `json:"session_id"`
	BroadcasterID   string `json:"broadcaster_id"`
	Title           string `json:"title"`
}

// RoomProvider is the boundary to the external media transport. The core
// stores the returned room token opaquely and never inspects it. The
// provider is treated as unreliable; callers bound every call with a
// context timeout and surface failures as faults.ErrTransportUnavailable.
type RoomProvider interface {
	CreateRoom(ctx context.Context, meta SessionMeta) (string, error)
	DestroyRoom(ctx context.Context, roomToken string) error
}
