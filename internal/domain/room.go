package domain

// RoomID is the external room identifier, typically a study-group id.
// Rooms are created lazily on first join and carry no metadata of their own.
type RoomID string
