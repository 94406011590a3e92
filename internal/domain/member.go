package domain

// Member represents one user's participation state inside a room.
// Sharing is derived state: it is true iff this user holds the room's
// sharer slot. No transport or lifecycle logic here.
type Member struct {
	ConnID   ConnID `json:"connectionId"`
	Name     string `json:"userName"`
	Sharing  bool   `json:"isSharing"`
	CameraOn bool   `json:"isCameraOn"`
	VoiceOn  bool   `json:"isVoiceOn"`
}

// NewMember avoids raw literals in the registry and keeps construction obvious.
func NewMember(cid ConnID, name string) *Member {
	return &Member{ConnID: cid, Name: name}
}
