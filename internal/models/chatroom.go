package models

// ChatParticipant is one side of a provisioned chat room.
type ChatParticipant struct {
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
}

// ChatRoomRecord is the cache-resident room descriptor. The JSON field names are
// shared with the chat transport service, which reads these keys directly.
type ChatRoomRecord struct {
	RoomID       string                     `json:"roomID"`
	Participants map[string]ChatParticipant `json:"user"`
	// CreatedAt is a Unix timestamp in milliseconds.
	CreatedAt int64 `json:"timestamp"`
}
