// Package chatroom provisions the cache-resident chat room descriptors that the chat
// transport reads. A room exists for every pair of users who follow each other; it is keyed
// by the lexicographically sorted pair so the order of the follows does not matter.
package chatroom

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"kinship/internal/models"
	"kinship/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const keyPrefix = "chat:room:"

// Participant is one side of a room.
type Participant struct {
	UserID    string
	Username  string
	AvatarURL string
}

// ParticipantFromUser builds a participant from a user with its profile loaded.
func ParticipantFromUser(u *models.User) Participant {
	p := Participant{UserID: u.ID, Username: u.Username}
	if u.Profile != nil {
		p.AvatarURL = u.Profile.AvatarURL
	}
	return p
}

// RoomID returns "{min}_{max}".
func RoomID(a, b string) string {
	pair := models.NewUserPair(a, b)
	return pair.A + "_" + pair.B
}

// RoomKey returns the cache key "chat:room:{min}:{max}".
func RoomKey(a, b string) string {
	pair := models.NewUserPair(a, b)
	return keyPrefix + pair.A + ":" + pair.B
}

// Provisioner writes (or schedules the write of) the room for a mutual-follow pair.
type Provisioner interface {
	Provision(ctx context.Context, a, b Participant) error
}

// Writer upserts room descriptors into a RoomStore. Writing the same pair twice overwrites
// the descriptor with identical participants.
type Writer struct {
	store RoomStore
	now   func() time.Time
}

// NewWriter creates a Writer over the given store.
func NewWriter(store RoomStore) *Writer {
	return &Writer{store: store, now: time.Now}
}

// Record builds the descriptor for a pair.
func (w *Writer) Record(a, b Participant) models.ChatRoomRecord {
	return models.ChatRoomRecord{
		RoomID: RoomID(a.UserID, b.UserID),
		Participants: map[string]models.ChatParticipant{
			a.UserID: {Username: a.Username, AvatarURL: a.AvatarURL},
			b.UserID: {Username: b.Username, AvatarURL: b.AvatarURL},
		},
		CreatedAt: w.now().UnixMilli(),
	}
}

// Provision writes the room descriptor for a and b.
func (w *Writer) Provision(ctx context.Context, a, b Participant) (err error) {
	if a.UserID == "" || b.UserID == "" || a.UserID == b.UserID {
		return fmt.Errorf("chatroom: invalid pair %q/%q", a.UserID, b.UserID)
	}

	key := RoomKey(a.UserID, b.UserID)
	span, ctx := observability.NewSpan(ctx, "chatroom.provision", attribute.String("room.key", key))
	defer func() {
		span.SetError(err)
		span.End()
	}()

	payload, err := json.Marshal(w.Record(a, b))
	if err != nil {
		return fmt.Errorf("encode room %s: %w", key, err)
	}
	if err := w.store.Set(ctx, key, payload); err != nil {
		observability.RoomProvisioning.WithLabelValues("error").Inc()
		return fmt.Errorf("write room %s: %w", key, err)
	}
	observability.RoomProvisioning.WithLabelValues("written").Inc()
	return nil
}
