package chatroom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"kinship/internal/models"
)

// Lister finds the rooms a user takes part in.
type Lister struct {
	store RoomStore
}

// NewLister creates a Lister over the given store.
func NewLister(store RoomStore) *Lister {
	return &Lister{store: store}
}

// ListForUser returns the user's rooms, newest first. The user may sit on either side of the
// sorted key, so both patterns are scanned.
func (l *Lister) ListForUser(ctx context.Context, userID string) ([]models.ChatRoomRecord, error) {
	seen := make(map[string]struct{})
	var keys []string
	for _, pattern := range []string{keyPrefix + userID + ":*", keyPrefix + "*:" + userID} {
		found, err := l.store.Keys(ctx, pattern)
		if err != nil {
			return nil, fmt.Errorf("scan rooms: %w", err)
		}
		for _, k := range found {
			if _, dup := seen[k]; !dup {
				seen[k] = struct{}{}
				keys = append(keys, k)
			}
		}
	}

	rooms := make([]models.ChatRoomRecord, 0, len(keys))
	for _, key := range keys {
		raw, err := l.store.Get(ctx, key)
		if errors.Is(err, ErrRoomNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read room %s: %w", key, err)
		}
		var rec models.ChatRoomRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decode room %s: %w", key, err)
		}
		if _, member := rec.Participants[userID]; !member {
			continue
		}
		rooms = append(rooms, rec)
	}

	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].CreatedAt != rooms[j].CreatedAt {
			return rooms[i].CreatedAt > rooms[j].CreatedAt
		}
		return rooms[i].RoomID < rooms[j].RoomID
	})
	return rooms, nil
}
