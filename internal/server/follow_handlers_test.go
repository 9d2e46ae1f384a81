package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"kinship/internal/chatroom"
	"kinship/internal/models"
	"kinship/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowFlow(t *testing.T) {
	ts := newTestServer(t)
	aliceID, alice := ts.signup(t, "alice")
	bobID, bob := ts.signup(t, "bob")
	roomKey := chatroom.RoomKey(aliceID, bobID)

	resp, env := ts.do(t, http.MethodPost, "/api/v1/follow/following/"+bobID, nil, alice...)
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)
	var result service.FollowResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.False(t, result.Mutual)
	assert.False(t, ts.mr.Exists(roomKey))

	resp, env = ts.do(t, http.MethodPost, "/api/v1/follow/following/"+bobID, nil, alice...)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, models.CodeConflict, env.Code)

	resp, env = ts.do(t, http.MethodPost, "/api/v1/follow/following/"+aliceID, nil, bob...)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.True(t, result.Mutual)

	raw, err := ts.mr.Get(roomKey)
	require.NoError(t, err)
	var record models.ChatRoomRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &record))
	assert.Equal(t, chatroom.RoomID(aliceID, bobID), record.RoomID)
	assert.Equal(t, "alice", record.Participants[aliceID].Username)
	assert.Equal(t, "bob", record.Participants[bobID].Username)

	resp, env = ts.do(t, http.MethodGet, "/api/v1/chat/rooms", nil, alice...)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var rooms []models.ChatRoomRecord
	require.NoError(t, json.Unmarshal(env.Data, &rooms))
	require.Len(t, rooms, 1)
	assert.Equal(t, record.RoomID, rooms[0].RoomID)

	resp, env = ts.do(t, http.MethodGet, "/api/v1/follow/follower/"+aliceID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var rel models.Relations
	require.NoError(t, json.Unmarshal(env.Data, &rel))
	assert.Equal(t, 1, rel.FollowerCount)
	assert.Equal(t, 1, rel.FollowingCount)
	assert.Equal(t, "bob", rel.Follower[0].Username)

	resp, _ = ts.do(t, http.MethodDelete, "/api/v1/follow/unfollow/"+bobID, nil, alice...)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, env = ts.do(t, http.MethodDelete, "/api/v1/follow/unfollow/"+bobID, nil, alice...)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, models.CodeNotFound, env.Code)
	assert.True(t, ts.mr.Exists(roomKey), "unfollow leaves the room record")

	resp, env = ts.do(t, http.MethodGet, "/api/v1/follow/follower", nil, alice...)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(env.Data, &rel))
	assert.Equal(t, 0, rel.FollowingCount)
	assert.Equal(t, 1, rel.FollowerCount)
}

func TestFollowErrors(t *testing.T) {
	ts := newTestServer(t)
	aliceID, alice := ts.signup(t, "alice")

	resp, _ := ts.do(t, http.MethodPost, "/api/v1/follow/following/"+aliceID, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, env := ts.do(t, http.MethodPost, "/api/v1/follow/following/"+aliceID, nil, alice...)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, models.CodeValidation, env.Code)

	resp, env = ts.do(t, http.MethodPost, "/api/v1/follow/following/missing-user", nil, alice...)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, models.CodeNotFound, env.Code)

	resp, _ = ts.do(t, http.MethodGet, "/api/v1/follow/follower/missing-user", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
