package service

import (
	"context"
	"sync"
	"testing"

	"kinship/internal/chatroom"
	"kinship/internal/models"
	"kinship/internal/repository"
	"kinship/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// recordingProvisioner counts provisioning calls and forwards them to an optional writer.
type recordingProvisioner struct {
	mu    sync.Mutex
	next  chatroom.Provisioner
	calls []string
	err   error
}

func (r *recordingProvisioner) Provision(ctx context.Context, a, b chatroom.Participant) error {
	r.mu.Lock()
	r.calls = append(r.calls, chatroom.RoomKey(a.UserID, b.UserID))
	r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if r.next != nil {
		return r.next.Provision(ctx, a, b)
	}
	return nil
}

func (r *recordingProvisioner) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

type testEnv struct {
	db       *gorm.DB
	mr       *miniredis.Miniredis
	rooms    *recordingProvisioner
	users    repository.UserRepository
	follows  repository.FollowRepository
	follow   *FollowService
	posts    *PostService
	profiles *ProfileService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewTestDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	users := repository.NewUserRepository(db)
	follows := repository.NewFollowRepository(db)
	rooms := &recordingProvisioner{next: chatroom.NewWriter(chatroom.NewRedisStore(rdb))}

	return &testEnv{
		db:       db,
		mr:       mr,
		rooms:    rooms,
		users:    users,
		follows:  follows,
		follow:   NewFollowService(follows, users, rooms),
		posts:    NewPostService(repository.NewPostRepository(db), repository.NewCommentRepository(db), follows),
		profiles: NewProfileService(users, repository.NewProfileRepository(db)),
	}
}

func (e *testEnv) createUser(t *testing.T, id, username, avatar string) *models.User {
	t.Helper()
	u := &models.User{
		ID:       id,
		Username: username,
		Email:    username + "@example.com",
		Password: "hash",
		Profile:  &models.Profile{AvatarURL: avatar},
	}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

func (e *testEnv) edgeCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&models.FollowEdge{}).Count(&n).Error)
	return n
}
