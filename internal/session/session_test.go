package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"kinship/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAccessSecret  = "access-secret-for-tests-0123456789"
	testRefreshSecret = "refresh-secret-for-tests-0123456789"
)

type stubUsers struct {
	GetByIDFn func(ctx context.Context, id string) (*models.User, error)
}

func (s stubUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.GetByIDFn(ctx, id)
}

func existingUser(username string) stubUsers {
	return stubUsers{GetByIDFn: func(_ context.Context, id string) (*models.User, error) {
		return &models.User{ID: id, Username: username}, nil
	}}
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestManager(t *testing.T, users UserLookup, c *clock) *Manager {
	t.Helper()
	m, err := NewManager(testAccessSecret, testRefreshSecret, users, WithClock(c.now))
	require.NoError(t, err)
	return m
}

func TestNewManager_RequiresDistinctSecrets(t *testing.T) {
	_, err := NewManager("", testRefreshSecret, nil)
	assert.Error(t, err)
	_, err = NewManager(testAccessSecret, testAccessSecret, nil)
	assert.Error(t, err)
}

func TestIssueAndVerify(t *testing.T) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	m := newTestManager(t, nil, c)
	id := Identity{UserID: "u-1", Username: "alice"}

	access, err := m.IssueAccess(id)
	require.NoError(t, err)
	sess, err := m.VerifyAccess(access)
	require.NoError(t, err)
	assert.Equal(t, id, sess.Identity)
	assert.Equal(t, KindAccess, sess.Kind)
	assert.Equal(t, c.t.Add(AccessTTL), sess.ExpiresAt)

	refresh, err := m.IssueRefresh(id)
	require.NoError(t, err)
	sess, err = m.VerifyRefresh(refresh)
	require.NoError(t, err)
	assert.Equal(t, KindRefresh, sess.Kind)
	assert.Equal(t, c.t.Add(RefreshTTL), sess.ExpiresAt)
}

func TestVerify_RejectsCrossedTokens(t *testing.T) {
	m := newTestManager(t, nil, &clock{t: time.Now()})
	id := Identity{UserID: "u-1", Username: "alice"}

	access, err := m.IssueAccess(id)
	require.NoError(t, err)
	refresh, err := m.IssueRefresh(id)
	require.NoError(t, err)

	_, err = m.VerifyRefresh(access)
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = m.VerifyAccess(refresh)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestVerify_RejectsWrongKindUnderSameSecret(t *testing.T) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  "u-1",
		"kind": string(KindRefresh),
		"iss":  issuer,
		"aud":  audience,
		"exp":  now.Add(time.Hour).Unix(),
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testAccessSecret))
	require.NoError(t, err)

	m := newTestManager(t, nil, &clock{t: now})
	_, err = m.VerifyAccess(forged)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestVerify_Malformed(t *testing.T) {
	m := newTestManager(t, nil, &clock{t: time.Now()})
	for _, tok := range []string{"", "garbage", "a.b.c"} {
		_, err := m.VerifyAccess(tok)
		assert.ErrorIs(t, err, ErrInvalid, tok)
	}
}

func TestVerify_RejectsNoneAlgorithm(t *testing.T) {
	claims := jwt.MapClaims{"sub": "u-1", "kind": "access", "iss": issuer, "aud": audience, "exp": time.Now().Add(time.Hour).Unix()}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	m := newTestManager(t, nil, &clock{t: time.Now()})
	_, err = m.VerifyAccess(unsigned)
	assert.ErrorIs(t, err, ErrInvalid)
}

// An access token minted at T is expired at T+3601s while a refresh token minted at T
// still renews the session at that instant.
func TestExpiredAccessRenewedByRefresh(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	c := &clock{t: start}
	m := newTestManager(t, existingUser("alice"), c)
	id := Identity{UserID: "u-1", Username: "alice"}

	access, err := m.IssueAccess(id)
	require.NoError(t, err)
	refresh, err := m.IssueRefresh(id)
	require.NoError(t, err)

	c.t = start.Add(3601 * time.Second)

	_, err = m.VerifyAccess(access)
	assert.ErrorIs(t, err, ErrExpired)

	renewed, got, err := m.Rotate(context.Background(), refresh)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	sess, err := m.VerifyAccess(renewed)
	require.NoError(t, err)
	assert.Equal(t, "u-1", sess.UserID)
	assert.Equal(t, c.t.Add(AccessTTL), sess.ExpiresAt)
}

func TestRotate_ExpiredRefresh(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	c := &clock{t: start}
	m := newTestManager(t, existingUser("alice"), c)

	refresh, err := m.IssueRefresh(Identity{UserID: "u-1", Username: "alice"})
	require.NoError(t, err)

	c.t = start.Add(RefreshTTL + time.Second)
	_, _, err = m.Rotate(context.Background(), refresh)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestRotate_DeletedUser(t *testing.T) {
	c := &clock{t: time.Now()}
	users := stubUsers{GetByIDFn: func(_ context.Context, id string) (*models.User, error) {
		return nil, models.NewNotFoundError("User", id)
	}}
	m := newTestManager(t, users, c)

	refresh, err := m.IssueRefresh(Identity{UserID: "gone", Username: "ghost"})
	require.NoError(t, err)

	_, _, err = m.Rotate(context.Background(), refresh)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestRotate_LookupFailure(t *testing.T) {
	c := &clock{t: time.Now()}
	boom := errors.New("db down")
	users := stubUsers{GetByIDFn: func(context.Context, string) (*models.User, error) {
		return nil, boom
	}}
	m := newTestManager(t, users, c)

	refresh, err := m.IssueRefresh(Identity{UserID: "u-1"})
	require.NoError(t, err)

	_, _, err = m.Rotate(context.Background(), refresh)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrInvalid)
}

func TestRotatePair_PicksUpRenamedUser(t *testing.T) {
	c := &clock{t: time.Now()}
	m := newTestManager(t, existingUser("alice-renamed"), c)

	refresh, err := m.IssueRefresh(Identity{UserID: "u-1", Username: "alice"})
	require.NoError(t, err)

	pair, id, err := m.RotatePair(context.Background(), refresh)
	require.NoError(t, err)
	assert.Equal(t, "alice-renamed", id.Username)

	sess, err := m.VerifyRefresh(pair.Refresh)
	require.NoError(t, err)
	assert.Equal(t, "alice-renamed", sess.Username)
	_, err = m.VerifyAccess(pair.Access)
	assert.NoError(t, err)
}
