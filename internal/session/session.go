// Package session issues and verifies the signed access and refresh tokens that identify a
// caller. Verification is a pure function of the token, the secret and the current time;
// nothing is stored server side.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kinship/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind distinguishes access tokens from refresh tokens.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Token lifetimes.
const (
	AccessTTL  = time.Hour
	RefreshTTL = 7 * 24 * time.Hour
)

const (
	issuer   = "kinship-api"
	audience = "kinship-client"
)

var (
	// ErrExpired means the token was well formed and signed but is past its expiry.
	ErrExpired = errors.New("session token expired")
	// ErrInvalid covers every other verification failure.
	ErrInvalid = errors.New("invalid session token")
)

// Identity is who a token speaks for.
type Identity struct {
	UserID   string
	Username string
}

// Session is the state reconstructed from a verified token.
type Session struct {
	Identity
	Kind      Kind
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// UserLookup confirms that a user still exists before a refresh token is honoured.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// Manager signs and verifies tokens. Access and refresh tokens use different secrets so an
// access token can never be replayed as a refresh token.
type Manager struct {
	accessSecret  []byte
	refreshSecret []byte
	users         UserLookup
	now           func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now, mainly for expiry tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager builds a token manager. Both secrets are required and must differ.
func NewManager(accessSecret, refreshSecret string, users UserLookup, opts ...Option) (*Manager, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("access and refresh secrets are required")
	}
	if accessSecret == refreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}
	m := &Manager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		users:         users,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// IssueAccess mints a one hour access token.
func (m *Manager) IssueAccess(id Identity) (string, error) {
	return m.issue(id, KindAccess, AccessTTL, m.accessSecret)
}

// IssueRefresh mints a seven day refresh token.
func (m *Manager) IssueRefresh(id Identity) (string, error) {
	return m.issue(id, KindRefresh, RefreshTTL, m.refreshSecret)
}

// VerifyAccess returns the session carried by an access token.
func (m *Manager) VerifyAccess(token string) (*Session, error) {
	return m.verify(token, KindAccess, m.accessSecret)
}

// VerifyRefresh returns the session carried by a refresh token.
func (m *Manager) VerifyRefresh(token string) (*Session, error) {
	return m.verify(token, KindRefresh, m.refreshSecret)
}

// Rotate exchanges a valid refresh token for a new access token. The referenced user must
// still exist; a deleted account yields ErrInvalid.
func (m *Manager) Rotate(ctx context.Context, refreshToken string) (string, Identity, error) {
	id, err := m.liveIdentity(ctx, refreshToken)
	if err != nil {
		return "", Identity{}, err
	}
	access, err := m.IssueAccess(id)
	if err != nil {
		return "", Identity{}, err
	}
	return access, id, nil
}

// Pair is a fresh access/refresh token pair.
type Pair struct {
	Access  string
	Refresh string
}

// IssuePair mints both tokens for a freshly authenticated identity.
func (m *Manager) IssuePair(id Identity) (Pair, error) {
	access, err := m.IssueAccess(id)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := m.IssueRefresh(id)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Access: access, Refresh: refresh}, nil
}

// RotatePair is Rotate for the explicit refresh endpoint: both tokens are replaced.
func (m *Manager) RotatePair(ctx context.Context, refreshToken string) (Pair, Identity, error) {
	id, err := m.liveIdentity(ctx, refreshToken)
	if err != nil {
		return Pair{}, Identity{}, err
	}
	pair, err := m.IssuePair(id)
	if err != nil {
		return Pair{}, Identity{}, err
	}
	return pair, id, nil
}

func (m *Manager) liveIdentity(ctx context.Context, refreshToken string) (Identity, error) {
	sess, err := m.VerifyRefresh(refreshToken)
	if err != nil {
		return Identity{}, err
	}
	if m.users == nil {
		return Identity{}, errors.New("session: user lookup not configured")
	}
	user, err := m.users.GetByID(ctx, sess.UserID)
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return Identity{}, ErrInvalid
		}
		return Identity{}, fmt.Errorf("lookup session user: %w", err)
	}
	if user == nil {
		return Identity{}, ErrInvalid
	}
	// The username may have changed since the refresh token was minted.
	return Identity{UserID: user.ID, Username: user.Username}, nil
}

func (m *Manager) issue(id Identity, kind Kind, ttl time.Duration, secret []byte) (string, error) {
	if id.UserID == "" {
		return "", errors.New("session: identity has no user id")
	}
	now := m.now()
	claims := jwt.MapClaims{
		"sub":      id.UserID,
		"username": id.Username,
		"kind":     string(kind),
		"iss":      issuer,
		"aud":      audience,
		"exp":      now.Add(ttl).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func (m *Manager) verify(tokenString string, kind Kind, secret []byte) (*Session, error) {
	if tokenString == "" {
		return nil, ErrInvalid
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return secret, nil
	},
		jwt.WithTimeFunc(m.now),
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalid
	}
	if k, _ := claims["kind"].(string); Kind(k) != kind {
		return nil, ErrInvalid
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, ErrInvalid
	}
	username, _ := claims["username"].(string)

	sess := &Session{
		Identity: Identity{UserID: sub, Username: username},
		Kind:     kind,
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		sess.IssuedAt = iat.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		sess.ExpiresAt = exp.Time
	}
	return sess, nil
}
