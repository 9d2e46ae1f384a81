package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"

	"kinship/internal/models"
	"kinship/internal/observability"
	"kinship/internal/repository"
	"kinship/internal/session"

	"golang.org/x/crypto/bcrypt"
)

// RegisterInput carries a new account's credentials.
type RegisterInput struct {
	Email    string
	Password string
	Username string
}

// LoginInput identifies the account by email or username.
type LoginInput struct {
	Login    string
	Password string
}

// AuthService registers accounts and turns credentials into sessions.
type AuthService struct {
	users    repository.UserRepository
	tokens   *session.Manager
	avatars  AvatarRemover
	adminKey string
	log      *observability.ServiceLogger
}

// NewAuthService returns a new AuthService. An empty adminKey disables admin registration.
func NewAuthService(users repository.UserRepository, tokens *session.Manager, avatars AvatarRemover, adminKey string) *AuthService {
	return &AuthService{
		users:    users,
		tokens:   tokens,
		avatars:  avatars,
		adminKey: adminKey,
		log:      observability.NewServiceLogger("auth"),
	}
}

// Register creates a regular account and its profile.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	return s.register(ctx, in, models.RoleUser)
}

// RegisterAdmin creates an administrator when adminKey matches the configured key.
func (s *AuthService) RegisterAdmin(ctx context.Context, adminKey string, in RegisterInput) (*models.User, error) {
	if s.adminKey == "" || subtle.ConstantTimeCompare([]byte(adminKey), []byte(s.adminKey)) != 1 {
		return nil, models.NewForbiddenError("Invalid admin key")
	}
	return s.register(ctx, in, models.RoleAdmin)
}

func (s *AuthService) register(ctx context.Context, in RegisterInput, role models.Role) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.TrimSpace(in.Username)

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		existing, err = s.users.GetByUsername(ctx, username)
		if err != nil {
			return nil, err
		}
	}
	if existing != nil {
		return nil, models.NewConflictError("User already exists")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: string(hashed),
		Role:     role,
		Profile:  &models.Profile{},
	}
	// The unique indexes still decide races between concurrent registrations.
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.log.Info(ctx, "user registered", slog.String("user_id", user.ID), slog.String("role", string(role)))
	return user, nil
}

// Login checks the credentials and issues an access/refresh pair.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*models.User, session.Pair, error) {
	login := strings.TrimSpace(in.Login)
	var (
		user *models.User
		err  error
	)
	if strings.Contains(login, "@") {
		user, err = s.users.GetByEmail(ctx, strings.ToLower(login))
	} else {
		user, err = s.users.GetByUsername(ctx, login)
	}
	if err != nil {
		return nil, session.Pair{}, err
	}
	if user == nil {
		return nil, session.Pair{}, models.NewUnauthorizedError("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return nil, session.Pair{}, models.NewUnauthorizedError("Invalid credentials")
	}

	pair, err := s.tokens.IssuePair(session.Identity{UserID: user.ID, Username: user.Username})
	if err != nil {
		return nil, session.Pair{}, models.NewInternalError(err)
	}
	return user, pair, nil
}

// Refresh replaces both tokens using a valid refresh token of a user that still exists.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (session.Pair, session.Identity, error) {
	if refreshToken == "" {
		return session.Pair{}, session.Identity{}, models.NewUnauthorizedError("Refresh token required")
	}
	pair, id, err := s.tokens.RotatePair(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrExpired) || errors.Is(err, session.ErrInvalid) {
			return session.Pair{}, session.Identity{}, models.NewUnauthorizedError("Invalid or expired refresh token")
		}
		return session.Pair{}, session.Identity{}, models.NewInternalError(err)
	}
	return pair, id, nil
}

// DeleteAccount removes the user and everything they own, then their avatar file. A failed
// avatar removal is logged; the account is already gone.
func (s *AuthService) DeleteAccount(ctx context.Context, userID string) error {
	user, err := s.users.GetByIDWithProfile(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	if s.avatars != nil && user.Profile.AvatarURL != "" {
		if err := s.avatars.Remove(ctx, userID, user.Profile.AvatarURL); err != nil {
			s.log.Warn(ctx, "avatar removal failed", slog.String("avatar", user.Profile.AvatarURL), slog.String("error", err.Error()))
		}
	}
	s.log.Info(ctx, "account deleted", slog.String("user_id", userID))
	return nil
}
