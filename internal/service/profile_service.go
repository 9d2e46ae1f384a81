package service

import (
	"context"
	"strings"

	"kinship/internal/models"
	"kinship/internal/repository"
)

// UpdateProfileInput carries optional profile changes.
type UpdateProfileInput struct {
	Bio       *string
	AvatarURL *string
}

// ProfileService reads and edits profiles.
type ProfileService struct {
	users    repository.UserRepository
	profiles repository.ProfileRepository
}

// NewProfileService returns a new ProfileService.
func NewProfileService(users repository.UserRepository, profiles repository.ProfileRepository) *ProfileService {
	return &ProfileService{users: users, profiles: profiles}
}

// Get returns the user with its profile.
func (s *ProfileService) Get(ctx context.Context, userID string) (*models.User, error) {
	return s.users.GetByIDWithProfile(ctx, userID)
}

// Update applies the given changes to userID's profile.
func (s *ProfileService) Update(ctx context.Context, userID string, in UpdateProfileInput) (*models.User, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.Bio != nil {
		profile.Bio = strings.TrimSpace(*in.Bio)
	}
	if in.AvatarURL != nil {
		avatar := strings.TrimSpace(*in.AvatarURL)
		if err := validateAvatarURL(userID, avatar); err != nil {
			return nil, err
		}
		profile.AvatarURL = avatar
	}
	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, err
	}
	return s.users.GetByIDWithProfile(ctx, userID)
}
