package repository

import (
	"context"

	"kinship/internal/models"

	"gorm.io/gorm"
)

// ProfileRepository reads and updates user profiles.
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID string) (*models.Profile, error)
	Update(ctx context.Context, profile *models.Profile) error
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, notFoundOr(err, "Profile", userID)
	}
	return &profile, nil
}

func (r *profileRepository) Update(ctx context.Context, profile *models.Profile) error {
	err := r.db.WithContext(ctx).
		Model(profile).
		Select("bio", "avatar_url").
		Updates(map[string]any{"bio": profile.Bio, "avatar_url": profile.AvatarURL}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
