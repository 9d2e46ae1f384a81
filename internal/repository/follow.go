package repository

import (
	"context"

	"kinship/internal/models"

	"gorm.io/gorm"
)

// FollowRepository stores directed follow edges between profiles. An edge (X, Y) means
// profile X follows profile Y; every query below is written against that reading.
type FollowRepository interface {
	Create(ctx context.Context, followerProfileID, followingProfileID string) error
	Delete(ctx context.Context, followerProfileID, followingProfileID string) error
	Exists(ctx context.Context, followerProfileID, followingProfileID string) (bool, error)
	Followers(ctx context.Context, profileID string) ([]models.RelationUser, error)
	Following(ctx context.Context, profileID string) ([]models.RelationUser, error)
	IsMutual(ctx context.Context, userA, userB string) (bool, error)
	MutualPairs(ctx context.Context, after models.UserPair, limit int) ([]models.UserPair, error)
}

type followRepository struct {
	db *gorm.DB
}

// NewFollowRepository creates a new follow repository
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

// Create inserts the edge. Uniqueness is enforced by the composite primary key, so of two
// concurrent identical follows exactly one commits and the other gets CONFLICT.
func (r *followRepository) Create(ctx context.Context, followerProfileID, followingProfileID string) error {
	edge := &models.FollowEdge{
		FollowerProfileID:  followerProfileID,
		FollowingProfileID: followingProfileID,
	}
	if err := r.db.WithContext(ctx).Create(edge).Error; err != nil {
		switch {
		case isUniqueViolation(err):
			return models.NewConflictError("Already following this user")
		case isForeignKeyViolation(err):
			return models.NewNotFoundMessage("Profile not found")
		case isCheckViolation(err):
			return models.NewValidationError("You cannot follow yourself")
		}
		return models.NewInternalError(err)
	}
	return nil
}

// Delete removes exactly the edge follower -> following.
func (r *followRepository) Delete(ctx context.Context, followerProfileID, followingProfileID string) error {
	res := r.db.WithContext(ctx).
		Where("follower_profile_id = ? AND following_profile_id = ?", followerProfileID, followingProfileID).
		Delete(&models.FollowEdge{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundMessage("You are not following this user")
	}
	return nil
}

func (r *followRepository) Exists(ctx context.Context, followerProfileID, followingProfileID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.FollowEdge{}).
		Where("follower_profile_id = ? AND following_profile_id = ?", followerProfileID, followingProfileID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

const relationColumns = "users.id AS user_id, users.username AS username, profiles.avatar_url AS avatar"

// Followers lists the users X with an edge X -> profileID.
func (r *followRepository) Followers(ctx context.Context, profileID string) ([]models.RelationUser, error) {
	var out []models.RelationUser
	err := r.db.WithContext(ctx).
		Table("follow_edges").
		Select(relationColumns).
		Joins("JOIN profiles ON profiles.id = follow_edges.follower_profile_id").
		Joins("JOIN users ON users.id = profiles.user_id").
		Where("follow_edges.following_profile_id = ?", profileID).
		Order("follow_edges.created_at DESC").
		Scan(&out).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

// Following lists the users Y with an edge profileID -> Y.
func (r *followRepository) Following(ctx context.Context, profileID string) ([]models.RelationUser, error) {
	var out []models.RelationUser
	err := r.db.WithContext(ctx).
		Table("follow_edges").
		Select(relationColumns).
		Joins("JOIN profiles ON profiles.id = follow_edges.following_profile_id").
		Joins("JOIN users ON users.id = profiles.user_id").
		Where("follow_edges.follower_profile_id = ?", profileID).
		Order("follow_edges.created_at DESC").
		Scan(&out).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

// IsMutual reports whether the two users follow each other.
func (r *followRepository) IsMutual(ctx context.Context, userA, userB string) (bool, error) {
	if userA == userB {
		return false, nil
	}
	var count int64
	err := r.db.WithContext(ctx).
		Table("follow_edges").
		Joins("JOIN profiles fp ON fp.id = follow_edges.follower_profile_id").
		Joins("JOIN profiles tp ON tp.id = follow_edges.following_profile_id").
		Where("(fp.user_id = ? AND tp.user_id = ?) OR (fp.user_id = ? AND tp.user_id = ?)", userA, userB, userB, userA).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count == 2, nil
}

// MutualPairs pages through every mutual-follow pair in (A, B) order, A < B, starting after
// the given pair. Pass the zero pair for the first page.
func (r *followRepository) MutualPairs(ctx context.Context, after models.UserPair, limit int) ([]models.UserPair, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []models.UserPair
	err := r.db.WithContext(ctx).
		Table("follow_edges fwd").
		Select("fp.user_id AS a, tp.user_id AS b").
		Joins("JOIN follow_edges rev ON rev.follower_profile_id = fwd.following_profile_id AND rev.following_profile_id = fwd.follower_profile_id").
		Joins("JOIN profiles fp ON fp.id = fwd.follower_profile_id").
		Joins("JOIN profiles tp ON tp.id = fwd.following_profile_id").
		Where("fp.user_id < tp.user_id").
		Where("(fp.user_id > ? OR (fp.user_id = ? AND tp.user_id > ?))", after.A, after.A, after.B).
		Order("fp.user_id, tp.user_id").
		Limit(limit).
		Scan(&out).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}
