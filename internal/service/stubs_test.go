package service

import (
	"context"

	"kinship/internal/models"
)

type followRepoStub struct {
	createFn      func(context.Context, string, string) error
	deleteFn      func(context.Context, string, string) error
	existsFn      func(context.Context, string, string) (bool, error)
	followersFn   func(context.Context, string) ([]models.RelationUser, error)
	followingFn   func(context.Context, string) ([]models.RelationUser, error)
	isMutualFn    func(context.Context, string, string) (bool, error)
	mutualPairsFn func(context.Context, models.UserPair, int) ([]models.UserPair, error)
}

func (s *followRepoStub) Create(ctx context.Context, follower, following string) error {
	return s.createFn(ctx, follower, following)
}
func (s *followRepoStub) Delete(ctx context.Context, follower, following string) error {
	return s.deleteFn(ctx, follower, following)
}
func (s *followRepoStub) Exists(ctx context.Context, follower, following string) (bool, error) {
	return s.existsFn(ctx, follower, following)
}
func (s *followRepoStub) Followers(ctx context.Context, profileID string) ([]models.RelationUser, error) {
	return s.followersFn(ctx, profileID)
}
func (s *followRepoStub) Following(ctx context.Context, profileID string) ([]models.RelationUser, error) {
	return s.followingFn(ctx, profileID)
}
func (s *followRepoStub) IsMutual(ctx context.Context, a, b string) (bool, error) {
	return s.isMutualFn(ctx, a, b)
}
func (s *followRepoStub) MutualPairs(ctx context.Context, after models.UserPair, limit int) ([]models.UserPair, error) {
	return s.mutualPairsFn(ctx, after, limit)
}

type userRepoStub struct {
	getByIDFn            func(context.Context, string) (*models.User, error)
	getByIDWithProfileFn func(context.Context, string) (*models.User, error)
	getByEmailFn         func(context.Context, string) (*models.User, error)
	getByUsernameFn      func(context.Context, string) (*models.User, error)
	createFn             func(context.Context, *models.User) error
	deleteFn             func(context.Context, string) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByIDWithProfile(ctx context.Context, id string) (*models.User, error) {
	return s.getByIDWithProfileFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Delete(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}

// profileUser returns a user whose profile ID is "p-" + id.
func profileUser(id string) *models.User {
	return &models.User{ID: id, Username: "user-" + id, Profile: &models.Profile{ID: "p-" + id, UserID: id}}
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:            func(_ context.Context, id string) (*models.User, error) { return profileUser(id), nil },
		getByIDWithProfileFn: func(_ context.Context, id string) (*models.User, error) { return profileUser(id), nil },
		getByEmailFn:         func(context.Context, string) (*models.User, error) { return nil, nil },
		getByUsernameFn:      func(context.Context, string) (*models.User, error) { return nil, nil },
		createFn:             func(context.Context, *models.User) error { return nil },
		deleteFn:             func(context.Context, string) error { return nil },
	}
}

func noopFollowRepo() *followRepoStub {
	return &followRepoStub{
		createFn:      func(context.Context, string, string) error { return nil },
		deleteFn:      func(context.Context, string, string) error { return nil },
		existsFn:      func(context.Context, string, string) (bool, error) { return false, nil },
		followersFn:   func(context.Context, string) ([]models.RelationUser, error) { return nil, nil },
		followingFn:   func(context.Context, string) ([]models.RelationUser, error) { return nil, nil },
		isMutualFn:    func(context.Context, string, string) (bool, error) { return false, nil },
		mutualPairsFn: func(context.Context, models.UserPair, int) ([]models.UserPair, error) { return nil, nil },
	}
}

type avatarRemoverStub struct {
	removed []string
	err     error
}

func (s *avatarRemoverStub) Remove(_ context.Context, _, avatarURL string) error {
	s.removed = append(s.removed, avatarURL)
	return s.err
}
