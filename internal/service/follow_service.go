// Package service holds the business rules that sit between the HTTP handlers and the
// repositories.
package service

import (
	"context"
	"log/slog"

	"kinship/internal/chatroom"
	"kinship/internal/models"
	"kinship/internal/observability"
	"kinship/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// FollowResult reports what a successful follow changed.
type FollowResult struct {
	// Mutual is true when the follow completed a mutual relationship.
	Mutual bool `json:"mutual"`
}

// FollowService maintains the directed follow graph.
type FollowService struct {
	follows repository.FollowRepository
	users   repository.UserRepository
	rooms   chatroom.Provisioner
	log     *observability.ServiceLogger
}

// NewFollowService returns a new FollowService. rooms receives every pair whose follow
// completed a mutual relationship.
func NewFollowService(follows repository.FollowRepository, users repository.UserRepository, rooms chatroom.Provisioner) *FollowService {
	return &FollowService{
		follows: follows,
		users:   users,
		rooms:   rooms,
		log:     observability.NewServiceLogger("follow"),
	}
}

// Follow creates the edge viewer -> target. A duplicate follow is a CONFLICT decided by the
// storage constraint. When the reverse edge already exists the pair is handed to the room
// provisioner; provisioning problems are logged and never fail the follow.
func (s *FollowService) Follow(ctx context.Context, viewerID, targetID string) (result *FollowResult, err error) {
	span, ctx := observability.NewSpan(ctx, "follow.create",
		attribute.String("follow.viewer", viewerID), attribute.String("follow.target", targetID))
	defer func() {
		span.SetError(err)
		span.End()
	}()

	if viewerID == targetID {
		return nil, models.NewValidationError("You cannot follow yourself")
	}
	viewer, err := s.users.GetByIDWithProfile(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	target, err := s.users.GetByIDWithProfile(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if err := s.follows.Create(ctx, viewer.Profile.ID, target.Profile.ID); err != nil {
		observability.FollowEdges.WithLabelValues("follow", resultLabel(err)).Inc()
		return nil, err
	}
	observability.FollowEdges.WithLabelValues("follow", "created").Inc()

	mutual, err := s.follows.Exists(ctx, target.Profile.ID, viewer.Profile.ID)
	if err != nil {
		// The edge is committed; the reconciler will pick up a missed room.
		s.log.Warn(ctx, "mutual check failed after follow", slog.String("error", err.Error()))
		return &FollowResult{}, nil
	}
	if mutual {
		s.provisionRoom(ctx, viewer, target)
	}
	return &FollowResult{Mutual: mutual}, nil
}

func (s *FollowService) provisionRoom(ctx context.Context, a, b *models.User) {
	if s.rooms == nil {
		return
	}
	if err := s.rooms.Provision(ctx, chatroom.ParticipantFromUser(a), chatroom.ParticipantFromUser(b)); err != nil {
		s.log.Warn(ctx, "room provisioning deferred to reconciler",
			slog.String("room_id", chatroom.RoomID(a.ID, b.ID)),
			slog.String("error", err.Error()),
		)
	}
}

// Unfollow removes exactly the edge viewer -> target. Any chat room stays in place.
func (s *FollowService) Unfollow(ctx context.Context, viewerID, targetID string) error {
	if viewerID == targetID {
		return models.NewValidationError("You cannot unfollow yourself")
	}
	viewer, err := s.users.GetByIDWithProfile(ctx, viewerID)
	if err != nil {
		return err
	}
	target, err := s.users.GetByIDWithProfile(ctx, targetID)
	if err != nil {
		return err
	}
	err = s.follows.Delete(ctx, viewer.Profile.ID, target.Profile.ID)
	if err != nil {
		observability.FollowEdges.WithLabelValues("unfollow", resultLabel(err)).Inc()
		return err
	}
	observability.FollowEdges.WithLabelValues("unfollow", "deleted").Inc()
	return nil
}

// ListRelations returns who follows userID and whom userID follows.
func (s *FollowService) ListRelations(ctx context.Context, userID string) (*models.Relations, error) {
	user, err := s.users.GetByIDWithProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	followers, err := s.follows.Followers(ctx, user.Profile.ID)
	if err != nil {
		return nil, err
	}
	following, err := s.follows.Following(ctx, user.Profile.ID)
	if err != nil {
		return nil, err
	}
	if followers == nil {
		followers = []models.RelationUser{}
	}
	if following == nil {
		following = []models.RelationUser{}
	}
	return &models.Relations{
		Username:       user.Username,
		Avatar:         user.Profile.AvatarURL,
		FollowerCount:  len(followers),
		FollowingCount: len(following),
		Follower:       followers,
		Following:      following,
	}, nil
}

// IsMutual reports whether a and b follow each other.
func (s *FollowService) IsMutual(ctx context.Context, a, b string) (bool, error) {
	return s.follows.IsMutual(ctx, a, b)
}

func resultLabel(err error) string {
	switch {
	case models.HasCode(err, models.CodeConflict):
		return "conflict"
	case models.HasCode(err, models.CodeNotFound):
		return "not_found"
	case models.HasCode(err, models.CodeValidation):
		return "invalid"
	}
	return "error"
}
