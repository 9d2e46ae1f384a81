package server

import (
	"kinship/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Follow handles POST /api/v1/follow/following/:targetId
func (s *Server) Follow(c *fiber.Ctx) error {
	targetID, err := parseID(c, "targetId")
	if err != nil {
		return models.RespondWithError(c, err)
	}
	result, err := s.followService.Follow(c.UserContext(), currentUserID(c), targetID)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return respond(c, fiber.StatusOK, "Following user successfully", result)
}

// Unfollow handles DELETE /api/v1/follow/unfollow/:targetId
func (s *Server) Unfollow(c *fiber.Ctx) error {
	targetID, err := parseID(c, "targetId")
	if err != nil {
		return models.RespondWithError(c, err)
	}
	if err := s.followService.Unfollow(c.UserContext(), currentUserID(c), targetID); err != nil {
		return models.RespondWithError(c, err)
	}
	return respond(c, fiber.StatusOK, "Unfollowed successfully", nil)
}

// GetOwnRelations handles GET /api/v1/follow/follower
func (s *Server) GetOwnRelations(c *fiber.Ctx) error {
	return s.relations(c, currentUserID(c))
}

// GetRelations handles GET /api/v1/follow/follower/:userId
func (s *Server) GetRelations(c *fiber.Ctx) error {
	userID, err := parseID(c, "userId")
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return s.relations(c, userID)
}

func (s *Server) relations(c *fiber.Ctx, userID string) error {
	rel, err := s.followService.ListRelations(c.UserContext(), userID)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return respond(c, fiber.StatusOK, "Followers fetched successfully", rel)
}
