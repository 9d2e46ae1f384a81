package server

import (
	"kinship/internal/models"
	"kinship/internal/service"

	"github.com/gofiber/fiber/v2"
)

type updateProfileRequest struct {
	Bio       *string `json:"bio" validate:"omitempty,max=500"`
	AvatarURL *string `json:"avatarUrl" validate:"omitempty,max=255"`
}

// GetMyProfile handles GET /api/v1/profile
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user, err := s.profileService.Get(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return respond(c, fiber.StatusOK, "Profile fetched successfully", user)
}

// GetProfile handles GET /api/v1/profile/:userId. Another user's email is not disclosed.
func (s *Server) GetProfile(c *fiber.Ctx) error {
	userID, err := parseID(c, "userId")
	if err != nil {
		return models.RespondWithError(c, err)
	}
	user, err := s.profileService.Get(c.UserContext(), userID)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	if user.ID != currentUserID(c) {
		user.Email = ""
	}
	return respond(c, fiber.StatusOK, "Profile fetched successfully", user)
}

// UpdateMyProfile handles PUT /api/v1/profile
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req updateProfileRequest
	if err := bindJSON(c, &req); err != nil {
		return models.RespondWithError(c, err)
	}
	user, err := s.profileService.Update(c.UserContext(), currentUserID(c), service.UpdateProfileInput{
		Bio:       req.Bio,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return respond(c, fiber.StatusOK, "Profile updated successfully", user)
}
