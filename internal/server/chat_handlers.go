package server

import (
	"kinship/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetChatRooms handles GET /api/v1/chat/rooms, listing the rooms provisioned for the caller's
// mutual follows.
func (s *Server) GetChatRooms(c *fiber.Ctx) error {
	rooms, err := s.rooms.ListForUser(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithError(c, models.NewInternalError(err))
	}
	if rooms == nil {
		rooms = []models.ChatRoomRecord{}
	}
	return respond(c, fiber.StatusOK, "Chat rooms fetched successfully", rooms)
}
