package server

import (
	"kinship/internal/models"
	"kinship/internal/service"

	"github.com/gofiber/fiber/v2"
)

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Username string `json:"username" validate:"required,min=3,max=30,alphanum"`
}

type adminRegisterRequest struct {
	AdminKey string `json:"adminKey" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Username string `json:"username" validate:"required,min=3,max=30,alphanum"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required_without=Username,omitempty,email"`
	Username string `json:"username" validate:"required_without=Email,omitempty,min=3"`
	Password string `json:"password" validate:"required"`
}

// userSummary is the account view returned by the auth endpoints.
type userSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Register handles POST /api/v1/auth/register
func (s *Server) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := bindJSON(c, &req); err != nil {
		return models.RespondWithError(c, err)
	}
	user, err := s.authService.Register(c.UserContext(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Username: req.Username,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return respond(c, fiber.StatusCreated, "User created successfully",
		userSummary{ID: user.ID, Username: user.Username})
}

// RegisterAdmin handles POST /api/v1/auth/admin/register
func (s *Server) RegisterAdmin(c *fiber.Ctx) error {
	var req adminRegisterRequest
	if err := bindJSON(c, &req); err != nil {
		return models.RespondWithError(c, err)
	}
	user, err := s.authService.RegisterAdmin(c.UserContext(), req.AdminKey, service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Username: req.Username,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return respond(c, fiber.StatusCreated, "Admin user created successfully",
		userSummary{ID: user.ID, Username: user.Username})
}

// Login handles POST /api/v1/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := bindJSON(c, &req); err != nil {
		return models.RespondWithError(c, err)
	}
	login := req.Email
	if login == "" {
		login = req.Username
	}
	user, pair, err := s.authService.Login(c.UserContext(), service.LoginInput{Login: login, Password: req.Password})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	s.setSessionCookies(c, pair)
	return respond(c, fiber.StatusOK, "Login successful", userSummary{ID: user.ID, Username: user.Username})
}

// Logout handles POST /api/v1/auth/logout
func (s *Server) Logout(c *fiber.Ctx) error {
	s.clearSessionCookies(c)
	return respond(c, fiber.StatusOK, "Logout successful", nil)
}

// RefreshToken handles POST /api/v1/auth/refresh-token. Both cookies are replaced.
func (s *Server) RefreshToken(c *fiber.Ctx) error {
	pair, id, err := s.authService.Refresh(c.UserContext(), c.Cookies(refreshCookie))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	s.setSessionCookies(c, pair)
	return respond(c, fiber.StatusOK, "Token refreshed successfully", userSummary{ID: id.UserID, Username: id.Username})
}

// DeleteAccount handles DELETE /api/v1/auth/delete
func (s *Server) DeleteAccount(c *fiber.Ctx) error {
	if err := s.authService.DeleteAccount(c.UserContext(), currentUserID(c)); err != nil {
		return models.RespondWithError(c, err)
	}
	s.clearSessionCookies(c)
	return respond(c, fiber.StatusOK, "Account deleted successfully", nil)
}
