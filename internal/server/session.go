package server

import (
	"errors"
	"strings"
	"time"

	"kinship/internal/middleware"
	"kinship/internal/models"
	"kinship/internal/observability"
	"kinship/internal/session"

	"github.com/gofiber/fiber/v2"
)

// Session cookies.
const (
	accessCookie     = "token"
	refreshCookie    = "refreshToken"
	accessCookieTTL  = 24 * time.Hour
	refreshCookieTTL = session.RefreshTTL

	localUsername = "username"
)

// SessionRefresh resolves the caller once per request. A valid access token (cookie or
// Bearer header) authenticates directly. Failing that, a valid refresh cookie of a user that
// still exists authenticates the request and renews the access cookie. Anything else leaves
// the request anonymous; guards decide whether that is acceptable.
func (s *Server) SessionRefresh() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id, ok := s.accessIdentity(c); ok {
			setIdentity(c, id)
			return c.Next()
		}

		refresh := c.Cookies(refreshCookie)
		if refresh == "" {
			return c.Next()
		}
		access, id, err := s.tokens.Rotate(c.UserContext(), refresh)
		if err != nil {
			if errors.Is(err, session.ErrExpired) || errors.Is(err, session.ErrInvalid) {
				observability.SessionRenewals.WithLabelValues("rejected").Inc()
			} else {
				observability.SessionRenewals.WithLabelValues("error").Inc()
				observability.Logger.WarnContext(c.UserContext(), "session renewal failed", "error", err.Error())
			}
			return c.Next()
		}

		observability.SessionRenewals.WithLabelValues("renewed").Inc()
		s.setCookie(c, accessCookie, access, accessCookieTTL)
		setIdentity(c, id)
		return c.Next()
	}
}

func (s *Server) accessIdentity(c *fiber.Ctx) (session.Identity, bool) {
	for _, token := range []string{c.Cookies(accessCookie), bearerToken(c)} {
		if token == "" {
			continue
		}
		if sess, err := s.tokens.VerifyAccess(token); err == nil {
			return sess.Identity, true
		}
	}
	return session.Identity{}, false
}

func bearerToken(c *fiber.Ctx) string {
	parts := strings.Split(c.Get(fiber.HeaderAuthorization), " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

func setIdentity(c *fiber.Ctx, id session.Identity) {
	c.Locals(middleware.LocalUserID, id.UserID)
	c.Locals(localUsername, id.Username)
	c.SetUserContext(observability.WithUserID(c.UserContext(), id.UserID))
}

// RequireSession rejects requests the interceptor left anonymous.
func (s *Server) RequireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if currentUserID(c) == "" {
			return models.RespondWithError(c, models.NewUnauthorizedError("Authorization required"))
		}
		return c.Next()
	}
}

// currentUserID returns the authenticated user's ID, or "" for anonymous requests.
func currentUserID(c *fiber.Ctx) string {
	id, _ := c.Locals(middleware.LocalUserID).(string)
	return id
}

func (s *Server) setCookie(c *fiber.Ctx, name, value string, ttl time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		MaxAge:   int(ttl.Seconds()),
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

func (s *Server) setSessionCookies(c *fiber.Ctx, pair session.Pair) {
	s.setCookie(c, accessCookie, pair.Access, accessCookieTTL)
	s.setCookie(c, refreshCookie, pair.Refresh, refreshCookieTTL)
}

func (s *Server) clearSessionCookies(c *fiber.Ctx) {
	for _, name := range []string{accessCookie, refreshCookie} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0),
			MaxAge:   -1,
			HTTPOnly: true,
			Secure:   s.config.IsProduction(),
			SameSite: fiber.CookieSameSiteStrictMode,
		})
	}
}
