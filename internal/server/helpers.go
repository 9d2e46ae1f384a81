package server

import (
	"strings"
	"unicode"

	"kinship/internal/models"
	"kinship/internal/service"
	"kinship/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

// maxIDLength bounds route IDs; stored IDs are UUIDs.
const maxIDLength = 64

// Pagination holds parsed page/limit query parameters.
type Pagination struct {
	Page  int
	Limit int
}

// parsePagination reads page and limit; the service clamps out-of-range values.
func parsePagination(c *fiber.Ctx) Pagination {
	return Pagination{
		Page:  c.QueryInt("page", service.DefaultPage),
		Limit: c.QueryInt("limit", service.DefaultLimit),
	}
}

// parseID reads a route parameter as an entity ID. The error message is derived from the
// parameter name ("id" -> "Invalid ID", "targetId" -> "Invalid target ID"). The result is
// copied out of the request buffer, which Fiber reuses once the handler returns.
func parseID(c *fiber.Ctx, param string) (string, error) {
	id := strings.TrimSpace(c.Params(param))
	if id == "" || len(id) > maxIDLength {
		return "", models.NewValidationError("Invalid " + humanizeParam(param))
	}
	return utils.CopyString(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if prefix, ok := strings.CutSuffix(param, "Id"); ok {
		return strings.ToLower(strings.Join(splitCamel(prefix), " ")) + " ID"
	}
	return param
}

func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	return append(words, s[start:])
}

// bindJSON parses the body into req and validates its struct tags.
func bindJSON(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return models.NewValidationError("Invalid request body")
	}
	return validation.Struct(req)
}

func respond(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(models.Response{Message: message, Data: data})
}
