package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

var errNoIdentity = errors.New("missing identity in request context")

// currentUserID resolves the authenticated caller from the token claims the
// auth middleware stashed in Locals.
func currentUserID(c *fiber.Ctx) (int64, error) {
	raw, ok := c.Locals("user_id").(string)
	if !ok {
		return 0, errNoIdentity
	}

	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		return 0, errNoIdentity
	}
	return userID, nil
}

func currentRole(c *fiber.Ctx) (string, bool) {
	role, ok := c.Locals("role").(string)
	if !ok || (role != "buyer" && role != "seller") {
		return "", false
	}
	return role, true
}

func parsePositiveInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func parseIDParam(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id parameter")
	}
	return id, nil
}
