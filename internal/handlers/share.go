package handlers

import (
	"errors"

	"ngabarin/gateway/internal/share"

	"github.com/gofiber/fiber/v2"
)

// ShareLinks resolves the links for sharing a URL to another app. A missing
// app is not a failure: the web fallback is returned with the alert text.
func ShareLinks(c *fiber.Ctx) error {
	target := share.Target(c.Query("target"))
	installed := c.QueryBool("installed", true)

	links, err := share.Resolve(target, c.Query("url"), installed)
	if err != nil && !errors.Is(err, share.ErrAppNotInstalled) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   share.UserMessage(target, err),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": share.UserMessage(target, err),
		"data":    links,
	})
}
