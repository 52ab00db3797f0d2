package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/wardrobe/backend/internal/services"
	"github.com/wardrobe/backend/internal/storage"
	"github.com/wardrobe/backend/pkg/utils"
)

const imageURLExpiry = 15 * time.Minute

func parseUUID(value string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(value))
}

func getRequestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return ""
}

// serviceError maps a typed service failure onto the response envelope.
// Unknown errors become opaque 500s.
func serviceError(c *fiber.Ctx, err error) error {
	var svcErr *services.Error
	if !errors.As(err, &svcErr) {
		return utils.Error(c, fiber.StatusInternalServerError, "internal error")
	}

	status := fiber.StatusInternalServerError
	switch svcErr.Kind {
	case services.KindNotFound:
		status = fiber.StatusNotFound
	case services.KindExpired:
		status = fiber.StatusGone
	case services.KindForbidden:
		status = fiber.StatusForbidden
	case services.KindConflict:
		status = fiber.StatusConflict
	case services.KindInvalidInput:
		status = fiber.StatusBadRequest
	case services.KindUnauthenticated:
		status = fiber.StatusUnauthorized
	}

	if len(svcErr.Fields) > 0 {
		return utils.ErrorWithDetails(c, status, svcErr.Message, svcErr.Fields)
	}
	return utils.Error(c, status, svcErr.Message)
}

// presignImageURL turns a stored object path into a short-lived display URL.
// A nil path or a presign failure yields an empty URL rather than an error;
// a missing picture never blocks the response.
func presignImageURL(c *fiber.Ctx, store *storage.MinIOClient, objectPath *string) string {
	if objectPath == nil || store == nil {
		return ""
	}
	url, err := store.PresignedGetURL(c.Context(), *objectPath, imageURLExpiry)
	if err != nil {
		return ""
	}
	return url
}
