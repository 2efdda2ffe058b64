package handlers

import (
	"errors"

	"auctionhub/internal/apperrors"
	"auctionhub/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// respondError maps domain failures to HTTP statuses. It is the only place
// that knows this mapping; services never see status codes. Unknown errors
// become a generic 500 so internals never leak to the client.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, apperrors.ErrAuctionNotFound),
		errors.Is(err, apperrors.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})

	case errors.Is(err, apperrors.ErrAuctionEnded),
		errors.Is(err, apperrors.ErrBidTooLow),
		errors.Is(err, apperrors.ErrDuplicateEmail):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})

	case errors.Is(err, apperrors.ErrSelfBid):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})

	case errors.Is(err, apperrors.ErrNotOwner),
		errors.Is(err, apperrors.ErrInvalidCredentials),
		errors.Is(err, apperrors.ErrInvalidToken):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})

	default:
		utils.Error("unhandled error", map[string]any{
			"path":  c.Path(),
			"error": err.Error(),
		})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}
}
