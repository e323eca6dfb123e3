package server

import (
	"errors"

	"zilean/internal/middleware"
	"zilean/internal/models"
	"zilean/internal/repository"
	"zilean/internal/service"

	"github.com/gofiber/fiber/v2"
)

// errResponse writes the flat error body the API contract promises.
func errResponse(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

// messageResponse writes a 200 with a message body.
func messageResponse(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": message})
}

// respondServiceError maps domain sentinels onto their contract status codes
// and falls back to 500 for everything else.
func respondServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidRating):
		return errResponse(c, fiber.StatusBadRequest, "invalid rating")
	case errors.Is(err, repository.ErrAlreadySubscribed):
		return errResponse(c, fiber.StatusBadRequest, "already subscribed")
	case errors.Is(err, repository.ErrNotSubscribed):
		return errResponse(c, fiber.StatusBadRequest, "not subscribed")
	case errors.Is(err, service.ErrSubscriptionTarget):
		return errResponse(c, fiber.StatusBadRequest, service.ErrSubscriptionTarget.Error())
	case errors.Is(err, service.ErrEmptyComment):
		return errResponse(c, fiber.StatusBadRequest, service.ErrEmptyComment.Error())
	case errors.Is(err, service.ErrCommentNotFound):
		return errResponse(c, fiber.StatusBadRequest, service.ErrCommentNotFound.Error())
	default:
		middleware.Logger.ErrorContext(c.UserContext(), "request failed", "error", err.Error())
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
}

// parsePagination reads page/limit query params with sane bounds.
func parsePagination(c *fiber.Ctx) (page, limit int) {
	page = c.QueryInt("page", 1)
	limit = c.QueryInt("limit", 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
