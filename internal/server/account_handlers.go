package server

import (
	"strconv"

	"zilean/internal/guard"
	"zilean/internal/repository"

	"github.com/gofiber/fiber/v2"
)

type subscribeRequest struct {
	Subscription uint `json:"subscription"`
}

// Subscribe follows another author.
func (s *Server) Subscribe(c *fiber.Ctx) error {
	var req subscribeRequest
	if err := c.BodyParser(&req); err != nil || req.Subscription == 0 {
		return errResponse(c, fiber.StatusBadRequest, msgMissingArguments)
	}

	user := guard.FromCtx(c).User
	if err := s.subService.Subscribe(c.UserContext(), user.ID, req.Subscription); err != nil {
		return respondServiceError(c, err)
	}
	return messageResponse(c, "subscribed successfully")
}

// Unsubscribe removes a follow edge.
func (s *Server) Unsubscribe(c *fiber.Ctx) error {
	var req subscribeRequest
	if err := c.BodyParser(&req); err != nil || req.Subscription == 0 {
		return errResponse(c, fiber.StatusBadRequest, msgMissingArguments)
	}

	user := guard.FromCtx(c).User
	if err := s.subService.Unsubscribe(c.UserContext(), user.ID, req.Subscription); err != nil {
		return respondServiceError(c, err)
	}
	return messageResponse(c, "unsubscribed successfully")
}

// GetSubscriptions lists the authors the signed-in user follows.
func (s *Server) GetSubscriptions(c *fiber.Ctx) error {
	user := guard.FromCtx(c).User
	subs, err := s.subService.Subscriptions(c.UserContext(), user.ID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"data": subs})
}

// SearchUsers searches the user directory.
func (s *Server) SearchUsers(c *fiber.Ctx) error {
	params := repository.UserSearchParams{
		Username: c.Query("value"),
		Sort:     c.Query("sort"),
	}
	params.Page, params.Limit = parsePagination(c)

	if c.Query("subscriptions") == "true" {
		uid, ok := c.Locals("userID").(uint)
		if !ok {
			return errResponse(c, fiber.StatusBadRequest, "Must be logged in to show subscriptions")
		}
		ids, err := s.subService.SubscriptionIDs(c.UserContext(), uid)
		if err != nil {
			return respondServiceError(c, err)
		}
		params.IDs = ids
	}

	users, count, err := s.userRepo.Search(c.UserContext(), params)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"data": fiber.Map{"results": users, "count": count},
	})
}

// GetUser returns a public user profile with their works.
func (s *Server) GetUser(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return errResponse(c, fiber.StatusBadRequest, "No user found")
	}

	user, err := s.userRepo.GetByIDWithWorks(c.UserContext(), uint(id))
	if err != nil || user == nil {
		return errResponse(c, fiber.StatusBadRequest, "No user found")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"data": user})
}

// GetUserByUsername resolves a profile by exact username.
func (s *Server) GetUserByUsername(c *fiber.Ctx) error {
	user, err := s.userRepo.GetByUsername(c.UserContext(), c.Params("username"))
	if err != nil {
		return respondServiceError(c, err)
	}
	if user == nil {
		return errResponse(c, fiber.StatusBadRequest, "No user found")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"data": user})
}
