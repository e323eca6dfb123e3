package server

import (
	"fmt"
	"time"

	"zilean/internal/guard"
	"zilean/internal/models"
	"zilean/internal/repository"

	"github.com/gofiber/fiber/v2"
)

// parseSearchParams reads the shared search query params for comics and
// stories. The error return is an already-written response.
func (s *Server) parseSearchParams(c *fiber.Ctx) (repository.SearchParams, error) {
	params := repository.SearchParams{
		Title:    c.Query("value"),
		Window:   c.Query("time"),
		Sort:     c.Query("sort"),
		AuthorID: uint(c.QueryInt("author", 0)),
	}
	params.Page, params.Limit = parsePagination(c)

	if c.Query("subscriptions") == "true" {
		uid, ok := c.Locals("userID").(uint)
		if !ok {
			return params, errResponse(c, fiber.StatusBadRequest, "Must be logged in to show subscriptions")
		}
		ids, err := s.subService.SubscriptionIDs(c.UserContext(), uid)
		if err != nil {
			return params, respondServiceError(c, err)
		}
		params.AuthorIDs = ids
	}
	return params, nil
}

// SearchContent returns the published works matching the query filters.
func (s *Server) SearchContent(kind string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		params, handled := s.parseSearchParams(c)
		if handled != nil {
			return handled
		}

		switch kind {
		case models.KindComic:
			comics, err := s.comicRepo.Search(c.UserContext(), params)
			if err != nil {
				return respondServiceError(c, err)
			}
			return c.Status(fiber.StatusOK).JSON(comics)
		default:
			stories, err := s.storyRepo.Search(c.UserContext(), params)
			if err != nil {
				return respondServiceError(c, err)
			}
			return c.Status(fiber.StatusOK).JSON(stories)
		}
	}
}

// GetContent returns the resource the guard chain resolved.
func (s *Server) GetContent(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(guard.FromCtx(c).Resource)
}

// CreateContent creates an empty draft owned by the signed-in user.
func (s *Server) CreateContent(kind string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := guard.FromCtx(c).User
		ctx := c.UserContext()

		switch kind {
		case models.KindComic:
			comic := &models.Comic{Title: "Unnamed Comic", AuthorID: user.ID}
			if err := s.comicRepo.Create(ctx, comic); err != nil {
				return respondServiceError(c, err)
			}
			return c.Status(fiber.StatusOK).JSON(comic)
		default:
			story := &models.Story{Title: "Unnamed Story", AuthorID: user.ID}
			if err := s.storyRepo.Create(ctx, story); err != nil {
				return respondServiceError(c, err)
			}
			return c.Status(fiber.StatusOK).JSON(story)
		}
	}
}

type contentUpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Story       *string `json:"story"`
	CoverID     *uint   `json:"cover_id"`
}

// UpdateContent edits the draft fields of an owned resource.
func (s *Server) UpdateContent(c *fiber.Ctx) error {
	var req contentUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return errResponse(c, fiber.StatusBadRequest, msgMissingArguments)
	}

	res := guard.FromCtx(c).Resource
	ctx := c.UserContext()

	switch v := res.(type) {
	case *models.Comic:
		if req.Title != nil {
			v.Title = *req.Title
		}
		if req.Description != nil {
			v.Description = *req.Description
		}
		if req.CoverID != nil {
			v.CoverID = req.CoverID
		}
		if err := s.comicRepo.Update(ctx, v); err != nil {
			return respondServiceError(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(v)
	case *models.Story:
		if req.Title != nil {
			v.Title = *req.Title
		}
		if req.Description != nil {
			v.Description = *req.Description
		}
		if req.Story != nil {
			v.Body = *req.Story
		}
		if req.CoverID != nil {
			v.CoverID = req.CoverID
		}
		if err := s.storyRepo.Update(ctx, v); err != nil {
			return respondServiceError(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(v)
	default:
		return respondServiceError(c, fmt.Errorf("unexpected resource kind %q", res.ResourceKind()))
	}
}

// DeleteContent removes an owned resource along with its comments and
// ratings.
func (s *Server) DeleteContent(c *fiber.Ctx) error {
	res := guard.FromCtx(c).Resource
	ctx := c.UserContext()

	var err error
	switch res.ResourceKind() {
	case models.KindComic:
		err = s.comicRepo.Delete(ctx, res.ResourceID())
	default:
		err = s.storyRepo.Delete(ctx, res.ResourceID())
	}
	if err != nil {
		return respondServiceError(c, err)
	}
	return messageResponse(c, fmt.Sprintf("Successfully deleted %s.", res.ResourceKind()))
}

// PublishContent makes the resource publicly visible.
func (s *Server) PublishContent(c *fiber.Ctx) error {
	if err := s.lifecycle.Publish(c.UserContext(), guard.FromCtx(c).Resource); err != nil {
		return respondServiceError(c, err)
	}
	return messageResponse(c, "successfully published")
}

// UnpublishContent returns the resource to draft.
func (s *Server) UnpublishContent(c *fiber.Ctx) error {
	if err := s.lifecycle.Unpublish(c.UserContext(), guard.FromCtx(c).Resource); err != nil {
		return respondServiceError(c, err)
	}
	return messageResponse(c, "successfully unpublished")
}

type rateRequest struct {
	Rating float64 `json:"rating"`
}

// RateContent records the signed-in user's rating and returns the refreshed
// aggregates.
func (s *Server) RateContent(c *fiber.Ctx) error {
	var req rateRequest
	if err := c.BodyParser(&req); err != nil {
		return errResponse(c, fiber.StatusBadRequest, msgMissingArguments)
	}

	gr := guard.FromCtx(c)
	ctx := c.UserContext()
	if err := s.ratingService.Rate(ctx, gr.Resource, gr.User.ID, req.Rating); err != nil {
		return respondServiceError(c, err)
	}

	switch gr.Resource.ResourceKind() {
	case models.KindComic:
		comic, err := s.comicRepo.GetByID(ctx, gr.Resource.ResourceID())
		if err != nil {
			return respondServiceError(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(comic)
	default:
		story, err := s.storyRepo.GetByID(ctx, gr.Resource.ResourceID())
		if err != nil {
			return respondServiceError(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(story)
	}
}

type commentRequest struct {
	Comment string `json:"comment"`
}

// CommentContent attaches a comment to a published resource.
func (s *Server) CommentContent(c *fiber.Ctx) error {
	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return errResponse(c, fiber.StatusBadRequest, msgMissingArguments)
	}

	gr := guard.FromCtx(c)
	comment, err := s.comments.Add(c.UserContext(), gr.Resource, gr.User.ID, req.Comment)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"data": comment})
}

type deleteCommentRequest struct {
	CreatedAt time.Time `json:"created_at"`
}

// DeleteContentComment removes the signed-in user's comment identified by
// its creation timestamp.
func (s *Server) DeleteContentComment(c *fiber.Ctx) error {
	var req deleteCommentRequest
	if err := c.BodyParser(&req); err != nil || req.CreatedAt.IsZero() {
		return errResponse(c, fiber.StatusBadRequest, msgMissingArguments)
	}

	gr := guard.FromCtx(c)
	if err := s.comments.Delete(c.UserContext(), gr.Resource, gr.User.ID, req.CreatedAt); err != nil {
		return respondServiceError(c, err)
	}
	return messageResponse(c, "comment deleted")
}

// ListContentComments returns a resource's comments in creation order.
func (s *Server) ListContentComments(c *fiber.Ctx) error {
	comments, err := s.comments.List(c.UserContext(), guard.FromCtx(c).Resource)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"data": comments})
}
