package server

import (
	"strconv"
	"strings"

	"zilean/internal/guard"
	"zilean/internal/middleware"
	"zilean/internal/models"

	"github.com/gofiber/fiber/v2"
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// UploadImage stores the multipart "image" part and records its metadata.
func (s *Server) UploadImage(c *fiber.Ctx) error {
	header, err := c.FormFile("image")
	if err != nil {
		return errResponse(c, fiber.StatusBadRequest, msgMissingArguments)
	}
	if ct := header.Header.Get("Content-Type"); !allowedImageTypes[ct] {
		return errResponse(c, fiber.StatusBadRequest, "Unsupported image type")
	}

	file, err := header.Open()
	if err != nil {
		return respondServiceError(c, err)
	}
	defer file.Close()

	ctx := c.UserContext()
	path, err := s.store.Save(ctx, header.Filename, file)
	if err != nil {
		return respondServiceError(c, err)
	}

	image := &models.Image{
		Name:       header.Filename,
		Path:       path,
		Searchable: c.FormValue("searchable") == "true",
		AuthorID:   guard.FromCtx(c).User.ID,
	}
	if err := s.imageRepo.Create(ctx, image); err != nil {
		s.store.Delete(ctx, path)
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(image)
}

// GetImage returns image metadata. Unlike comics and stories images have no
// publication state, so lookup is public.
func (s *Server) GetImage(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return errResponse(c, fiber.StatusBadRequest, guard.MsgNotFound(models.KindImage))
	}
	image, getErr := s.imageRepo.GetByID(c.UserContext(), uint(id))
	if getErr != nil {
		return errResponse(c, fiber.StatusBadRequest, guard.MsgNotFound(models.KindImage))
	}
	return c.Status(fiber.StatusOK).JSON(image)
}

type imageUpdateRequest struct {
	Name       *string `json:"name"`
	Searchable *bool   `json:"searchable"`
}

// UpdateImage edits image metadata. The stored bytes are immutable.
func (s *Server) UpdateImage(c *fiber.Ctx) error {
	var req imageUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return errResponse(c, fiber.StatusBadRequest, msgMissingArguments)
	}

	image := guard.FromCtx(c).Resource.(*models.Image)
	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		image.Name = *req.Name
	}
	if req.Searchable != nil {
		image.Searchable = *req.Searchable
	}
	if err := s.imageRepo.Update(c.UserContext(), image); err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(image)
}

// DeleteImage removes the stored object and its metadata row.
func (s *Server) DeleteImage(c *fiber.Ctx) error {
	image := guard.FromCtx(c).Resource.(*models.Image)
	ctx := c.UserContext()

	if err := s.imageRepo.Delete(ctx, image.ID); err != nil {
		return respondServiceError(c, err)
	}
	if err := s.store.Delete(ctx, image.Path); err != nil {
		// Metadata is already gone; an orphaned object is recoverable.
		middleware.Logger.WarnContext(ctx, "failed to delete stored object",
			"path", image.Path, "error", err.Error())
	}
	return messageResponse(c, "Successfully deleted image.")
}

// SearchImages finds searchable images by name.
func (s *Server) SearchImages(c *fiber.Ctx) error {
	_, limit := parsePagination(c)
	images, err := s.imageRepo.SearchByName(c.UserContext(), c.Query("value"), limit)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"data": images})
}
