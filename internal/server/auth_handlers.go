package server

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"zilean/internal/cache"
	"zilean/internal/guard"
	"zilean/internal/middleware"
	"zilean/internal/models"
	"zilean/internal/repository"
	"zilean/internal/token"
	"zilean/internal/validation"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

const (
	msgMissingArguments  = "Missing arguments in request"
	msgDuplicateAccount  = "Account with that email address and/or username already exists."
	msgUserNotFound      = "User not found."
	msgInvalidCredential = "Invalid username or password."
	msgResetArguments    = "Must provide all required arguments to reset password"
	msgVerifyArguments   = "Must provide all required arguments to verify user"
	msgInvalidToken      = "Token is invalid or expired"
	msgNotValidID        = "Not a valid ID"
)

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an unverified account and signs the new user in.
func (s *Server) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return errResponse(c, fiber.StatusBadRequest, msgMissingArguments)
	}
	if req.Email == "" || req.Username == "" || req.Password == "" {
		return errResponse(c, fiber.StatusBadRequest, msgMissingArguments)
	}

	email := strings.ToLower(req.Email)
	ctx := c.UserContext()

	existing, err := s.userRepo.GetByEmailOrUsername(ctx, email, req.Username)
	if err != nil {
		return respondServiceError(c, err)
	}
	if existing != nil {
		return errResponse(c, fiber.StatusBadRequest, msgDuplicateAccount)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return respondServiceError(c, err)
	}

	user := &models.User{
		Email:    email,
		Username: req.Username,
		Password: string(hashed),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateAccount) {
			return errResponse(c, fiber.StatusBadRequest, msgDuplicateAccount)
		}
		return respondServiceError(c, err)
	}

	s.sendVerificationMail(c, user)

	signed, err := token.IssueSession(s.config.JWTSecret, user.ID, user.Username)
	if err != nil {
		return messageResponse(c, "Registered Successfully, Unable to Login.")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Registered Successfully!",
		"token":   signed,
		"data":    user,
	})
}

// Login checks the credential pair and issues a session token.
func (s *Server) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return errResponse(c, fiber.StatusBadRequest, msgMissingArguments)
	}

	ctx := c.UserContext()
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return respondServiceError(c, err)
	}
	if user == nil {
		return errResponse(c, fiber.StatusUnauthorized, msgUserNotFound)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return errResponse(c, fiber.StatusUnauthorized, msgInvalidCredential)
	}

	signed, err := token.IssueSession(s.config.JWTSecret, user.ID, user.Username)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": fmt.Sprintf("logged in %d", user.ID),
		"token":   signed,
		"data":    user,
	})
}

// Logout revokes the presented session token.
func (s *Server) Logout(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		if sess, err := token.ParseSession(s.config.JWTSecret, parts[1]); err == nil && sess.JTI != "" {
			if err := cache.BlacklistToken(c.UserContext(), sess.JTI, token.SessionTTL); err != nil {
				return respondServiceError(c, err)
			}
		}
	}
	return messageResponse(c, "Logged Out!")
}

// GetAccount returns the signed-in user with their rating ledgers attached.
func (s *Server) GetAccount(c *fiber.Ctx) error {
	user := guard.FromCtx(c).User
	ctx := c.UserContext()

	for _, kind := range []string{models.KindComic, models.KindStory} {
		entries, err := s.ratingRepo.ListForUser(ctx, kind, user.ID)
		if err != nil {
			return respondServiceError(c, err)
		}
		user.Ratings = append(user.Ratings, entries...)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"data": user})
}

type updateAccountRequest struct {
	Username         string `json:"username"`
	Email            string `json:"email"`
	ProfilePictureID *uint  `json:"profile_picture_id"`
	OldPassword      string `json:"oldpassword"`
	NewPassword      string `json:"newpassword"`
}

// UpdateAccount edits profile fields and optionally rotates the password.
func (s *Server) UpdateAccount(c *fiber.Ctx) error {
	var req updateAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return errResponse(c, fiber.StatusBadRequest, "Missing arguments")
	}

	user := guard.FromCtx(c).User
	ctx := c.UserContext()

	if req.Username != "" && req.Username != user.Username {
		if err := validation.ValidateUsername(req.Username); err != nil {
			return errResponse(c, fiber.StatusBadRequest, err.Error())
		}
		user.Username = req.Username
	}
	if email := strings.ToLower(req.Email); email != "" && email != user.Email {
		if err := validation.ValidateEmail(email); err != nil {
			return errResponse(c, fiber.StatusBadRequest, err.Error())
		}
		existing, err := s.userRepo.GetByEmail(ctx, email)
		if err != nil {
			return respondServiceError(c, err)
		}
		if existing != nil {
			return errResponse(c, fiber.StatusBadRequest, msgDuplicateAccount)
		}
		user.Email = email
	}
	if req.ProfilePictureID != nil {
		user.ProfilePictureID = req.ProfilePictureID
	}

	if req.NewPassword != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)); err != nil {
			return errResponse(c, fiber.StatusBadRequest, "Passwords do not match")
		}
		if err := validation.ValidatePassword(req.NewPassword); err != nil {
			return errResponse(c, fiber.StatusBadRequest, err.Error())
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return respondServiceError(c, err)
		}
		user.Password = string(hashed)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"data": user})
}

// DeleteAccount removes the signed-in user and cascades over everything
// they own: works, images, ratings, comments and follow edges.
func (s *Server) DeleteAccount(c *fiber.Ctx) error {
	user := guard.FromCtx(c).User
	ctx := c.UserContext()

	// Snapshot the owned works before the cascade so their cache entries and
	// stored objects can be cleaned up afterwards.
	comics, err := s.comicRepo.ListByAuthor(ctx, user.ID)
	if err != nil {
		return respondServiceError(c, err)
	}
	stories, err := s.storyRepo.ListByAuthor(ctx, user.ID)
	if err != nil {
		return respondServiceError(c, err)
	}
	images, err := s.imageRepo.ListByAuthor(ctx, user.ID)
	if err != nil {
		return respondServiceError(c, err)
	}

	if err := s.userRepo.Delete(ctx, user.ID); err != nil {
		return respondServiceError(c, err)
	}

	for _, comic := range comics {
		cache.InvalidateComic(ctx, comic.ID)
	}
	for _, story := range stories {
		cache.InvalidateStory(ctx, story.ID)
	}
	for _, image := range images {
		if err := s.store.Delete(ctx, image.Path); err != nil {
			// Metadata is already gone; an orphaned object is recoverable.
			middleware.Logger.WarnContext(ctx, "failed to delete stored object",
				"path", image.Path, "error", err.Error())
		}
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Deleted Account"})
}

func (s *Server) sendVerificationMail(c *fiber.Ctx, user *models.User) {
	signed, err := token.IssuePasswordBound(s.config.JWTSecret, user, token.PurposeVerify)
	if err != nil {
		return
	}
	link := fmt.Sprintf("%s/verify?id=%d&token=%s", s.config.ClientURL, user.ID, signed)
	_ = s.mailer.SendVerification(c.UserContext(), user, link)
}

type emailRequest struct {
	Email string `json:"email"`
}

// ForgotPassword emails a password-bound reset link.
func (s *Server) ForgotPassword(c *fiber.Ctx) error {
	var req emailRequest
	if err := c.BodyParser(&req); err != nil || req.Email == "" {
		return errResponse(c, fiber.StatusBadRequest, "Missing email")
	}

	ctx := c.UserContext()
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return respondServiceError(c, err)
	}
	if user == nil {
		return errResponse(c, fiber.StatusBadRequest, "No user with specified email")
	}

	signed, err := token.IssuePasswordBound(s.config.JWTSecret, user, token.PurposeReset)
	if err != nil {
		return respondServiceError(c, err)
	}
	link := fmt.Sprintf("%s/reset-password?id=%d&token=%s", s.config.ClientURL, user.ID, signed)
	if err := s.mailer.SendPasswordReset(ctx, user, link); err != nil {
		return respondServiceError(c, err)
	}
	return messageResponse(c, "OK")
}

// SendVerify re-sends the verification email. The response does not reveal
// whether the address exists.
func (s *Server) SendVerify(c *fiber.Ctx) error {
	var req emailRequest
	if err := c.BodyParser(&req); err != nil || req.Email == "" {
		return errResponse(c, fiber.StatusBadRequest, "Missing email")
	}

	user, err := s.userRepo.GetByEmail(c.UserContext(), req.Email)
	if err != nil {
		return respondServiceError(c, err)
	}
	if user == nil {
		return messageResponse(c, "OK")
	}

	s.sendVerificationMail(c, user)
	return messageResponse(c, "OK")
}

type tokenRequest struct {
	ID       string `json:"id"`
	Token    string `json:"token"`
	Password string `json:"password"`
}

// lookupTokenUser resolves the user a password-bound token claims to be for.
func (s *Server) lookupTokenUser(c *fiber.Ctx, rawID string) (*models.User, error) {
	id, err := strconv.ParseUint(rawID, 10, 32)
	if err != nil || id == 0 {
		return nil, errResponse(c, fiber.StatusBadRequest, msgNotValidID)
	}
	user, err := s.userRepo.GetByID(c.UserContext(), uint(id))
	if err != nil || user == nil {
		return nil, errResponse(c, fiber.StatusBadRequest, "User not found")
	}
	return user, nil
}

// ResetPasswordVerify checks a reset token without consuming it.
func (s *Server) ResetPasswordVerify(c *fiber.Ctx) error {
	var req tokenRequest
	if err := c.BodyParser(&req); err != nil || req.ID == "" || req.Token == "" {
		return errResponse(c, fiber.StatusBadRequest, msgResetArguments)
	}

	user, handled := s.lookupTokenUser(c, req.ID)
	if user == nil {
		return handled
	}
	if err := token.ValidatePasswordBound(s.config.JWTSecret, user, token.PurposeReset, req.Token); err != nil {
		return errResponse(c, fiber.StatusBadRequest, msgInvalidToken)
	}
	return messageResponse(c, "OK")
}

// ResetPassword replaces the password using a reset token. Setting the new
// password invalidates the token that authorized it.
func (s *Server) ResetPassword(c *fiber.Ctx) error {
	var req tokenRequest
	if err := c.BodyParser(&req); err != nil || req.ID == "" || req.Token == "" || req.Password == "" {
		return errResponse(c, fiber.StatusBadRequest, msgResetArguments)
	}

	user, handled := s.lookupTokenUser(c, req.ID)
	if user == nil {
		return handled
	}
	if err := token.ValidatePasswordBound(s.config.JWTSecret, user, token.PurposeReset, req.Token); err != nil {
		return errResponse(c, fiber.StatusBadRequest, msgInvalidToken)
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		return errResponse(c, fiber.StatusBadRequest, err.Error())
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return respondServiceError(c, err)
	}
	user.Password = string(hashed)
	if err := s.userRepo.Update(c.UserContext(), user); err != nil {
		return respondServiceError(c, err)
	}
	return messageResponse(c, "OK")
}

// VerifyAccount flips the verified gate using an emailed token.
func (s *Server) VerifyAccount(c *fiber.Ctx) error {
	var req tokenRequest
	if err := c.BodyParser(&req); err != nil || req.ID == "" || req.Token == "" {
		return errResponse(c, fiber.StatusBadRequest, msgVerifyArguments)
	}

	user, handled := s.lookupTokenUser(c, req.ID)
	if user == nil {
		return handled
	}
	if err := token.ValidatePasswordBound(s.config.JWTSecret, user, token.PurposeVerify, req.Token); err != nil {
		return errResponse(c, fiber.StatusBadRequest, msgInvalidToken)
	}

	user.Verified = true
	if err := s.userRepo.Update(c.UserContext(), user); err != nil {
		return respondServiceError(c, err)
	}
	return messageResponse(c, "OK")
}
