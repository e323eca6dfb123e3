package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"zilean/internal/cache"
	"zilean/internal/config"
	"zilean/internal/mail"
	"zilean/internal/models"
	"zilean/internal/storage"
	"zilean/internal/token"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testPassword = "Password123!"

// setupTestServer builds a full server over an in-memory database with
// caching disabled. Tests that need Redis install a miniredis client and
// reset it when done.
func setupTestServer(t *testing.T) (*fiber.App, *Server, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{}, &models.Comic{}, &models.Story{},
		&models.Comment{}, &models.Rating{}, &models.Subscription{}, &models.Image{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	cache.SetClient(nil)

	store, err := storage.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create disk store: %v", err)
	}

	cfg := &config.Config{
		Port:            "0",
		JWTSecret:       "test-secret-test-secret-test-secret",
		Env:             "test",
		ClientURL:       "http://localhost:5173",
		MailFrom:        "test@zilean.works",
		RequireVerified: true,
	}

	s, err := NewServerWithDeps(cfg, db, nil, store, mail.NewLogMailer(cfg.MailFrom))
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	app := fiber.New()
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app, s, db
}

// createTestUser persists a verified user with the shared test password.
func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := &models.User{
		Email:    username + "@example.com",
		Username: username,
		Password: string(hashed),
		Verified: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return user
}

func createUnverifiedUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := createTestUser(t, db, username)
	if err := db.Model(user).Update("verified", false).Error; err != nil {
		t.Fatalf("failed to unset verified: %v", err)
	}
	user.Verified = false
	return user
}

// sessionToken issues a token the session middleware will accept.
func sessionToken(t *testing.T, s *Server, user *models.User) string {
	t.Helper()
	signed, err := token.IssueSession(s.config.JWTSecret, user.ID, user.Username)
	if err != nil {
		t.Fatalf("failed to issue session: %v", err)
	}
	return signed
}

// doRequest performs a JSON request against the test app. An empty token
// leaves the request anonymous.
func doRequest(t *testing.T, app *fiber.App, method, path, bearer string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}
	return resp
}

// decodeBody reads the response into a generic map.
func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return out
}

// expectError asserts the contract error shape {"error": message}.
func expectError(t *testing.T, resp *http.Response, status int, message string) {
	t.Helper()
	if resp.StatusCode != status {
		t.Fatalf("expected status %d, got %d", status, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["error"] != message {
		t.Fatalf("expected error %q, got %v", message, body["error"])
	}
}

// expectMessage asserts a 200 with {"message": message}.
func expectMessage(t *testing.T, resp *http.Response, message string) {
	t.Helper()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["message"] != message {
		t.Fatalf("expected message %q, got %v", message, body["message"])
	}
}

// createDraftComic persists a draft comic owned by the user.
func createDraftComic(t *testing.T, db *gorm.DB, author *models.User, title string) *models.Comic {
	t.Helper()
	comic := &models.Comic{Title: title, AuthorID: author.ID}
	if err := db.Create(comic).Error; err != nil {
		t.Fatalf("failed to create comic: %v", err)
	}
	return comic
}

func createDraftStory(t *testing.T, db *gorm.DB, author *models.User, title string) *models.Story {
	t.Helper()
	story := &models.Story{Title: title, Body: "Once upon a time.", AuthorID: author.ID}
	if err := db.Create(story).Error; err != nil {
		t.Fatalf("failed to create story: %v", err)
	}
	return story
}

// publishViaAPI runs the publish endpoint as the owner.
func publishViaAPI(t *testing.T, app *fiber.App, s *Server, owner *models.User, kind string, id uint) {
	t.Helper()
	resp := doRequest(t, app, http.MethodPut,
		fmt.Sprintf("/%s/publish/%d", kind, id), sessionToken(t, s, owner), nil)
	expectMessage(t, resp, "successfully published")
}
