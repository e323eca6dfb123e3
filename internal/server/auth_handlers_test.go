package server

import (
	"fmt"
	"net/http"
	"testing"

	"zilean/internal/cache"
	"zilean/internal/models"
	"zilean/internal/token"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	app, _, db := setupTestServer(t)
	createTestUser(t, db, "taken")

	tests := []struct {
		name           string
		body           map[string]string
		expectedStatus int
		expectedError  string
	}{
		{
			name: "Success",
			body: map[string]string{
				"email":    "new@example.com",
				"username": "newuser",
				"password": testPassword,
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "MissingPassword",
			body: map[string]string{
				"email":    "other@example.com",
				"username": "otheruser",
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Missing arguments in request",
		},
		{
			name: "DuplicateEmail",
			body: map[string]string{
				"email":    "taken@example.com",
				"username": "fresh",
				"password": testPassword,
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Account with that email address and/or username already exists.",
		},
		{
			name: "DuplicateUsername",
			body: map[string]string{
				"email":    "fresh@example.com",
				"username": "taken",
				"password": testPassword,
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Account with that email address and/or username already exists.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, app, http.MethodPost, "/account/register", "", tt.body)
			if tt.expectedError != "" {
				expectError(t, resp, tt.expectedStatus, tt.expectedError)
				return
			}
			require.Equal(t, tt.expectedStatus, resp.StatusCode)
			body := decodeBody(t, resp)
			assert.Equal(t, "Registered Successfully!", body["message"])
			assert.NotEmpty(t, body["token"])
		})
	}
}

func TestRegisterLowercasesEmail(t *testing.T) {
	app, _, db := setupTestServer(t)

	resp := doRequest(t, app, http.MethodPost, "/account/register", "", map[string]string{
		"email":    "Mixed@Example.COM",
		"username": "mixedcase",
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp)

	var user models.User
	require.NoError(t, db.Where("username = ?", "mixedcase").First(&user).Error)
	assert.Equal(t, "mixed@example.com", user.Email)
	assert.False(t, user.Verified)
}

func TestLogin(t *testing.T) {
	app, _, db := setupTestServer(t)
	user := createTestUser(t, db, "loginuser")

	t.Run("Success", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPost, "/account/login", "", map[string]string{
			"email":    user.Email,
			"password": testPassword,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, fmt.Sprintf("logged in %d", user.ID), body["message"])
		assert.NotEmpty(t, body["token"])
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPost, "/account/login", "", map[string]string{
			"email":    "nobody@example.com",
			"password": testPassword,
		})
		expectError(t, resp, http.StatusUnauthorized, "User not found.")
	})

	t.Run("WrongPassword", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPost, "/account/login", "", map[string]string{
			"email":    user.Email,
			"password": "WrongPassword1!",
		})
		expectError(t, resp, http.StatusUnauthorized, "Invalid username or password.")
	})
}

func TestGetAccountRequiresLogin(t *testing.T) {
	app, _, _ := setupTestServer(t)
	resp := doRequest(t, app, http.MethodGet, "/account/", "", nil)
	expectError(t, resp, http.StatusUnauthorized, "not logged in")
}

func TestLogoutRevokesToken(t *testing.T) {
	app, s, db := setupTestServer(t)

	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })

	user := createTestUser(t, db, "leaver")
	bearer := sessionToken(t, s, user)

	resp := doRequest(t, app, http.MethodGet, "/account/", bearer, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp)

	resp = doRequest(t, app, http.MethodPost, "/account/logout", bearer, nil)
	expectMessage(t, resp, "Logged Out!")

	// The blacklisted token no longer authenticates.
	resp = doRequest(t, app, http.MethodGet, "/account/", bearer, nil)
	expectError(t, resp, http.StatusUnauthorized, "not logged in")
}

func TestVerifyAccount(t *testing.T) {
	app, s, db := setupTestServer(t)
	user := createUnverifiedUser(t, db, "pending")

	signed, err := token.IssuePasswordBound(s.config.JWTSecret, user, token.PurposeVerify)
	require.NoError(t, err)

	t.Run("MissingArguments", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPost, "/account/verify", "", map[string]string{
			"id": fmt.Sprint(user.ID),
		})
		expectError(t, resp, http.StatusBadRequest, "Must provide all required arguments to verify user")
	})

	t.Run("BadID", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPost, "/account/verify", "", map[string]string{
			"id":    "potato",
			"token": signed,
		})
		expectError(t, resp, http.StatusBadRequest, "Not a valid ID")
	})

	t.Run("BadToken", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPost, "/account/verify", "", map[string]string{
			"id":    fmt.Sprint(user.ID),
			"token": "garbage",
		})
		expectError(t, resp, http.StatusBadRequest, "Token is invalid or expired")
	})

	t.Run("Success", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPost, "/account/verify", "", map[string]string{
			"id":    fmt.Sprint(user.ID),
			"token": signed,
		})
		expectMessage(t, resp, "OK")

		var got models.User
		require.NoError(t, db.First(&got, user.ID).Error)
		assert.True(t, got.Verified)
	})
}

func TestResetPassword(t *testing.T) {
	app, s, db := setupTestServer(t)
	user := createTestUser(t, db, "forgetful")

	signed, err := token.IssuePasswordBound(s.config.JWTSecret, user, token.PurposeReset)
	require.NoError(t, err)

	t.Run("VerifyToken", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPost, "/account/reset-password-verify", "", map[string]string{
			"id":    fmt.Sprint(user.ID),
			"token": signed,
		})
		expectMessage(t, resp, "OK")
	})

	t.Run("WrongPurposeRejected", func(t *testing.T) {
		verifyToken, err := token.IssuePasswordBound(s.config.JWTSecret, user, token.PurposeVerify)
		require.NoError(t, err)
		resp := doRequest(t, app, http.MethodPost, "/account/reset-password-verify", "", map[string]string{
			"id":    fmt.Sprint(user.ID),
			"token": verifyToken,
		})
		expectError(t, resp, http.StatusBadRequest, "Token is invalid or expired")
	})

	t.Run("ResetAndInvalidate", func(t *testing.T) {
		newPassword := "FreshPassword9!"
		resp := doRequest(t, app, http.MethodPost, "/account/reset-password", "", map[string]string{
			"id":       fmt.Sprint(user.ID),
			"token":    signed,
			"password": newPassword,
		})
		expectMessage(t, resp, "OK")

		// The new password works.
		resp = doRequest(t, app, http.MethodPost, "/account/login", "", map[string]string{
			"email":    user.Email,
			"password": newPassword,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		decodeBody(t, resp)

		// Changing the password invalidated the token that authorized it.
		resp = doRequest(t, app, http.MethodPost, "/account/reset-password", "", map[string]string{
			"id":       fmt.Sprint(user.ID),
			"token":    signed,
			"password": "AnotherPassword9!",
		})
		expectError(t, resp, http.StatusBadRequest, "Token is invalid or expired")
	})
}

func TestForgotPassword(t *testing.T) {
	app, _, db := setupTestServer(t)
	createTestUser(t, db, "someone")

	t.Run("MissingEmail", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPost, "/account/forgot-password", "", map[string]string{})
		expectError(t, resp, http.StatusBadRequest, "Missing email")
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPost, "/account/forgot-password", "", map[string]string{
			"email": "ghost@example.com",
		})
		expectError(t, resp, http.StatusBadRequest, "No user with specified email")
	})

	t.Run("Success", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPost, "/account/forgot-password", "", map[string]string{
			"email": "someone@example.com",
		})
		expectMessage(t, resp, "OK")
	})
}

func TestUpdateAccountPasswordChange(t *testing.T) {
	app, s, db := setupTestServer(t)
	user := createTestUser(t, db, "rotator")
	bearer := sessionToken(t, s, user)

	t.Run("WrongOldPassword", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPut, "/account/", bearer, map[string]string{
			"oldpassword": "NotMyPassword1!",
			"newpassword": "BrandNewPass12!",
		})
		expectError(t, resp, http.StatusBadRequest, "Passwords do not match")
	})

	t.Run("Success", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPut, "/account/", bearer, map[string]string{
			"oldpassword": testPassword,
			"newpassword": "BrandNewPass12!",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		decodeBody(t, resp)

		resp = doRequest(t, app, http.MethodPost, "/account/login", "", map[string]string{
			"email":    user.Email,
			"password": "BrandNewPass12!",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		decodeBody(t, resp)
	})
}

func TestUpdateAccountEmailChange(t *testing.T) {
	app, s, db := setupTestServer(t)
	user := createTestUser(t, db, "renamer")
	other := createTestUser(t, db, "squatter")
	bearer := sessionToken(t, s, user)

	t.Run("InvalidFormat", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPut, "/account/", bearer,
			map[string]string{"email": "not-an-address"})
		expectError(t, resp, http.StatusBadRequest, "invalid email format")
	})

	t.Run("TakenByAnotherUser", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPut, "/account/", bearer,
			map[string]string{"email": other.Email})
		expectError(t, resp, http.StatusBadRequest,
			"Account with that email address and/or username already exists.")
	})

	t.Run("SuccessLowercases", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPut, "/account/", bearer,
			map[string]string{"email": "Renamed@Example.COM"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		decodeBody(t, resp)

		var updated models.User
		require.NoError(t, db.First(&updated, user.ID).Error)
		assert.Equal(t, "renamed@example.com", updated.Email)
	})
}

func TestGetAccountIncludesRatings(t *testing.T) {
	app, s, db := setupTestServer(t)
	author := createTestUser(t, db, "ledger-author")
	rater := createTestUser(t, db, "ledger-rater")
	comic := createDraftComic(t, db, author, "Rated Once")
	publishViaAPI(t, app, s, author, "comic", comic.ID)

	bearer := sessionToken(t, s, rater)
	resp := doRequest(t, app, http.MethodPost, fmt.Sprintf("/comic/rate/%d", comic.ID),
		bearer, map[string]float64{"rating": 3})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp)

	resp = doRequest(t, app, http.MethodGet, "/account/", bearer, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)

	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	ratings, ok := data["ratings"].([]any)
	require.True(t, ok)
	require.Len(t, ratings, 1)
	entry, ok := ratings[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(3), entry["value"])
}
