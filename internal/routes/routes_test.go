package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/devil-1964/notesapp/internal/config"
	"github.com/devil-1964/notesapp/internal/models"
	"github.com/devil-1964/notesapp/internal/utils"
)

var sharePath = regexp.MustCompile(`/shared/([0-9a-f]{64})$`)

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Note{}, &models.ShareLink{}))

	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.ExpireHours = 1
	cfg.Share.BaseURL = "http://localhost:5174"
	cfg.Server.Mode = gin.TestMode

	return Setup(db, cfg)
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	parsed := map[string]interface{}{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	}
	return w, parsed
}

func registerUser(t *testing.T, router *gin.Engine, username string) string {
	t.Helper()

	w, resp := doJSON(t, router, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": username,
		"email":    username + "@example.com",
		"password": "longenough",
	})
	require.Equal(t, http.StatusCreated, w.Code, "register %s: %v", username, resp)
	token, _ := resp["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func createNote(t *testing.T, router *gin.Engine, token, title, content string) float64 {
	t.Helper()

	w, resp := doJSON(t, router, http.MethodPost, "/api/notes", token, gin.H{
		"title":   title,
		"content": content,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	note := resp["note"].(map[string]interface{})
	return note["id"].(float64)
}

// The full share lifecycle: owner-only access, public resolve, revoke.
func TestShareLifecycle(t *testing.T) {
	router := setupTestRouter(t)

	tokenA := registerUser(t, router, "alice_99")
	tokenB := registerUser(t, router, "bob_2024")

	noteID := createNote(t, router, tokenA, "Groceries", "milk, eggs")
	notePath := "/api/notes/" + itoa(noteID)

	// another account gets the same 403 a missing note would
	w, _ := doJSON(t, router, http.MethodGet, notePath, tokenB, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = doJSON(t, router, http.MethodGet, "/api/notes/999999", tokenA, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// owner shares and gets a 64-hex-char token back
	w, resp := doJSON(t, router, http.MethodPost, "/api/"+itoa(noteID)+"/share", tokenA, nil)
	require.Equal(t, http.StatusOK, w.Code)
	shareLink := resp["shareLink"].(string)
	match := sharePath.FindStringSubmatch(shareLink)
	require.Len(t, match, 2, "share link %q must end in a 64-hex token", shareLink)
	shareToken := match[1]

	// status reflects the link generate just returned
	w, resp = doJSON(t, router, http.MethodGet, "/api/"+itoa(noteID)+"/share", tokenA, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["isShared"])
	assert.Equal(t, shareLink, resp["shareLink"])
	assert.NotNil(t, resp["createdAt"])

	// sharing again returns the same link, never a second live token
	w, resp = doJSON(t, router, http.MethodPost, "/api/"+itoa(noteID)+"/share", tokenA, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, shareLink, resp["shareLink"])

	// anonymous resolve sees only the public projection
	w, resp = doJSON(t, router, http.MethodGet, "/api/shared/"+shareToken, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Groceries", resp["title"])
	assert.Equal(t, "milk, eggs", resp["content"])
	assert.Equal(t, "alice_99", resp["author"])
	assert.NotContains(t, resp, "user_id")
	assert.NotContains(t, resp, "owner_id")
	assert.NotContains(t, resp, "email")

	// only the owner may revoke
	w, _ = doJSON(t, router, http.MethodDelete, "/api/"+itoa(noteID)+"/share", tokenB, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = doJSON(t, router, http.MethodDelete, "/api/"+itoa(noteID)+"/share", tokenA, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// the old token is dead for good
	w, _ = doJSON(t, router, http.MethodGet, "/api/shared/"+shareToken, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// revoking with no live link is a 404, not a 403
	w, _ = doJSON(t, router, http.MethodDelete, "/api/"+itoa(noteID)+"/share", tokenA, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// status back to unshared
	w, resp = doJSON(t, router, http.MethodGet, "/api/"+itoa(noteID)+"/share", tokenA, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, resp["isShared"])
}

func TestDeleteNoteKillsShareToken(t *testing.T) {
	router := setupTestRouter(t)

	token := registerUser(t, router, "alice_99")
	noteID := createNote(t, router, token, "doomed", "content")

	w, resp := doJSON(t, router, http.MethodPost, "/api/"+itoa(noteID)+"/share", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	shareToken := sharePath.FindStringSubmatch(resp["shareLink"].(string))[1]

	w, _ = doJSON(t, router, http.MethodDelete, "/api/"+itoa(noteID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = doJSON(t, router, http.MethodGet, "/api/shared/"+shareToken, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "deleting a shared note must orphan no token")
}

func TestNoteCRUD(t *testing.T) {
	router := setupTestRouter(t)
	token := registerUser(t, router, "alice_99")

	noteID := createNote(t, router, token, "first", "draft")

	w, resp := doJSON(t, router, http.MethodPut, "/api/"+itoa(noteID), token, gin.H{
		"title":   "first, edited",
		"content": "final",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "first, edited", resp["note"].(map[string]interface{})["title"])

	w, resp = doJSON(t, router, http.MethodGet, "/api/notes", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, resp["notes"], 1)

	w, _ = doJSON(t, router, http.MethodDelete, "/api/"+itoa(noteID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, resp = doJSON(t, router, http.MethodGet, "/api/notes", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, resp["notes"])
}

func TestValidationRejectedBeforeStorage(t *testing.T) {
	router := setupTestRouter(t)
	token := registerUser(t, router, "alice_99")

	tests := []struct {
		name string
		body gin.H
	}{
		{"missing title", gin.H{"content": "x"}},
		{"missing content", gin.H{"title": "x"}},
		{"title too long", gin.H{"title": strings.Repeat("a", 256), "content": "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := doJSON(t, router, http.MethodPost, "/api/notes", token, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, resp, "details")
		})
	}

	t.Run("password beyond bcrypt length on register", func(t *testing.T) {
		w, resp := doJSON(t, router, http.MethodPost, "/api/auth/register", "", gin.H{
			"username": "valid_name",
			"email":    "valid@example.com",
			"password": strings.Repeat("a", 80),
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, resp, "details")
	})

	t.Run("short password on register", func(t *testing.T) {
		w, _ := doJSON(t, router, http.MethodPost, "/api/auth/register", "", gin.H{
			"username": "valid_name",
			"email":    "valid@example.com",
			"password": "short",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("duplicate registration", func(t *testing.T) {
		w, _ := doJSON(t, router, http.MethodPost, "/api/auth/register", "", gin.H{
			"username": "alice_99",
			"email":    "alice_99@example.com",
			"password": "longenough",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAuthFailures(t *testing.T) {
	router := setupTestRouter(t)
	registerUser(t, router, "alice_99")

	t.Run("wrong password", func(t *testing.T) {
		w, _ := doJSON(t, router, http.MethodPost, "/api/auth/login", "", gin.H{
			"emailOrUsername": "alice_99",
			"password":        "wrong",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("login by email works", func(t *testing.T) {
		w, resp := doJSON(t, router, http.MethodPost, "/api/auth/login", "", gin.H{
			"emailOrUsername": "alice_99@example.com",
			"password":        "longenough",
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, resp["token"])
		user := resp["user"].(map[string]interface{})
		assert.NotContains(t, user, "password_hash")
	})

	t.Run("missing token", func(t *testing.T) {
		w, resp := doJSON(t, router, http.MethodGet, "/api/notes", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "No token provided", resp["error"])
	})

	t.Run("expired token", func(t *testing.T) {
		expired, err := utils.GenerateToken(1, "test-secret", -1)
		require.NoError(t, err)
		w, resp := doJSON(t, router, http.MethodGet, "/api/notes", expired, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Token expired", resp["error"])
	})

	t.Run("garbage token", func(t *testing.T) {
		w, resp := doJSON(t, router, http.MethodGet, "/api/notes", "garbage", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Invalid Token", resp["error"])
	})
}

func itoa(id float64) string {
	return strconv.FormatUint(uint64(id), 10)
}
