// Package testutil builds the in-memory environment the handler tests run
// against: a sqlite-backed gorm DB with the production schema and seeded
// role groups, plus echo request/context helpers.
package testutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"littlelemon/internal/apierr"
	"littlelemon/internal/config"
	"littlelemon/internal/hash"
	"littlelemon/internal/models"
)

// NewDB opens a fresh in-memory database with the full schema and the two
// role groups seeded. Pool capped at one connection so every query sees the
// same memory database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, config.Migrate(db))
	require.NoError(t, config.SeedGroups(db))

	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// CreateUser inserts a user and attaches the named groups.
func CreateUser(t *testing.T, db *gorm.DB, username string, groups ...string) models.User {
	t.Helper()

	hashed, err := hash.HashPassword("password")
	require.NoError(t, err)

	user := models.User{Username: username, Email: username + "@example.com", PasswordHash: hashed}
	require.NoError(t, db.Create(&user).Error)

	for _, name := range groups {
		var g models.Group
		require.NoError(t, db.Where("name = ?", name).First(&g).Error)
		require.NoError(t, db.Model(&user).Association("Groups").Append(&g))
	}
	return user
}

func CreateStaff(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()

	hashed, err := hash.HashPassword("password")
	require.NoError(t, err)

	user := models.User{Username: username, PasswordHash: hashed, IsStaff: true}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func CreateCategory(t *testing.T, db *gorm.DB, title string) models.Category {
	t.Helper()

	category := models.Category{Title: title}
	require.NoError(t, db.Create(&category).Error)
	return category
}

func CreateMenuItem(t *testing.T, db *gorm.DB, title string, price float64, categoryID uint) models.MenuItem {
	t.Helper()

	item := models.MenuItem{Title: title, Price: price, CategoryID: categoryID}
	require.NoError(t, db.Create(&item).Error)
	return item
}

// JSONRequest builds an echo context carrying the JSON-encoded body.
func JSONRequest(t *testing.T, e *echo.Echo, method, target string, body any) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// Authenticate marks the context as owned by the user, the way the auth
// middleware does after validating a token.
func Authenticate(c echo.Context, userID uint) {
	c.Set("userID", userID)
}

// HTTPStatus extracts the status code a handler error would be rendered
// with, whether it is an echo.HTTPError or a taxonomy error.
func HTTPStatus(t *testing.T, err error) int {
	t.Helper()

	require.Error(t, err)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	code := apierr.Status(err)
	require.NotEqual(t, http.StatusInternalServerError, code, "unexpected error: %v", err)
	return code
}

// Decode unmarshals a recorded JSON response body into out.
func Decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}
