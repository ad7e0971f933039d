package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"littlelemon/internal/hash"
	"littlelemon/internal/models"
	"littlelemon/internal/mykafka"
	"littlelemon/internal/service/token"
)

type AuthHandler struct {
	DB       *gorm.DB
	Tokens   *token.Service
	Producer *mykafka.Producer
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Username == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username and password are required")
	}

	var existing models.User
	err := h.DB.Where("username = ?", req.Username).First(&existing).Error
	if err == nil {
		return echo.NewHTTPError(http.StatusConflict, "user already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	hashed, err := hash.HashPassword(req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	user := models.User{Username: req.Username, Email: req.Email, PasswordHash: hashed}
	if err := h.DB.Create(&user).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	publish(c, h.Producer, "user_events", map[string]any{
		"type":     "user_registered",
		"userID":   user.ID,
		"username": user.Username,
	})

	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	var user models.User
	if err := h.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid username or password")
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid username or password")
	}

	access, refresh, err := h.Tokens.IssuePair(user.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	c.SetCookie(token.NewCookie("accessToken", access, time.Now().Add(token.AccessTTL)))
	c.SetCookie(token.NewCookie("refreshToken", refresh, time.Now().Add(token.RefreshTTL)))

	publish(c, h.Producer, "user_events", map[string]any{
		"type":     "user_logged_in",
		"userID":   user.ID,
		"username": user.Username,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  access,
		"refresh_token": refresh,
	})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	refreshCookie, err := c.Cookie("refreshToken")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing refresh token")
	}

	if err := h.Tokens.Revoke(refreshCookie.Value); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	expired := time.Now().Add(-1 * time.Hour)
	c.SetCookie(token.NewCookie("accessToken", "", expired))
	c.SetCookie(token.NewCookie("refreshToken", "", expired))

	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}
