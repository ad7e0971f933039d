package token

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"littlelemon/internal/models"
)

const (
	AccessTTL  = 15 * time.Minute
	RefreshTTL = 7 * 24 * time.Hour
)

// Service signs and validates the HS256 access/refresh token pair. Refresh
// tokens are persisted so they can be revoked on logout.
type Service struct {
	DB            *gorm.DB
	JWTSecret     []byte
	RefreshSecret []byte
}

func (s *Service) IssuePair(userID uint) (access, refresh string, err error) {
	access, err = signToken(userID, s.JWTSecret, AccessTTL, "")
	if err != nil {
		return "", "", err
	}
	refresh, err = signToken(userID, s.RefreshSecret, RefreshTTL, "refresh")
	if err != nil {
		return "", "", err
	}

	row := models.RefreshToken{
		Token:     refresh,
		UserID:    userID,
		ExpiresAt: time.Now().Add(RefreshTTL).Unix(),
	}
	if err := s.DB.Create(&row).Error; err != nil {
		return "", "", fmt.Errorf("refresh token store: %w", err)
	}
	return access, refresh, nil
}

func signToken(userID uint, secret []byte, ttl time.Duration, typ string) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(ttl).Unix(),
	}
	if typ != "" {
		claims["typ"] = typ
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}

func parse(raw string, secret []byte) (jwt.MapClaims, error) {
	t, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !t.Valid {
		return nil, errors.New("invalid token")
	}
	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("cannot parse claims")
	}
	return claims, nil
}

func subject(claims jwt.MapClaims) (uint, error) {
	sub, ok := claims["sub"].(float64)
	if !ok {
		return 0, errors.New("invalid subject claim")
	}
	return uint(sub), nil
}

// Rotate validates a refresh token against the store and issues a fresh
// pair. The old token stays valid until its own expiry; logout revokes it.
func (s *Service) Rotate(raw string) (access, refresh string, userID uint, err error) {
	claims, err := parse(raw, s.RefreshSecret)
	if err != nil {
		return "", "", 0, fmt.Errorf("invalid refresh token: %w", err)
	}
	if typ, ok := claims["typ"]; !ok || typ != "refresh" {
		return "", "", 0, errors.New("not a refresh token")
	}

	var stored models.RefreshToken
	if err := s.DB.Where("token = ?", raw).First(&stored).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", 0, errors.New("refresh token not found")
		}
		return "", "", 0, fmt.Errorf("db error: %w", err)
	}
	if stored.Revoked {
		return "", "", 0, errors.New("refresh token revoked")
	}
	if time.Now().Unix() > stored.ExpiresAt {
		return "", "", 0, errors.New("refresh token expired")
	}

	userID, err = subject(claims)
	if err != nil {
		return "", "", 0, err
	}
	access, refresh, err = s.IssuePair(userID)
	return access, refresh, userID, err
}

func (s *Service) Revoke(raw string) error {
	return s.DB.Model(&models.RefreshToken{}).
		Where("token = ?", raw).
		Update("revoked", true).Error
}

// RequireAuth resolves the caller from the access token (Authorization
// bearer header or accessToken cookie) and stores the user id in the echo
// context. An expired access token is rotated from the refresh cookie.
func (s *Service) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := bearerToken(c)
		if raw == "" {
			if ck, err := c.Cookie("accessToken"); err == nil {
				raw = ck.Value
			}
		}

		if raw != "" {
			claims, err := parse(raw, s.JWTSecret)
			if err == nil {
				userID, err := subject(claims)
				if err != nil {
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
				}
				c.Set("userID", userID)
				return next(c)
			}
			if !errors.Is(err, jwt.ErrTokenExpired) {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
		}

		rfCookie, err := c.Cookie("refreshToken")
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing or invalid token")
		}
		access, refresh, userID, err := s.Rotate(rfCookie.Value)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}

		c.SetCookie(NewCookie("accessToken", access, time.Now().Add(AccessTTL)))
		c.SetCookie(NewCookie("refreshToken", refresh, time.Now().Add(RefreshTTL)))
		c.Set("userID", userID)
		return next(c)
	}
}

// RequireStaff gates the group administration endpoints to staff accounts.
// It must run after RequireAuth.
func (s *Service) RequireStaff(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := CurrentUserID(c)
		if err != nil {
			return err
		}
		var user models.User
		if err := s.DB.First(&user, userID).Error; err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}
		if !user.IsStaff {
			return echo.NewHTTPError(http.StatusForbidden, "you are not authorized")
		}
		return next(c)
	}
}

// CurrentUserID returns the authenticated user id set by RequireAuth.
func CurrentUserID(c echo.Context) (uint, error) {
	if id, ok := c.Get("userID").(uint); ok {
		return id, nil
	}
	return 0, echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
}

func NewCookie(name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

func bearerToken(c echo.Context) string {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}
