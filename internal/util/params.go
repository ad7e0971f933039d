package util

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"littlelemon/internal/apierr"
)

// ParseIntDefault parses a query parameter, falling back to def when the
// value is absent or malformed.
func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

// PathID reads the :id path parameter as a positive integer.
func PathID(c echo.Context) (uint, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, apierr.E(apierr.ErrValidation, "invalid id")
	}
	return uint(id), nil
}
