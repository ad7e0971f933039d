package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"littlelemon/internal/apierr"
	"littlelemon/internal/logging"
	"littlelemon/internal/mykafka"
	"littlelemon/internal/roles"
	"littlelemon/internal/service/token"
)

// requireManager resolves the caller's role and rejects everyone but
// managers. The single gate for all catalog mutations.
func requireManager(db *gorm.DB, c echo.Context) (uint, error) {
	userID, err := token.CurrentUserID(c)
	if err != nil {
		return 0, err
	}
	role, err := roles.Resolve(db, userID)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if role != roles.Manager {
		return 0, apierr.E(apierr.ErrNotAuthorized, "you are not authorized")
	}
	return userID, nil
}

// publish sends a domain event, best effort. A nil producer (tests, broker
// not configured) is a no-op.
func publish(c echo.Context, p *mykafka.Producer, topic string, event map[string]any) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := p.PublishEvent(ctx, topic, fmt.Sprint(event["userID"]), event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "topic", topic, "error", err)
	}
}
