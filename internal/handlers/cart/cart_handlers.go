package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"littlelemon/internal/apierr"
	"littlelemon/internal/logging"
	"littlelemon/internal/models"
	"littlelemon/internal/mykafka"
	"littlelemon/internal/roles"
	"littlelemon/internal/service/token"
)

// Handler owns the authenticated customer's pending cart lines. Managers
// and delivery crew are rejected on every route.
type Handler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

func (h *Handler) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "cart_events", fmt.Sprint(event["userID"]), event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "topic", "cart_events", "error", err)
	}
}

func (h *Handler) requireCustomer(c echo.Context) (uint, error) {
	userID, err := token.CurrentUserID(c)
	if err != nil {
		return 0, err
	}
	role, err := roles.Resolve(h.DB, userID)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if role != roles.Customer {
		return 0, apierr.E(apierr.ErrValidation, "not a customer")
	}
	return userID, nil
}

func (h *Handler) GetCart(c echo.Context) error {
	userID, err := h.requireCustomer(c)
	if err != nil {
		return err
	}

	var items []models.CartItem
	if err := h.DB.Preload("MenuItem").Preload("MenuItem.Category").
		Where("user_id = ?", userID).Order("id ASC").Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, items)
}

// AddToCart creates a new line for the menu item. There is no quantity
// merge: a second add of the same item is rejected and the cart keeps
// exactly one line.
func (h *Handler) AddToCart(c echo.Context) error {
	userID, err := h.requireCustomer(c)
	if err != nil {
		return err
	}

	var req struct {
		MenuItemID uint `json:"menuitem_id"`
		Quantity   uint `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return apierr.E(apierr.ErrValidation, "invalid request body")
	}
	if req.Quantity < 1 {
		return apierr.E(apierr.ErrValidation, "quantity must be at least 1")
	}

	var menuItem models.MenuItem
	if err := h.DB.First(&menuItem, req.MenuItemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierr.E(apierr.ErrValidation, "menu item does not exist")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var n int64
	if err := h.DB.Model(&models.CartItem{}).
		Where("user_id = ? AND menu_item_id = ?", userID, req.MenuItemID).
		Count(&n).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if n > 0 {
		return apierr.E(apierr.ErrValidation, "menu item already in cart")
	}

	item := models.CartItem{
		UserID:     userID,
		MenuItemID: menuItem.ID,
		Quantity:   req.Quantity,
		UnitPrice:  menuItem.Price,
		Price:      menuItem.Price * float64(req.Quantity),
	}
	if err := h.DB.Create(&item).Error; err != nil {
		// Concurrent duplicate insert beaten to the unique index.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apierr.E(apierr.ErrConflict, "menu item already in cart")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	item.MenuItem = &menuItem

	h.publish(c, map[string]any{
		"type":       "cart_item_added",
		"userID":     userID,
		"menuItemID": item.MenuItemID,
		"quantity":   item.Quantity,
	})

	return c.JSON(http.StatusCreated, item)
}

// ClearCart deletes every line the caller owns, unconditionally.
func (h *Handler) ClearCart(c echo.Context) error {
	userID, err := h.requireCustomer(c)
	if err != nil {
		return err
	}

	if err := h.DB.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]any{
		"type":   "cart_cleared",
		"userID": userID,
	})

	return c.NoContent(http.StatusNoContent)
}
