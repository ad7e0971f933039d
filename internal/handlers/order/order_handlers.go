package order

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"littlelemon/internal/apierr"
	"littlelemon/internal/logging"
	"littlelemon/internal/models"
	"littlelemon/internal/mykafka"
	"littlelemon/internal/roles"
	"littlelemon/internal/service/token"
	"littlelemon/internal/util"
)

// Handler converts carts into orders and enforces the role-scoped
// visibility and mutation rules on existing orders.
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
	if err := h.Producer.PublishEvent(ctx, "order_events", fmt.Sprint(event["userID"]), event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "topic", "order_events", "error", err)
	}
}

func (h *Handler) caller(c echo.Context) (uint, roles.Role, error) {
	userID, err := token.CurrentUserID(c)
	if err != nil {
		return 0, roles.Customer, err
	}
	role, err := roles.Resolve(h.DB, userID)
	if err != nil {
		return 0, roles.Customer, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return userID, role, nil
}

// scoped returns the order queryset the caller may see: managers see all,
// delivery crew only orders assigned to them, customers only their own.
// Anything outside the scope is a plain 404, indistinguishable from a
// missing order.
func scoped(db *gorm.DB, role roles.Role, userID uint) *gorm.DB {
	q := db.Model(&models.Order{})
	switch role {
	case roles.Manager:
		return q
	case roles.DeliveryCrew:
		return q.Where("delivery_crew_id = ?", userID)
	default:
		return q.Where("user_id = ?", userID)
	}
}

// validDeliveryCrew loads the user and checks Delivery crew membership.
func validDeliveryCrew(db *gorm.DB, id uint) (*models.User, error) {
	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.E(apierr.ErrValidation, "delivery crew user does not exist")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	ok, err := roles.InGroup(db, user.ID, models.GroupDeliveryCrew)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !ok {
		return nil, apierr.E(apierr.ErrValidation, "delivery crew user is not in delivery crew group")
	}
	return &user, nil
}

func (h *Handler) ListOrders(c echo.Context) error {
	userID, role, err := h.caller(c)
	if err != nil {
		return err
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	q := scoped(h.DB, role, userID)
	if status := c.QueryParam("status"); status != "" {
		v, err := strconv.ParseBool(status)
		if err != nil {
			return apierr.E(apierr.ErrValidation, "invalid status filter")
		}
		q = q.Where("status = ?", v)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var orders []models.Order
	if err := q.Preload("User").Preload("DeliveryCrew").
		Order("date DESC, id DESC").Offset(offset).Limit(limit).
		Find(&orders).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": orderResponses(role, orders),
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

// CreateOrder snapshots the caller's cart into an order. Order row, order
// items and cart clearing commit or roll back together.
func (h *Handler) CreateOrder(c echo.Context) error {
	userID, role, err := h.caller(c)
	if err != nil {
		return err
	}
	if role != roles.Customer {
		return apierr.E(apierr.ErrValidation, "not a customer")
	}

	var req struct {
		DeliveryCrewID *uint `json:"delivery_crew_id"`
	}
	if err := c.Bind(&req); err != nil {
		return apierr.E(apierr.ErrValidation, "invalid request body")
	}

	var created models.Order
	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		var cartItems []models.CartItem
		if err := tx.Where("user_id = ?", userID).Find(&cartItems).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if len(cartItems) == 0 {
			return apierr.E(apierr.ErrValidation, "cart is empty")
		}

		var crewID *uint
		if req.DeliveryCrewID != nil {
			crew, err := validDeliveryCrew(tx, *req.DeliveryCrewID)
			if err != nil {
				return err
			}
			crewID = &crew.ID
		}

		var total float64
		for _, item := range cartItems {
			total += item.Price
		}

		created = models.Order{
			UserID:         userID,
			DeliveryCrewID: crewID,
			Status:         false,
			Total:          total,
			Date:           time.Now(),
		}
		if err := tx.Create(&created).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}

		for _, item := range cartItems {
			orderItem := models.OrderItem{
				OrderID:    created.ID,
				MenuItemID: item.MenuItemID,
				Quantity:   item.Quantity,
				UnitPrice:  item.UnitPrice,
				Price:      item.Price,
			}
			if err := tx.Create(&orderItem).Error; err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
			}
		}

		if err := tx.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return nil
	})
	if txErr != nil {
		var he *echo.HTTPError
		if errors.As(txErr, &he) {
			return he
		}
		if apierr.Status(txErr) != http.StatusInternalServerError {
			return txErr
		}
		return echo.NewHTTPError(http.StatusInternalServerError, txErr.Error())
	}

	h.publish(c, map[string]any{
		"type":    "order_created",
		"userID":  userID,
		"orderID": created.ID,
		"total":   created.Total,
	})

	return c.JSON(http.StatusCreated, orderResponse(role, created))
}

// GetOrderItems returns the items of one order under the caller's scope.
func (h *Handler) GetOrderItems(c echo.Context) error {
	userID, role, err := h.caller(c)
	if err != nil {
		return err
	}
	id, err := util.PathID(c)
	if err != nil {
		return err
	}

	var ord models.Order
	if err := scoped(h.DB, role, userID).Where("id = ?", id).First(&ord).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierr.E(apierr.ErrNotFound, "order not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var items []models.OrderItem
	if err := h.DB.Preload("MenuItem").Preload("MenuItem.Category").
		Where("order_id = ?", ord.ID).Order("id ASC").Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, items)
}

// PatchOrder applies role-scoped mutations: managers may flip status and
// reassign the delivery crew, delivery crew may flip status on orders
// assigned to them, customers may not update at all. delivery_crew_id is
// tri-state (absent keeps, null clears, value reassigns after validation).
func (h *Handler) PatchOrder(c echo.Context) error {
	userID, role, err := h.caller(c)
	if err != nil {
		return err
	}
	if role == roles.Customer {
		return apierr.E(apierr.ErrNotAuthorized, "you are not authorized")
	}
	id, err := util.PathID(c)
	if err != nil {
		return err
	}

	var ord models.Order
	if err := scoped(h.DB, role, userID).Where("id = ?", id).First(&ord).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierr.E(apierr.ErrNotFound, "order not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var req struct {
		Status         *bool      `json:"status"`
		DeliveryCrewID OptionalID `json:"delivery_crew_id"`
	}
	if err := c.Bind(&req); err != nil {
		return apierr.E(apierr.ErrValidation, "invalid request body")
	}

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		// Delivery crew may change nothing but the status; a crew id in the
		// body is dropped, matching the original per-role field sets.
		if role == roles.Manager && req.DeliveryCrewID.Present {
			if req.DeliveryCrewID.Valid {
				crew, err := validDeliveryCrew(tx, req.DeliveryCrewID.Value)
				if err != nil {
					return err
				}
				if err := tx.Model(&ord).Update("delivery_crew_id", crew.ID).Error; err != nil {
					return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
				}
			} else {
				if err := tx.Model(&ord).Update("delivery_crew_id", nil).Error; err != nil {
					return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
				}
			}
		}

		if req.Status != nil && *req.Status != ord.Status {
			if !*req.Status {
				return apierr.E(apierr.ErrValidation, "delivered order cannot be reverted")
			}
			// Guarded one-way flip: zero rows affected means someone else
			// delivered it first.
			res := tx.Model(&models.Order{}).
				Where("id = ? AND status = ?", ord.ID, false).
				Update("status", true)
			if res.Error != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, res.Error.Error())
			}
			if res.RowsAffected == 0 {
				return apierr.E(apierr.ErrConflict, "order status changed concurrently")
			}
		}
		return nil
	})
	if txErr != nil {
		var he *echo.HTTPError
		if errors.As(txErr, &he) {
			return he
		}
		if apierr.Status(txErr) != http.StatusInternalServerError {
			return txErr
		}
		return echo.NewHTTPError(http.StatusInternalServerError, txErr.Error())
	}

	if err := h.DB.Preload("User").Preload("DeliveryCrew").First(&ord, ord.ID).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]any{
		"type":    "order_updated",
		"userID":  userID,
		"orderID": ord.ID,
		"status":  ord.Status,
	})

	return c.JSON(http.StatusOK, orderResponse(role, ord))
}

// DeleteOrder removes the order and its items. Manager only.
func (h *Handler) DeleteOrder(c echo.Context) error {
	userID, role, err := h.caller(c)
	if err != nil {
		return err
	}
	if role != roles.Manager {
		return apierr.E(apierr.ErrNotAuthorized, "you are not authorized")
	}
	id, err := util.PathID(c)
	if err != nil {
		return err
	}

	var ord models.Order
	if err := h.DB.First(&ord, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierr.E(apierr.ErrNotFound, "order not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", ord.ID).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&ord).Error
	})
	if txErr != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, txErr.Error())
	}

	h.publish(c, map[string]any{
		"type":    "order_deleted",
		"userID":  userID,
		"orderID": id,
	})

	return c.NoContent(http.StatusNoContent)
}
