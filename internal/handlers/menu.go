package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"littlelemon/internal/models"
	"littlelemon/internal/mykafka"
	"littlelemon/internal/util"
)

type MenuHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

type menuItemRequest struct {
	Title      string  `json:"title"`
	Price      float64 `json:"price"`
	Featured   bool    `json:"featured"`
	CategoryID uint    `json:"category_id"`
}

func (r *menuItemRequest) validate(db *gorm.DB) error {
	if r.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}
	if r.Price <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "price must be greater than zero")
	}
	var category models.Category
	if err := db.First(&category, r.CategoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusBadRequest, "category does not exist")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return nil
}

func (h *MenuHandler) ListMenuItems(c echo.Context) error {
	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	q := h.DB.Model(&models.MenuItem{})

	if category := c.QueryParam("category"); category != "" {
		sub := h.DB.Model(&models.Category{}).Select("id").Where("title = ?", category)
		q = q.Where("category_id IN (?)", sub)
	}
	if featured := c.QueryParam("featured"); featured != "" {
		v, err := strconv.ParseBool(featured)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid featured filter")
		}
		q = q.Where("featured = ?", v)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var items []models.MenuItem
	if err := q.Preload("Category").Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
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

func (h *MenuHandler) GetMenuItem(c echo.Context) error {
	id, err := util.PathID(c)
	if err != nil {
		return err
	}

	var item models.MenuItem
	if err := h.DB.Preload("Category").First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "menu item not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, item)
}

func (h *MenuHandler) CreateMenuItem(c echo.Context) error {
	userID, err := requireManager(h.DB, c)
	if err != nil {
		return err
	}

	var req menuItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := req.validate(h.DB); err != nil {
		return err
	}

	item := models.MenuItem{
		Title:      req.Title,
		Price:      req.Price,
		Featured:   req.Featured,
		CategoryID: req.CategoryID,
	}
	if err := h.DB.Create(&item).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.DB.Preload("Category").First(&item, item.ID)

	publish(c, h.Producer, "menu_events", map[string]any{
		"type":       "menu_item_created",
		"userID":     userID,
		"menuItemID": item.ID,
		"title":      item.Title,
	})

	return c.JSON(http.StatusCreated, item)
}

// UpdateMenuItem replaces every field (PUT).
func (h *MenuHandler) UpdateMenuItem(c echo.Context) error {
	userID, err := requireManager(h.DB, c)
	if err != nil {
		return err
	}
	id, err := util.PathID(c)
	if err != nil {
		return err
	}

	var item models.MenuItem
	if err := h.DB.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "menu item not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var req menuItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := req.validate(h.DB); err != nil {
		return err
	}

	item.Title = req.Title
	item.Price = req.Price
	item.Featured = req.Featured
	item.CategoryID = req.CategoryID
	if err := h.DB.Save(&item).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.DB.Preload("Category").First(&item, item.ID)

	publish(c, h.Producer, "menu_events", map[string]any{
		"type":       "menu_item_updated",
		"userID":     userID,
		"menuItemID": item.ID,
		"title":      item.Title,
	})

	return c.JSON(http.StatusOK, item)
}

// PatchMenuItem updates only the provided fields.
func (h *MenuHandler) PatchMenuItem(c echo.Context) error {
	userID, err := requireManager(h.DB, c)
	if err != nil {
		return err
	}
	id, err := util.PathID(c)
	if err != nil {
		return err
	}

	var item models.MenuItem
	if err := h.DB.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "menu item not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var req struct {
		Title      *string  `json:"title"`
		Price      *float64 `json:"price"`
		Featured   *bool    `json:"featured"`
		CategoryID *uint    `json:"category_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if req.Title != nil {
		if *req.Title == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "title is required")
		}
		item.Title = *req.Title
	}
	if req.Price != nil {
		if *req.Price <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "price must be greater than zero")
		}
		item.Price = *req.Price
	}
	if req.Featured != nil {
		item.Featured = *req.Featured
	}
	if req.CategoryID != nil {
		var category models.Category
		if err := h.DB.First(&category, *req.CategoryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return echo.NewHTTPError(http.StatusBadRequest, "category does not exist")
			}
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		item.CategoryID = *req.CategoryID
	}

	if err := h.DB.Save(&item).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.DB.Preload("Category").First(&item, item.ID)

	publish(c, h.Producer, "menu_events", map[string]any{
		"type":       "menu_item_updated",
		"userID":     userID,
		"menuItemID": item.ID,
		"title":      item.Title,
	})

	return c.JSON(http.StatusOK, item)
}

func (h *MenuHandler) DeleteMenuItem(c echo.Context) error {
	userID, err := requireManager(h.DB, c)
	if err != nil {
		return err
	}
	id, err := util.PathID(c)
	if err != nil {
		return err
	}

	var item models.MenuItem
	if err := h.DB.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "menu item not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.DB.Delete(&item).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	publish(c, h.Producer, "menu_events", map[string]any{
		"type":       "menu_item_deleted",
		"userID":     userID,
		"menuItemID": id,
	})

	return c.NoContent(http.StatusNoContent)
}
