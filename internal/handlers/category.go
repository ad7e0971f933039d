package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"littlelemon/internal/models"
	"littlelemon/internal/mykafka"
	"littlelemon/internal/util"
)

// The original API gated only category creation to managers and left
// update/delete open; here every category write goes through the same
// manager gate. Recorded in DESIGN.md.
type CategoryHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

func (h *CategoryHandler) ListCategories(c echo.Context) error {
	var categories []models.Category
	if err := h.DB.Order("id ASC").Find(&categories).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, categories)
}

func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	userID, err := requireManager(h.DB, c)
	if err != nil {
		return err
	}

	var req struct {
		Title string `json:"title"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}

	category := models.Category{Title: req.Title}
	if err := h.DB.Create(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return echo.NewHTTPError(http.StatusConflict, "category already exists")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	publish(c, h.Producer, "menu_events", map[string]any{
		"type":       "category_created",
		"userID":     userID,
		"categoryID": category.ID,
		"title":      category.Title,
	})

	return c.JSON(http.StatusCreated, category)
}

func (h *CategoryHandler) UpdateCategory(c echo.Context) error {
	userID, err := requireManager(h.DB, c)
	if err != nil {
		return err
	}
	id, err := util.PathID(c)
	if err != nil {
		return err
	}

	var category models.Category
	if err := h.DB.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "category not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var req struct {
		Title string `json:"title"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}

	category.Title = req.Title
	if err := h.DB.Save(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return echo.NewHTTPError(http.StatusConflict, "category already exists")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	publish(c, h.Producer, "menu_events", map[string]any{
		"type":       "category_updated",
		"userID":     userID,
		"categoryID": category.ID,
		"title":      category.Title,
	})

	return c.JSON(http.StatusOK, category)
}

func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	userID, err := requireManager(h.DB, c)
	if err != nil {
		return err
	}
	id, err := util.PathID(c)
	if err != nil {
		return err
	}

	var category models.Category
	if err := h.DB.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "category not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var n int64
	if err := h.DB.Model(&models.MenuItem{}).Where("category_id = ?", id).Count(&n).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if n > 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "category still has menu items")
	}

	if err := h.DB.Delete(&category).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	publish(c, h.Producer, "menu_events", map[string]any{
		"type":       "category_deleted",
		"userID":     userID,
		"categoryID": id,
	})

	return c.NoContent(http.StatusNoContent)
}
