package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"littlelemon/internal/models"
)

// BookHandler serves the standalone book-listing API.
type BookHandler struct {
	DB *gorm.DB
}

func (h *BookHandler) ListBooks(c echo.Context) error {
	var books []models.Book
	if err := h.DB.Order("id ASC").Find(&books).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"books": books})
}

func (h *BookHandler) CreateBook(c echo.Context) error {
	var req struct {
		Title  string  `json:"title"`
		Author string  `json:"author"`
		Price  float64 `json:"price"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Title == "" || req.Author == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "required field missing")
	}

	book := models.Book{Title: req.Title, Author: req.Author, Price: req.Price}
	if err := h.DB.Create(&book).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, book)
}
