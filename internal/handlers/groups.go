package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"littlelemon/internal/models"
	"littlelemon/internal/util"
)

// Route slugs to stored group names. Anything else is rejected.
var groupSlugs = map[string]string{
	"manager":       models.GroupManager,
	"delivery-crew": models.GroupDeliveryCrew,
}

// GroupHandler manages role-group membership. Routes are staff-only; the
// gate lives in the token middleware, not here.
type GroupHandler struct {
	DB *gorm.DB
}

type groupMember struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (h *GroupHandler) group(c echo.Context) (models.Group, error) {
	name, ok := groupSlugs[c.Param("name")]
	if !ok {
		return models.Group{}, echo.NewHTTPError(http.StatusBadRequest, "group not supported")
	}
	var g models.Group
	if err := h.DB.Where("name = ?", name).First(&g).Error; err != nil {
		return models.Group{}, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return g, nil
}

func (h *GroupHandler) ListMembers(c echo.Context) error {
	g, err := h.group(c)
	if err != nil {
		return err
	}

	var members []groupMember
	err = h.DB.Model(&models.User{}).
		Joins("JOIN user_groups ON user_groups.user_id = users.id").
		Where("user_groups.group_id = ?", g.ID).
		Order("users.id ASC").
		Select("users.id", "users.username", "users.email").
		Scan(&members).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, members)
}

func (h *GroupHandler) AddMember(c echo.Context) error {
	g, err := h.group(c)
	if err != nil {
		return err
	}

	var req struct {
		Username string `json:"username"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Username == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing username field")
	}

	var user models.User
	if err := h.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.DB.Model(&user).Association("Groups").Append(&g); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": fmt.Sprintf("User %s added to group %s successfully.", user.Username, g.Name),
	})
}

// RemoveMember detaches the user from the group; removing a non-member is a
// no-op success.
func (h *GroupHandler) RemoveMember(c echo.Context) error {
	g, err := h.group(c)
	if err != nil {
		return err
	}
	id, err := util.PathID(c)
	if err != nil {
		return err
	}

	var user models.User
	if err := h.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.DB.Model(&user).Association("Groups").Delete(&g); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": fmt.Sprintf("User %s removed from group %s successfully.", user.Username, g.Name),
	})
}
