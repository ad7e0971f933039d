package order

import (
	"github.com/labstack/echo/v4"

	"littlelemon/internal/models"
	"littlelemon/internal/roles"
)

type userRef struct {
	ID       uint   `json:"id,omitempty"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// orderResponse builds the role-shaped order body: one function selecting
// the output shape instead of a serializer class per role. Managers see the
// placer and the assigned crew member, delivery crew sees the placer,
// customers see only their own order fields. User/DeliveryCrew must be
// preloaded for the manager and crew shapes.
func orderResponse(role roles.Role, o models.Order) echo.Map {
	resp := echo.Map{
		"id":     o.ID,
		"status": o.Status,
		"total":  o.Total,
		"date":   o.Date,
	}

	switch role {
	case roles.Manager:
		if o.User != nil {
			resp["user"] = userRef{ID: o.User.ID, Username: o.User.Username, Email: o.User.Email}
		}
		resp["delivery_crew_id"] = o.DeliveryCrewID
		if o.DeliveryCrew != nil {
			resp["delivery_crew"] = userRef{ID: o.DeliveryCrew.ID, Username: o.DeliveryCrew.Username, Email: o.DeliveryCrew.Email}
		} else {
			resp["delivery_crew"] = nil
		}
	case roles.DeliveryCrew:
		if o.User != nil {
			resp["user"] = userRef{Username: o.User.Username, Email: o.User.Email}
		}
	}

	return resp
}

func orderResponses(role roles.Role, orders []models.Order) []echo.Map {
	out := make([]echo.Map, len(orders))
	for i, o := range orders {
		out[i] = orderResponse(role, o)
	}
	return out
}
