package roles

import (
	"gorm.io/gorm"

	"littlelemon/internal/models"
)

// Role is the caller's resolved business role. Customer is the explicit
// default for anyone outside the Manager and Delivery crew groups.
type Role int

const (
	Customer Role = iota
	DeliveryCrew
	Manager
)

func (r Role) String() string {
	switch r {
	case Manager:
		return "manager"
	case DeliveryCrew:
		return "delivery_crew"
	default:
		return "customer"
	}
}

// Resolve queries the user's group memberships and returns the single role
// that gates the request. Manager wins when a user holds both memberships.
// Membership is read fresh on every call, never cached.
func Resolve(db *gorm.DB, userID uint) (Role, error) {
	var names []string
	err := db.Model(&models.Group{}).
		Joins("JOIN user_groups ON user_groups.group_id = groups.id").
		Where("user_groups.user_id = ?", userID).
		Pluck("groups.name", &names).Error
	if err != nil {
		return Customer, err
	}

	role := Customer
	for _, name := range names {
		switch name {
		case models.GroupManager:
			return Manager, nil
		case models.GroupDeliveryCrew:
			role = DeliveryCrew
		}
	}
	return role, nil
}

// InGroup reports whether the user belongs to the named group.
func InGroup(db *gorm.DB, userID uint, group string) (bool, error) {
	var n int64
	err := db.Table("user_groups").
		Joins("JOIN groups ON groups.id = user_groups.group_id").
		Where("user_groups.user_id = ? AND groups.name = ?", userID, group).
		Count(&n).Error
	return n > 0, err
}
