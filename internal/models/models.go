package models

import (
	"time"
)

// Group names as stored in the groups table. Everyone outside both groups
// is a customer.
const (
	GroupManager      = "Manager"
	GroupDeliveryCrew = "Delivery crew"
)

type Category struct {
	ID    uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Title string `gorm:"uniqueIndex;not null"     json:"title"`
}

type MenuItem struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"   json:"id"`
	Title      string    `gorm:"not null"                   json:"title"`
	Price      float64   `gorm:"not null;check:price > 0"   json:"price"`
	Featured   bool      `gorm:"not null;default:false"     json:"featured"`
	CategoryID uint      `gorm:"not null"                   json:"category_id"`
	Category   *Category `json:"category,omitempty"`
}

// CartItem is a pending cart line. UnitPrice snapshots the menu price at the
// time the line was added; Price = UnitPrice * Quantity and is never updated
// afterwards. One line per (user, menu item) pair.
type CartItem struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"                    json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_cart_user_menuitem" json:"user_id"`
	MenuItemID uint      `gorm:"not null;uniqueIndex:idx_cart_user_menuitem" json:"menuitem_id"`
	MenuItem   *MenuItem `json:"menuitem,omitempty"`
	Quantity   uint      `gorm:"not null;check:quantity > 0"                 json:"quantity"`
	UnitPrice  float64   `gorm:"not null"                                    json:"unit_price"`
	Price      float64   `gorm:"not null"                                    json:"price"`
}

// Order.Status is false while unfulfilled and true once delivered; the flip
// is one-way. Total is fixed at creation from the cart snapshot.
type Order struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         uint      `gorm:"index;not null"           json:"user_id"`
	User           *User     `json:"-"`
	DeliveryCrewID *uint     `gorm:"index"                    json:"delivery_crew_id"`
	DeliveryCrew   *User     `gorm:"foreignKey:DeliveryCrewID" json:"-"`
	Status         bool      `gorm:"not null;default:false"   json:"status"`
	Total          float64   `gorm:"not null"                 json:"total"`
	Date           time.Time `gorm:"not null"                 json:"date"`
}

// OrderItem is an immutable copy of a cart line taken when the order was
// placed.
type OrderItem struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID    uint      `gorm:"index;not null"           json:"order_id"`
	MenuItemID uint      `gorm:"not null"                 json:"menuitem_id"`
	MenuItem   *MenuItem `json:"menuitem,omitempty"`
	Quantity   uint      `gorm:"not null"                 json:"quantity"`
	UnitPrice  float64   `gorm:"not null"                 json:"unit_price"`
	Price      float64   `gorm:"not null"                 json:"price"`
}

// IsStaff marks system administrators for the group-membership endpoints;
// it is unrelated to the Manager business role.
type User struct {
	ID           uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string  `gorm:"uniqueIndex;not null"     json:"username"`
	Email        string  `json:"email"`
	PasswordHash string  `gorm:"not null"                 json:"-"`
	IsStaff      bool    `gorm:"not null;default:false"   json:"is_staff"`
	Groups       []Group `gorm:"many2many:user_groups"    json:"-"`
}

type Group struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"uniqueIndex;not null"     json:"name"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Token     string `gorm:"uniqueIndex;not null"     json:"token"`
	UserID    uint   `gorm:"index;not null"           json:"user_id"`
	ExpiresAt int64  `gorm:"not null"                 json:"expires_at"`
	Revoked   bool   `gorm:"not null;default:false"   json:"revoked"`
}

type Book struct {
	ID     uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Title  string  `gorm:"not null"                 json:"title"`
	Author string  `gorm:"not null"                 json:"author"`
	Price  float64 `gorm:"not null"                 json:"price"`
}
