package httpserver

import (
	"github.com/labstack/echo/v4"

	"littlelemon/internal/handlers"
	"littlelemon/internal/handlers/cart"
	"littlelemon/internal/handlers/order"
	"littlelemon/internal/service/token"
)

type Deps struct {
	Tokens     *token.Service
	Auth       *handlers.AuthHandler
	Menu       *handlers.MenuHandler
	Categories *handlers.CategoryHandler
	Groups     *handlers.GroupHandler
	Books      *handlers.BookHandler
	Search     *handlers.SearchHandler
	Cart       *cart.Handler
	Orders     *order.Handler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	v1.POST("/register", d.Auth.Register)
	v1.POST("/login", d.Auth.Login)
	v1.POST("/logout", d.Auth.Logout)

	v1.GET("/books", d.Books.ListBooks)
	v1.POST("/books", d.Books.CreateBook)

	auth := v1.Group("", d.Tokens.RequireAuth)

	auth.GET("/menu-items", d.Menu.ListMenuItems)
	auth.GET("/menu-items/:id", d.Menu.GetMenuItem)
	auth.POST("/menu-items", d.Menu.CreateMenuItem)
	auth.PUT("/menu-items/:id", d.Menu.UpdateMenuItem)
	auth.PATCH("/menu-items/:id", d.Menu.PatchMenuItem)
	auth.DELETE("/menu-items/:id", d.Menu.DeleteMenuItem)

	auth.GET("/categories", d.Categories.ListCategories)
	auth.POST("/categories", d.Categories.CreateCategory)
	auth.PUT("/categories/:id", d.Categories.UpdateCategory)
	auth.DELETE("/categories/:id", d.Categories.DeleteCategory)

	auth.GET("/cart/menu-items", d.Cart.GetCart)
	auth.POST("/cart/menu-items", d.Cart.AddToCart)
	auth.DELETE("/cart/menu-items", d.Cart.ClearCart)

	auth.GET("/orders", d.Orders.ListOrders)
	auth.POST("/orders", d.Orders.CreateOrder)
	auth.GET("/orders/:id", d.Orders.GetOrderItems)
	auth.PATCH("/orders/:id", d.Orders.PatchOrder)
	auth.DELETE("/orders/:id", d.Orders.DeleteOrder)

	if d.Search != nil {
		auth.GET("/search", d.Search.Search)
	}

	staff := v1.Group("/groups", d.Tokens.RequireAuth, d.Tokens.RequireStaff)
	staff.GET("/:name/users", d.Groups.ListMembers)
	staff.POST("/:name/users", d.Groups.AddMember)
	staff.DELETE("/:name/users/:id", d.Groups.RemoveMember)
}
