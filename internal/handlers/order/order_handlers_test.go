package order_test

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"littlelemon/internal/apierr"
	"littlelemon/internal/handlers/order"
	"littlelemon/internal/models"
	"littlelemon/internal/testutil"
)

func addCartLine(t *testing.T, db *gorm.DB, userID uint, item models.MenuItem, qty uint) {
	t.Helper()
	line := models.CartItem{
		UserID:     userID,
		MenuItemID: item.ID,
		Quantity:   qty,
		UnitPrice:  item.Price,
		Price:      item.Price * float64(qty),
	}
	require.NoError(t, db.Create(&line).Error)
}

func placeOrder(t *testing.T, db *gorm.DB, h *order.Handler, e *echo.Echo, userID uint, body map[string]any) models.Order {
	t.Helper()
	c, rec := testutil.JSONRequest(t, e, http.MethodPost, "/api/v1/orders", body)
	testutil.Authenticate(c, userID)
	require.NoError(t, h.CreateOrder(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.Order
	require.NoError(t, db.Where("user_id = ?", userID).Order("id DESC").First(&created).Error)
	return created
}

func TestCreateOrderRequiresCustomer(t *testing.T) {
	db := testutil.NewDB(t)
	h := &order.Handler{DB: db}
	e := echo.New()

	manager := testutil.CreateUser(t, db, "manager", models.GroupManager)

	c, _ := testutil.JSONRequest(t, e, http.MethodPost, "/api/v1/orders", nil)
	testutil.Authenticate(c, manager.ID)

	err := h.CreateOrder(c)
	require.Equal(t, http.StatusBadRequest, testutil.HTTPStatus(t, err))
}

func TestCreateOrderEmptyCart(t *testing.T) {
	db := testutil.NewDB(t)
	h := &order.Handler{DB: db}
	e := echo.New()

	customer := testutil.CreateUser(t, db, "customer")

	c, _ := testutil.JSONRequest(t, e, http.MethodPost, "/api/v1/orders", nil)
	testutil.Authenticate(c, customer.ID)

	err := h.CreateOrder(c)
	require.Equal(t, http.StatusBadRequest, testutil.HTTPStatus(t, err))

	var orders, items int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orders).Error)
	require.NoError(t, db.Model(&models.OrderItem{}).Count(&items).Error)
	require.Zero(t, orders)
	require.Zero(t, items)
}

func TestCreateOrderSnapshotsCart(t *testing.T) {
	db := testutil.NewDB(t)
	h := &order.Handler{DB: db}
	e := echo.New()

	customer := testutil.CreateUser(t, db, "customer")
	category := testutil.CreateCategory(t, db, "Mains")
	burger := testutil.CreateMenuItem(t, db, "Burger", 5.0, category.ID)
	addCartLine(t, db, customer.ID, burger, 2)

	created := placeOrder(t, db, h, e, customer.ID, nil)

	require.Equal(t, 10.0, created.Total)
	require.False(t, created.Status)
	require.Nil(t, created.DeliveryCrewID)

	var items []models.OrderItem
	require.NoError(t, db.Where("order_id = ?", created.ID).Find(&items).Error)
	require.Len(t, items, 1)
	require.Equal(t, uint(2), items[0].Quantity)
	require.Equal(t, 5.0, items[0].UnitPrice)
	require.Equal(t, 10.0, items[0].Price)

	var remaining int64
	require.NoError(t, db.Model(&models.CartItem{}).Where("user_id = ?", customer.ID).Count(&remaining).Error)
	require.Zero(t, remaining)
}

func TestCreateOrderTotalMatchesItems(t *testing.T) {
	db := testutil.NewDB(t)
	h := &order.Handler{DB: db}
	e := echo.New()

	customer := testutil.CreateUser(t, db, "customer")
	category := testutil.CreateCategory(t, db, "Mains")
	burger := testutil.CreateMenuItem(t, db, "Burger", 5.0, category.ID)
	cake := testutil.CreateMenuItem(t, db, "Cake", 3.5, category.ID)
	addCartLine(t, db, customer.ID, burger, 2)
	addCartLine(t, db, customer.ID, cake, 3)

	created := placeOrder(t, db, h, e, customer.ID, nil)

	var items []models.OrderItem
	require.NoError(t, db.Where("order_id = ?", created.ID).Find(&items).Error)
	var sum float64
	for _, it := range items {
		sum += it.Price
	}
	require.Equal(t, sum, created.Total)
}

func TestCreateOrderInvalidDeliveryCrew(t *testing.T) {
	db := testutil.NewDB(t)
	h := &order.Handler{DB: db}
	e := echo.New()

	customer := testutil.CreateUser(t, db, "customer")
	notCrew := testutil.CreateUser(t, db, "bystander")
	category := testutil.CreateCategory(t, db, "Mains")
	burger := testutil.CreateMenuItem(t, db, "Burger", 5.0, category.ID)
	addCartLine(t, db, customer.ID, burger, 1)

	c, _ := testutil.JSONRequest(t, e, http.MethodPost, "/api/v1/orders", map[string]any{
		"delivery_crew_id": notCrew.ID,
	})
	testutil.Authenticate(c, customer.ID)

	err := h.CreateOrder(c)
	require.Equal(t, http.StatusBadRequest, testutil.HTTPStatus(t, err))

	// Rolled back: no order, cart untouched.
	var orders, lines int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orders).Error)
	require.NoError(t, db.Model(&models.CartItem{}).Where("user_id = ?", customer.ID).Count(&lines).Error)
	require.Zero(t, orders)
	require.Equal(t, int64(1), lines)
}

func seedScopedOrders(t *testing.T, db *gorm.DB, h *order.Handler, e *echo.Echo) (customer, other, crew models.User, assigned models.Order) {
	t.Helper()

	customer = testutil.CreateUser(t, db, "customer")
	other = testutil.CreateUser(t, db, "other")
	crew = testutil.CreateUser(t, db, "crew", models.GroupDeliveryCrew)

	category := testutil.CreateCategory(t, db, "Mains")
	burger := testutil.CreateMenuItem(t, db, "Burger", 5.0, category.ID)

	addCartLine(t, db, customer.ID, burger, 1)
	placeOrder(t, db, h, e, customer.ID, nil)

	addCartLine(t, db, other.ID, burger, 2)
	assigned = placeOrder(t, db, h, e, other.ID, map[string]any{"delivery_crew_id": crew.ID})
	return customer, other, crew, assigned
}

func listOrders(t *testing.T, h *order.Handler, e *echo.Echo, userID uint) []map[string]any {
	t.Helper()
	c, rec := testutil.JSONRequest(t, e, http.MethodGet, "/api/v1/orders", nil)
	testutil.Authenticate(c, userID)
	require.NoError(t, h.ListOrders(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []map[string]any `json:"data"`
	}
	testutil.Decode(t, rec, &resp)
	return resp.Data
}

func TestListOrdersRoleScoping(t *testing.T) {
	db := testutil.NewDB(t)
	h := &order.Handler{DB: db}
	e := echo.New()

	customer, _, crew, assigned := seedScopedOrders(t, db, h, e)
	manager := testutil.CreateUser(t, db, "manager", models.GroupManager)

	require.Len(t, listOrders(t, h, e, manager.ID), 2)

	crewOrders := listOrders(t, h, e, crew.ID)
	require.Len(t, crewOrders, 1)
	require.Equal(t, float64(assigned.ID), crewOrders[0]["id"])

	customerOrders := listOrders(t, h, e, customer.ID)
	require.Len(t, customerOrders, 1)
	// Customer shape carries no placer or crew identities.
	require.NotContains(t, customerOrders[0], "user")
	require.NotContains(t, customerOrders[0], "delivery_crew")
}

func TestGetOrderItemsOutsideScopeIs404(t *testing.T) {
	db := testutil.NewDB(t)
	h := &order.Handler{DB: db}
	e := echo.New()

	customer, _, _, assigned := seedScopedOrders(t, db, h, e)

	// assigned belongs to the other customer: invisible, same as absent.
	c, _ := testutil.JSONRequest(t, e, http.MethodGet, "/api/v1/orders/"+strconv.Itoa(int(assigned.ID)), nil)
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(int(assigned.ID)))
	testutil.Authenticate(c, customer.ID)

	err := h.GetOrderItems(c)
	require.ErrorIs(t, err, apierr.ErrNotFound)
	require.Equal(t, http.StatusNotFound, testutil.HTTPStatus(t, err))
}

func TestGetOrderItems(t *testing.T) {
	db := testutil.NewDB(t)
	h := &order.Handler{DB: db}
	e := echo.New()

	customer := testutil.CreateUser(t, db, "customer")
	category := testutil.CreateCategory(t, db, "Mains")
	burger := testutil.CreateMenuItem(t, db, "Burger", 5.0, category.ID)
	addCartLine(t, db, customer.ID, burger, 2)
	created := placeOrder(t, db, h, e, customer.ID, nil)

	c, rec := testutil.JSONRequest(t, e, http.MethodGet, "/api/v1/orders/"+strconv.Itoa(int(created.ID)), nil)
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(int(created.ID)))
	testutil.Authenticate(c, customer.ID)

	require.NoError(t, h.GetOrderItems(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var items []models.OrderItem
	testutil.Decode(t, rec, &items)
	require.Len(t, items, 1)
	require.Equal(t, burger.ID, items[0].MenuItemID)
	require.NotNil(t, items[0].MenuItem)
	require.Equal(t, "Burger", items[0].MenuItem.Title)
}

func patchOrder(t *testing.T, e *echo.Echo, userID, orderID uint, body map[string]any) echo.Context {
	t.Helper()
	c, _ := testutil.JSONRequest(t, e, http.MethodPatch, "/api/v1/orders/"+strconv.Itoa(int(orderID)), body)
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(int(orderID)))
	testutil.Authenticate(c, userID)
	return c
}

func TestPatchOrderCustomerForbidden(t *testing.T) {
	db := testutil.NewDB(t)
	h := &order.Handler{DB: db}
	e := echo.New()

	customer := testutil.CreateUser(t, db, "customer")
	category := testutil.CreateCategory(t, db, "Mains")
	burger := testutil.CreateMenuItem(t, db, "Burger", 5.0, category.ID)
	addCartLine(t, db, customer.ID, burger, 1)
	created := placeOrder(t, db, h, e, customer.ID, nil)

	c := patchOrder(t, e, customer.ID, created.ID, map[string]any{"status": true})
	err := h.PatchOrder(c)
	require.ErrorIs(t, err, apierr.ErrNotAuthorized)
	require.Equal(t, http.StatusForbidden, testutil.HTTPStatus(t, err))
}

func TestPatchOrderCrewUnassignedIs404(t *testing.T) {
	db := testutil.NewDB(t)
	h := &order.Handler{DB: db}
	e := echo.New()

	_, _, _, assigned := seedScopedOrders(t, db, h, e)
	stranger := testutil.CreateUser(t, db, "stranger-crew", models.GroupDeliveryCrew)

	c := patchOrder(t, e, stranger.ID, assigned.ID, map[string]any{"status": true})
	err := h.PatchOrder(c)
	require.Equal(t, http.StatusNotFound, testutil.HTTPStatus(t, err))

	var unchanged models.Order
	require.NoError(t, db.First(&unchanged, assigned.ID).Error)
	require.False(t, unchanged.Status)
}

func TestPatchOrderCrewDeliversAssigned(t *testing.T) {
	db := testutil.NewDB(t)
	h := &order.Handler{DB: db}
	e := echo.New()

	_, _, crew, assigned := seedScopedOrders(t, db, h, e)

	c := patchOrder(t, e, crew.ID, assigned.ID, map[string]any{"status": true})
	require.NoError(t, h.PatchOrder(c))

	var updated models.Order
	require.NoError(t, db.First(&updated, assigned.ID).Error)
	require.True(t, updated.Status)
}

func TestPatchOrderStatusIsOneWay(t *testing.T) {
	db := testutil.NewDB(t)
	h := &order.Handler{DB: db}
	e := echo.New()

	_, _, crew, assigned := seedScopedOrders(t, db, h, e)

	c := patchOrder(t, e, crew.ID, assigned.ID, map[string]any{"status": true})
	require.NoError(t, h.PatchOrder(c))

	c = patchOrder(t, e, crew.ID, assigned.ID, map[string]any{"status": false})
	err := h.PatchOrder(c)
	require.Equal(t, http.StatusBadRequest, testutil.HTTPStatus(t, err))

	var still models.Order
	require.NoError(t, db.First(&still, assigned.ID).Error)
	require.True(t, still.Status)
}

func TestPatchOrderCrewCannotReassign(t *testing.T) {
	db := testutil.NewDB(t)
	h := &order.Handler{DB: db}
	e := echo.New()

	_, _, crew, assigned := seedScopedOrders(t, db, h, e)
	otherCrew := testutil.CreateUser(t, db, "other-crew", models.GroupDeliveryCrew)

	// The crew id field is dropped for delivery crew callers.
	c := patchOrder(t, e, crew.ID, assigned.ID, map[string]any{"delivery_crew_id": otherCrew.ID})
	require.NoError(t, h.PatchOrder(c))

	var unchanged models.Order
	require.NoError(t, db.First(&unchanged, assigned.ID).Error)
	require.Equal(t, crew.ID, *unchanged.DeliveryCrewID)
}

func TestPatchOrderManagerAssignsAndClearsCrew(t *testing.T) {
	db := testutil.NewDB(t)
	h := &order.Handler{DB: db}
	e := echo.New()

	customer := testutil.CreateUser(t, db, "customer")
	crew := testutil.CreateUser(t, db, "crew", models.GroupDeliveryCrew)
	manager := testutil.CreateUser(t, db, "manager", models.GroupManager)
	category := testutil.CreateCategory(t, db, "Mains")
	burger := testutil.CreateMenuItem(t, db, "Burger", 5.0, category.ID)
	addCartLine(t, db, customer.ID, burger, 1)
	created := placeOrder(t, db, h, e, customer.ID, nil)

	c := patchOrder(t, e, manager.ID, created.ID, map[string]any{"delivery_crew_id": crew.ID})
	require.NoError(t, h.PatchOrder(c))

	var got models.Order
	require.NoError(t, db.First(&got, created.ID).Error)
	require.NotNil(t, got.DeliveryCrewID)
	require.Equal(t, crew.ID, *got.DeliveryCrewID)

	// Absent field keeps the assignment.
	c = patchOrder(t, e, manager.ID, created.ID, map[string]any{"status": true})
	require.NoError(t, h.PatchOrder(c))
	require.NoError(t, db.First(&got, created.ID).Error)
	require.NotNil(t, got.DeliveryCrewID)

	// Explicit null clears it.
	c = patchOrder(t, e, manager.ID, created.ID, map[string]any{"delivery_crew_id": nil})
	require.NoError(t, h.PatchOrder(c))
	require.NoError(t, db.First(&got, created.ID).Error)
	require.Nil(t, got.DeliveryCrewID)
}

func TestPatchOrderManagerRejectsNonCrewAssignment(t *testing.T) {
	db := testutil.NewDB(t)
	h := &order.Handler{DB: db}
	e := echo.New()

	customer := testutil.CreateUser(t, db, "customer")
	bystander := testutil.CreateUser(t, db, "bystander")
	manager := testutil.CreateUser(t, db, "manager", models.GroupManager)
	category := testutil.CreateCategory(t, db, "Mains")
	burger := testutil.CreateMenuItem(t, db, "Burger", 5.0, category.ID)
	addCartLine(t, db, customer.ID, burger, 1)
	created := placeOrder(t, db, h, e, customer.ID, nil)

	c := patchOrder(t, e, manager.ID, created.ID, map[string]any{"delivery_crew_id": bystander.ID})
	err := h.PatchOrder(c)
	require.Equal(t, http.StatusBadRequest, testutil.HTTPStatus(t, err))

	var unchanged models.Order
	require.NoError(t, db.First(&unchanged, created.ID).Error)
	require.Nil(t, unchanged.DeliveryCrewID)
}

func TestDeleteOrderManagerOnly(t *testing.T) {
	db := testutil.NewDB(t)
	h := &order.Handler{DB: db}
	e := echo.New()

	customer := testutil.CreateUser(t, db, "customer")
	manager := testutil.CreateUser(t, db, "manager", models.GroupManager)
	category := testutil.CreateCategory(t, db, "Mains")
	burger := testutil.CreateMenuItem(t, db, "Burger", 5.0, category.ID)
	addCartLine(t, db, customer.ID, burger, 1)
	created := placeOrder(t, db, h, e, customer.ID, nil)

	c, _ := testutil.JSONRequest(t, e, http.MethodDelete, "/api/v1/orders/"+strconv.Itoa(int(created.ID)), nil)
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(int(created.ID)))
	testutil.Authenticate(c, customer.ID)
	err := h.DeleteOrder(c)
	require.Equal(t, http.StatusForbidden, testutil.HTTPStatus(t, err))

	c, rec := testutil.JSONRequest(t, e, http.MethodDelete, "/api/v1/orders/"+strconv.Itoa(int(created.ID)), nil)
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(int(created.ID)))
	testutil.Authenticate(c, manager.ID)
	require.NoError(t, h.DeleteOrder(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	var orders, items int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orders).Error)
	require.NoError(t, db.Model(&models.OrderItem{}).Count(&items).Error)
	require.Zero(t, orders)
	require.Zero(t, items)

	// Retrieve after delete is a plain 404.
	c, _ = testutil.JSONRequest(t, e, http.MethodGet, "/api/v1/orders/"+strconv.Itoa(int(created.ID)), nil)
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(int(created.ID)))
	testutil.Authenticate(c, manager.ID)
	err = h.GetOrderItems(c)
	require.Equal(t, http.StatusNotFound, testutil.HTTPStatus(t, err))
}
