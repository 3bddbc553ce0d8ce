package services

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/tezkor/internal/database"
	"github.com/example/tezkor/internal/models"
	"github.com/example/tezkor/internal/utils"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func createUser(t *testing.T, db *gorm.DB, role, name string) *models.User {
	t.Helper()

	user := models.User{
		FirstName:   name,
		DisplayName: name,
		Phone:       fmt.Sprintf("+9989%09d", time.Now().UnixNano()%1e9),
		Role:        role,
		IsActive:    true,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createStore(t *testing.T, db *gorm.DB, merchantID uuid.UUID, name string) *models.Store {
	t.Helper()

	store := models.Store{MerchantID: merchantID, Name: name, IsOpen: true}
	require.NoError(t, db.Create(&store).Error)
	return &store
}

func sampleInput(customerID, merchantID, storeID uuid.UUID) CreateOrderInput {
	return CreateOrderInput{
		CustomerID:      customerID,
		MerchantID:      merchantID,
		StoreID:         storeID,
		DeliveryAddress: "12 Amir Temur Avenue",
		Latitude:        41.2995,
		Longitude:       69.2401,
		DeliveryFee:     300,
		Items: []OrderItemInput{
			{
				ItemName:   "Lagman",
				Quantity:   1,
				ItemPrice:  1500,
				TotalPrice: 1500,
				Selections: []SelectionInput{
					{SelectionType: "size", SelectionName: "Large", SelectionPrice: 200, Quantity: 1},
				},
			},
			{
				ItemName:   "Plov",
				Quantity:   2,
				ItemPrice:  1250,
				TotalPrice: 2500,
			},
		},
	}
}

func setupOrder(t *testing.T) (*OrderService, *gorm.DB, *models.Order, *models.User, *models.User) {
	t.Helper()

	db := newTestDB(t)
	svc := NewOrderService(db)
	customer := createUser(t, db, models.RoleCustomer, "Aziz Karimov")
	merchant := createUser(t, db, models.RoleMerchant, "Oqtepa Lavash")
	store := createStore(t, db, merchant.ID, "Oqtepa Chilonzor")

	order, err := svc.CreateOrder(sampleInput(customer.ID, merchant.ID, store.ID))
	require.NoError(t, err)
	return svc, db, order, customer, merchant
}

func countRows(t *testing.T, db *gorm.DB, model any, query string, args ...any) int64 {
	t.Helper()

	var count int64
	require.NoError(t, db.Model(model).Where(query, args...).Count(&count).Error)
	return count
}

func TestCreateOrder(t *testing.T) {
	_, db, order, customer, merchant := setupOrder(t)

	assert.Regexp(t, regexp.MustCompile(`^ORD-\d{8}-\d{4}$`), order.OrderNumber)
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, 1, order.Version)
	assert.Equal(t, "cash", order.PaymentMethod)
	assert.Equal(t, "unpaid", order.PaymentStatus)
	assert.Equal(t, 4000.0, order.TotalAmount)
	assert.Equal(t, 4300.0, order.FinalAmount)
	assert.Nil(t, order.AcceptedAt)

	assert.EqualValues(t, 2, countRows(t, db, &models.OrderItem{}, "order_id = ?", order.ID))
	assert.EqualValues(t, 1, countRows(t, db, &models.OrderSelection{}, "1 = 1"))

	var history []models.OrderStatusHistory
	require.NoError(t, db.Where("order_id = ?", order.ID).Find(&history).Error)
	require.Len(t, history, 1)
	assert.Equal(t, models.StatusPending, history[0].Status)
	assert.Equal(t, customer.ID, history[0].ChangedBy)
	assert.Equal(t, "Order created", history[0].ChangeReason)

	var notifications []models.OrderNotification
	require.NoError(t, db.Where("order_id = ?", order.ID).Find(&notifications).Error)
	require.Len(t, notifications, 1)
	assert.Equal(t, merchant.ID, notifications[0].UserID)
	assert.Equal(t, NotificationNewOrder, notifications[0].NotificationType)
	assert.Contains(t, notifications[0].Message, order.OrderNumber)
}

func TestCreateOrderValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db)
	customer := createUser(t, db, models.RoleCustomer, "Aziz")
	merchant := createUser(t, db, models.RoleMerchant, "Lavash")
	store := createStore(t, db, merchant.ID, "Chilonzor")

	t.Run("empty item list", func(t *testing.T) {
		input := sampleInput(customer.ID, merchant.ID, store.ID)
		input.Items = nil
		_, err := svc.CreateOrder(input)
		assert.ErrorIs(t, err, ErrEmptyOrder)
	})

	t.Run("missing delivery address", func(t *testing.T) {
		input := sampleInput(customer.ID, merchant.ID, store.ID)
		input.DeliveryAddress = ""
		_, err := svc.CreateOrder(input)
		assert.ErrorIs(t, err, ErrMissingField)
	})

	t.Run("missing customer", func(t *testing.T) {
		input := sampleInput(uuid.Nil, merchant.ID, store.ID)
		_, err := svc.CreateOrder(input)
		assert.ErrorIs(t, err, ErrMissingField)
	})

	t.Run("zero quantity item", func(t *testing.T) {
		input := sampleInput(customer.ID, merchant.ID, store.ID)
		input.Items[1].Quantity = 0
		_, err := svc.CreateOrder(input)
		assert.ErrorIs(t, err, ErrMissingField)
	})

	assert.EqualValues(t, 0, countRows(t, db, &models.Order{}, "1 = 1"))
}

func TestCreateOrderAtomicity(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db)
	customer := createUser(t, db, models.RoleCustomer, "Aziz")
	merchant := createUser(t, db, models.RoleMerchant, "Lavash")
	store := createStore(t, db, merchant.ID, "Chilonzor")

	// Fail the insert of the item named "boom" to simulate a mid-transaction
	// database error on the last item.
	err := db.Callback().Create().Before("gorm:create").Register("test_fail_item", func(tx *gorm.DB) {
		if item, ok := tx.Statement.Dest.(*models.OrderItem); ok && item.ItemName == "boom" {
			_ = tx.AddError(errors.New("injected item failure"))
		}
	})
	require.NoError(t, err)

	input := sampleInput(customer.ID, merchant.ID, store.ID)
	input.Items[1].ItemName = "boom"

	_, err = svc.CreateOrder(input)
	require.Error(t, err)

	// Nothing from the failed create may be observable.
	assert.EqualValues(t, 0, countRows(t, db, &models.Order{}, "1 = 1"))
	assert.EqualValues(t, 0, countRows(t, db, &models.OrderItem{}, "1 = 1"))
	assert.EqualValues(t, 0, countRows(t, db, &models.OrderSelection{}, "1 = 1"))
	assert.EqualValues(t, 0, countRows(t, db, &models.OrderStatusHistory{}, "1 = 1"))
	assert.EqualValues(t, 0, countRows(t, db, &models.OrderNotification{}, "1 = 1"))
}

func TestUpdateOrderStatus(t *testing.T) {
	svc, db, order, _, merchant := setupOrder(t)

	time.Sleep(10 * time.Millisecond)
	err := svc.UpdateOrderStatus(order.ID, models.StatusAccepted, merchant.ID, "Kitchen confirmed", "")
	require.NoError(t, err)

	var updated models.Order
	require.NoError(t, db.First(&updated, "id = ?", order.ID).Error)
	assert.Equal(t, models.StatusAccepted, updated.Status)
	assert.Equal(t, 2, updated.Version)
	require.NotNil(t, updated.AcceptedAt)
	assert.Nil(t, updated.ReadyAt)
	assert.Nil(t, updated.PickedUpAt)
	assert.Nil(t, updated.DeliveredAt)
	assert.Nil(t, updated.CancelledAt)

	assert.EqualValues(t, 2, countRows(t, db, &models.OrderStatusHistory{}, "order_id = ?", order.ID))

	var customerNotif models.OrderNotification
	require.NoError(t, db.Where("order_id = ? AND user_id = ? AND notification_type = ?",
		order.ID, order.CustomerID, NotificationStatusUpdate).First(&customerNotif).Error)
	assert.Equal(t, "Order Accepted", customerNotif.Title)
	assert.Contains(t, customerNotif.Message, order.OrderNumber)
	assert.Contains(t, customerNotif.Message, "accepted and is being prepared")

	var merchantNotif models.OrderNotification
	require.NoError(t, db.Where("order_id = ? AND user_id = ? AND notification_type = ?",
		order.ID, merchant.ID, NotificationStatusUpdate).First(&merchantNotif).Error)
	assert.Equal(t, "Order Status Updated", merchantNotif.Title)
	assert.Contains(t, merchantNotif.Message, "status updated to accepted")
}

func TestUpdateOrderStatusFullLifecycle(t *testing.T) {
	svc, db, order, _, merchant := setupOrder(t)
	rider := createUser(t, db, models.RoleRider, "Bekzod")

	steps := []models.OrderStatus{
		models.StatusAccepted,
		models.StatusReadyForPickup,
		models.StatusInTransit,
		models.StatusDelivered,
	}
	for _, step := range steps {
		time.Sleep(10 * time.Millisecond)
		actor := merchant.ID
		if step == models.StatusInTransit || step == models.StatusDelivered {
			actor = rider.ID
		}
		require.NoError(t, svc.UpdateOrderStatus(order.ID, step, actor, "", ""))
	}

	var updated models.Order
	require.NoError(t, db.First(&updated, "id = ?", order.ID).Error)
	assert.Equal(t, models.StatusDelivered, updated.Status)
	assert.Equal(t, 5, updated.Version)
	assert.NotNil(t, updated.AcceptedAt)
	assert.NotNil(t, updated.ReadyAt)
	assert.NotNil(t, updated.PickedUpAt)
	assert.NotNil(t, updated.DeliveredAt)
	assert.Nil(t, updated.CancelledAt)

	// One entry per transition plus the creation entry.
	assert.EqualValues(t, 5, countRows(t, db, &models.OrderStatusHistory{}, "order_id = ?", order.ID))
	// Two notifications per transition plus the merchant's new-order one.
	assert.EqualValues(t, 9, countRows(t, db, &models.OrderNotification{}, "order_id = ?", order.ID))
}

func TestUpdateOrderStatusRejectsIllegalTransition(t *testing.T) {
	svc, db, order, _, merchant := setupOrder(t)

	err := svc.UpdateOrderStatus(order.ID, models.StatusDelivered, merchant.ID, "", "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	var unchanged models.Order
	require.NoError(t, db.First(&unchanged, "id = ?", order.ID).Error)
	assert.Equal(t, models.StatusPending, unchanged.Status)
	assert.Equal(t, 1, unchanged.Version)
	assert.EqualValues(t, 1, countRows(t, db, &models.OrderStatusHistory{}, "order_id = ?", order.ID))
	assert.EqualValues(t, 1, countRows(t, db, &models.OrderNotification{}, "order_id = ?", order.ID))
}

func TestUpdateOrderStatusRejectsTerminalState(t *testing.T) {
	svc, db, order, _, merchant := setupOrder(t)

	require.NoError(t, svc.UpdateOrderStatus(order.ID, models.StatusCancelled, merchant.ID, "Out of stock", ""))

	historyBefore := countRows(t, db, &models.OrderStatusHistory{}, "order_id = ?", order.ID)
	notifBefore := countRows(t, db, &models.OrderNotification{}, "order_id = ?", order.ID)

	err := svc.UpdateOrderStatus(order.ID, models.StatusAccepted, merchant.ID, "", "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	var unchanged models.Order
	require.NoError(t, db.First(&unchanged, "id = ?", order.ID).Error)
	assert.Equal(t, models.StatusCancelled, unchanged.Status)
	assert.Equal(t, historyBefore, countRows(t, db, &models.OrderStatusHistory{}, "order_id = ?", order.ID))
	assert.Equal(t, notifBefore, countRows(t, db, &models.OrderNotification{}, "order_id = ?", order.ID))
}

func TestUpdateOrderStatusNotFound(t *testing.T) {
	svc, _, _, _, merchant := setupOrder(t)

	err := svc.UpdateOrderStatus(uuid.New(), models.StatusAccepted, merchant.ID, "", "")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestUpdateOrderStatusVersionConflict(t *testing.T) {
	svc, db, order, _, merchant := setupOrder(t)

	// Simulate a concurrent writer bumping the version between the engine's
	// read and its guarded update.
	bumped := false
	err := db.Callback().Update().Before("gorm:update").Register("test_concurrent_bump", func(tx *gorm.DB) {
		if bumped || tx.Statement.Table != "orders" {
			return
		}
		bumped = true
		tx.Session(&gorm.Session{NewDB: true}).
			Exec("UPDATE orders SET version = version + 1 WHERE id = ?", order.ID)
	})
	require.NoError(t, err)

	err = svc.UpdateOrderStatus(order.ID, models.StatusAccepted, merchant.ID, "", "")
	assert.ErrorIs(t, err, ErrVersionConflict)

	// The losing transaction must leave no trace.
	assert.EqualValues(t, 1, countRows(t, db, &models.OrderStatusHistory{}, "order_id = ?", order.ID))
	assert.EqualValues(t, 1, countRows(t, db, &models.OrderNotification{}, "order_id = ?", order.ID))
}

func TestAssignRider(t *testing.T) {
	svc, db, order, _, merchant := setupOrder(t)
	rider := createUser(t, db, models.RoleRider, "Bekzod")

	require.NoError(t, svc.AssignRider(order.ID, rider.ID))

	var updated models.Order
	require.NoError(t, db.First(&updated, "id = ?", order.ID).Error)
	require.NotNil(t, updated.RiderID)
	assert.Equal(t, rider.ID, *updated.RiderID)
	assert.Equal(t, 2, updated.Version)

	t.Run("rejected on terminal order", func(t *testing.T) {
		require.NoError(t, svc.UpdateOrderStatus(order.ID, models.StatusCancelled, merchant.ID, "", ""))
		err := svc.AssignRider(order.ID, rider.ID)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestGetOrderDetails(t *testing.T) {
	svc, db, order, customer, _ := setupOrder(t)
	rider := createUser(t, db, models.RoleRider, "Bekzod")
	require.NoError(t, svc.AssignRider(order.ID, rider.ID))

	detail, err := svc.GetOrderDetails(order.ID)
	require.NoError(t, err)

	assert.Equal(t, order.OrderNumber, detail.OrderNumber)
	assert.Equal(t, "12 Amir Temur Avenue", detail.DeliveryAddress)
	assert.Equal(t, "cash", detail.PaymentMethod)
	assert.Equal(t, 4300.0, detail.FinalAmount)
	assert.Equal(t, "Oqtepa Chilonzor", detail.StoreName)
	assert.Equal(t, customer.DisplayName, detail.CustomerName)
	assert.Equal(t, rider.DisplayName, detail.RiderName)

	require.Len(t, detail.Items, 2)
	names := []string{detail.Items[0].ItemName, detail.Items[1].ItemName}
	assert.ElementsMatch(t, []string{"Lagman", "Plov"}, names)
	for _, item := range detail.Items {
		switch item.ItemName {
		case "Lagman":
			assert.Equal(t, 1, item.Quantity)
			assert.Equal(t, 1500.0, item.TotalPrice)
			require.Len(t, item.Selections, 1)
			assert.Equal(t, "Large", item.Selections[0].SelectionName)
		case "Plov":
			assert.Equal(t, 2, item.Quantity)
			assert.Equal(t, 2500.0, item.TotalPrice)
			assert.Empty(t, item.Selections)
		}
	}

	_, err = svc.GetOrderDetails(uuid.New())
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestGetMerchantOrders(t *testing.T) {
	svc, db, first, customer, merchant := setupOrder(t)

	var store models.Store
	require.NoError(t, db.First(&store, "id = ?", first.StoreID).Error)

	time.Sleep(10 * time.Millisecond)
	second, err := svc.CreateOrder(sampleInput(customer.ID, merchant.ID, store.ID))
	require.NoError(t, err)
	require.NoError(t, svc.UpdateOrderStatus(second.ID, models.StatusAccepted, merchant.ID, "", ""))

	pg := utils.Pagination{Page: 1, Limit: 20}

	summaries, total, err := svc.GetMerchantOrders(merchant.ID, "", pg)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, summaries, 2)
	// Newest first.
	assert.Equal(t, second.ID, summaries[0].ID)
	assert.Equal(t, first.ID, summaries[1].ID)
	assert.Equal(t, "Oqtepa Chilonzor", summaries[0].StoreName)

	filtered, total, err := svc.GetMerchantOrders(merchant.ID, "accepted", pg)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, filtered, 1)
	assert.Equal(t, second.ID, filtered[0].ID)

	_, _, err = svc.GetMerchantOrders(merchant.ID, "bogus", pg)
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestListCustomerOrders(t *testing.T) {
	svc, db, order, customer, merchant := setupOrder(t)

	var store models.Store
	require.NoError(t, db.First(&store, "id = ?", order.StoreID).Error)

	time.Sleep(10 * time.Millisecond)
	_, err := svc.CreateOrder(sampleInput(customer.ID, merchant.ID, store.ID))
	require.NoError(t, err)

	orders, total, err := svc.ListCustomerOrders(customer.ID, "", utils.Pagination{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, orders, 2)
	assert.Len(t, orders[0].Items, 2)

	otherCustomer := createUser(t, db, models.RoleCustomer, "Dilshod")
	orders, total, err = svc.ListCustomerOrders(otherCustomer.ID, "", utils.Pagination{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
	assert.Empty(t, orders)
}

func TestGetOrderStatusHistoryAscending(t *testing.T) {
	svc, _, order, customer, merchant := setupOrder(t)

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, svc.UpdateOrderStatus(order.ID, models.StatusAccepted, merchant.ID, "Kitchen confirmed", ""))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, svc.UpdateOrderStatus(order.ID, models.StatusReadyForPickup, merchant.ID, "", ""))

	entries, err := svc.GetOrderStatusHistory(order.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Oldest first.
	assert.Equal(t, models.StatusPending, entries[0].Status)
	assert.Equal(t, models.StatusAccepted, entries[1].Status)
	assert.Equal(t, models.StatusReadyForPickup, entries[2].Status)
	for i := 1; i < len(entries); i++ {
		assert.False(t, entries[i].CreatedAt.Before(entries[i-1].CreatedAt))
	}

	assert.Equal(t, customer.DisplayName, entries[0].ChangedByName)
	assert.Equal(t, merchant.DisplayName, entries[1].ChangedByName)

	_, err = svc.GetOrderStatusHistory(uuid.New())
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
