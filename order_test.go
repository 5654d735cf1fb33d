package luckygas

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/luckygas/luckygas/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCreateOrderService(t *testing.T) {
	lg, mock := newTestLuckyGas(t)

	mock.ExpectExec("INSERT INTO luckygas.orders").
		WillReturnResult(sqlmock.NewResult(1, 1))

	order := model.Order{
		CustomerID: "cust_1",
		LineItems: []model.LineItem{
			{CylinderSize: "20kg", Quantity: 1, UnitPrice: decimal.NewFromInt(800)},
		},
		ScheduledDate: time.Now().Add(24 * time.Hour),
	}

	events, cancel := lg.Events().Subscribe()
	defer cancel()

	created, err := lg.CreateOrder(context.Background(), order)
	assert.NoError(t, err)
	assert.Contains(t, created.OrderID, "ord_")

	select {
	case event := <-events:
		assert.Equal(t, model.EventOrderUpdated, event.Type)
	case <-time.After(time.Second):
		t.Fatal("expected an order event broadcast")
	}
}

func TestUpdateOrderStatus_RejectsInvalidTransition(t *testing.T) {
	lg, mock := newTestLuckyGas(t)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"order_id", "customer_id", "route_id", "status", "line_items", "total", "scheduled_date", "delivered_at", "meta_data", "created_at", "updated_at"}).
		AddRow("ord_1", "cust_1", nil, "pending", []byte(`[]`), "0", now, nil, []byte(`{}`), now, now)

	mock.ExpectQuery("SELECT .* FROM luckygas.orders WHERE order_id =").
		WithArgs("ord_1").
		WillReturnRows(rows)
	// No UPDATE expected: pending cannot jump straight to delivered.

	_, err := lg.UpdateOrderStatus(context.Background(), "ord_1", model.OrderDelivered)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventBus(t *testing.T) {
	bus := NewEventBus()

	first, cancelFirst := bus.Subscribe()
	second, cancelSecond := bus.Subscribe()
	defer cancelSecond()
	assert.Equal(t, 2, bus.SubscriberCount())

	bus.Publish(model.NewEventMessage(model.EventDriverLocation, "hello"))
	assert.Equal(t, model.EventDriverLocation, (<-first).Type)
	assert.Equal(t, model.EventDriverLocation, (<-second).Type)

	cancelFirst()
	assert.Equal(t, 1, bus.SubscriberCount())

	// Cancel is idempotent.
	cancelFirst()
	assert.Equal(t, 1, bus.SubscriberCount())
}
