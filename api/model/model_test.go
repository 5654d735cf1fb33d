package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luckygas/luckygas/model"
)

func TestValidateCreateCustomer(t *testing.T) {
	valid := CreateCustomer{Name: "Chen Family Restaurant", Phone: "0912345678", Address: "No. 5, Lane 20, Zhongshan Rd"}
	assert.NoError(t, valid.ValidateCreateCustomer())

	missing := CreateCustomer{Name: "Chen Family Restaurant"}
	assert.Error(t, missing.ValidateCreateCustomer())

	badCoords := CreateCustomer{Name: "x", Phone: "y", Address: "z", Latitude: 120}
	assert.Error(t, badCoords.ValidateCreateCustomer())
}

func TestCreateOrderToOrder(t *testing.T) {
	req := CreateOrder{
		CustomerID:    "cust_abc",
		ScheduledDate: "2026-09-01",
		LineItems: []LineItemInput{
			{CylinderSize: "20kg", Quantity: 2, UnitPrice: "750.00"},
			{CylinderSize: "16kg", Quantity: 1, UnitPrice: "620.50"},
		},
	}
	require.NoError(t, req.ValidateCreateOrder())

	order, err := req.ToOrder()
	require.NoError(t, err)
	assert.Equal(t, model.OrderPending, order.Status)
	require.Len(t, order.LineItems, 2)
	assert.Equal(t, "750", order.LineItems[0].UnitPrice.String())
	assert.Equal(t, "2026-09-01", order.ScheduledDate.Format("2006-01-02"))
}

func TestCreateOrderRejectsBadInput(t *testing.T) {
	noItems := CreateOrder{CustomerID: "cust_abc"}
	assert.Error(t, noItems.ValidateCreateOrder())

	badDate := CreateOrder{
		CustomerID:    "cust_abc",
		ScheduledDate: "01-09-2026",
		LineItems:     []LineItemInput{{CylinderSize: "20kg", Quantity: 1, UnitPrice: "750"}},
	}
	assert.Error(t, badDate.ValidateCreateOrder())

	badPrice := CreateOrder{
		CustomerID: "cust_abc",
		LineItems:  []LineItemInput{{CylinderSize: "20kg", Quantity: 1, UnitPrice: "seven"}},
	}
	require.NoError(t, badPrice.ValidateCreateOrder())
	_, err := badPrice.ToOrder()
	assert.Error(t, err)
}

func TestValidateUpdateOrderStatus(t *testing.T) {
	assert.NoError(t, (&UpdateOrderStatus{Status: "confirmed"}).ValidateUpdateOrderStatus())
	assert.Error(t, (&UpdateOrderStatus{Status: "pending"}).ValidateUpdateOrderStatus())
	assert.Error(t, (&UpdateOrderStatus{Status: "shipped"}).ValidateUpdateOrderStatus())
}

func TestValidateCreateRoute(t *testing.T) {
	valid := CreateRoute{Name: "Morning north district", Date: "2026-09-01"}
	require.NoError(t, valid.ValidateCreateRoute())

	route, err := valid.ToRoute()
	require.NoError(t, err)
	assert.Equal(t, model.RoutePlanned, route.Status)

	assert.Error(t, (&CreateRoute{Name: "no date"}).ValidateCreateRoute())
	assert.Error(t, (&CreateRoute{Name: "bad date", Date: "September 1"}).ValidateCreateRoute())
}

func TestValidateReplayMutation(t *testing.T) {
	valid := ReplayMutation{
		ID:        "qitem_1",
		DriverID:  "drv_1",
		Payload:   json.RawMessage(`{"route_id":"route_1","status":"in_progress"}`),
		Timestamp: 172425600000,
	}
	require.NoError(t, valid.ValidateReplayMutation())

	item := valid.ToQueueItem(model.MutationRouteStatus, "idem_abc")
	assert.Equal(t, model.MutationRouteStatus, item.Type)
	assert.Equal(t, "idem_abc", item.IdempotencyKey)

	missingDriver := valid
	missingDriver.DriverID = ""
	assert.Error(t, missingDriver.ValidateReplayMutation())

	zeroTimestamp := valid
	zeroTimestamp.Timestamp = 0
	assert.Error(t, zeroTimestamp.ValidateReplayMutation())
}
