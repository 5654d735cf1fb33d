package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestOrder_ComputeTotal(t *testing.T) {
	order := &Order{
		LineItems: []LineItem{
			{CylinderSize: "20kg", Quantity: 2, UnitPrice: decimal.NewFromInt(800)},
			{CylinderSize: "16kg", Quantity: 1, UnitPrice: decimal.NewFromFloat(650.50)},
		},
	}
	total := order.ComputeTotal()
	assert.True(t, total.Equal(decimal.NewFromFloat(2250.50)), "got %s", total)
}

func TestOrder_Validate(t *testing.T) {
	order := &Order{
		CustomerID: "cust_123",
		LineItems: []LineItem{
			{CylinderSize: "20kg", Quantity: 1, UnitPrice: decimal.NewFromInt(800)},
		},
	}
	assert.NoError(t, order.Validate())
	assert.True(t, order.Total.Equal(decimal.NewFromInt(800)))

	t.Run("missing customer", func(t *testing.T) {
		o := &Order{LineItems: order.LineItems}
		err := o.Validate()
		assert.EqualError(t, err, "order requires a customer")
	})

	t.Run("no line items", func(t *testing.T) {
		o := &Order{CustomerID: "cust_123"}
		err := o.Validate()
		assert.EqualError(t, err, "order must have at least one line item")
	})

	t.Run("zero quantity", func(t *testing.T) {
		o := &Order{
			CustomerID: "cust_123",
			LineItems:  []LineItem{{CylinderSize: "20kg", Quantity: 0, UnitPrice: decimal.NewFromInt(800)}},
		}
		err := o.Validate()
		assert.EqualError(t, err, "line item quantity must be positive")
	})

	t.Run("negative price", func(t *testing.T) {
		o := &Order{
			CustomerID: "cust_123",
			LineItems:  []LineItem{{CylinderSize: "20kg", Quantity: 1, UnitPrice: decimal.NewFromInt(-5)}},
		}
		err := o.Validate()
		assert.EqualError(t, err, "line item unit price cannot be negative")
	})
}

func TestOrder_TransitionTo(t *testing.T) {
	order := &Order{Status: OrderPending}

	assert.NoError(t, order.TransitionTo(OrderConfirmed))
	assert.NoError(t, order.TransitionTo(OrderAssigned))
	assert.NoError(t, order.TransitionTo(OrderInDelivery))
	assert.NoError(t, order.TransitionTo(OrderDelivered))

	// Delivered is terminal.
	err := order.TransitionTo(OrderCancelled)
	assert.Error(t, err)

	t.Run("cancel from any non-terminal state", func(t *testing.T) {
		for _, status := range []OrderStatus{OrderPending, OrderConfirmed, OrderAssigned, OrderInDelivery} {
			o := &Order{Status: status}
			assert.NoError(t, o.TransitionTo(OrderCancelled))
		}
	})

	t.Run("no skipping states", func(t *testing.T) {
		o := &Order{Status: OrderPending}
		err := o.TransitionTo(OrderDelivered)
		assert.Error(t, err)
		assert.Equal(t, OrderPending, o.Status)
	})
}
