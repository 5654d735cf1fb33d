/*
Copyright 2024 Lucky Gas Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderAssigned   OrderStatus = "assigned"
	OrderInDelivery OrderStatus = "in_delivery"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

// orderTransitions maps each status to the set of statuses an order may move
// to next. Delivered and cancelled are terminal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderConfirmed, OrderCancelled},
	OrderConfirmed:  {OrderAssigned, OrderCancelled},
	OrderAssigned:   {OrderInDelivery, OrderCancelled},
	OrderInDelivery: {OrderDelivered, OrderCancelled},
}

type LineItem struct {
	CylinderSize string          `json:"cylinder_size"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
}

type Order struct {
	ID            int64                  `json:"-"`
	OrderID       string                 `json:"order_id"`
	CustomerID    string                 `json:"customer_id"`
	RouteID       string                 `json:"route_id,omitempty"`
	Status        OrderStatus            `json:"status"`
	LineItems     []LineItem             `json:"line_items"`
	Total         decimal.Decimal        `json:"total"`
	ScheduledDate time.Time              `json:"scheduled_date"`
	DeliveredAt   *time.Time             `json:"delivered_at,omitempty"`
	MetaData      map[string]interface{} `json:"meta_data"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

type OrderFilter struct {
	CustomerID string      `json:"customer_id"`
	RouteID    string      `json:"route_id"`
	Status     OrderStatus `json:"status"`
	From       time.Time   `json:"from"`
	To         time.Time   `json:"to"`
	Limit      int         `json:"limit"`
	Offset     int         `json:"offset"`
}

// ComputeTotal sums quantity * unit price over the line items.
func (o *Order) ComputeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.LineItems {
		line := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(line)
	}
	return total
}

// TransitionTo moves the order to the given status, rejecting transitions the
// lifecycle does not allow.
func (o *Order) TransitionTo(next OrderStatus) error {
	for _, allowed := range orderTransitions[o.Status] {
		if next == allowed {
			o.Status = next
			return nil
		}
	}
	return fmt.Errorf("invalid order status transition: %s -> %s", o.Status, next)
}

func (o *Order) validateLineItems() error {
	if len(o.LineItems) == 0 {
		return fmt.Errorf("order must have at least one line item")
	}
	for _, item := range o.LineItems {
		if item.Quantity <= 0 {
			return fmt.Errorf("line item quantity must be positive")
		}
		if item.UnitPrice.IsNegative() {
			return fmt.Errorf("line item unit price cannot be negative")
		}
	}
	return nil
}

// Validate checks the order before persistence and recomputes its total from
// the line items.
func (o *Order) Validate() error {
	if o.CustomerID == "" {
		return fmt.Errorf("order requires a customer")
	}
	if err := o.validateLineItems(); err != nil {
		return err
	}
	o.Total = o.ComputeTotal()
	return nil
}
