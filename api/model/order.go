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
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/luckygas/luckygas/model"
)

type LineItemInput struct {
	CylinderSize string `json:"cylinder_size"`
	Quantity     int    `json:"quantity"`
	UnitPrice    string `json:"unit_price"`
}

type CreateOrder struct {
	CustomerID    string                 `json:"customer_id"`
	LineItems     []LineItemInput        `json:"line_items"`
	ScheduledDate string                 `json:"scheduled_date"`
	MetaData      map[string]interface{} `json:"meta_data"`
}

func (o *CreateOrder) ValidateCreateOrder() error {
	return validation.ValidateStruct(o,
		validation.Field(&o.CustomerID, validation.Required),
		validation.Field(&o.LineItems, validation.Required, validation.Length(1, 0)),
		validation.Field(&o.ScheduledDate, validation.By(func(value interface{}) error {
			date, _ := value.(string)
			if date == "" {
				return nil
			}
			if _, err := time.Parse("2006-01-02", date); err != nil {
				return errors.New("please format the scheduled date as 'YYYY-MM-DD' (e.g., 2026-08-26)")
			}
			return nil
		})),
	)
}

// ToOrder builds the domain order, parsing unit prices into decimals. Price
// and quantity rules are enforced again by Order.Validate before persisting.
func (o *CreateOrder) ToOrder() (model.Order, error) {
	order := model.Order{
		CustomerID: o.CustomerID,
		Status:     model.OrderPending,
		MetaData:   o.MetaData,
	}

	if o.ScheduledDate != "" {
		date, err := time.Parse("2006-01-02", o.ScheduledDate)
		if err != nil {
			return model.Order{}, errors.Wrap(err, "parsing scheduled date")
		}
		order.ScheduledDate = date
	}

	for _, item := range o.LineItems {
		price, err := decimal.NewFromString(item.UnitPrice)
		if err != nil {
			return model.Order{}, errors.Errorf("invalid unit price %q", item.UnitPrice)
		}
		order.LineItems = append(order.LineItems, model.LineItem{
			CylinderSize: item.CylinderSize,
			Quantity:     item.Quantity,
			UnitPrice:    price,
		})
	}

	return order, nil
}

type UpdateOrderStatus struct {
	Status string `json:"status"`
}

func (u *UpdateOrderStatus) ValidateUpdateOrderStatus() error {
	return validation.ValidateStruct(u,
		validation.Field(&u.Status, validation.Required, validation.In(
			string(model.OrderConfirmed),
			string(model.OrderAssigned),
			string(model.OrderInDelivery),
			string(model.OrderDelivered),
			string(model.OrderCancelled),
		)),
	)
}

type AssignOrderToRoute struct {
	RouteID string `json:"route_id"`
}

func (a *AssignOrderToRoute) ValidateAssignOrderToRoute() error {
	return validation.ValidateStruct(a,
		validation.Field(&a.RouteID, validation.Required),
	)
}
