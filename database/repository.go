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

package database

import (
	"context"
	"time"

	"github.com/luckygas/luckygas/model"
)

// IDataSource defines the interface for data source operations, grouping related functionalities.
type IDataSource interface {
	customer // Interface for customer-related operations
	order    // Interface for order-related operations
	route    // Interface for route-related operations
	driver   // Interface for driver-related operations
	delivery     // Interface for delivery-related operations
	syncMutation // Interface for replayed-mutation records
}

// customer defines methods for handling customers.
type customer interface {
	CreateCustomer(ctx context.Context, customer model.Customer) (model.Customer, error) // Creates a new customer
	GetCustomerByID(ctx context.Context, id string) (*model.Customer, error)            // Retrieves a customer by ID
	GetAllCustomers(ctx context.Context, filter model.CustomerFilter) ([]model.Customer, error)
	UpdateCustomer(ctx context.Context, customer *model.Customer) error // Updates a customer
	DeleteCustomer(ctx context.Context, id string) error               // Deactivates a customer
}

// order defines methods for handling orders.
type order interface {
	CreateOrder(ctx context.Context, order model.Order) (model.Order, error) // Creates a new order
	GetOrderByID(ctx context.Context, id string) (*model.Order, error)       // Retrieves an order by ID
	GetAllOrders(ctx context.Context, filter model.OrderFilter) ([]model.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) error      // Updates the status of an order
	AssignOrderToRoute(ctx context.Context, orderID, routeID string) error                 // Attaches an order to a route
	MarkOrderDelivered(ctx context.Context, id string, deliveredAt time.Time) error        // Finalizes an order after delivery
}

// route defines methods for handling delivery routes.
type route interface {
	CreateRoute(ctx context.Context, route model.Route) (model.Route, error) // Creates a new route
	GetRouteByID(ctx context.Context, id string) (*model.Route, error)       // Retrieves a route by ID
	GetAllRoutes(ctx context.Context, filter model.RouteFilter) ([]model.Route, error)
	UpdateRouteStatus(ctx context.Context, id string, status model.RouteStatus) error // Updates the status of a route
	AssignDriverToRoute(ctx context.Context, routeID, driverID string) error          // Assigns a driver to a route
	UpdateRouteStops(ctx context.Context, routeID string, stops []model.RouteStop) error
}

// driver defines methods for handling drivers.
type driver interface {
	CreateDriver(ctx context.Context, driver model.Driver) (model.Driver, error) // Creates a new driver
	GetDriverByID(ctx context.Context, id string) (*model.Driver, error)         // Retrieves a driver by ID
	GetAllDrivers(ctx context.Context, filter model.DriverFilter) ([]model.Driver, error)
	UpdateDriverLocation(ctx context.Context, driverID string, lat, lng float64, seenAt time.Time) error // Records the last known position
	SetDriverAvailability(ctx context.Context, driverID string, available bool) error
}

// delivery defines methods for handling delivery completion records.
type delivery interface {
	RecordDelivery(ctx context.Context, delivery *model.Delivery) (*model.Delivery, error) // Records a completed delivery
	GetDeliveryByID(ctx context.Context, id string) (*model.Delivery, error)               // Retrieves a delivery by ID
	GetDeliveryByOrderID(ctx context.Context, orderID string) (*model.Delivery, error)     // Retrieves the delivery for an order
	GetAllDeliveries(ctx context.Context, filter model.DeliveryFilter) ([]model.Delivery, error)
}

// syncMutation defines methods for the applied-mutation audit log.
type syncMutation interface {
	RecordSyncMutation(ctx context.Context, mutation *model.SyncMutation) error // Records an applied mutation
	SyncMutationApplied(ctx context.Context, idempotencyKey string) (bool, error)
	GetSyncMutations(ctx context.Context, driverID string, limit, offset int) ([]model.SyncMutation, error)
}
