package model

import "time"

// Delivery is the completion record written when a driver finishes an order,
// either live or replayed from the offline queue.
type Delivery struct {
	ID                 int64                  `json:"-"`
	DeliveryID         string                 `json:"delivery_id"`
	OrderID            string                 `json:"order_id"`
	RouteID            string                 `json:"route_id,omitempty"`
	DriverID           string                 `json:"driver_id"`
	CylindersDelivered int                    `json:"cylinders_delivered"`
	CylindersCollected int                    `json:"cylinders_collected"`
	Signature          string                 `json:"signature,omitempty"`
	Notes              string                 `json:"notes,omitempty"`
	CompletedAt        time.Time              `json:"completed_at"`
	MetaData           map[string]interface{} `json:"meta_data"`
	CreatedAt          time.Time              `json:"created_at"`
}

type DeliveryFilter struct {
	OrderID  string    `json:"order_id"`
	DriverID string    `json:"driver_id"`
	From     time.Time `json:"from"`
	To       time.Time `json:"to"`
	Limit    int       `json:"limit"`
	Offset   int       `json:"offset"`
}
