package model

import (
	"fmt"
	"time"
)

type RouteStatus string

const (
	RoutePlanned    RouteStatus = "planned"
	RouteInProgress RouteStatus = "in_progress"
	RouteCompleted  RouteStatus = "completed"
)

var routeTransitions = map[RouteStatus][]RouteStatus{
	RoutePlanned:    {RouteInProgress},
	RouteInProgress: {RouteCompleted},
}

// routeStatusRank orders route statuses along the lifecycle so that stale
// status mutations replayed out of order can be recognized and skipped.
var routeStatusRank = map[RouteStatus]int{
	RoutePlanned:    0,
	RouteInProgress: 1,
	RouteCompleted:  2,
}

type RouteStop struct {
	OrderID   string     `json:"order_id"`
	Sequence  int        `json:"sequence"`
	Completed bool       `json:"completed"`
	ArrivedAt *time.Time `json:"arrived_at,omitempty"`
}

type Route struct {
	ID        int64                  `json:"-"`
	RouteID   string                 `json:"route_id"`
	Name      string                 `json:"name"`
	DriverID  string                 `json:"driver_id,omitempty"`
	Status    RouteStatus            `json:"status"`
	Date      time.Time              `json:"date"`
	Stops     []RouteStop            `json:"stops"`
	MetaData  map[string]interface{} `json:"meta_data"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

type RouteFilter struct {
	DriverID string      `json:"driver_id"`
	Status   RouteStatus `json:"status"`
	Date     time.Time   `json:"date"`
	Limit    int         `json:"limit"`
	Offset   int         `json:"offset"`
}

func ValidRouteStatus(s RouteStatus) bool {
	_, ok := routeStatusRank[s]
	return ok
}

// StatusNewerThan reports whether candidate is further along the route
// lifecycle than current.
func StatusNewerThan(candidate, current RouteStatus) bool {
	return routeStatusRank[candidate] > routeStatusRank[current]
}

// TransitionTo moves the route to the given status, rejecting transitions the
// lifecycle does not allow.
func (r *Route) TransitionTo(next RouteStatus) error {
	for _, allowed := range routeTransitions[r.Status] {
		if next == allowed {
			r.Status = next
			return nil
		}
	}
	return fmt.Errorf("invalid route status transition: %s -> %s", r.Status, next)
}

// StopForOrder returns the stop carrying the given order, or nil.
func (r *Route) StopForOrder(orderID string) *RouteStop {
	for i := range r.Stops {
		if r.Stops[i].OrderID == orderID {
			return &r.Stops[i]
		}
	}
	return nil
}
