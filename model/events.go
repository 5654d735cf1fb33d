package model

// EventMessage is the envelope broadcast to dashboard websocket clients when
// server state changes.
type EventMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"`
}

const (
	EventOrderUpdated   = "order.updated"
	EventRouteAssigned  = "route.assigned"
	EventRouteUpdated   = "route.updated"
	EventDriverLocation = "driver.location"
	EventDeliveryDone   = "delivery.completed"
)

// NewEventMessage stamps an event with the current time.
func NewEventMessage(eventType string, data interface{}) EventMessage {
	return EventMessage{
		Type:      eventType,
		Data:      data,
		Timestamp: NowMillis(),
	}
}
