package luckygas

import (
	"context"
	"time"

	"github.com/luckygas/luckygas/internal/apierror"
	"github.com/luckygas/luckygas/internal/notification"
	"github.com/luckygas/luckygas/internal/search"
	"github.com/luckygas/luckygas/model"
)

// CompleteDelivery records a delivery completion and finalizes the order.
// It is the shared path for live completions from the driver app and queued
// completions replayed after reconnect.
func (l *LuckyGas) CompleteDelivery(ctx context.Context, payload model.DeliveryCompletionPayload) (*model.Delivery, error) {
	order, err := l.datasource.GetOrderByID(ctx, payload.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status == model.OrderDelivered {
		return nil, apierror.NewAPIError(apierror.ErrConflict, "Order already delivered", nil)
	}

	completedAt := model.MillisToTime(payload.CompletedAt)
	delivery := &model.Delivery{
		OrderID:            payload.OrderID,
		RouteID:            payload.RouteID,
		DriverID:           payload.DriverID,
		CylindersDelivered: payload.CylindersDelivered,
		CylindersCollected: payload.CylindersCollected,
		Signature:          payload.Signature,
		Notes:              payload.Notes,
		CompletedAt:        completedAt,
	}

	delivery, err = l.datasource.RecordDelivery(ctx, delivery)
	if err != nil {
		return nil, err
	}

	if err := l.datasource.MarkOrderDelivered(ctx, payload.OrderID, completedAt); err != nil {
		return nil, err
	}

	if payload.RouteID != "" {
		l.completeRouteStop(ctx, payload.RouteID, payload.OrderID, completedAt)
	}

	go func() {
		if err := l.queue.queueIndexData(delivery.DeliveryID, search.CollectionDeliveries, delivery); err != nil {
			notification.NotifyError(err)
		}
		if err := SendWebhook(NewWebhook{Event: "delivery.completed", Payload: delivery}); err != nil {
			notification.NotifyError(err)
		}
	}()
	l.events.Publish(model.NewEventMessage(model.EventDeliveryDone, delivery))

	return delivery, nil
}

// completeRouteStop marks the order's stop done on its route. A missing stop
// is not an error; dispatch may complete ad-hoc orders outside a route plan.
func (l *LuckyGas) completeRouteStop(ctx context.Context, routeID, orderID string, arrivedAt time.Time) {
	route, err := l.datasource.GetRouteByID(ctx, routeID)
	if err != nil {
		notification.NotifyError(err)
		return
	}

	stop := route.StopForOrder(orderID)
	if stop == nil {
		return
	}
	stop.Completed = true
	stop.ArrivedAt = &arrivedAt

	if err := l.datasource.UpdateRouteStops(ctx, routeID, route.Stops); err != nil {
		notification.NotifyError(err)
	}
}

func (l *LuckyGas) GetDeliveryByID(ctx context.Context, id string) (*model.Delivery, error) {
	return l.datasource.GetDeliveryByID(ctx, id)
}

func (l *LuckyGas) GetAllDeliveries(ctx context.Context, filter model.DeliveryFilter) ([]model.Delivery, error) {
	return l.datasource.GetAllDeliveries(ctx, filter)
}
