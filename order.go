package luckygas

import (
	"context"

	"github.com/luckygas/luckygas/internal/notification"
	"github.com/luckygas/luckygas/internal/search"
	"github.com/luckygas/luckygas/model"
)

func (l *LuckyGas) postOrderActions(_ context.Context, order *model.Order, event string) {
	go func() {
		err := l.queue.queueIndexData(order.OrderID, search.CollectionOrders, order)
		if err != nil {
			notification.NotifyError(err)
		}
		err = SendWebhook(NewWebhook{
			Event:   event,
			Payload: order,
		})
		if err != nil {
			notification.NotifyError(err)
		}
	}()
	l.events.Publish(model.NewEventMessage(model.EventOrderUpdated, order))
}

func (l *LuckyGas) CreateOrder(ctx context.Context, order model.Order) (model.Order, error) {
	order, err := l.datasource.CreateOrder(ctx, order)
	if err != nil {
		return model.Order{}, err
	}
	l.postOrderActions(ctx, &order, "order.created")
	return order, nil
}

func (l *LuckyGas) GetOrderByID(ctx context.Context, id string) (*model.Order, error) {
	return l.datasource.GetOrderByID(ctx, id)
}

func (l *LuckyGas) GetAllOrders(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	return l.datasource.GetAllOrders(ctx, filter)
}

// UpdateOrderStatus validates the lifecycle transition against the current
// state before persisting it.
func (l *LuckyGas) UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) (*model.Order, error) {
	order, err := l.datasource.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := order.TransitionTo(status); err != nil {
		return nil, err
	}

	if err := l.datasource.UpdateOrderStatus(ctx, id, status); err != nil {
		return nil, err
	}

	l.postOrderActions(ctx, order, "order.updated")
	return order, nil
}

// AssignOrderToRoute attaches an order to a route and appends a stop for it.
func (l *LuckyGas) AssignOrderToRoute(ctx context.Context, orderID, routeID string) error {
	route, err := l.datasource.GetRouteByID(ctx, routeID)
	if err != nil {
		return err
	}

	if err := l.datasource.AssignOrderToRoute(ctx, orderID, routeID); err != nil {
		return err
	}

	if route.StopForOrder(orderID) == nil {
		stops := append(route.Stops, model.RouteStop{OrderID: orderID, Sequence: len(route.Stops) + 1})
		if err := l.datasource.UpdateRouteStops(ctx, routeID, stops); err != nil {
			return err
		}
	}

	order, err := l.datasource.GetOrderByID(ctx, orderID)
	if err != nil {
		return err
	}
	l.postOrderActions(ctx, order, "order.updated")
	return nil
}
