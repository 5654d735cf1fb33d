package luckygas

import (
	"context"

	"github.com/luckygas/luckygas/internal/notification"
	"github.com/luckygas/luckygas/internal/search"
	"github.com/luckygas/luckygas/model"
)

func (l *LuckyGas) postRouteActions(_ context.Context, route *model.Route, event string) {
	go func() {
		err := l.queue.queueIndexData(route.RouteID, search.CollectionRoutes, route)
		if err != nil {
			notification.NotifyError(err)
		}
		err = SendWebhook(NewWebhook{
			Event:   event,
			Payload: route,
		})
		if err != nil {
			notification.NotifyError(err)
		}
	}()
	l.events.Publish(model.NewEventMessage(model.EventRouteUpdated, route))
}

func (l *LuckyGas) CreateRoute(ctx context.Context, route model.Route) (model.Route, error) {
	route, err := l.datasource.CreateRoute(ctx, route)
	if err != nil {
		return model.Route{}, err
	}
	l.postRouteActions(ctx, &route, "route.created")
	return route, nil
}

func (l *LuckyGas) GetRouteByID(ctx context.Context, id string) (*model.Route, error) {
	return l.datasource.GetRouteByID(ctx, id)
}

func (l *LuckyGas) GetAllRoutes(ctx context.Context, filter model.RouteFilter) ([]model.Route, error) {
	return l.datasource.GetAllRoutes(ctx, filter)
}

// UpdateRouteStatus validates the lifecycle transition against the current
// state before persisting it.
func (l *LuckyGas) UpdateRouteStatus(ctx context.Context, id string, status model.RouteStatus) (*model.Route, error) {
	route, err := l.datasource.GetRouteByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := route.TransitionTo(status); err != nil {
		return nil, err
	}

	if err := l.datasource.UpdateRouteStatus(ctx, id, status); err != nil {
		return nil, err
	}

	l.postRouteActions(ctx, route, "route.updated")
	return route, nil
}

// AssignDriverToRoute assigns a driver and notifies dashboards and the driver
// via webhook.
func (l *LuckyGas) AssignDriverToRoute(ctx context.Context, routeID, driverID string) error {
	if _, err := l.datasource.GetDriverByID(ctx, driverID); err != nil {
		return err
	}

	if err := l.datasource.AssignDriverToRoute(ctx, routeID, driverID); err != nil {
		return err
	}

	route, err := l.datasource.GetRouteByID(ctx, routeID)
	if err != nil {
		return err
	}

	go func() {
		if err := SendWebhook(NewWebhook{Event: "route.assigned", Payload: route}); err != nil {
			notification.NotifyError(err)
		}
	}()
	l.events.Publish(model.NewEventMessage(model.EventRouteAssigned, route))
	return nil
}
