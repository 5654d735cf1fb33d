package luckygas

import (
	"context"

	"github.com/luckygas/luckygas/internal/notification"
	"github.com/luckygas/luckygas/internal/search"
	"github.com/luckygas/luckygas/model"
)

func (l *LuckyGas) CreateDriver(ctx context.Context, driver model.Driver) (model.Driver, error) {
	driver, err := l.datasource.CreateDriver(ctx, driver)
	if err != nil {
		return model.Driver{}, err
	}
	go func() {
		if err := l.queue.queueIndexData(driver.DriverID, search.CollectionDrivers, driver); err != nil {
			notification.NotifyError(err)
		}
	}()
	return driver, nil
}

func (l *LuckyGas) GetDriverByID(ctx context.Context, id string) (*model.Driver, error) {
	return l.datasource.GetDriverByID(ctx, id)
}

func (l *LuckyGas) GetAllDrivers(ctx context.Context, filter model.DriverFilter) ([]model.Driver, error) {
	return l.datasource.GetAllDrivers(ctx, filter)
}

func (l *LuckyGas) SetDriverAvailability(ctx context.Context, driverID string, available bool) error {
	return l.datasource.SetDriverAvailability(ctx, driverID, available)
}

// UpdateDriverLocation records a position reading and broadcasts it to
// dashboards. Stale readings are acknowledged without effect.
func (l *LuckyGas) UpdateDriverLocation(ctx context.Context, payload model.LocationUpdatePayload) error {
	seenAt := model.MillisToTime(payload.RecordedAt)
	err := l.datasource.UpdateDriverLocation(ctx, payload.DriverID, payload.Latitude, payload.Longitude, seenAt)
	if err != nil {
		return err
	}

	l.events.Publish(model.NewEventMessage(model.EventDriverLocation, payload))
	return nil
}
