package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateUUIDWithSuffix(t *testing.T) {
	module := "test_module"
	id := GenerateUUIDWithSuffix(module)
	assert.Contains(t, id, module+"_")
}

func TestNowMillisRoundTrip(t *testing.T) {
	ms := NowMillis()
	restored := MillisToTime(ms)
	assert.WithinDuration(t, time.Now(), restored, time.Second)
}

func TestDriver_UpdateLocation(t *testing.T) {
	driver := &Driver{DriverID: GenerateUUIDWithSuffix("drv")}

	first := time.Now().Add(-time.Minute)
	applied := driver.UpdateLocation(25.033, 121.565, first)
	assert.True(t, applied)
	assert.Equal(t, 25.033, driver.LastLat)

	// A reading older than the stored one is ignored.
	stale := first.Add(-time.Hour)
	applied = driver.UpdateLocation(24.0, 120.0, stale)
	assert.False(t, applied)
	assert.Equal(t, 25.033, driver.LastLat)

	newer := first.Add(time.Minute)
	applied = driver.UpdateLocation(24.147, 120.673, newer)
	assert.True(t, applied)
	assert.Equal(t, 24.147, driver.LastLat)
	assert.Equal(t, newer, *driver.LastSeenAt)
}

func TestRoute_TransitionTo(t *testing.T) {
	route := &Route{Status: RoutePlanned}

	err := route.TransitionTo(RouteCompleted)
	assert.Error(t, err)
	assert.Equal(t, RoutePlanned, route.Status)

	assert.NoError(t, route.TransitionTo(RouteInProgress))
	assert.NoError(t, route.TransitionTo(RouteCompleted))

	err = route.TransitionTo(RouteInProgress)
	assert.Error(t, err)
}

func TestStatusNewerThan(t *testing.T) {
	assert.True(t, StatusNewerThan(RouteCompleted, RouteInProgress))
	assert.True(t, StatusNewerThan(RouteInProgress, RoutePlanned))
	assert.False(t, StatusNewerThan(RoutePlanned, RouteInProgress))
	assert.False(t, StatusNewerThan(RouteCompleted, RouteCompleted))
}

func TestRoute_StopForOrder(t *testing.T) {
	route := &Route{
		Stops: []RouteStop{
			{OrderID: "ord_1", Sequence: 1},
			{OrderID: "ord_2", Sequence: 2},
		},
	}

	stop := route.StopForOrder("ord_2")
	assert.NotNil(t, stop)
	assert.Equal(t, 2, stop.Sequence)

	stop.Completed = true
	assert.True(t, route.Stops[1].Completed)

	assert.Nil(t, route.StopForOrder("ord_missing"))
}
