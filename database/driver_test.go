package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/luckygas/luckygas/internal/apierror"
	"github.com/luckygas/luckygas/model"
	"github.com/stretchr/testify/assert"
)

func TestCreateDriver_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	mock.ExpectExec("INSERT INTO luckygas.drivers").
		WillReturnResult(sqlmock.NewResult(1, 1))

	created, err := ds.CreateDriver(context.Background(), model.Driver{Name: "Lin", Phone: "0988111222"})
	assert.NoError(t, err)
	assert.Contains(t, created.DriverID, "drv_")
	assert.True(t, created.IsAvailable)
}

func TestUpdateDriverLocation_StaleReadingIsAcknowledged(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	// The guarded WHERE clause matches no row for a stale reading. That is
	// not an error: the mutation is acknowledged and skipped.
	mock.ExpectExec("UPDATE luckygas.drivers").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = ds.UpdateDriverLocation(context.Background(), "drv_1", 25.03, 121.56, time.Now().Add(-time.Hour))
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetDriverAvailability_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	mock.ExpectExec("UPDATE luckygas.drivers SET is_available =").
		WithArgs("drv_missing", false).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = ds.SetDriverAvailability(context.Background(), "drv_missing", false)
	assert.Error(t, err)
	apiErr, ok := err.(apierror.APIError)
	assert.True(t, ok)
	assert.Equal(t, apierror.ErrNotFound, apiErr.Code)
}

func TestRecordDelivery_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	mock.ExpectExec("INSERT INTO luckygas.deliveries").
		WillReturnResult(sqlmock.NewResult(1, 1))

	delivery := &model.Delivery{
		OrderID:            "ord_1",
		DriverID:           "drv_1",
		CylindersDelivered: 2,
		CylindersCollected: 2,
		CompletedAt:        time.Now(),
	}

	recorded, err := ds.RecordDelivery(context.Background(), delivery)
	assert.NoError(t, err)
	assert.Contains(t, recorded.DeliveryID, "dlv_")
}
