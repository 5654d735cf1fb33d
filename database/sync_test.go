package database

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/luckygas/luckygas/internal/apierror"
	"github.com/luckygas/luckygas/model"
	"github.com/stretchr/testify/assert"
)

func TestRecordSyncMutation_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	mutation := &model.SyncMutation{
		ItemID:         "qitem_1",
		DriverID:       "drv_1",
		Type:           model.MutationDeliveryCompletion,
		Payload:        json.RawMessage(`{"order_id":"ord_1"}`),
		Timestamp:      model.NowMillis(),
		IdempotencyKey: "idem_1",
	}

	mock.ExpectExec("INSERT INTO luckygas.sync_mutations").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = ds.RecordSyncMutation(context.Background(), mutation)
	assert.NoError(t, err)
	assert.WithinDuration(t, time.Now(), mutation.AppliedAt, time.Second)
}

func TestRecordSyncMutation_Duplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	mock.ExpectExec("INSERT INTO luckygas.sync_mutations").
		WillReturnError(&pq.Error{Code: "23505", Message: "unique_violation"})

	err = ds.RecordSyncMutation(context.Background(), &model.SyncMutation{
		ItemID:         "qitem_1",
		IdempotencyKey: "idem_1",
	})
	assert.Error(t, err)
	apiErr, ok := err.(apierror.APIError)
	assert.True(t, ok)
	assert.Equal(t, apierror.ErrConflict, apiErr.Code)
}

func TestSyncMutationApplied(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("idem_1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	applied, err := ds.SyncMutationApplied(context.Background(), "idem_1")
	assert.NoError(t, err)
	assert.True(t, applied)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("idem_2").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	applied, err = ds.SyncMutationApplied(context.Background(), "idem_2")
	assert.NoError(t, err)
	assert.False(t, applied)
}

func TestGetSyncMutations(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	now := time.Now()
	rows := sqlmock.NewRows([]string{"item_id", "driver_id", "type", "payload", "timestamp", "idempotency_key", "applied_at"}).
		AddRow("qitem_2", "drv_1", "location_update", []byte(`{}`), now.UnixMilli(), "idem_2", now).
		AddRow("qitem_1", "drv_1", "delivery_completion", []byte(`{"order_id":"ord_1"}`), now.UnixMilli(), "idem_1", now)

	mock.ExpectQuery("SELECT .* FROM luckygas.sync_mutations").
		WithArgs("drv_1", 50, 0).
		WillReturnRows(rows)

	mutations, err := ds.GetSyncMutations(context.Background(), "drv_1", 0, 0)
	assert.NoError(t, err)
	assert.Len(t, mutations, 2)
	assert.Equal(t, model.MutationLocationUpdate, mutations[0].Type)
}
