package database

import (
	"context"
	"time"

	"github.com/lib/pq"
	"github.com/luckygas/luckygas/internal/apierror"
	"github.com/luckygas/luckygas/model"
)

// RecordSyncMutation appends an applied replay to the audit log. The unique
// index on idempotency_key makes a second insert with the same key fail with
// ErrConflict, which the ingestion layer treats as an already-applied replay.
func (d Datasource) RecordSyncMutation(ctx context.Context, mutation *model.SyncMutation) error {
	mutation.AppliedAt = time.Now()

	_, err := d.Conn.ExecContext(ctx, `
		INSERT INTO luckygas.sync_mutations (item_id, driver_id, type, payload, timestamp, idempotency_key, applied_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, mutation.ItemID, mutation.DriverID, mutation.Type, []byte(mutation.Payload),
		mutation.Timestamp, mutation.IdempotencyKey, mutation.AppliedAt)

	if err != nil {
		pqErr, ok := err.(*pq.Error)
		if ok && pqErr.Code.Name() == "unique_violation" {
			return apierror.NewAPIError(apierror.ErrConflict, "Mutation already applied", err)
		}
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to record sync mutation", err)
	}

	return nil
}

// SyncMutationApplied reports whether a mutation with the given idempotency
// key has already been applied. Used as the durable fallback when the Redis
// idempotency entry has expired.
func (d Datasource) SyncMutationApplied(ctx context.Context, idempotencyKey string) (bool, error) {
	var exists bool
	err := d.Conn.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM luckygas.sync_mutations WHERE idempotency_key = $1)
	`, idempotencyKey).Scan(&exists)
	if err != nil {
		return false, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to check sync mutation", err)
	}
	return exists, nil
}

func (d Datasource) GetSyncMutations(ctx context.Context, driverID string, limit, offset int) ([]model.SyncMutation, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT item_id, driver_id, type, payload, timestamp, idempotency_key, applied_at
		FROM luckygas.sync_mutations
		WHERE ($1 = '' OR driver_id = $1)
		ORDER BY applied_at DESC
		LIMIT $2 OFFSET $3
	`, driverID, limit, offset)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve sync mutations", err)
	}
	defer rows.Close()

	mutations := []model.SyncMutation{}
	for rows.Next() {
		mutation := model.SyncMutation{}
		var payload []byte
		err = rows.Scan(&mutation.ItemID, &mutation.DriverID, &mutation.Type, &payload,
			&mutation.Timestamp, &mutation.IdempotencyKey, &mutation.AppliedAt)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan sync mutation", err)
		}
		mutation.Payload = payload
		mutations = append(mutations, mutation)
	}

	if err = rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over sync mutations", err)
	}

	return mutations, nil
}
