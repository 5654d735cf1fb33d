package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lib/pq"
	"github.com/luckygas/luckygas/internal/apierror"
	"github.com/luckygas/luckygas/model"
)

const deliveryColumns = `delivery_id, order_id, route_id, driver_id, cylinders_delivered, cylinders_collected, signature, notes, completed_at, meta_data, created_at`

func (d Datasource) RecordDelivery(ctx context.Context, delivery *model.Delivery) (*model.Delivery, error) {
	metaDataJSON, err := json.Marshal(delivery.MetaData)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal metadata", err)
	}

	delivery.DeliveryID = model.GenerateUUIDWithSuffix("dlv")
	delivery.CreatedAt = time.Now()

	var routeID interface{}
	if delivery.RouteID != "" {
		routeID = delivery.RouteID
	}

	_, err = d.Conn.ExecContext(ctx, `
		INSERT INTO luckygas.deliveries (delivery_id, order_id, route_id, driver_id, cylinders_delivered, cylinders_collected, signature, notes, completed_at, meta_data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, delivery.DeliveryID, delivery.OrderID, routeID, delivery.DriverID,
		delivery.CylindersDelivered, delivery.CylindersCollected, delivery.Signature,
		delivery.Notes, delivery.CompletedAt, metaDataJSON, delivery.CreatedAt)

	if err != nil {
		pqErr, ok := err.(*pq.Error)
		if ok {
			switch pqErr.Code.Name() {
			case "unique_violation":
				return nil, apierror.NewAPIError(apierror.ErrConflict, "Delivery already recorded for this order", err)
			case "foreign_key_violation":
				return nil, apierror.NewAPIError(apierror.ErrBadRequest, "Order or driver does not exist", err)
			default:
				return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Database error occurred", err)
			}
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to record delivery", err)
	}

	return delivery, nil
}

func scanDelivery(scanner interface {
	Scan(dest ...interface{}) error
}) (*model.Delivery, error) {
	delivery := model.Delivery{}
	var metaDataJSON []byte
	var routeID sql.NullString

	err := scanner.Scan(&delivery.DeliveryID, &delivery.OrderID, &routeID, &delivery.DriverID,
		&delivery.CylindersDelivered, &delivery.CylindersCollected, &delivery.Signature,
		&delivery.Notes, &delivery.CompletedAt, &metaDataJSON, &delivery.CreatedAt)
	if err != nil {
		return nil, err
	}

	if routeID.Valid {
		delivery.RouteID = routeID.String
	}
	if err := json.Unmarshal(metaDataJSON, &delivery.MetaData); err != nil {
		return nil, err
	}

	return &delivery, nil
}

func (d Datasource) GetDeliveryByID(ctx context.Context, id string) (*model.Delivery, error) {
	row := d.Conn.QueryRowContext(ctx, `
		SELECT `+deliveryColumns+`
		FROM luckygas.deliveries
		WHERE delivery_id = $1
	`, id)

	delivery, err := scanDelivery(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, "Delivery not found", err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve delivery", err)
	}

	return delivery, nil
}

func (d Datasource) GetDeliveryByOrderID(ctx context.Context, orderID string) (*model.Delivery, error) {
	row := d.Conn.QueryRowContext(ctx, `
		SELECT `+deliveryColumns+`
		FROM luckygas.deliveries
		WHERE order_id = $1
	`, orderID)

	delivery, err := scanDelivery(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, "Delivery not found for order", err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve delivery", err)
	}

	return delivery, nil
}

func (d Datasource) GetAllDeliveries(ctx context.Context, filter model.DeliveryFilter) ([]model.Delivery, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT `+deliveryColumns+`
		FROM luckygas.deliveries
		WHERE ($1 = '' OR order_id = $1)
		  AND ($2 = '' OR driver_id = $2)
		ORDER BY completed_at DESC
		LIMIT $3 OFFSET $4
	`, filter.OrderID, filter.DriverID, limit, filter.Offset)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve deliveries", err)
	}
	defer rows.Close()

	deliveries := []model.Delivery{}
	for rows.Next() {
		delivery, err := scanDelivery(rows)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan delivery data", err)
		}
		deliveries = append(deliveries, *delivery)
	}

	if err = rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over deliveries", err)
	}

	return deliveries, nil
}
