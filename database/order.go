package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lib/pq"
	"github.com/luckygas/luckygas/internal/apierror"
	"github.com/luckygas/luckygas/model"
	"github.com/shopspring/decimal"
)

func (d Datasource) CreateOrder(ctx context.Context, order model.Order) (model.Order, error) {
	if err := order.Validate(); err != nil {
		return model.Order{}, apierror.NewAPIError(apierror.ErrInvalidInput, err.Error(), err)
	}

	lineItemsJSON, err := json.Marshal(order.LineItems)
	if err != nil {
		return model.Order{}, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal line items", err)
	}
	metaDataJSON, err := json.Marshal(order.MetaData)
	if err != nil {
		return model.Order{}, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal metadata", err)
	}

	order.OrderID = model.GenerateUUIDWithSuffix("ord")
	order.Status = model.OrderPending
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt

	_, err = d.Conn.ExecContext(ctx, `
		INSERT INTO luckygas.orders (order_id, customer_id, status, line_items, total, scheduled_date, meta_data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, order.OrderID, order.CustomerID, order.Status, lineItemsJSON, order.Total.String(),
		order.ScheduledDate, metaDataJSON, order.CreatedAt, order.UpdatedAt)

	if err != nil {
		pqErr, ok := err.(*pq.Error)
		if ok {
			switch pqErr.Code.Name() {
			case "foreign_key_violation":
				return model.Order{}, apierror.NewAPIError(apierror.ErrBadRequest, "Customer does not exist", err)
			case "unique_violation":
				return model.Order{}, apierror.NewAPIError(apierror.ErrConflict, "Order already exists", err)
			default:
				return model.Order{}, apierror.NewAPIError(apierror.ErrInternalServer, "Database error occurred", err)
			}
		}
		return model.Order{}, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to create order", err)
	}

	return order, nil
}

func scanOrder(scanner interface {
	Scan(dest ...interface{}) error
}) (*model.Order, error) {
	order := model.Order{}
	var lineItemsJSON, metaDataJSON []byte
	var routeID sql.NullString
	var total string
	var deliveredAt sql.NullTime

	err := scanner.Scan(&order.OrderID, &order.CustomerID, &routeID, &order.Status,
		&lineItemsJSON, &total, &order.ScheduledDate, &deliveredAt, &metaDataJSON,
		&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if routeID.Valid {
		order.RouteID = routeID.String
	}
	if deliveredAt.Valid {
		order.DeliveredAt = &deliveredAt.Time
	}
	if err := json.Unmarshal(lineItemsJSON, &order.LineItems); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(metaDataJSON, &order.MetaData); err != nil {
		return nil, err
	}
	order.Total, err = decimal.NewFromString(total)
	if err != nil {
		return nil, err
	}

	return &order, nil
}

const orderColumns = `order_id, customer_id, route_id, status, line_items, total, scheduled_date, delivered_at, meta_data, created_at, updated_at`

func (d Datasource) GetOrderByID(ctx context.Context, id string) (*model.Order, error) {
	row := d.Conn.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM luckygas.orders
		WHERE order_id = $1
	`, id)

	order, err := scanOrder(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, "Order not found", err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve order", err)
	}

	return order, nil
}

func (d Datasource) GetAllOrders(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM luckygas.orders
		WHERE ($1 = '' OR customer_id = $1)
		  AND ($2 = '' OR route_id = $2)
		  AND ($3 = '' OR status = $3)
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5
	`, filter.CustomerID, filter.RouteID, string(filter.Status), limit, filter.Offset)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve orders", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan order data", err)
		}
		orders = append(orders, *order)
	}

	if err = rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over orders", err)
	}

	return orders, nil
}

func (d Datasource) UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) error {
	result, err := d.Conn.ExecContext(ctx, `
		UPDATE luckygas.orders SET status = $2, updated_at = NOW() WHERE order_id = $1
	`, id, status)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update order status", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to check update result", err)
	}
	if rows == 0 {
		return apierror.NewAPIError(apierror.ErrNotFound, "Order not found", nil)
	}

	return nil
}

func (d Datasource) AssignOrderToRoute(ctx context.Context, orderID, routeID string) error {
	result, err := d.Conn.ExecContext(ctx, `
		UPDATE luckygas.orders SET route_id = $2, status = $3, updated_at = NOW() WHERE order_id = $1
	`, orderID, routeID, model.OrderAssigned)
	if err != nil {
		pqErr, ok := err.(*pq.Error)
		if ok && pqErr.Code.Name() == "foreign_key_violation" {
			return apierror.NewAPIError(apierror.ErrBadRequest, "Route does not exist", err)
		}
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to assign order to route", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to check update result", err)
	}
	if rows == 0 {
		return apierror.NewAPIError(apierror.ErrNotFound, "Order not found", nil)
	}

	return nil
}

func (d Datasource) MarkOrderDelivered(ctx context.Context, id string, deliveredAt time.Time) error {
	result, err := d.Conn.ExecContext(ctx, `
		UPDATE luckygas.orders SET status = $2, delivered_at = $3, updated_at = NOW() WHERE order_id = $1
	`, id, model.OrderDelivered, deliveredAt)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to mark order delivered", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to check update result", err)
	}
	if rows == 0 {
		return apierror.NewAPIError(apierror.ErrNotFound, "Order not found", nil)
	}

	return nil
}
