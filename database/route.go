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

const routeColumns = `route_id, name, driver_id, status, date, stops, meta_data, created_at, updated_at`

func (d Datasource) CreateRoute(ctx context.Context, route model.Route) (model.Route, error) {
	stopsJSON, err := json.Marshal(route.Stops)
	if err != nil {
		return model.Route{}, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal stops", err)
	}
	metaDataJSON, err := json.Marshal(route.MetaData)
	if err != nil {
		return model.Route{}, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal metadata", err)
	}

	route.RouteID = model.GenerateUUIDWithSuffix("route")
	route.Status = model.RoutePlanned
	route.CreatedAt = time.Now()
	route.UpdatedAt = route.CreatedAt

	var driverID interface{}
	if route.DriverID != "" {
		driverID = route.DriverID
	}

	_, err = d.Conn.ExecContext(ctx, `
		INSERT INTO luckygas.routes (route_id, name, driver_id, status, date, stops, meta_data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, route.RouteID, route.Name, driverID, route.Status, route.Date, stopsJSON, metaDataJSON,
		route.CreatedAt, route.UpdatedAt)

	if err != nil {
		pqErr, ok := err.(*pq.Error)
		if ok {
			switch pqErr.Code.Name() {
			case "foreign_key_violation":
				return model.Route{}, apierror.NewAPIError(apierror.ErrBadRequest, "Driver does not exist", err)
			case "unique_violation":
				return model.Route{}, apierror.NewAPIError(apierror.ErrConflict, "Route already exists", err)
			default:
				return model.Route{}, apierror.NewAPIError(apierror.ErrInternalServer, "Database error occurred", err)
			}
		}
		return model.Route{}, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to create route", err)
	}

	return route, nil
}

func scanRoute(scanner interface {
	Scan(dest ...interface{}) error
}) (*model.Route, error) {
	route := model.Route{}
	var stopsJSON, metaDataJSON []byte
	var driverID sql.NullString

	err := scanner.Scan(&route.RouteID, &route.Name, &driverID, &route.Status, &route.Date,
		&stopsJSON, &metaDataJSON, &route.CreatedAt, &route.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if driverID.Valid {
		route.DriverID = driverID.String
	}
	if err := json.Unmarshal(stopsJSON, &route.Stops); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(metaDataJSON, &route.MetaData); err != nil {
		return nil, err
	}

	return &route, nil
}

func (d Datasource) GetRouteByID(ctx context.Context, id string) (*model.Route, error) {
	row := d.Conn.QueryRowContext(ctx, `
		SELECT `+routeColumns+`
		FROM luckygas.routes
		WHERE route_id = $1
	`, id)

	route, err := scanRoute(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, "Route not found", err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve route", err)
	}

	return route, nil
}

func (d Datasource) GetAllRoutes(ctx context.Context, filter model.RouteFilter) ([]model.Route, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT `+routeColumns+`
		FROM luckygas.routes
		WHERE ($1 = '' OR driver_id = $1)
		  AND ($2 = '' OR status = $2)
		  AND ($3::timestamp IS NULL OR date::date = $3::date)
		ORDER BY date DESC, created_at DESC
		LIMIT $4 OFFSET $5
	`, filter.DriverID, string(filter.Status), nullableTime(filter.Date), limit, filter.Offset)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve routes", err)
	}
	defer rows.Close()

	routes := []model.Route{}
	for rows.Next() {
		route, err := scanRoute(rows)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan route data", err)
		}
		routes = append(routes, *route)
	}

	if err = rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over routes", err)
	}

	return routes, nil
}

func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}

func (d Datasource) UpdateRouteStatus(ctx context.Context, id string, status model.RouteStatus) error {
	result, err := d.Conn.ExecContext(ctx, `
		UPDATE luckygas.routes SET status = $2, updated_at = NOW() WHERE route_id = $1
	`, id, status)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update route status", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to check update result", err)
	}
	if rows == 0 {
		return apierror.NewAPIError(apierror.ErrNotFound, "Route not found", nil)
	}

	return nil
}

func (d Datasource) AssignDriverToRoute(ctx context.Context, routeID, driverID string) error {
	result, err := d.Conn.ExecContext(ctx, `
		UPDATE luckygas.routes SET driver_id = $2, updated_at = NOW() WHERE route_id = $1
	`, routeID, driverID)
	if err != nil {
		pqErr, ok := err.(*pq.Error)
		if ok && pqErr.Code.Name() == "foreign_key_violation" {
			return apierror.NewAPIError(apierror.ErrBadRequest, "Driver does not exist", err)
		}
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to assign driver to route", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to check update result", err)
	}
	if rows == 0 {
		return apierror.NewAPIError(apierror.ErrNotFound, "Route not found", nil)
	}

	return nil
}

func (d Datasource) UpdateRouteStops(ctx context.Context, routeID string, stops []model.RouteStop) error {
	stopsJSON, err := json.Marshal(stops)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal stops", err)
	}

	result, err := d.Conn.ExecContext(ctx, `
		UPDATE luckygas.routes SET stops = $2, updated_at = NOW() WHERE route_id = $1
	`, routeID, stopsJSON)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update route stops", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to check update result", err)
	}
	if rows == 0 {
		return apierror.NewAPIError(apierror.ErrNotFound, "Route not found", nil)
	}

	return nil
}
