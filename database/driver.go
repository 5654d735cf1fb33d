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

func (d Datasource) CreateDriver(ctx context.Context, driver model.Driver) (model.Driver, error) {
	metaDataJSON, err := json.Marshal(driver.MetaData)
	if err != nil {
		return model.Driver{}, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal metadata", err)
	}

	driver.DriverID = model.GenerateUUIDWithSuffix("drv")
	driver.IsAvailable = true
	driver.CreatedAt = time.Now()

	_, err = d.Conn.ExecContext(ctx, `
		INSERT INTO luckygas.drivers (driver_id, name, phone, vehicle, is_available, meta_data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, driver.DriverID, driver.Name, driver.Phone, driver.Vehicle, driver.IsAvailable,
		metaDataJSON, driver.CreatedAt)

	if err != nil {
		pqErr, ok := err.(*pq.Error)
		if ok && pqErr.Code.Name() == "unique_violation" {
			return model.Driver{}, apierror.NewAPIError(apierror.ErrConflict, "Driver with this phone or ID already exists", err)
		}
		return model.Driver{}, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to create driver", err)
	}

	return driver, nil
}

func scanDriver(scanner interface {
	Scan(dest ...interface{}) error
}) (*model.Driver, error) {
	driver := model.Driver{}
	var metaDataJSON []byte
	var lastSeenAt sql.NullTime
	var lastLat, lastLng sql.NullFloat64

	err := scanner.Scan(&driver.DriverID, &driver.Name, &driver.Phone, &driver.Vehicle,
		&driver.IsAvailable, &lastLat, &lastLng, &lastSeenAt, &metaDataJSON, &driver.CreatedAt)
	if err != nil {
		return nil, err
	}

	driver.LastLat = lastLat.Float64
	driver.LastLng = lastLng.Float64
	if lastSeenAt.Valid {
		driver.LastSeenAt = &lastSeenAt.Time
	}
	if err := json.Unmarshal(metaDataJSON, &driver.MetaData); err != nil {
		return nil, err
	}

	return &driver, nil
}

const driverColumns = `driver_id, name, phone, vehicle, is_available, last_lat, last_lng, last_seen_at, meta_data, created_at`

func (d Datasource) GetDriverByID(ctx context.Context, id string) (*model.Driver, error) {
	row := d.Conn.QueryRowContext(ctx, `
		SELECT `+driverColumns+`
		FROM luckygas.drivers
		WHERE driver_id = $1
	`, id)

	driver, err := scanDriver(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, "Driver not found", err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve driver", err)
	}

	return driver, nil
}

func (d Datasource) GetAllDrivers(ctx context.Context, filter model.DriverFilter) ([]model.Driver, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT `+driverColumns+`
		FROM luckygas.drivers
		WHERE ($1::boolean IS NULL OR is_available = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, filter.Available, limit, filter.Offset)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve drivers", err)
	}
	defer rows.Close()

	drivers := []model.Driver{}
	for rows.Next() {
		driver, err := scanDriver(rows)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan driver data", err)
		}
		drivers = append(drivers, *driver)
	}

	if err = rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over drivers", err)
	}

	return drivers, nil
}

// UpdateDriverLocation records the last known position. The WHERE clause
// enforces last-write-wins: a reading older than the stored one leaves the
// row untouched.
func (d Datasource) UpdateDriverLocation(ctx context.Context, driverID string, lat, lng float64, seenAt time.Time) error {
	result, err := d.Conn.ExecContext(ctx, `
		UPDATE luckygas.drivers
		SET last_lat = $2, last_lng = $3, last_seen_at = $4
		WHERE driver_id = $1 AND (last_seen_at IS NULL OR last_seen_at < $4)
	`, driverID, lat, lng, seenAt)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update driver location", err)
	}

	// Zero rows here can mean either an unknown driver or a stale reading;
	// both are acknowledged without error, matching the conflict policy.
	_, err = result.RowsAffected()
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to check update result", err)
	}

	return nil
}

func (d Datasource) SetDriverAvailability(ctx context.Context, driverID string, available bool) error {
	result, err := d.Conn.ExecContext(ctx, `
		UPDATE luckygas.drivers SET is_available = $2 WHERE driver_id = $1
	`, driverID, available)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update driver availability", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to check update result", err)
	}
	if rows == 0 {
		return apierror.NewAPIError(apierror.ErrNotFound, "Driver not found", nil)
	}

	return nil
}
