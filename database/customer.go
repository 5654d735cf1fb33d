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

func (d Datasource) CreateCustomer(ctx context.Context, customer model.Customer) (model.Customer, error) {
	metaDataJSON, err := json.Marshal(customer.MetaData)
	if err != nil {
		return model.Customer{}, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal metadata", err)
	}

	customer.CustomerID = model.GenerateUUIDWithSuffix("cust")
	customer.IsActive = true
	customer.CreatedAt = time.Now()
	customer.UpdatedAt = customer.CreatedAt

	_, err = d.Conn.ExecContext(ctx, `
		INSERT INTO luckygas.customers (customer_id, name, phone, address, district, latitude, longitude, cylinder_type, notes, is_active, meta_data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, customer.CustomerID, customer.Name, customer.Phone, customer.Address, customer.District,
		customer.Latitude, customer.Longitude, customer.CylinderType, customer.Notes,
		customer.IsActive, metaDataJSON, customer.CreatedAt, customer.UpdatedAt)

	if err != nil {
		pqErr, ok := err.(*pq.Error)
		if ok {
			switch pqErr.Code.Name() {
			case "unique_violation":
				return model.Customer{}, apierror.NewAPIError(apierror.ErrConflict, "Customer with this phone or ID already exists", err)
			default:
				return model.Customer{}, apierror.NewAPIError(apierror.ErrInternalServer, "Database error occurred", err)
			}
		}
		return model.Customer{}, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to create customer", err)
	}

	return customer, nil
}

func (d Datasource) GetCustomerByID(ctx context.Context, id string) (*model.Customer, error) {
	customer := model.Customer{}

	row := d.Conn.QueryRowContext(ctx, `
		SELECT customer_id, name, phone, address, district, latitude, longitude, cylinder_type, notes, is_active, meta_data, created_at, updated_at
		FROM luckygas.customers
		WHERE customer_id = $1
	`, id)

	var metaDataJSON []byte
	err := row.Scan(&customer.CustomerID, &customer.Name, &customer.Phone, &customer.Address,
		&customer.District, &customer.Latitude, &customer.Longitude, &customer.CylinderType,
		&customer.Notes, &customer.IsActive, &metaDataJSON, &customer.CreatedAt, &customer.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, "Customer not found", err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve customer", err)
	}

	err = json.Unmarshal(metaDataJSON, &customer.MetaData)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to unmarshal metadata", err)
	}

	return &customer, nil
}

func (d Datasource) GetAllCustomers(ctx context.Context, filter model.CustomerFilter) ([]model.Customer, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT customer_id, name, phone, address, district, latitude, longitude, cylinder_type, notes, is_active, meta_data, created_at, updated_at
		FROM luckygas.customers
		WHERE ($1 = '' OR district = $1)
		  AND ($2::boolean IS NULL OR is_active = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`, filter.District, filter.Active, limit, filter.Offset)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve customers", err)
	}
	defer rows.Close()

	customers := []model.Customer{}

	for rows.Next() {
		customer := model.Customer{}
		var metaDataJSON []byte
		err = rows.Scan(&customer.CustomerID, &customer.Name, &customer.Phone, &customer.Address,
			&customer.District, &customer.Latitude, &customer.Longitude, &customer.CylinderType,
			&customer.Notes, &customer.IsActive, &metaDataJSON, &customer.CreatedAt, &customer.UpdatedAt)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan customer data", err)
		}

		err = json.Unmarshal(metaDataJSON, &customer.MetaData)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to unmarshal metadata", err)
		}

		customers = append(customers, customer)
	}

	if err = rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over customers", err)
	}

	return customers, nil
}

func (d Datasource) UpdateCustomer(ctx context.Context, customer *model.Customer) error {
	metaDataJSON, err := json.Marshal(customer.MetaData)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal metadata", err)
	}

	customer.UpdatedAt = time.Now()

	result, err := d.Conn.ExecContext(ctx, `
		UPDATE luckygas.customers
		SET name = $2, phone = $3, address = $4, district = $5, latitude = $6, longitude = $7, cylinder_type = $8, notes = $9, meta_data = $10, updated_at = $11
		WHERE customer_id = $1
	`, customer.CustomerID, customer.Name, customer.Phone, customer.Address, customer.District,
		customer.Latitude, customer.Longitude, customer.CylinderType, customer.Notes,
		metaDataJSON, customer.UpdatedAt)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update customer", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to check update result", err)
	}
	if rows == 0 {
		return apierror.NewAPIError(apierror.ErrNotFound, "Customer not found", nil)
	}

	return nil
}

// DeleteCustomer deactivates a customer. Rows are kept so historical orders
// keep resolving.
func (d Datasource) DeleteCustomer(ctx context.Context, id string) error {
	result, err := d.Conn.ExecContext(ctx, `
		UPDATE luckygas.customers SET is_active = false, updated_at = NOW() WHERE customer_id = $1
	`, id)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to delete customer", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to check delete result", err)
	}
	if rows == 0 {
		return apierror.NewAPIError(apierror.ErrNotFound, "Customer not found", nil)
	}

	return nil
}
