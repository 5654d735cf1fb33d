/*
Copyright 2024 Lucky Gas Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/luckygas/luckygas/internal/apierror"
	"github.com/luckygas/luckygas/model"
	"github.com/stretchr/testify/assert"
)

func TestCreateCustomer_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	customer := model.Customer{
		Name:         "Chen Family Restaurant",
		Phone:        "0912345678",
		Address:      "No. 7, Lane 3",
		District:     "Xinyi",
		CylinderType: "20kg",
		MetaData:     map[string]interface{}{"source": "walk-in"},
	}

	mock.ExpectExec("INSERT INTO luckygas.customers").
		WillReturnResult(sqlmock.NewResult(1, 1))

	created, err := ds.CreateCustomer(context.Background(), customer)
	assert.NoError(t, err)
	assert.Contains(t, created.CustomerID, "cust_")
	assert.True(t, created.IsActive)
	assert.WithinDuration(t, time.Now(), created.CreatedAt, time.Second)
}

func TestCreateCustomer_UniqueViolation(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	mock.ExpectExec("INSERT INTO luckygas.customers").
		WillReturnError(&pq.Error{Code: "23505", Message: "unique_violation"})

	_, err = ds.CreateCustomer(context.Background(), model.Customer{Name: "Dup", Phone: "0912345678"})
	assert.Error(t, err)
	apiErr, ok := err.(apierror.APIError)
	assert.True(t, ok)
	assert.Equal(t, apierror.ErrConflict, apiErr.Code)
}

func TestGetCustomerByID_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	now := time.Now()
	rows := sqlmock.NewRows([]string{"customer_id", "name", "phone", "address", "district", "latitude", "longitude", "cylinder_type", "notes", "is_active", "meta_data", "created_at", "updated_at"}).
		AddRow("cust_123", "Chen Family Restaurant", "0912345678", "No. 7, Lane 3", "Xinyi", 25.03, 121.56, "20kg", "", true, []byte(`{"source":"walk-in"}`), now, now)

	mock.ExpectQuery("SELECT .* FROM luckygas.customers WHERE customer_id =").
		WithArgs("cust_123").
		WillReturnRows(rows)

	customer, err := ds.GetCustomerByID(context.Background(), "cust_123")
	assert.NoError(t, err)
	assert.Equal(t, "Chen Family Restaurant", customer.Name)
	assert.Equal(t, "walk-in", customer.MetaData["source"])
}

func TestGetCustomerByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	mock.ExpectQuery("SELECT .* FROM luckygas.customers WHERE customer_id =").
		WithArgs("cust_missing").
		WillReturnRows(sqlmock.NewRows([]string{"customer_id"}))

	_, err = ds.GetCustomerByID(context.Background(), "cust_missing")
	assert.Error(t, err)
	apiErr, ok := err.(apierror.APIError)
	assert.True(t, ok)
	assert.Equal(t, apierror.ErrNotFound, apiErr.Code)
}

func TestUpdateCustomer_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	mock.ExpectExec("UPDATE luckygas.customers").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = ds.UpdateCustomer(context.Background(), &model.Customer{CustomerID: "cust_missing"})
	assert.Error(t, err)
	apiErr, ok := err.(apierror.APIError)
	assert.True(t, ok)
	assert.Equal(t, apierror.ErrNotFound, apiErr.Code)
}

func TestDeleteCustomer_Deactivates(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	mock.ExpectExec("UPDATE luckygas.customers SET is_active = false").
		WithArgs("cust_123").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = ds.DeleteCustomer(context.Background(), "cust_123")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
