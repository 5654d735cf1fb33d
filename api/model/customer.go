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
package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/luckygas/luckygas/model"
)

type CreateCustomer struct {
	Name         string                 `json:"name"`
	Phone        string                 `json:"phone"`
	Address      string                 `json:"address"`
	District     string                 `json:"district"`
	Latitude     float64                `json:"latitude"`
	Longitude    float64                `json:"longitude"`
	CylinderType string                 `json:"cylinder_type"`
	Notes        string                 `json:"notes"`
	MetaData     map[string]interface{} `json:"meta_data"`
}

func (c *CreateCustomer) ValidateCreateCustomer() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.Phone, validation.Required),
		validation.Field(&c.Address, validation.Required),
		validation.Field(&c.Latitude, validation.Min(-90.0), validation.Max(90.0)),
		validation.Field(&c.Longitude, validation.Min(-180.0), validation.Max(180.0)),
	)
}

func (c *CreateCustomer) ToCustomer() model.Customer {
	return model.Customer{
		Name:         c.Name,
		Phone:        c.Phone,
		Address:      c.Address,
		District:     c.District,
		Latitude:     c.Latitude,
		Longitude:    c.Longitude,
		CylinderType: c.CylinderType,
		Notes:        c.Notes,
		IsActive:     true,
		MetaData:     c.MetaData,
	}
}

type UpdateCustomer struct {
	Name         string                 `json:"name"`
	Phone        string                 `json:"phone"`
	Address      string                 `json:"address"`
	District     string                 `json:"district"`
	Latitude     float64                `json:"latitude"`
	Longitude    float64                `json:"longitude"`
	CylinderType string                 `json:"cylinder_type"`
	Notes        string                 `json:"notes"`
	IsActive     *bool                  `json:"is_active"`
	MetaData     map[string]interface{} `json:"meta_data"`
}

func (u *UpdateCustomer) ValidateUpdateCustomer() error {
	return validation.ValidateStruct(u,
		validation.Field(&u.Latitude, validation.Min(-90.0), validation.Max(90.0)),
		validation.Field(&u.Longitude, validation.Min(-180.0), validation.Max(180.0)),
	)
}

// ApplyTo overlays the submitted fields onto an existing customer. Empty
// strings leave the stored value alone so partial updates stay partial.
func (u *UpdateCustomer) ApplyTo(customer *model.Customer) {
	if u.Name != "" {
		customer.Name = u.Name
	}
	if u.Phone != "" {
		customer.Phone = u.Phone
	}
	if u.Address != "" {
		customer.Address = u.Address
	}
	if u.District != "" {
		customer.District = u.District
	}
	if u.Latitude != 0 {
		customer.Latitude = u.Latitude
	}
	if u.Longitude != 0 {
		customer.Longitude = u.Longitude
	}
	if u.CylinderType != "" {
		customer.CylinderType = u.CylinderType
	}
	if u.Notes != "" {
		customer.Notes = u.Notes
	}
	if u.IsActive != nil {
		customer.IsActive = *u.IsActive
	}
	if u.MetaData != nil {
		customer.MetaData = u.MetaData
	}
}
