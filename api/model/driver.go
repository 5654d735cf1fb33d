package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/luckygas/luckygas/model"
)

type CreateDriver struct {
	Name     string                 `json:"name"`
	Phone    string                 `json:"phone"`
	Vehicle  string                 `json:"vehicle"`
	MetaData map[string]interface{} `json:"meta_data"`
}

func (d *CreateDriver) ValidateCreateDriver() error {
	return validation.ValidateStruct(d,
		validation.Field(&d.Name, validation.Required),
		validation.Field(&d.Phone, validation.Required),
	)
}

func (d *CreateDriver) ToDriver() model.Driver {
	return model.Driver{
		Name:        d.Name,
		Phone:       d.Phone,
		Vehicle:     d.Vehicle,
		IsAvailable: true,
		MetaData:    d.MetaData,
	}
}

type SetAvailability struct {
	Available *bool `json:"available"`
}

func (s *SetAvailability) ValidateSetAvailability() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.Available, validation.NotNil),
	)
}
