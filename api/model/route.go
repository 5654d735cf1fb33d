package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pkg/errors"

	"github.com/luckygas/luckygas/model"
)

type CreateRoute struct {
	Name     string                 `json:"name"`
	Date     string                 `json:"date"`
	MetaData map[string]interface{} `json:"meta_data"`
}

func (r *CreateRoute) ValidateCreateRoute() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.Date, validation.Required, validation.Date("2006-01-02")),
	)
}

func (r *CreateRoute) ToRoute() (model.Route, error) {
	date, err := time.Parse("2006-01-02", r.Date)
	if err != nil {
		return model.Route{}, errors.Wrap(err, "parsing route date")
	}
	return model.Route{
		Name:     r.Name,
		Status:   model.RoutePlanned,
		Date:     date,
		MetaData: r.MetaData,
	}, nil
}

type UpdateRouteStatus struct {
	Status string `json:"status"`
}

func (u *UpdateRouteStatus) ValidateUpdateRouteStatus() error {
	return validation.ValidateStruct(u,
		validation.Field(&u.Status, validation.Required, validation.In(
			string(model.RouteInProgress),
			string(model.RouteCompleted),
		)),
	)
}

type AssignDriver struct {
	DriverID string `json:"driver_id"`
}

func (a *AssignDriver) ValidateAssignDriver() error {
	return validation.ValidateStruct(a,
		validation.Field(&a.DriverID, validation.Required),
	)
}
