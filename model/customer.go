package model

import "time"

type Customer struct {
	ID           int64                  `json:"-"`
	CustomerID   string                 `json:"customer_id"`
	Name         string                 `json:"name"`
	Phone        string                 `json:"phone"`
	Address      string                 `json:"address"`
	District     string                 `json:"district"`
	Latitude     float64                `json:"latitude"`
	Longitude    float64                `json:"longitude"`
	CylinderType string                 `json:"cylinder_type"`
	Notes        string                 `json:"notes,omitempty"`
	IsActive     bool                   `json:"is_active"`
	MetaData     map[string]interface{} `json:"meta_data"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

type CustomerFilter struct {
	District string `json:"district"`
	Active   *bool  `json:"active"`
	Limit    int    `json:"limit"`
	Offset   int    `json:"offset"`
}
