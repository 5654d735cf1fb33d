package model

import "time"

type Driver struct {
	ID          int64                  `json:"-"`
	DriverID    string                 `json:"driver_id"`
	Name        string                 `json:"name"`
	Phone       string                 `json:"phone"`
	Vehicle     string                 `json:"vehicle"`
	IsAvailable bool                   `json:"is_available"`
	LastLat     float64                `json:"last_lat"`
	LastLng     float64                `json:"last_lng"`
	LastSeenAt  *time.Time             `json:"last_seen_at,omitempty"`
	MetaData    map[string]interface{} `json:"meta_data"`
	CreatedAt   time.Time              `json:"created_at"`
}

type DriverFilter struct {
	Available *bool `json:"available"`
	Limit     int   `json:"limit"`
	Offset    int   `json:"offset"`
}

// UpdateLocation records the driver's last known position unless the reading
// is older than the one already stored (last-write-wins by client timestamp).
func (d *Driver) UpdateLocation(lat, lng float64, recordedAt time.Time) bool {
	if d.LastSeenAt != nil && !recordedAt.After(*d.LastSeenAt) {
		return false
	}
	d.LastLat = lat
	d.LastLng = lng
	d.LastSeenAt = &recordedAt
	return true
}
