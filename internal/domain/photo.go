package domain

import (
	"time"

	"github.com/google/uuid"
)

type Photo struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	Title        string    `json:"title"`
	StorageKey   string    `json:"-"`
	URL          string    `json:"image_url"`
	LocationLat  *float64  `json:"location_lat,omitempty"`
	LocationLng  *float64  `json:"location_lng,omitempty"`
	LocationName *string   `json:"location_name,omitempty"`
	Date         time.Time `json:"date"`
	CreatedAt    time.Time `json:"created_at"`
}
