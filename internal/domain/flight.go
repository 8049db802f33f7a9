package domain

import "time"

type Flight struct {
	ID          int64     `json:"id"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	Departure   string    `json:"departure"` // HH:MM，不带日期
	Arrival     string    `json:"arrival"`   // HH:MM，不带日期
	Price       int       `json:"price"`
	CreatedAt   time.Time `json:"createdAt"`
}
