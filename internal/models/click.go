package models

import (
	"time"
)

type Click struct {
	ID         int64     `json:"id"`
	LinkID     int64     `json:"link_id"`
	ClickedAt  time.Time `json:"clicked_at"`
	IPAddress  string    `json:"ip_address"`
	UserAgent  string    `json:"user_agent"`
	Referrer   string    `json:"referrer"`
	DeviceType string    `json:"device_type"`
	OS         string    `json:"os"`
	Browser    string    `json:"browser"`
	Country    string    `json:"country"`
	City       string    `json:"city"`
}

// ClickInput сырые данные запроса, из которых сервис собирает Click
type ClickInput struct {
	IPAddress string
	UserAgent string
	Referrer  string
}
