package models

import (
	"time"
)

// CountryCount пара страна-количество для отображения на карте
type CountryCount struct {
	Country string `json:"country"`
	Count   int64  `json:"count"`
}

// Summary агрегированная статистика по короткой ссылке.
// Вычисляется на лету и никогда не сохраняется.
// TotalClicks считается за всё время жизни ссылки, остальные
// разбивки — только за запрошенное окно.
type Summary struct {
	ShortCode   string           `json:"short_code"`
	OriginalURL string           `json:"original_url"`
	CreatedAt   time.Time        `json:"created_at"`
	TotalClicks int64            `json:"total_clicks"`
	Referrers   map[string]int64 `json:"referrers"`
	Devices     map[string]int64 `json:"devices"`
	Browsers    map[string]int64 `json:"browsers"`
	Countries   map[string]int64 `json:"countries"`
	DailyClicks map[string]int64 `json:"daily_clicks"`
	GeoClicks   []CountryCount   `json:"geo_clicks"`
}
