package service

import (
	"context"
	"time"

	"github.com/okhotin/shortly/internal/models"
	"github.com/okhotin/shortly/internal/repository"
)

const defaultWindowDays = 30

// AnalyticsService строит сводку по кликам короткой ссылки
type AnalyticsService interface {
	Summarize(ctx context.Context, code string, days int) (*models.Summary, error)
}

type analyticsService struct {
	linkRepo  repository.LinkRepository
	clickRepo repository.ClickRepository
}

// NewAnalyticsService создаёт новый экземпляр сервиса аналитики
func NewAnalyticsService(linkRepo repository.LinkRepository, clickRepo repository.ClickRepository) AnalyticsService {
	return &analyticsService{
		linkRepo:  linkRepo,
		clickRepo: clickRepo,
	}
}

// Summarize агрегирует клики за окно в days дней одним проходом.
// TotalClicks считается за всё время жизни ссылки и может превышать
// сумму оконных разбивок. Дневные бакеты — календарные даты в UTC,
// чтобы сводка не зависела от таймзоны сервера. Всё состояние
// счётчиков локально для вызова: повторный Summarize без новых
// кликов возвращает идентичный результат.
func (s *analyticsService) Summarize(ctx context.Context, code string, days int) (*models.Summary, error) {
	link, err := s.linkRepo.GetByShortCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if days <= 0 {
		days = defaultWindowDays
	}

	total, err := s.clickRepo.CountByLink(ctx, link.ID)
	if err != nil {
		return nil, err
	}

	since := time.Now().AddDate(0, 0, -days)
	clicks, err := s.clickRepo.ListByLinkSince(ctx, link.ID, since)
	if err != nil {
		return nil, err
	}

	summary := &models.Summary{
		ShortCode:   link.ShortCode,
		OriginalURL: link.OriginalURL,
		CreatedAt:   link.CreatedAt,
		TotalClicks: total,
		Referrers:   make(map[string]int64),
		Devices:     make(map[string]int64),
		Browsers:    make(map[string]int64),
		Countries:   make(map[string]int64),
		DailyClicks: make(map[string]int64),
	}

	for _, click := range clicks {
		summary.Referrers[orDefault(click.Referrer, "direct")]++
		summary.Devices[orDefault(click.DeviceType, "unknown")]++
		summary.Browsers[orDefault(click.Browser, "unknown")]++

		country := orDefault(click.Country, "unknown")
		summary.Countries[country]++

		day := click.ClickedAt.UTC().Format("2006-01-02")
		summary.DailyClicks[day]++
	}

	// Список пар страна-количество для карты: по одной записи на страну
	summary.GeoClicks = make([]models.CountryCount, 0, len(summary.Countries))
	for country, count := range summary.Countries {
		summary.GeoClicks = append(summary.GeoClicks, models.CountryCount{
			Country: country,
			Count:   count,
		})
	}

	return summary, nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
