package service

import (
	"context"
	"time"

	"github.com/okhotin/shortly/internal/geo"
	"github.com/okhotin/shortly/internal/models"
	"github.com/okhotin/shortly/internal/repository"
	"github.com/okhotin/shortly/internal/useragent"
	"go.uber.org/zap"
)

// RedirectService резолвит короткий код и записывает клик
type RedirectService interface {
	ResolveAndRecord(ctx context.Context, code string, input models.ClickInput) (*models.Link, error)
}

type redirectService struct {
	links     LinkService
	clickRepo repository.ClickRepository
	geoClient geo.Client
	logger    *zap.Logger
}

// NewRedirectService создаёт новый экземпляр сервиса редиректов
func NewRedirectService(
	links LinkService,
	clickRepo repository.ClickRepository,
	geoClient geo.Client,
	logger *zap.Logger,
) RedirectService {
	return &redirectService{
		links:     links,
		clickRepo: clickRepo,
		geoClient: geoClient,
		logger:    logger,
	}
}

// ResolveAndRecord находит ссылку по коду и записывает ровно один клик
// до выдачи редиректа. Гео-lookup best-effort: сбой провайдера даёт
// country/city = "unknown". Запись клика fail-open: ошибка хранилища
// логируется, но редирект всё равно выполняется — посетитель важнее
// статистики.
func (s *redirectService) ResolveAndRecord(ctx context.Context, code string, input models.ClickInput) (*models.Link, error) {
	link, err := s.links.GetLink(ctx, code)
	if err != nil {
		return nil, err
	}

	info := useragent.Classify(input.UserAgent)
	location := s.geoClient.Lookup(ctx, input.IPAddress)

	referrer := input.Referrer
	if referrer == "" {
		referrer = "direct"
	}

	click := &models.Click{
		LinkID:     link.ID,
		ClickedAt:  time.Now(),
		IPAddress:  input.IPAddress,
		UserAgent:  input.UserAgent,
		Referrer:   referrer,
		DeviceType: info.DeviceType,
		OS:         info.OS,
		Browser:    info.Browser,
		Country:    location.Country,
		City:       location.City,
	}

	if err := s.clickRepo.Record(ctx, click); err != nil {
		s.logger.Error("Не удалось записать клик",
			zap.String("code", code),
			zap.Error(err),
		)
	}

	return link, nil
}
