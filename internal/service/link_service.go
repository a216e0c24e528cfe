package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"time"

	"github.com/okhotin/shortly/internal/models"
	"github.com/okhotin/shortly/internal/repository"
	"go.uber.org/zap"
)

// Ошибки сервиса
var (
	ErrInvalidURL  = errors.New("невалидный URL")
	ErrInvalidCode = errors.New("невалидный кастомный код")
)

// Константы сервиса
const (
	cacheTTL   = 24 * time.Hour
	codeLength = 6
	// Алфавит без неоднозначных символов (0/O, 1/l/I)
	charset = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	// Максимум попыток при коллизии сгенерированного кода
	maxGenerateAttempts = 5
)

var (
	urlPattern  = regexp.MustCompile(`^https?://\S+$`)
	codePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{4,32}$`)
)

// LinkService интерфейс сервиса ссылок
type LinkService interface {
	CreateLink(ctx context.Context, input *models.CreateLinkInput) (*models.Link, error)
	GetLink(ctx context.Context, code string) (*models.Link, error)
	DeleteLink(ctx context.Context, code string) error
}

// linkService реализация сервиса ссылок
type linkService struct {
	linkRepo  repository.LinkRepository
	cacheRepo repository.CacheRepository
	logger    *zap.Logger
}

// NewLinkService создаёт новый экземпляр сервиса
func NewLinkService(linkRepo repository.LinkRepository, cacheRepo repository.CacheRepository, logger *zap.Logger) LinkService {
	return &linkService{
		linkRepo:  linkRepo,
		cacheRepo: cacheRepo,
		logger:    logger,
	}
}

// CreateLink создаёт новую короткую ссылку.
// Кастомный код используется как есть: коллизия отдаётся наружу как
// repository.ErrCodeExists, существующая ссылка не перезаписывается.
// Для сгенерированных кодов коллизия решается повторной генерацией.
func (s *linkService) CreateLink(ctx context.Context, input *models.CreateLinkInput) (*models.Link, error) {
	// Валидация URL
	if !urlPattern.MatchString(input.OriginalURL) {
		return nil, ErrInvalidURL
	}

	custom := input.CustomCode != nil && *input.CustomCode != ""
	if custom {
		if !codePattern.MatchString(*input.CustomCode) {
			return nil, ErrInvalidCode
		}
	}

	attempts := 1
	if !custom {
		attempts = maxGenerateAttempts
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		code := ""
		if custom {
			code = *input.CustomCode
		} else {
			generated, err := generateShortCode()
			if err != nil {
				return nil, fmt.Errorf("failed to generate code: %w", err)
			}
			code = generated
		}

		link := &models.Link{
			ShortCode:   code,
			OriginalURL: input.OriginalURL,
			CreatedAt:   time.Now(),
		}

		// Уникальность кода гарантирует ограничение в БД, не блокировки
		err := s.linkRepo.Create(ctx, link)
		if err == nil {
			if cacheErr := s.cacheRepo.Set(ctx, link.ShortCode, link, cacheTTL); cacheErr != nil {
				s.logger.Warn("Не удалось закэшировать ссылку", zap.String("code", link.ShortCode), zap.Error(cacheErr))
			}
			return link, nil
		}

		if errors.Is(err, repository.ErrCodeExists) && !custom {
			lastErr = err
			continue
		}
		return nil, err
	}

	return nil, lastErr
}

// GetLink получает ссылку по короткому коду (сначала из кэша, затем из БД)
func (s *linkService) GetLink(ctx context.Context, code string) (*models.Link, error) {
	// Проверка кэша
	link, err := s.cacheRepo.Get(ctx, code)
	if err == nil {
		return link, nil
	}

	// Запрос из БД
	link, err = s.linkRepo.GetByShortCode(ctx, code)
	if err != nil {
		return nil, err
	}

	// Кэширование результата
	if cacheErr := s.cacheRepo.Set(ctx, code, link, cacheTTL); cacheErr != nil {
		s.logger.Warn("Не удалось закэшировать ссылку", zap.String("code", code), zap.Error(cacheErr))
	}

	return link, nil
}

// DeleteLink удаляет ссылку по короткому коду (админская операция,
// клики удаляются каскадно на уровне БД)
func (s *linkService) DeleteLink(ctx context.Context, code string) error {
	// Удаляем кэш
	if err := s.cacheRepo.Delete(ctx, code); err != nil {
		s.logger.Warn("Не удалось удалить ссылку из кэша", zap.String("code", code), zap.Error(err))
	}

	// Удаляем из БД
	return s.linkRepo.Delete(ctx, code)
}

// generateShortCode генерирует случайный код из 6 символов
func generateShortCode() (string, error) {
	result := make([]byte, codeLength)
	for i := 0; i < codeLength; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[num.Int64()]
	}
	return string(result), nil
}
