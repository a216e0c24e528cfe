package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"

	"github.com/okhotin/shortly/internal/config"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Location страна и город по IP. Для нераспознанных адресов оба поля "unknown".
type Location struct {
	Country string
	City    string
}

// Unknown возвращается при любом сбое определения геолокации
var Unknown = Location{Country: "unknown", City: "unknown"}

// Client интерфейс геолокации по IP. Реализация обязана быть
// best-effort: сбой провайдера не должен блокировать редирект.
type Client interface {
	Lookup(ctx context.Context, ip string) Location
}

// providerResponse формат ответа гео-провайдера
type providerResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Country string `json:"country"`
	City    string `json:"city"`
}

// httpClient клиент HTTP гео-провайдера с таймаутом и лимитом
// исходящих запросов (бесплатный тариф провайдера ограничен по RPS)
type httpClient struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewClient создаёт клиент гео-провайдера
func NewClient(cfg config.GeoConfig, logger *zap.Logger) Client {
	return &httpClient{
		baseURL: cfg.APIURL,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		logger:  logger,
	}
}

// Lookup определяет страну и город по IP адресу.
// Локальные/приватные/отсутствующие IP пропускают запрос к провайдеру.
// Любой сбой (таймаут, сетевой, статус провайдера) даёт Unknown —
// ошибки наружу не отдаются.
func (c *httpClient) Lookup(ctx context.Context, ip string) Location {
	if !isLookupable(ip) {
		return Unknown
	}

	// Превысили лимит исходящих запросов — деградируем сразу
	if !c.limiter.Allow() {
		c.logger.Warn("Лимит гео-запросов исчерпан, пропускаем lookup", zap.String("ip", ip))
		return Unknown
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s", c.baseURL, ip), nil)
	if err != nil {
		return Unknown
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("Гео-провайдер недоступен", zap.String("ip", ip), zap.Error(err))
		return Unknown
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Гео-провайдер вернул ошибку", zap.Int("status", resp.StatusCode))
		return Unknown
	}

	var data providerResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		c.logger.Warn("Невалидный ответ гео-провайдера", zap.Error(err))
		return Unknown
	}

	if data.Status != "success" {
		c.logger.Debug("Гео-lookup не удался",
			zap.String("ip", ip),
			zap.String("message", data.Message),
		)
		return Unknown
	}

	loc := Location{Country: data.Country, City: data.City}
	if loc.Country == "" {
		loc.Country = "unknown"
	}
	if loc.City == "" {
		loc.City = "unknown"
	}

	return loc
}

// isLookupable отсекает адреса, по которым провайдер ничего не ответит
func isLookupable(ip string) bool {
	if ip == "" || ip == "unknown" {
		return false
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}

	if parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsUnspecified() || parsed.IsLinkLocalUnicast() {
		return false
	}

	return true
}
