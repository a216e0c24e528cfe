package tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/okhotin/shortly/internal/config"
	"github.com/okhotin/shortly/internal/geo"
	"github.com/okhotin/shortly/internal/handler"
	"github.com/okhotin/shortly/internal/repository"
	"github.com/okhotin/shortly/internal/service"
	"github.com/okhotin/shortly/internal/service/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

// TestMain настраивает тестовый режим gin
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// TestEnv хранит окружение для интеграционных тестов
type TestEnv struct {
	router         *gin.Engine
	geoClient      *mocks.MockGeoClient
	clickRepo      repository.ClickRepository
	linkRepo       repository.LinkRepository
	dbContainer    testcontainers.Container
	redisContainer testcontainers.Container
	db             *repository.PostgresDB
	redis          *repository.RedisDB
}

// setupTestEnv создаёт тестовое окружение с PostgreSQL и Redis контейнерами.
// Гео-клиент подменяется моком: интеграционные тесты не ходят к
// внешнему провайдеру.
func setupTestEnv(t *testing.T) *TestEnv {
	ctx := t.Context()

	// Запускаем контейнер PostgreSQL
	dbContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("shortly"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	// Запускаем контейнер Redis
	redisContainer, err := redis.Run(ctx,
		"redis:7-alpine",
	)
	require.NoError(t, err)

	// Получаем данные для подключения
	dbHost, err := dbContainer.Host(ctx)
	require.NoError(t, err)
	dbPort, err := dbContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	redisHost, err := redisContainer.Host(ctx)
	require.NoError(t, err)
	redisPort, err := redisContainer.MappedPort(ctx, "6379")
	require.NoError(t, err)

	// Создаём подключение к БД и применяем схему
	db, err := repository.NewPostgresDB(config.DBConfig{
		Host:     dbHost,
		Port:     dbPort.Port(),
		User:     "user",
		Password: "password",
		Name:     "shortly",
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx))

	// Создаём подключение к Redis
	redisClient, err := repository.NewRedisClient(config.RedisConfig{
		Host: redisHost,
		Port: redisPort.Port(),
	})
	require.NoError(t, err)

	// Инициализируем репозитории и сервисы
	linkRepo := repository.NewLinkRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient)
	clickRepo := repository.NewClickRepository(db)

	logger, _ := zap.NewDevelopment()
	geoClient := mocks.NewMockGeoClient(geo.Location{Country: "Netherlands", City: "Amsterdam"})

	linkService := service.NewLinkService(linkRepo, cacheRepo, logger)
	redirectService := service.NewRedirectService(linkService, clickRepo, geoClient, logger)
	analyticsService := service.NewAnalyticsService(linkRepo, clickRepo)

	router := handler.NewRouter(linkService, redirectService, analyticsService, "http://localhost:8080", logger)

	return &TestEnv{
		router:         router,
		geoClient:      geoClient,
		clickRepo:      clickRepo,
		linkRepo:       linkRepo,
		dbContainer:    dbContainer,
		redisContainer: redisContainer,
		db:             db,
		redis:          redisClient,
	}
}

// teardown очищает ресурсы после теста
func (env *TestEnv) teardown(t *testing.T) {
	env.db.Close()
	env.redis.Close()

	ctx := t.Context()
	if env.dbContainer != nil {
		env.dbContainer.Terminate(ctx)
	}
	if env.redisContainer != nil {
		env.redisContainer.Terminate(ctx)
	}
}

// CreateLinkRequest представляет тело запроса для создания ссылки
type CreateLinkRequest struct {
	URL        string `json:"url"`
	CustomCode string `json:"custom_code,omitempty"`
}

// CreateLinkResponse представляет тело ответа при создании ссылки
type CreateLinkResponse struct {
	ShortCode   string    `json:"short_code"`
	ShortURL    string    `json:"short_url"`
	OriginalURL string    `json:"original_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// SummaryResponse представляет тело ответа аналитики
type SummaryResponse struct {
	ShortCode   string           `json:"short_code"`
	OriginalURL string           `json:"original_url"`
	TotalClicks int64            `json:"total_clicks"`
	Referrers   map[string]int64 `json:"referrers"`
	Devices     map[string]int64 `json:"devices"`
	Browsers    map[string]int64 `json:"browsers"`
	Countries   map[string]int64 `json:"countries"`
	DailyClicks map[string]int64 `json:"daily_clicks"`
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// createLink хелпер: создаёт ссылку через API
func (env *TestEnv) createLink(t *testing.T, req CreateLinkRequest) CreateLinkResponse {
	t.Helper()

	body, _ := json.Marshal(req)
	w := httptest.NewRecorder()
	r, _ := http.NewRequest("POST", "/api/v1/links", bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	env.router.ServeHTTP(w, r)

	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())

	var resp CreateLinkResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// TestIntegration_CreateLink тестирует создание ссылок через API
func TestIntegration_CreateLink(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционный тест в коротком режиме")
	}

	env := setupTestEnv(t)
	defer env.teardown(t)

	tests := []struct {
		name           string
		request        CreateLinkRequest
		expectedStatus int
		expectError    bool
	}{
		{
			name: "валидный URL",
			request: CreateLinkRequest{
				URL: "https://example.com/test",
			},
			expectedStatus: http.StatusCreated,
			expectError:    false,
		},
		{
			name: "валидный URL с кастомным кодом",
			request: CreateLinkRequest{
				URL:        "https://example.com/custom",
				CustomCode: "my-custom",
			},
			expectedStatus: http.StatusCreated,
			expectError:    false,
		},
		{
			name: "невалидный URL",
			request: CreateLinkRequest{
				URL: "not-a-url",
			},
			expectedStatus: http.StatusBadRequest,
			expectError:    true,
		},
		{
			name: "повторный кастомный код",
			request: CreateLinkRequest{
				URL:        "https://example.com/other",
				CustomCode: "my-custom",
			},
			expectedStatus: http.StatusConflict,
			expectError:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(tt.request)
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("POST", "/api/v1/links", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")

			env.router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectError {
				var errResp ErrorResponse
				json.Unmarshal(w.Body.Bytes(), &errResp)
				assert.NotEmpty(t, errResp.Error)
			} else {
				var resp CreateLinkResponse
				json.Unmarshal(w.Body.Bytes(), &resp)
				assert.NotEmpty(t, resp.ShortCode)
				assert.Equal(t, tt.request.URL, resp.OriginalURL)
			}
		})
	}
}

// TestIntegration_AliasConflictScenario тестирует сценарий: создание
// с алиасом, конфликт повторного создания, редирект на исходный URL
// с записью одного клика
func TestIntegration_AliasConflictScenario(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционный тест в коротком режиме")
	}

	env := setupTestEnv(t)
	defer env.teardown(t)
	ctx := t.Context()

	// create(url="https://example.com", alias="abcd") -> "abcd"
	created := env.createLink(t, CreateLinkRequest{
		URL:        "https://example.com",
		CustomCode: "abcd",
	})
	assert.Equal(t, "abcd", created.ShortCode)

	// create(url="https://other.com", alias="abcd") -> 409
	body, _ := json.Marshal(CreateLinkRequest{
		URL:        "https://other.com",
		CustomCode: "abcd",
	})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/v1/links", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Исходная ссылка не перезаписана
	link, err := env.linkRepo.GetByShortCode(ctx, "abcd")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", link.OriginalURL)

	// redirect("abcd") -> 302 на https://example.com, один клик записан
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/abcd", nil)
	req.Header.Set("X-Real-IP", "8.8.8.8")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0) Chrome/120.0 Safari/537.36")
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://example.com", w.Header().Get("Location"))

	count, err := env.clickRepo.CountByLink(ctx, link.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

// TestIntegration_Redirect тестирует редирект и запись кликов
func TestIntegration_Redirect(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционный тест в коротком режиме")
	}

	env := setupTestEnv(t)
	defer env.teardown(t)
	ctx := t.Context()

	created := env.createLink(t, CreateLinkRequest{
		URL: "https://example.com/integration-test",
	})

	t.Run("редирект на оригинальный URL", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/"+created.ShortCode, nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		req.Header.Set("User-Agent", "Mozilla/5.0 (Linux; Android 13) Chrome/120.0 Mobile Safari/537.36")
		req.Header.Set("Referer", "https://news.ycombinator.com/")
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "https://example.com/integration-test", w.Header().Get("Location"))
	})

	t.Run("клик записан с производными полями", func(t *testing.T) {
		link, err := env.linkRepo.GetByShortCode(ctx, created.ShortCode)
		require.NoError(t, err)

		clicks, err := env.clickRepo.ListByLinkSince(ctx, link.ID, time.Time{})
		require.NoError(t, err)
		require.Len(t, clicks, 1)

		click := clicks[0]
		assert.Equal(t, "203.0.113.7", click.IPAddress, "берётся первый адрес из X-Forwarded-For")
		assert.Equal(t, "https://news.ycombinator.com/", click.Referrer)
		assert.Equal(t, "mobile", click.DeviceType)
		assert.Equal(t, "Linux", click.OS)
		assert.Equal(t, "Chrome", click.Browser)
		assert.Equal(t, "Netherlands", click.Country)
		assert.Equal(t, "Amsterdam", click.City)
	})

	t.Run("несуществующая ссылка", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/nonexistent", nil)
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("сбой гео не ломает редирект", func(t *testing.T) {
		env.geoClient.Fail = true
		defer func() { env.geoClient.Fail = false }()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/"+created.ShortCode, nil)
		req.Header.Set("X-Real-IP", "8.8.8.8")
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusFound, w.Code)

		link, err := env.linkRepo.GetByShortCode(ctx, created.ShortCode)
		require.NoError(t, err)
		clicks, err := env.clickRepo.ListByLinkSince(ctx, link.ID, time.Time{})
		require.NoError(t, err)
		require.Len(t, clicks, 2)
		assert.Equal(t, "unknown", clicks[1].Country)
	})
}

// TestIntegration_Analytics тестирует сводку аналитики через API
func TestIntegration_Analytics(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционный тест в коротком режиме")
	}

	env := setupTestEnv(t)
	defer env.teardown(t)

	created := env.createLink(t, CreateLinkRequest{
		URL: "https://example.com/stats-test",
	})

	// Симулируем несколько кликов вызовом редиректа
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/"+created.ShortCode, nil)
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
		req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0) Chrome/120.0 Safari/537.36")
		env.router.ServeHTTP(w, req)
		require.Equal(t, http.StatusFound, w.Code)
	}

	t.Run("сводка по коду", func(t *testing.T) {
		body, _ := json.Marshal(map[string]interface{}{
			"short_code": created.ShortCode,
			"days":       30,
		})
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/analytics", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		env.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var summary SummaryResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))

		assert.Equal(t, created.ShortCode, summary.ShortCode)
		assert.Equal(t, "https://example.com/stats-test", summary.OriginalURL)
		assert.Equal(t, int64(5), summary.TotalClicks)
		assert.Equal(t, int64(5), summary.Devices["desktop"])
		assert.Equal(t, int64(5), summary.Browsers["Chrome"])
		assert.Equal(t, int64(5), summary.Countries["Netherlands"])
		assert.Equal(t, int64(5), summary.Referrers["direct"])

		// Все клики сегодняшние — один дневной бакет
		assert.Len(t, summary.DailyClicks, 1)
	})

	t.Run("неизвестный код", func(t *testing.T) {
		body, _ := json.Marshal(map[string]interface{}{
			"short_code": "nonexistent",
		})
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/analytics", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

// TestIntegration_DeleteLink тестирует удаление ссылки и каскад кликов
func TestIntegration_DeleteLink(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционный тест в коротком режиме")
	}

	env := setupTestEnv(t)
	defer env.teardown(t)
	ctx := t.Context()

	created := env.createLink(t, CreateLinkRequest{
		URL: "https://example.com/delete-test",
	})

	// Записываем клик
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/"+created.ShortCode, nil)
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusFound, w.Code)

	link, err := env.linkRepo.GetByShortCode(ctx, created.ShortCode)
	require.NoError(t, err)

	t.Run("удаление существующей ссылки", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("DELETE", "/api/v1/links/"+created.ShortCode, nil)
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		// Клики удалились каскадно вместе со ссылкой
		count, err := env.clickRepo.CountByLink(ctx, link.ID)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("удаление несуществующей ссылки", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("DELETE", "/api/v1/links/"+created.ShortCode, nil)
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

// TestIntegration_HealthCheck тестирует endpoint проверки здоровья
func TestIntegration_HealthCheck(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционный тест в коротком режиме")
	}

	env := setupTestEnv(t)
	defer env.teardown(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/health", nil)
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "shortly", resp["service"])
}
