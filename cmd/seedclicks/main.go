// seedclicks наполняет ссылку случайными кликами за последние 30 дней,
// чтобы было что агрегировать при локальной разработке.
//
// Usage: seedclicks <shortCode> [count]
package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/okhotin/shortly/internal/config"
	"github.com/okhotin/shortly/internal/models"
	"github.com/okhotin/shortly/internal/repository"
	"go.uber.org/zap"
)

// Константы worker pool
const (
	workerCount   = 3
	channelBuffer = 100
	maxRetries    = 3
)

var countries = []string{
	"United States", "Canada", "Brazil", "India", "China",
	"Germany", "France", "Australia", "South Africa", "Japan",
	"United Kingdom", "Italy", "Spain", "Mexico", "Argentina",
}

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64)",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)",
	"Mozilla/5.0 (Linux; Android 10)",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 14_0 like Mac OS X)",
	"Mozilla/5.0 (iPad; CPU OS 13_2 like Mac OS X)",
	"Mozilla/5.0 (X11; Ubuntu; Linux x86_64)",
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: seedclicks <shortCode> [count]")
		os.Exit(1)
	}

	shortCode := os.Args[1]
	count := 100
	if len(os.Args) > 2 {
		parsed, err := strconv.Atoi(os.Args[2])
		if err != nil || parsed < 1 {
			fmt.Fprintln(os.Stderr, "count должен быть положительным числом")
			os.Exit(1)
		}
		count = parsed
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	db, err := repository.NewPostgresDB(cfg.DB)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	linkRepo := repository.NewLinkRepository(db)
	clickRepo := repository.NewClickRepository(db)

	ctx := context.Background()
	link, err := linkRepo.GetByShortCode(ctx, shortCode)
	if err != nil {
		logger.Fatal("Ссылка не найдена", zap.String("code", shortCode), zap.Error(err))
	}

	// Worker pool: генератор пишет клики в канал, воркеры пишут в БД
	clickCh := make(chan *models.Click, channelBuffer)
	var wg sync.WaitGroup

	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for click := range clickCh {
				insertWithRetry(ctx, clickRepo, click, logger)
			}
		}(i)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	for i := 0; i < count; i++ {
		clickCh <- randomClick(rng, link.ID)
	}
	close(clickCh)
	wg.Wait()

	logger.Info("Клики сгенерированы",
		zap.String("code", shortCode),
		zap.Int("count", count),
	)
}

// insertWithRetry пишет клик с повторными попытками и backoff
func insertWithRetry(ctx context.Context, repo repository.ClickRepository, click *models.Click, logger *zap.Logger) {
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		if lastErr = repo.Record(ctx, click); lastErr == nil {
			return
		}
		time.Sleep(time.Duration(i+1) * 100 * time.Millisecond)
	}
	logger.Warn("Не удалось записать клик после всех попыток", zap.Error(lastErr))
}

// randomClick собирает правдоподобный клик со случайной датой
// в пределах последних 30 дней
func randomClick(rng *rand.Rand, linkID int64) *models.Click {
	referrer := "direct"
	if rng.Float64() < 0.5 {
		referrer = fmt.Sprintf("https://example%d.com", rng.Intn(10))
	}

	device := "desktop"
	if rng.Float64() < 0.5 {
		device = "mobile"
	}

	osName := "Windows"
	if rng.Float64() < 0.5 {
		osName = "MacOS"
	}

	browser := "Chrome"
	if rng.Float64() < 0.5 {
		browser = "Firefox"
	}

	return &models.Click{
		LinkID:     linkID,
		ClickedAt:  time.Now().Add(-time.Duration(rng.Intn(30*24)) * time.Hour),
		IPAddress:  fmt.Sprintf("203.0.113.%d", rng.Intn(256)),
		UserAgent:  userAgents[rng.Intn(len(userAgents))],
		Referrer:   referrer,
		DeviceType: device,
		OS:         osName,
		Browser:    browser,
		Country:    countries[rng.Intn(len(countries))],
		City:       "unknown",
	}
}
