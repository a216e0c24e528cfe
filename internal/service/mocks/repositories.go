package mocks

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/okhotin/shortly/internal/geo"
	"github.com/okhotin/shortly/internal/models"
	"github.com/okhotin/shortly/internal/repository"
)

// MockLinkRepository implements repository.LinkRepository for testing
type MockLinkRepository struct {
	mu     sync.RWMutex
	links  map[string]*models.Link
	nextID int64

	// FailCreate forces Create to return this error regardless of state
	FailCreate error
}

func NewMockLinkRepository() *MockLinkRepository {
	return &MockLinkRepository{
		links:  make(map[string]*models.Link),
		nextID: 1,
	}
}

func (m *MockLinkRepository) Create(ctx context.Context, link *models.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailCreate != nil {
		return m.FailCreate
	}

	if _, exists := m.links[link.ShortCode]; exists {
		return repository.ErrCodeExists
	}

	link.ID = m.nextID
	m.nextID++
	m.links[link.ShortCode] = link
	return nil
}

func (m *MockLinkRepository) GetByShortCode(ctx context.Context, code string) (*models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, exists := m.links[code]
	if !exists {
		return nil, repository.ErrLinkNotFound
	}
	return link, nil
}

func (m *MockLinkRepository) Delete(ctx context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.links[code]; !exists {
		return repository.ErrLinkNotFound
	}
	delete(m.links, code)
	return nil
}

func (m *MockLinkRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links = make(map[string]*models.Link)
	m.nextID = 1
}

// MockCacheRepository implements repository.CacheRepository for testing
type MockCacheRepository struct {
	mu    sync.RWMutex
	cache map[string]*models.Link
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		cache: make(map[string]*models.Link),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) (*models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, exists := m.cache[key]
	if !exists {
		return nil, repository.ErrLinkNotFound
	}
	return link, nil
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, link *models.Link, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[key] = link
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cache, key)
	return nil
}

func (m *MockCacheRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache = make(map[string]*models.Link)
}

// MockClickRepository implements repository.ClickRepository for testing
type MockClickRepository struct {
	mu     sync.RWMutex
	clicks map[int64][]models.Click
	nextID int64

	// FailRecord forces Record to fail for exercising the fail-open path
	FailRecord error
}

func NewMockClickRepository() *MockClickRepository {
	return &MockClickRepository{
		clicks: make(map[int64][]models.Click),
		nextID: 1,
	}
}

func (m *MockClickRepository) Record(ctx context.Context, click *models.Click) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailRecord != nil {
		return m.FailRecord
	}

	click.ID = m.nextID
	m.nextID++
	m.clicks[click.LinkID] = append(m.clicks[click.LinkID], *click)
	return nil
}

func (m *MockClickRepository) CountByLink(ctx context.Context, linkID int64) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.clicks[linkID])), nil
}

func (m *MockClickRepository) ListByLinkSince(ctx context.Context, linkID int64, since time.Time) ([]models.Click, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []models.Click
	for _, click := range m.clicks[linkID] {
		if !click.ClickedAt.Before(since) {
			result = append(result, click)
		}
	}
	return result, nil
}

// Add inserts a click directly, bypassing Record (for seeding history)
func (m *MockClickRepository) Add(click models.Click) {
	m.mu.Lock()
	defer m.mu.Unlock()

	click.ID = m.nextID
	m.nextID++
	m.clicks[click.LinkID] = append(m.clicks[click.LinkID], click)
}

func (m *MockClickRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clicks = make(map[int64][]models.Click)
	m.nextID = 1
}

// MockGeoClient implements geo.Client with a scripted response
type MockGeoClient struct {
	mu       sync.Mutex
	Location geo.Location
	Fail     bool
	Calls    []string
}

func NewMockGeoClient(loc geo.Location) *MockGeoClient {
	return &MockGeoClient{Location: loc}
}

func (m *MockGeoClient) Lookup(ctx context.Context, ip string) geo.Location {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, ip)
	if m.Fail {
		return geo.Unknown
	}
	return m.Location
}

// ErrStorage generic storage failure for fail-open tests
var ErrStorage = errors.New("storage unavailable")
