package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/okhotin/shortly/internal/config"
)

type PostgresDB struct {
	Pool *pgxpool.Pool
}

func NewPostgresDB(cfg config.DBConfig) (*PostgresDB, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Name,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DB config: %w", err)
	}

	// Настрока пула соединений
	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Проверка подключения
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresDB{Pool: pool}, nil
}

func (db *PostgresDB) Close() {
	db.Pool.Close()
}

// schema две таблицы: ссылки и клики. Уникальность short_code —
// единственный арбитр гонки за кастомный алиас; клики каскадно
// удаляются вместе с родительской ссылкой.
const schema = `
CREATE TABLE IF NOT EXISTS links (
	id           BIGSERIAL PRIMARY KEY,
	short_code   TEXT NOT NULL UNIQUE,
	original_url TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS clicks (
	id          BIGSERIAL PRIMARY KEY,
	link_id     BIGINT NOT NULL REFERENCES links(id) ON DELETE CASCADE,
	clicked_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	ip_address  TEXT NOT NULL DEFAULT '',
	user_agent  TEXT NOT NULL DEFAULT '',
	referrer    TEXT NOT NULL DEFAULT 'direct',
	device_type TEXT NOT NULL DEFAULT 'desktop',
	os          TEXT NOT NULL DEFAULT 'unknown',
	browser     TEXT NOT NULL DEFAULT 'unknown',
	country     TEXT NOT NULL DEFAULT 'unknown',
	city        TEXT NOT NULL DEFAULT 'unknown'
);

CREATE INDEX IF NOT EXISTS idx_clicks_link_clicked_at ON clicks (link_id, clicked_at);
`

// Migrate применяет схему БД
func (db *PostgresDB) Migrate(ctx context.Context) error {
	if _, err := db.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
