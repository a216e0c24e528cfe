package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/okhotin/shortly/internal/models"
)

type ClickRepository interface {
	Record(ctx context.Context, click *models.Click) error
	CountByLink(ctx context.Context, linkID int64) (int64, error)
	ListByLinkSince(ctx context.Context, linkID int64, since time.Time) ([]models.Click, error)
}

type clickRepository struct {
	db *PostgresDB
}

func NewClickRepository(db *PostgresDB) ClickRepository {
	return &clickRepository{db: db}
}

func (r *clickRepository) Record(ctx context.Context, click *models.Click) error {
	query := `
		INSERT INTO clicks (link_id, clicked_at, ip_address, user_agent, referrer, device_type, os, browser, country, city)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	err := r.db.Pool.QueryRow(ctx, query,
		click.LinkID,
		click.ClickedAt,
		click.IPAddress,
		click.UserAgent,
		click.Referrer,
		click.DeviceType,
		click.OS,
		click.Browser,
		click.Country,
		click.City,
	).Scan(&click.ID)

	if err != nil {
		return fmt.Errorf("failed to record click: %w", err)
	}

	return nil
}

// CountByLink возвращает количество кликов за всё время жизни ссылки
func (r *clickRepository) CountByLink(ctx context.Context, linkID int64) (int64, error) {
	query := `SELECT COUNT(*) FROM clicks WHERE link_id = $1`

	var total int64
	if err := r.db.Pool.QueryRow(ctx, query, linkID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count clicks: %w", err)
	}

	return total, nil
}

// ListByLinkSince возвращает клики ссылки начиная с указанного момента.
// Агрегация выполняется в сервисе за один проход по этому набору.
func (r *clickRepository) ListByLinkSince(ctx context.Context, linkID int64, since time.Time) ([]models.Click, error) {
	query := `
		SELECT id, link_id, clicked_at, ip_address, user_agent, referrer, device_type, os, browser, country, city
		FROM clicks
		WHERE link_id = $1 AND clicked_at >= $2
		ORDER BY clicked_at ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, linkID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list clicks: %w", err)
	}
	defer rows.Close()

	var clicks []models.Click
	for rows.Next() {
		var c models.Click
		if err := rows.Scan(
			&c.ID,
			&c.LinkID,
			&c.ClickedAt,
			&c.IPAddress,
			&c.UserAgent,
			&c.Referrer,
			&c.DeviceType,
			&c.OS,
			&c.Browser,
			&c.Country,
			&c.City,
		); err != nil {
			return nil, fmt.Errorf("failed to scan click: %w", err)
		}
		clicks = append(clicks, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating clicks: %w", err)
	}

	return clicks, nil
}
