// internal/repository/postgres/plan_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"fanbase-service/internal/domain/plan"
	xerrors "fanbase-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
)

type PlanRepository struct {
	db *DB
}

func NewPlanRepository(db *DB) *PlanRepository {
	return &PlanRepository{db: db}
}

const planColumns = `id, artist_id, name, description, price_amount, price_currency, benefits,
	duration_days, split_platform, split_artist, is_active, subscriber_count, created_at, updated_at`

func (r *PlanRepository) Create(ctx context.Context, p *plan.SubscriptionPlan) error {
	query := `
		INSERT INTO subscription_plans (
			id, artist_id, name, description, price_amount, price_currency, benefits,
			duration_days, split_platform, split_artist, is_active, subscriber_count
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`

	benefits := p.Benefits
	if benefits == nil {
		benefits = []string{}
	}

	err := r.db.conn(ctx).QueryRow(ctx, query,
		p.ID, p.ArtistID, p.Name, p.Description, p.Price.Amount, p.Price.Currency, benefits,
		p.DurationDays, p.SplitPercentage.Platform, p.SplitPercentage.Artist, p.IsActive, p.SubscriberCount,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}
	return nil
}

func (r *PlanRepository) FindByID(ctx context.Context, id string) (*plan.SubscriptionPlan, error) {
	query := `SELECT ` + planColumns + ` FROM subscription_plans WHERE id = $1`

	p, err := scanPlan(r.db.conn(ctx).QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find plan: %w", err)
	}
	return p, nil
}

func (r *PlanRepository) ListActiveByArtist(ctx context.Context, artistID string) ([]*plan.SubscriptionPlan, error) {
	query := `
		SELECT ` + planColumns + `
		FROM subscription_plans
		WHERE artist_id = $1 AND is_active
		ORDER BY price_amount ASC, created_at ASC
	`

	rows, err := r.db.conn(ctx).Query(ctx, query, artistID)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	plans := []*plan.SubscriptionPlan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

func (r *PlanRepository) SetActive(ctx context.Context, id string, active bool) error {
	query := `UPDATE subscription_plans SET is_active = $2, updated_at = NOW() WHERE id = $1`

	tag, err := r.db.conn(ctx).Exec(ctx, query, id, active)
	if err != nil {
		return fmt.Errorf("failed to update plan status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrPlanNotFound
	}
	return nil
}

func (r *PlanRepository) IncrementSubscriberCount(ctx context.Context, id string, delta int64) error {
	query := `
		UPDATE subscription_plans
		SET subscriber_count = subscriber_count + $2, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.conn(ctx).Exec(ctx, query, id, delta)
	if err != nil {
		return fmt.Errorf("failed to increment subscriber count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrPlanNotFound
	}
	return nil
}

func scanPlan(row pgx.Row) (*plan.SubscriptionPlan, error) {
	var p plan.SubscriptionPlan
	err := row.Scan(
		&p.ID, &p.ArtistID, &p.Name, &p.Description, &p.Price.Amount, &p.Price.Currency, &p.Benefits,
		&p.DurationDays, &p.SplitPercentage.Platform, &p.SplitPercentage.Artist, &p.IsActive,
		&p.SubscriberCount, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
