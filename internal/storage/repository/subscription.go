package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/saas-core/internal/models"
	"github.com/magabrotheeeer/saas-core/internal/storage"
)

const subscriptionColumns = `id, user_id, plan_id, status, current_period_start, current_period_end,
	canceled_at, payment_method_id, created_at, updated_at`

func scanSubscription(row rowScanner) (*models.Subscription, error) {
	var (
		sub             models.Subscription
		canceledAt      sql.NullTime
		paymentMethodID sql.NullString
	)
	if err := row.Scan(&sub.ID, &sub.UserID, &sub.PlanID, &sub.Status,
		&sub.CurrentPeriodStart, &sub.CurrentPeriodEnd, &canceledAt, &paymentMethodID,
		&sub.CreatedAt, &sub.UpdatedAt); err != nil {
		return nil, err
	}
	if canceledAt.Valid {
		sub.CanceledAt = &canceledAt.Time
	}
	if paymentMethodID.Valid {
		sub.PaymentMethodID = &paymentMethodID.String
	}
	return &sub, nil
}

// CreateSubscription вставляет новую подписку.
// Если у пользователя уже есть активная подписка, возвращается storage.ErrAlreadyExists,
// если пользователь или план не существуют, storage.ErrNotFound.
func (s *Storage) CreateSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error) {
	const op = "storage.CreateSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO subscriptions (user_id, plan_id, status, current_period_start,
			      current_period_end, canceled_at, payment_method_id)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING ` + subscriptionColumns
	created, err := scanSubscription(s.DB.QueryRowContext(ctx, query,
		sub.UserID, sub.PlanID, sub.Status, sub.CurrentPeriodStart, sub.CurrentPeriodEnd,
		sub.CanceledAt, sub.PaymentMethodID))
	if err != nil {
		err = translate(err)
		if errors.Is(err, storage.ErrReferenced) {
			return nil, fmt.Errorf("%s: %w: %w", op, storage.ErrNotFound, err)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// GetSubscription возвращает подписку по ID.
func (s *Storage) GetSubscription(ctx context.Context, id string) (*models.Subscription, error) {
	const op = "storage.GetSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1`
	sub, err := scanSubscription(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translate(err))
	}
	return sub, nil
}

// GetActiveSubscription возвращает активную подписку пользователя.
// Если её нет, возвращается storage.ErrNotFound.
func (s *Storage) GetActiveSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	const op = "storage.GetActiveSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE user_id = $1 AND status = 'ACTIVE'`
	sub, err := scanSubscription(s.DB.QueryRowContext(ctx, query, userID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translate(err))
	}
	return sub, nil
}

// ListSubscriptions возвращает страницу подписок, новые первыми, и их общее количество.
// Пустой userID означает подписки всех пользователей.
func (s *Storage) ListSubscriptions(ctx context.Context, userID string, page models.Page) ([]*models.Subscription, int, error) {
	const op = "storage.ListSubscriptions"
	select {
	case <-ctx.Done():
		return nil, 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var filter any
	if userID != "" {
		filter = userID
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM subscriptions WHERE ($1::uuid IS NULL OR user_id = $1::uuid)`
	if err := s.DB.QueryRowContext(ctx, countQuery, filter).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, translate(err))
	}

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE ($1::uuid IS NULL OR user_id = $1::uuid)
			  ORDER BY created_at DESC, id
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, filter, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, translate(err))
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.Subscription, 0, page.Limit)
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, sub)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return result, total, nil
}

// ChangeSubscriptionPlan меняет план активной подписки и начинает новый период.
// Если подписка не активна, ничего не меняется и возвращается storage.ErrConflict.
func (s *Storage) ChangeSubscriptionPlan(ctx context.Context, id, planID string, periodStart, periodEnd time.Time) (*models.Subscription, error) {
	const op = "storage.ChangeSubscriptionPlan"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions
			  SET plan_id = $2,
			      current_period_start = $3,
			      current_period_end = $4,
			      updated_at = now()
			  WHERE id = $1 AND status = 'ACTIVE'
			  RETURNING ` + subscriptionColumns
	sub, err := scanSubscription(s.DB.QueryRowContext(ctx, query, id, planID, periodStart, periodEnd))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrConflict)
		}
		err = translate(err)
		if errors.Is(err, storage.ErrReferenced) {
			return nil, fmt.Errorf("%s: %w: %w", op, storage.ErrNotFound, err)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// CancelSubscription переводит активную подписку в CANCELED с отметкой canceledAt.
// Если подписка уже не активна, возвращается storage.ErrConflict.
func (s *Storage) CancelSubscription(ctx context.Context, id string, canceledAt time.Time) (*models.Subscription, error) {
	const op = "storage.CancelSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions
			  SET status = 'CANCELED',
			      canceled_at = $2,
			      updated_at = now()
			  WHERE id = $1 AND status = 'ACTIVE'
			  RETURNING ` + subscriptionColumns
	sub, err := scanSubscription(s.DB.QueryRowContext(ctx, query, id, canceledAt))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrConflict)
		}
		return nil, fmt.Errorf("%s: %w", op, translate(err))
	}
	return sub, nil
}
