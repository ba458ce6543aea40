package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/saturnino-fabrica-de-software/lookout/internal/domain"
)

type ReferenceCodeRepository struct {
	pool PgxPool
}

func NewReferenceCodeRepository(pool PgxPool) *ReferenceCodeRepository {
	return &ReferenceCodeRepository{pool: pool}
}

// GetCode retrieves a reference code
func (r *ReferenceCodeRepository) GetCode(ctx context.Context, code string) (*domain.ReferenceCode, error) {
	query := `
		SELECT code, max_uses, current_uses
		FROM reference_codes
		WHERE code = $1
	`

	var rc domain.ReferenceCode
	err := r.pool.QueryRow(ctx, query, code).Scan(&rc.Code, &rc.MaxUses, &rc.CurrentUses)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrInvalidCode
	}
	if err != nil {
		return nil, domain.ErrStorageUnavailable.WithError(fmt.Errorf("get code: %w", err))
	}

	return &rc, nil
}

// RedeemCode consumes one use in a single conditional UPDATE, so concurrent
// redemptions cannot overshoot max_uses.
func (r *ReferenceCodeRepository) RedeemCode(ctx context.Context, code string) (*domain.ReferenceCode, error) {
	query := `
		UPDATE reference_codes
		SET current_uses = current_uses + 1, updated_at = NOW()
		WHERE code = $1 AND current_uses < max_uses
		RETURNING code, max_uses, current_uses
	`

	var rc domain.ReferenceCode
	err := r.pool.QueryRow(ctx, query, code).Scan(&rc.Code, &rc.MaxUses, &rc.CurrentUses)

	if errors.Is(err, pgx.ErrNoRows) {
		// Either the code does not exist or it is exhausted.
		if _, getErr := r.GetCode(ctx, code); getErr != nil {
			return nil, getErr
		}
		return nil, domain.ErrUsageLimitReached
	}
	if err != nil {
		return nil, domain.ErrStorageUnavailable.WithError(fmt.Errorf("redeem code: %w", err))
	}

	return &rc, nil
}

// ListCodes returns every reference code ordered by code
func (r *ReferenceCodeRepository) ListCodes(ctx context.Context) ([]domain.ReferenceCode, error) {
	query := `
		SELECT code, max_uses, current_uses
		FROM reference_codes
		ORDER BY code
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, domain.ErrStorageUnavailable.WithError(fmt.Errorf("list codes: %w", err))
	}
	defer rows.Close()

	codes := []domain.ReferenceCode{}
	for rows.Next() {
		var rc domain.ReferenceCode
		if err := rows.Scan(&rc.Code, &rc.MaxUses, &rc.CurrentUses); err != nil {
			return nil, fmt.Errorf("scan code: %w", err)
		}
		codes = append(codes, rc)
	}

	if err := rows.Err(); err != nil {
		return nil, domain.ErrStorageUnavailable.WithError(fmt.Errorf("iterate codes: %w", err))
	}

	return codes, nil
}

// UpsertCode creates a code or replaces its counters
func (r *ReferenceCodeRepository) UpsertCode(ctx context.Context, rc domain.ReferenceCode) error {
	if err := rc.Validate(); err != nil {
		return domain.ErrValidationFailed.WithError(err)
	}

	query := `
		INSERT INTO reference_codes (code, max_uses, current_uses)
		VALUES ($1, $2, $3)
		ON CONFLICT (code) DO UPDATE
		SET max_uses = EXCLUDED.max_uses, current_uses = EXCLUDED.current_uses, updated_at = NOW()
	`

	if _, err := r.pool.Exec(ctx, query, rc.Code, rc.MaxUses, rc.CurrentUses); err != nil {
		return domain.ErrStorageUnavailable.WithError(fmt.Errorf("upsert code: %w", err))
	}

	return nil
}

// Ping checks database connectivity
func (r *ReferenceCodeRepository) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return domain.ErrStorageUnavailable.WithError(err)
	}
	return nil
}
