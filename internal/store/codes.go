package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/saturnino-fabrica-de-software/lookout/internal/domain"
)

type codeRecord struct {
	MaxUses     int `json:"max_uses"`
	CurrentUses int `json:"current_uses"`
}

func (r codeRecord) toDomain(code string) (*domain.ReferenceCode, error) {
	if r.MaxUses < 0 || r.CurrentUses < 0 {
		return nil, domain.ErrStorageCorrupt.WithError(fmt.Errorf("code %q: negative usage counters", code))
	}
	return &domain.ReferenceCode{Code: code, MaxUses: r.MaxUses, CurrentUses: r.CurrentUses}, nil
}

// CodeRepository stores reference codes in reference_codes.json.
type CodeRepository struct {
	table *Table[codeRecord]
}

func NewCodeRepository(path string) *CodeRepository {
	return &CodeRepository{table: NewTable[codeRecord](path)}
}

// Init seeds the default code when the table file does not exist.
func (r *CodeRepository) Init(ctx context.Context) (bool, error) {
	return r.table.Init(ctx, map[string]codeRecord{
		domain.DefaultCode: {MaxUses: domain.DefaultCodeMaxUses, CurrentUses: 0},
	})
}

func (r *CodeRepository) GetCode(ctx context.Context, code string) (*domain.ReferenceCode, error) {
	records, err := r.table.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("get code: %w", err)
	}

	rec, ok := records[code]
	if !ok {
		return nil, domain.ErrInvalidCode
	}

	return rec.toDomain(code)
}

// RedeemCode consumes one use of code. The ceiling check and the increment
// happen under the same table lock.
func (r *CodeRepository) RedeemCode(ctx context.Context, code string) (*domain.ReferenceCode, error) {
	var redeemed *domain.ReferenceCode

	err := r.table.Update(ctx, func(records map[string]codeRecord) error {
		rec, ok := records[code]
		if !ok {
			return domain.ErrInvalidCode
		}

		rc, err := rec.toDomain(code)
		if err != nil {
			return err
		}
		if !rc.CanRedeem() {
			return domain.ErrUsageLimitReached
		}

		rec.CurrentUses++
		records[code] = rec

		rc.CurrentUses = rec.CurrentUses
		redeemed = rc
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redeem code: %w", err)
	}

	return redeemed, nil
}

func (r *CodeRepository) ListCodes(ctx context.Context) ([]domain.ReferenceCode, error) {
	records, err := r.table.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("list codes: %w", err)
	}

	codes := make([]domain.ReferenceCode, 0, len(records))
	for code, rec := range records {
		rc, err := rec.toDomain(code)
		if err != nil {
			return nil, fmt.Errorf("list codes: %w", err)
		}
		codes = append(codes, *rc)
	}

	sort.Slice(codes, func(i, j int) bool { return codes[i].Code < codes[j].Code })
	return codes, nil
}

func (r *CodeRepository) UpsertCode(ctx context.Context, rc domain.ReferenceCode) error {
	if err := rc.Validate(); err != nil {
		return domain.ErrValidationFailed.WithError(err)
	}

	err := r.table.Update(ctx, func(records map[string]codeRecord) error {
		records[rc.Code] = codeRecord{MaxUses: rc.MaxUses, CurrentUses: rc.CurrentUses}
		return nil
	})
	if err != nil {
		return fmt.Errorf("upsert code: %w", err)
	}

	return nil
}

// Ping checks that the table can be read.
func (r *CodeRepository) Ping(ctx context.Context) error {
	_, err := r.table.Load(ctx)
	return err
}
