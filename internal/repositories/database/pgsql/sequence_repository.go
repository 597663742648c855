package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/onda_backoffice/internal/apperrors"
	"github.com/SscSPs/onda_backoffice/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

type codeCounterRepository struct {
	BaseRepository
}

func (r codeCounterRepository) Next(ctx context.Context, scope string) (int64, error) {
	const query = `
		INSERT INTO code_counters (scope, value) VALUES ($1, 1)
		ON CONFLICT (scope) DO UPDATE SET value = code_counters.value + 1
		RETURNING value`
	var value int64
	if err := r.tx.QueryRow(ctx, query, scope).Scan(&value); err != nil {
		return 0, apperrors.NewAppError(500, "failed to advance code counter "+scope, err)
	}
	return value, nil
}

const sequenceColumns = `sequence_id, type_code, series, range_start, range_end, last_issued, expiry, active,
	created_at, created_by, last_updated_at, last_updated_by`

func scanSequence(row pgx.Row) (domain.FiscalSequence, error) {
	var s domain.FiscalSequence
	err := row.Scan(&s.ID, &s.TypeCode, &s.Series, &s.RangeStart, &s.RangeEnd, &s.Cursor, &s.Expiry, &s.Active,
		&s.CreatedAt, &s.CreatedBy, &s.LastUpdatedAt, &s.LastUpdatedBy)
	return s, err
}

type sequenceRepository struct {
	BaseRepository
}

func (r sequenceRepository) FindByID(ctx context.Context, id string) (*domain.FiscalSequence, error) {
	return queryOne(ctx, r.tx, scanSequence, "fiscal sequence "+id,
		`SELECT `+sequenceColumns+` FROM fiscal_sequences WHERE sequence_id = $1`, id)
}

func (r sequenceRepository) FindByIDForUpdate(ctx context.Context, id string) (*domain.FiscalSequence, error) {
	return queryOne(ctx, r.tx, scanSequence, "fiscal sequence "+id,
		`SELECT `+sequenceColumns+` FROM fiscal_sequences WHERE sequence_id = $1`+forUpdate, id)
}

func (r sequenceRepository) Save(ctx context.Context, s domain.FiscalSequence) error {
	const query = `
		INSERT INTO fiscal_sequences (` + sequenceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.tx.Exec(ctx, query, s.ID, s.TypeCode, s.Series, s.RangeStart, s.RangeEnd, s.Cursor, s.Expiry, s.Active,
		s.CreatedAt, s.CreatedBy, s.LastUpdatedAt, s.LastUpdatedBy)
	return mapWriteError(err, "fiscal sequence")
}

func (r sequenceRepository) Update(ctx context.Context, s domain.FiscalSequence) error {
	const query = `
		UPDATE fiscal_sequences
		SET last_issued = $2, active = $3, last_updated_at = $4, last_updated_by = $5
		WHERE sequence_id = $1`
	return execOne(ctx, r.tx, "fiscal sequence", s.ID, query, s.ID, s.Cursor, s.Active, s.LastUpdatedAt, s.LastUpdatedBy)
}

// lockScope serializes every writer of one fiscal type, including the case where no row exists yet.
// Range creation and reservation take the same key.
func (r sequenceRepository) lockScope(ctx context.Context, key string) error {
	if _, err := r.tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "fiscal_sequences/"+key); err != nil {
		return apperrors.NewAppError(500, "failed to lock fiscal scope "+key, err)
	}
	return nil
}

func (r sequenceRepository) ListActiveForUpdate(ctx context.Context, typeCode, series string) ([]domain.FiscalSequence, error) {
	if err := r.lockScope(ctx, typeCode); err != nil {
		return nil, err
	}
	return queryAll(ctx, r.tx, scanSequence, "fiscal sequences",
		`SELECT `+sequenceColumns+` FROM fiscal_sequences
		WHERE type_code = $1 AND series = $2 AND active
		ORDER BY range_start`+forUpdate, typeCode, series)
}

func (r sequenceRepository) NextUsableForUpdate(ctx context.Context, typeCode string, asOf time.Time) (*domain.FiscalSequence, error) {
	if err := r.lockScope(ctx, typeCode); err != nil {
		return nil, err
	}
	seq, err := queryOne(ctx, r.tx, scanSequence, "usable fiscal sequence",
		`SELECT `+sequenceColumns+` FROM fiscal_sequences
		WHERE type_code = $1 AND active AND expiry >= $2 AND last_issued < range_end
		ORDER BY last_issued, range_start
		LIMIT 1`+forUpdate, typeCode, asOf)
	if err != nil {
		return nil, fmt.Errorf("type %s: %w", typeCode, err)
	}
	return seq, nil
}

type catalogRepository struct {
	BaseRepository
}

const catalogColumns = `catalog_item_id, code, description, price, tax_rate, active`

func scanCatalogItem(row pgx.Row) (domain.CatalogItem, error) {
	var c domain.CatalogItem
	err := row.Scan(&c.ID, &c.Code, &c.Description, &c.Price, &c.TaxRate, &c.Active)
	return c, err
}

func (r catalogRepository) FindByCode(ctx context.Context, code string) (*domain.CatalogItem, error) {
	return queryOne(ctx, r.tx, scanCatalogItem, "catalog item "+code,
		`SELECT `+catalogColumns+` FROM catalog_items WHERE code = $1`, code)
}

func (r catalogRepository) FindByIDs(ctx context.Context, ids []string) (map[string]domain.CatalogItem, error) {
	items, err := queryAll(ctx, r.tx, scanCatalogItem, "catalog items",
		`SELECT `+catalogColumns+` FROM catalog_items WHERE catalog_item_id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]domain.CatalogItem, len(items))
	for _, it := range items {
		out[it.ID] = it
	}
	return out, nil
}
