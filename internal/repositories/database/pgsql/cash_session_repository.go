package pgsql

import (
	"context"

	"github.com/SscSPs/onda_backoffice/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

const cashSessionColumns = `cash_session_id, code, operator_id, opened_by, description, opening_balance, collected_total,
	declared_amount, expected_amount, variance, closure_id, notes, opened_at, closed_at, state, state_dates,
	created_at, created_by, last_updated_at, last_updated_by`

func scanCashSession(row pgx.Row) (domain.CashSession, error) {
	var s domain.CashSession
	err := row.Scan(&s.ID, &s.Code, &s.OperatorID, &s.OpenedBy, &s.Description, &s.OpeningBalance, &s.CollectedTotal,
		&s.DeclaredAmount, &s.ExpectedAmount, &s.Variance, &s.ClosureID, &s.Notes, &s.OpenedAt, &s.ClosedAt, &s.State, &s.StateDates,
		&s.CreatedAt, &s.CreatedBy, &s.LastUpdatedAt, &s.LastUpdatedBy)
	return s, err
}

const closureColumns = `closure_id, cash_session_id, expected, declared, variance, notes, opened_at, closed_at, closed_by,
	state, state_dates`

func scanClosure(row pgx.Row) (domain.Closure, error) {
	var c domain.Closure
	err := row.Scan(&c.ID, &c.CashSessionID, &c.Expected, &c.Declared, &c.Variance, &c.Notes, &c.OpenedAt, &c.ClosedAt, &c.ClosedBy,
		&c.State, &c.StateDates)
	return c, err
}

type cashSessionRepository struct {
	BaseRepository
}

func (r cashSessionRepository) FindByID(ctx context.Context, id string) (*domain.CashSession, error) {
	return queryOne(ctx, r.tx, scanCashSession, "cash session "+id,
		`SELECT `+cashSessionColumns+` FROM cash_sessions WHERE cash_session_id = $1`, id)
}

func (r cashSessionRepository) FindByIDForUpdate(ctx context.Context, id string) (*domain.CashSession, error) {
	return queryOne(ctx, r.tx, scanCashSession, "cash session "+id,
		`SELECT `+cashSessionColumns+` FROM cash_sessions WHERE cash_session_id = $1`+forUpdate, id)
}

func (r cashSessionRepository) FindOpenByOperatorForUpdate(ctx context.Context, operatorID string) (*domain.CashSession, error) {
	return queryOne(ctx, r.tx, scanCashSession, "open cash session for "+operatorID,
		`SELECT `+cashSessionColumns+` FROM cash_sessions WHERE operator_id = $1 AND state = $2`+forUpdate,
		operatorID, domain.CashSessionOpen)
}

func (r cashSessionRepository) Save(ctx context.Context, s domain.CashSession) error {
	const query = `
		INSERT INTO cash_sessions (` + cashSessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`
	_, err := r.tx.Exec(ctx, query, s.ID, s.Code, s.OperatorID, s.OpenedBy, s.Description, s.OpeningBalance, s.CollectedTotal,
		s.DeclaredAmount, s.ExpectedAmount, s.Variance, s.ClosureID, s.Notes, s.OpenedAt, s.ClosedAt, s.State, stateDates(s.Lifecycle),
		s.CreatedAt, s.CreatedBy, s.LastUpdatedAt, s.LastUpdatedBy)
	return mapWriteError(err, "cash session")
}

func (r cashSessionRepository) Update(ctx context.Context, s domain.CashSession, from domain.State) error {
	const query = `
		UPDATE cash_sessions
		SET operator_id = $3, collected_total = $4, declared_amount = $5, expected_amount = $6, variance = $7,
			notes = $8, closed_at = $9, state = $10, state_dates = $11, last_updated_at = $12, last_updated_by = $13
		WHERE cash_session_id = $1 AND state = $2`
	return execGuarded(ctx, r.tx, "cash session", s.ID, from, query, s.ID, from,
		s.OperatorID, s.CollectedTotal, s.DeclaredAmount, s.ExpectedAmount, s.Variance,
		s.Notes, s.ClosedAt, s.State, stateDates(s.Lifecycle), s.LastUpdatedAt, s.LastUpdatedBy)
}

func (r cashSessionRepository) SaveClosure(ctx context.Context, c domain.Closure) error {
	const query = `
		INSERT INTO closures (` + closureColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.tx.Exec(ctx, query, c.ID, c.CashSessionID, c.Expected, c.Declared, c.Variance, c.Notes, c.OpenedAt, c.ClosedAt, c.ClosedBy,
		c.State, stateDates(c.Lifecycle))
	return mapWriteError(err, "closure")
}

func (r cashSessionRepository) FindClosureByID(ctx context.Context, id string) (*domain.Closure, error) {
	return queryOne(ctx, r.tx, scanClosure, "closure "+id,
		`SELECT `+closureColumns+` FROM closures WHERE closure_id = $1`, id)
}

func (r cashSessionRepository) FindClosureByIDForUpdate(ctx context.Context, id string) (*domain.Closure, error) {
	return queryOne(ctx, r.tx, scanClosure, "closure "+id,
		`SELECT `+closureColumns+` FROM closures WHERE closure_id = $1`+forUpdate, id)
}

func (r cashSessionRepository) UpdateClosure(ctx context.Context, c domain.Closure, from domain.State) error {
	const query = `
		UPDATE closures
		SET expected = $3, declared = $4, variance = $5, notes = $6, closed_at = $7, closed_by = $8,
			state = $9, state_dates = $10
		WHERE closure_id = $1 AND state = $2`
	return execGuarded(ctx, r.tx, "closure", c.ID, from, query, c.ID, from,
		c.Expected, c.Declared, c.Variance, c.Notes, c.ClosedAt, c.ClosedBy, c.State, stateDates(c.Lifecycle))
}
