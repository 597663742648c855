package pgsql

import (
	"context"
	"fmt"

	"github.com/SscSPs/onda_backoffice/internal/apperrors"
	"github.com/SscSPs/onda_backoffice/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/samber/lo"
)

const invoiceColumns = `invoice_id, code, subtotal, tax, discount, total, fiscal_number, cash_session_id, closure_id,
	payment_method, payment_reference, paid_at, paid_by, cancel_reason, state, state_dates,
	created_at, created_by, last_updated_at, last_updated_by`

func scanInvoice(row pgx.Row) (domain.Invoice, error) {
	var i domain.Invoice
	err := row.Scan(&i.ID, &i.Code, &i.Subtotal, &i.Tax, &i.Discount, &i.Total, &i.FiscalNumber, &i.CashSessionID, &i.ClosureID,
		&i.PaymentMethod, &i.PaymentReference, &i.PaidAt, &i.PaidBy, &i.CancelReason, &i.State, &i.StateDates,
		&i.CreatedAt, &i.CreatedBy, &i.LastUpdatedAt, &i.LastUpdatedBy)
	return i, err
}

type invoiceRepository struct {
	BaseRepository
}

func (r invoiceRepository) findOne(ctx context.Context, id, suffix string) (*domain.Invoice, error) {
	inv, err := queryOne(ctx, r.tx, scanInvoice, "invoice "+id,
		`SELECT `+invoiceColumns+` FROM invoices WHERE invoice_id = $1`+suffix, id)
	if err != nil {
		return nil, err
	}
	withDetails, err := r.attachDetails(ctx, []domain.Invoice{*inv})
	if err != nil {
		return nil, err
	}
	return &withDetails[0], nil
}

func (r invoiceRepository) FindByID(ctx context.Context, id string) (*domain.Invoice, error) {
	return r.findOne(ctx, id, "")
}

func (r invoiceRepository) FindByIDForUpdate(ctx context.Context, id string) (*domain.Invoice, error) {
	return r.findOne(ctx, id, forUpdate)
}

// attachDetails loads lines and links of all invoices in two round trips.
func (r invoiceRepository) attachDetails(ctx context.Context, invoices []domain.Invoice) ([]domain.Invoice, error) {
	if len(invoices) == 0 {
		return invoices, nil
	}
	ids := lo.Map(invoices, func(i domain.Invoice, _ int) string { return i.ID })

	items, err := queryAll(ctx, r.tx, func(row pgx.Row) (domain.InvoiceItem, error) {
		var it domain.InvoiceItem
		err := row.Scan(&it.ID, &it.InvoiceID, &it.CatalogItemID, &it.Description, &it.Quantity,
			&it.UnitPrice, &it.TaxRate, &it.LineSubtotal, &it.LineTax)
		return it, err
	}, "invoice items", `
		SELECT invoice_item_id, invoice_id, catalog_item_id, description, quantity,
			unit_price, tax_rate, line_subtotal, line_tax
		FROM invoice_items WHERE invoice_id = ANY($1)
		ORDER BY invoice_id, position`, ids)
	if err != nil {
		return nil, err
	}

	type linkRow struct {
		invoiceID string
		link      domain.RecordLink
	}
	links, err := queryAll(ctx, r.tx, func(row pgx.Row) (linkRow, error) {
		var l linkRow
		err := row.Scan(&l.invoiceID, &l.link.Kind, &l.link.RecordID)
		return l, err
	}, "invoice links", `
		SELECT invoice_id, record_kind, record_id
		FROM invoice_links WHERE invoice_id = ANY($1)
		ORDER BY invoice_id, record_kind, record_id`, ids)
	if err != nil {
		return nil, err
	}

	itemsByInvoice := lo.GroupBy(items, func(it domain.InvoiceItem) string { return it.InvoiceID })
	linksByInvoice := lo.GroupBy(links, func(l linkRow) string { return l.invoiceID })
	for i := range invoices {
		invoices[i].Items = itemsByInvoice[invoices[i].ID]
		invoices[i].Links = lo.Map(linksByInvoice[invoices[i].ID], func(l linkRow, _ int) domain.RecordLink { return l.link })
	}
	return invoices, nil
}

func (r invoiceRepository) Save(ctx context.Context, i domain.Invoice) error {
	const query = `
		INSERT INTO invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`
	batch := &pgx.Batch{}
	batch.Queue(query, i.ID, i.Code, i.Subtotal, i.Tax, i.Discount, i.Total, i.FiscalNumber, i.CashSessionID, i.ClosureID,
		i.PaymentMethod, i.PaymentReference, i.PaidAt, i.PaidBy, i.CancelReason, i.State, stateDates(i.Lifecycle),
		i.CreatedAt, i.CreatedBy, i.LastUpdatedAt, i.LastUpdatedBy)
	for pos, it := range i.Items {
		batch.Queue(`
			INSERT INTO invoice_items (invoice_item_id, invoice_id, catalog_item_id, description, quantity,
				unit_price, tax_rate, line_subtotal, line_tax, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			it.ID, i.ID, it.CatalogItemID, it.Description, it.Quantity, it.UnitPrice, it.TaxRate, it.LineSubtotal, it.LineTax, pos)
	}
	for _, l := range i.Links {
		batch.Queue(`INSERT INTO invoice_links (invoice_id, record_kind, record_id) VALUES ($1, $2, $3)`,
			i.ID, l.Kind, l.RecordID)
	}
	return mapWriteError(r.tx.SendBatch(ctx, batch).Close(), "invoice")
}

const updateInvoiceQuery = `
	UPDATE invoices
	SET fiscal_number = $3, cash_session_id = $4, closure_id = $5, payment_method = $6, payment_reference = $7,
		paid_at = $8, paid_by = $9, cancel_reason = $10, state = $11, state_dates = $12,
		last_updated_at = $13, last_updated_by = $14
	WHERE invoice_id = $1 AND state = $2`

func updateInvoiceArgs(i domain.Invoice, from domain.State) []any {
	return []any{i.ID, from, i.FiscalNumber, i.CashSessionID, i.ClosureID, i.PaymentMethod, i.PaymentReference,
		i.PaidAt, i.PaidBy, i.CancelReason, i.State, stateDates(i.Lifecycle), i.LastUpdatedAt, i.LastUpdatedBy}
}

func (r invoiceRepository) Update(ctx context.Context, i domain.Invoice, from domain.State) error {
	return execGuarded(ctx, r.tx, "invoice", i.ID, from, updateInvoiceQuery, updateInvoiceArgs(i, from)...)
}

// UpdateMany sends all guarded updates in one batch and fails on the first invoice that moved.
func (r invoiceRepository) UpdateMany(ctx context.Context, invoices []domain.Invoice, from domain.State) error {
	if len(invoices) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, inv := range invoices {
		batch.Queue(updateInvoiceQuery, updateInvoiceArgs(inv, from)...)
	}
	results := r.tx.SendBatch(ctx, batch)
	defer results.Close()
	for _, inv := range invoices {
		tag, err := results.Exec()
		if err != nil {
			return mapWriteError(err, "invoice")
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: invoice %s is no longer %s", apperrors.ErrStateConflict, inv.ID, from)
		}
	}
	return nil
}

func (r invoiceRepository) listWhere(ctx context.Context, where string, args ...any) ([]domain.Invoice, error) {
	invoices, err := queryAll(ctx, r.tx, scanInvoice, "invoices",
		`SELECT `+invoiceColumns+` FROM invoices WHERE `+where, args...)
	if err != nil {
		return nil, err
	}
	return r.attachDetails(ctx, invoices)
}

func (r invoiceRepository) ListBySessionForUpdate(ctx context.Context, sessionID string) ([]domain.Invoice, error) {
	return r.listWhere(ctx, `cash_session_id = $1 ORDER BY created_at, code`+forUpdate, sessionID)
}

func (r invoiceRepository) ListByLink(ctx context.Context, kind domain.Kind, recordID string) ([]domain.Invoice, error) {
	return r.listWhere(ctx, `invoice_id IN (
			SELECT invoice_id FROM invoice_links WHERE record_kind = $1 AND record_id = $2)
		ORDER BY created_at, code`, kind, recordID)
}

func (r invoiceRepository) SavePayment(ctx context.Context, p domain.Payment) error {
	const query = `
		INSERT INTO payments (payment_id, invoice_id, cash_session_id, amount, method, reference, received_by, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.tx.Exec(ctx, query, p.ID, p.InvoiceID, p.CashSessionID, p.Amount, p.Method, p.Reference, p.ReceivedBy, p.ReceivedAt)
	return mapWriteError(err, "payment")
}

func (r invoiceRepository) ListPayments(ctx context.Context, invoiceID string) ([]domain.Payment, error) {
	return queryAll(ctx, r.tx, func(row pgx.Row) (domain.Payment, error) {
		var p domain.Payment
		err := row.Scan(&p.ID, &p.InvoiceID, &p.CashSessionID, &p.Amount, &p.Method, &p.Reference, &p.ReceivedBy, &p.ReceivedAt)
		return p, err
	}, "payments", `
		SELECT payment_id, invoice_id, cash_session_id, amount, method, reference, received_by, received_at
		FROM payments WHERE invoice_id = $1
		ORDER BY received_at`, invoiceID)
}
