package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/entity"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/repository"
	"github.com/ignatzorin/hiring-lifecycle/internal/pkg/apperror"
	"github.com/jmoiron/sqlx"
)

type DeliveryRepository struct {
	db *sqlx.DB
}

func NewDeliveryRepository(db *sqlx.DB) *DeliveryRepository {
	return &DeliveryRepository{db: db}
}

func (r *DeliveryRepository) Create(ctx context.Context, d *entity.Delivery) error {
	attachments, err := encodeAttachments(d.Attachments)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO deliveries (id, hiring_id, deliverable_id, content, attachments, status, price, currency,
		                        delivered_at, reviewed_at, revision_notes, approved_at, version, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err = conn(ctx, r.db).ExecContext(ctx, query,
		d.ID, d.HiringID, d.DeliverableID, d.Content, attachments, string(d.Status), d.Price.Amount, d.Price.Currency,
		d.DeliveredAt, d.ReviewedAt, d.RevisionNotes, d.ApprovedAt, d.Version, d.UpdatedAt,
	)
	return dbError(err, apperror.ErrDeliveryNotFound, "create delivery")
}

func (r *DeliveryRepository) Update(ctx context.Context, d *entity.Delivery) error {
	query := `
		UPDATE deliveries
		SET status = $3, reviewed_at = $4, revision_notes = $5, approved_at = $6, updated_at = $7,
		    version = version + 1
		WHERE id = $1 AND version = $2
	`
	return versioned(ctx, conn(ctx, r.db), "deliveries", d.ID, &d.Version, apperror.ErrDeliveryNotFound, query,
		d.ID, d.Version, string(d.Status), d.ReviewedAt, d.RevisionNotes, d.ApprovedAt, d.UpdatedAt,
	)
}

func (r *DeliveryRepository) get(ctx context.Context, query string, args ...any) (*entity.Delivery, error) {
	var row deliveryRow
	if err := conn(ctx, r.db).GetContext(ctx, &row, query, args...); err != nil {
		return nil, dbError(err, apperror.ErrDeliveryNotFound, "get delivery")
	}
	return row.toEntity()
}

func (r *DeliveryRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Delivery, error) {
	return r.get(ctx, `SELECT `+deliveryColumns+` FROM deliveries WHERE id = $1`, id)
}

func (r *DeliveryRepository) LockByID(ctx context.Context, id uuid.UUID) (*entity.Delivery, error) {
	return r.get(ctx, `SELECT `+deliveryColumns+` FROM deliveries WHERE id = $1 FOR UPDATE`, id)
}

func (r *DeliveryRepository) FindLatest(ctx context.Context, hiringID uuid.UUID, deliverableID *uuid.UUID) (*entity.Delivery, error) {
	query := `
		SELECT ` + deliveryColumns + `
		FROM deliveries
		WHERE hiring_id = $1 AND deliverable_id IS NOT DISTINCT FROM $2
		ORDER BY seq DESC
		LIMIT 1
	`
	return r.get(ctx, query, hiringID, deliverableID)
}

func (r *DeliveryRepository) ListByHiring(ctx context.Context, filter repository.DeliveryFilter) ([]*entity.Delivery, int, error) {
	var w where
	w.add("hiring_id = ?", filter.HiringID)
	if filter.DeliverableID != nil {
		w.add("deliverable_id = ?", *filter.DeliverableID)
	}
	if len(filter.Statuses) > 0 {
		w.add("status = ANY(?)", statusArray(filter.Statuses))
	}

	q := conn(ctx, r.db)
	var total int
	if err := q.GetContext(ctx, &total, `SELECT COUNT(*) FROM deliveries`+w.String(), w.args...); err != nil {
		return nil, 0, dbError(err, apperror.ErrDeliveryNotFound, "count deliveries")
	}
	query := `SELECT ` + deliveryColumns + ` FROM deliveries` + w.String() + ` ORDER BY seq DESC`
	query += w.page(filter.Page.Limit, filter.Page.Offset)

	var rows []deliveryRow
	if err := q.SelectContext(ctx, &rows, query, w.args...); err != nil {
		return nil, 0, dbError(err, apperror.ErrDeliveryNotFound, "list deliveries")
	}
	out := make([]*entity.Delivery, 0, len(rows))
	for _, row := range rows {
		d, err := row.toEntity()
		if err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	return out, total, nil
}

type PaymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, p *entity.Payment) error {
	query := `
		INSERT INTO payments (id, delivery_id, hiring_id, amount, currency, status, external_ref, redirect_url,
		                      fail_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		p.ID, p.DeliveryID, p.HiringID, p.Amount.Amount, p.Amount.Currency, string(p.Status), p.ExternalRef,
		p.RedirectURL, p.FailReason, p.CreatedAt, p.UpdatedAt,
	)
	return dbError(err, apperror.ErrPaymentNotFound, "create payment")
}

func (r *PaymentRepository) Update(ctx context.Context, p *entity.Payment) error {
	query := `UPDATE payments SET status = $2, fail_reason = $3, updated_at = $4 WHERE id = $1`
	res, err := conn(ctx, r.db).ExecContext(ctx, query, p.ID, string(p.Status), p.FailReason, p.UpdatedAt)
	if err != nil {
		return dbError(err, apperror.ErrPaymentNotFound, "update payment")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperror.ErrPaymentNotFound
	}
	return nil
}

func (r *PaymentRepository) get(ctx context.Context, query string, args ...any) (*entity.Payment, error) {
	var row paymentRow
	if err := conn(ctx, r.db).GetContext(ctx, &row, query, args...); err != nil {
		return nil, dbError(err, apperror.ErrPaymentNotFound, "get payment")
	}
	return row.toEntity(), nil
}

func (r *PaymentRepository) FindByExternalRef(ctx context.Context, ref string) (*entity.Payment, error) {
	return r.get(ctx, `SELECT `+paymentColumns+` FROM payments WHERE external_ref = $1`, ref)
}

func (r *PaymentRepository) FindLatestByDelivery(ctx context.Context, deliveryID uuid.UUID) (*entity.Payment, error) {
	return r.get(ctx, `SELECT `+paymentColumns+` FROM payments WHERE delivery_id = $1 ORDER BY seq DESC LIMIT 1`, deliveryID)
}
