package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/entity"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/repository"
	"github.com/ignatzorin/hiring-lifecycle/internal/pkg/apperror"
	"github.com/jmoiron/sqlx"
)

type HiringRepository struct {
	db *sqlx.DB
}

func NewHiringRepository(db *sqlx.DB) *HiringRepository {
	return &HiringRepository{db: db}
}

func (r *HiringRepository) Create(ctx context.Context, h *entity.Hiring) error {
	query := `
		INSERT INTO hirings (id, client_id, provider_id, service_id, payment_modality, quoted_price, currency,
		                     status, status_before_claim, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		h.ID, h.ClientID, h.ProviderID, h.ServiceID, string(h.PaymentModality),
		h.QuotedPrice.Amount, h.QuotedPrice.Currency, string(h.Status), optionalString(h.StatusBeforeClaim),
		h.Version, h.CreatedAt, h.UpdatedAt,
	)
	return dbError(err, apperror.ErrHiringNotFound, "create hiring")
}

func (r *HiringRepository) Update(ctx context.Context, h *entity.Hiring) error {
	query := `
		UPDATE hirings
		SET status = $3, status_before_claim = $4, updated_at = $5, version = version + 1
		WHERE id = $1 AND version = $2
	`
	return versioned(ctx, conn(ctx, r.db), "hirings", h.ID, &h.Version, apperror.ErrHiringNotFound, query,
		h.ID, h.Version, string(h.Status), optionalString(h.StatusBeforeClaim), h.UpdatedAt,
	)
}

func (r *HiringRepository) get(ctx context.Context, query string, args ...any) (*entity.Hiring, error) {
	var row hiringRow
	if err := conn(ctx, r.db).GetContext(ctx, &row, query, args...); err != nil {
		return nil, dbError(err, apperror.ErrHiringNotFound, "get hiring")
	}
	return row.toEntity(), nil
}

func (r *HiringRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Hiring, error) {
	return r.get(ctx, `SELECT `+hiringColumns+` FROM hirings WHERE id = $1`, id)
}

func (r *HiringRepository) LockByID(ctx context.Context, id uuid.UUID) (*entity.Hiring, error) {
	return r.get(ctx, `SELECT `+hiringColumns+` FROM hirings WHERE id = $1 FOR UPDATE`, id)
}

func (r *HiringRepository) List(ctx context.Context, filter repository.HiringFilter) ([]*entity.Hiring, int, error) {
	var w where
	if filter.ParticipantID != nil {
		w.add("(client_id = ? OR provider_id = ?)", *filter.ParticipantID)
	}
	if len(filter.Statuses) > 0 {
		w.add("status = ANY(?)", statusArray(filter.Statuses))
	}

	q := conn(ctx, r.db)
	var total int
	if err := q.GetContext(ctx, &total, `SELECT COUNT(*) FROM hirings`+w.String(), w.args...); err != nil {
		return nil, 0, dbError(err, apperror.ErrHiringNotFound, "count hirings")
	}
	query := `SELECT ` + hiringColumns + ` FROM hirings` + w.String() + ` ORDER BY created_at DESC`
	query += w.page(filter.Page.Limit, filter.Page.Offset)

	var rows []hiringRow
	if err := q.SelectContext(ctx, &rows, query, w.args...); err != nil {
		return nil, 0, dbError(err, apperror.ErrHiringNotFound, "list hirings")
	}
	out := make([]*entity.Hiring, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, total, nil
}

func (r *HiringRepository) ListOpenByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Hiring, error) {
	query := `
		SELECT ` + hiringColumns + `
		FROM hirings
		WHERE (client_id = $1 OR provider_id = $1)
		  AND status NOT IN ('completed', 'cancelled_by_claim', 'completed_by_claim', 'completed_with_agreement', 'cancelled_by_moderation')
		ORDER BY created_at
	`
	var rows []hiringRow
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, dbError(err, apperror.ErrHiringNotFound, "list open hirings")
	}
	out := make([]*entity.Hiring, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}

type DeliverableRepository struct {
	db *sqlx.DB
}

func NewDeliverableRepository(db *sqlx.DB) *DeliverableRepository {
	return &DeliverableRepository{db: db}
}

func (r *DeliverableRepository) CreateBatch(ctx context.Context, list []*entity.Deliverable) error {
	query := `
		INSERT INTO deliverables (id, hiring_id, title, description, price, currency, order_index,
		                          estimated_delivery_date, status, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	q := conn(ctx, r.db)
	for _, d := range list {
		_, err := q.ExecContext(ctx, query,
			d.ID, d.HiringID, d.Title, d.Description, d.Price.Amount, d.Price.Currency, d.OrderIndex,
			d.EstimatedDeliveryDate, string(d.Status), d.Version, d.CreatedAt, d.UpdatedAt,
		)
		if err != nil {
			return dbError(err, apperror.ErrDeliverableNotFound, "create deliverable")
		}
	}
	return nil
}

func (r *DeliverableRepository) Update(ctx context.Context, d *entity.Deliverable) error {
	query := `
		UPDATE deliverables
		SET status = $3, updated_at = $4, version = version + 1
		WHERE id = $1 AND version = $2
	`
	return versioned(ctx, conn(ctx, r.db), "deliverables", d.ID, &d.Version, apperror.ErrDeliverableNotFound, query,
		d.ID, d.Version, string(d.Status), d.UpdatedAt,
	)
}

func (r *DeliverableRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Deliverable, error) {
	var row deliverableRow
	query := `SELECT ` + deliverableColumns + ` FROM deliverables WHERE id = $1`
	if err := conn(ctx, r.db).GetContext(ctx, &row, query, id); err != nil {
		return nil, dbError(err, apperror.ErrDeliverableNotFound, "get deliverable")
	}
	return row.toEntity(), nil
}

func (r *DeliverableRepository) ListByHiring(ctx context.Context, hiringID uuid.UUID) ([]*entity.Deliverable, error) {
	var rows []deliverableRow
	query := `SELECT ` + deliverableColumns + ` FROM deliverables WHERE hiring_id = $1 ORDER BY order_index`
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, query, hiringID); err != nil {
		return nil, dbError(err, apperror.ErrDeliverableNotFound, "list deliverables")
	}
	out := make([]*entity.Deliverable, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}
