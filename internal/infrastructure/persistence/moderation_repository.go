package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/entity"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/repository"
	"github.com/ignatzorin/hiring-lifecycle/internal/pkg/apperror"
	"github.com/jmoiron/sqlx"
)

type ModerationRepository struct {
	db *sqlx.DB
}

func NewModerationRepository(db *sqlx.DB) *ModerationRepository {
	return &ModerationRepository{db: db}
}

func (r *ModerationRepository) Create(ctx context.Context, a *entity.ModerationAnalysis) error {
	query := `
		INSERT INTO moderation_analyses (id, user_id, classification, total_reports, offensive_reports,
		                                 violation_reports, ai_summary, source_compliance_id, resolved, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		a.ID, a.UserID, string(a.Classification), a.TotalReports, a.OffensiveReports, a.ViolationReports,
		a.AISummary, a.SourceComplianceID, a.Resolved, a.Version, a.CreatedAt,
	)
	return dbError(err, apperror.ErrAnalysisNotFound, "create analysis")
}

func (r *ModerationRepository) Update(ctx context.Context, a *entity.ModerationAnalysis) error {
	query := `
		UPDATE moderation_analyses
		SET resolved = $3, resolution_action = $4, resolution_notes = $5, suspension_days = $6,
		    resolved_by_email = $7, resolved_at = $8, version = version + 1
		WHERE id = $1 AND version = $2
	`
	return versioned(ctx, conn(ctx, r.db), "moderation_analyses", a.ID, &a.Version, apperror.ErrAnalysisNotFound, query,
		a.ID, a.Version, a.Resolved, optionalString(a.ResolutionAction), a.ResolutionNotes, a.SuspensionDays,
		a.ResolvedByEmail, a.ResolvedAt,
	)
}

func (r *ModerationRepository) get(ctx context.Context, query string, id uuid.UUID) (*entity.ModerationAnalysis, error) {
	var row analysisRow
	if err := conn(ctx, r.db).GetContext(ctx, &row, query, id); err != nil {
		return nil, dbError(err, apperror.ErrAnalysisNotFound, "get analysis")
	}
	return row.toEntity(), nil
}

func (r *ModerationRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.ModerationAnalysis, error) {
	return r.get(ctx, `SELECT `+analysisColumns+` FROM moderation_analyses WHERE id = $1`, id)
}

func (r *ModerationRepository) LockByID(ctx context.Context, id uuid.UUID) (*entity.ModerationAnalysis, error) {
	return r.get(ctx, `SELECT `+analysisColumns+` FROM moderation_analyses WHERE id = $1 FOR UPDATE`, id)
}

func (r *ModerationRepository) List(ctx context.Context, filter repository.AnalysisFilter) ([]*entity.ModerationAnalysis, int, error) {
	var w where
	if filter.Resolved != nil {
		w.add("resolved = ?", *filter.Resolved)
	}
	if filter.Classification != "" {
		w.add("classification = ?", string(filter.Classification))
	}

	q := conn(ctx, r.db)
	var total int
	if err := q.GetContext(ctx, &total, `SELECT COUNT(*) FROM moderation_analyses`+w.String(), w.args...); err != nil {
		return nil, 0, dbError(err, apperror.ErrAnalysisNotFound, "count analyses")
	}
	query := `SELECT ` + analysisColumns + ` FROM moderation_analyses` + w.String() + ` ORDER BY created_at DESC`
	query += w.page(filter.Page.Limit, filter.Page.Offset)

	var rows []analysisRow
	if err := q.SelectContext(ctx, &rows, query, w.args...); err != nil {
		return nil, 0, dbError(err, apperror.ErrAnalysisNotFound, "list analyses")
	}
	out := make([]*entity.ModerationAnalysis, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, total, nil
}

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var row userRow
	query := `SELECT id, email, role, account_status, suspended_until, updated_at FROM users WHERE id = $1`
	if err := conn(ctx, r.db).GetContext(ctx, &row, query, id); err != nil {
		return nil, dbError(err, apperror.ErrUserNotFound, "get user")
	}
	return row.toEntity(), nil
}

func (r *UserRepository) UpdateAccountStatus(ctx context.Context, u *entity.User) error {
	query := `UPDATE users SET account_status = $2, suspended_until = $3, updated_at = $4 WHERE id = $1`
	res, err := conn(ctx, r.db).ExecContext(ctx, query, u.ID, string(u.AccountStatus), u.SuspendedUntil, u.UpdatedAt)
	if err != nil {
		return dbError(err, apperror.ErrUserNotFound, "update user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperror.ErrUserNotFound
	}
	return nil
}

type ListingRepository struct {
	db *sqlx.DB
}

func NewListingRepository(db *sqlx.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

func (r *ListingRepository) RetractByProvider(ctx context.Context, providerID uuid.UUID) (int, error) {
	query := `UPDATE service_listings SET active = FALSE, retracted_at = NOW() WHERE provider_id = $1 AND active`
	res, err := conn(ctx, r.db).ExecContext(ctx, query, providerID)
	if err != nil {
		return 0, dbError(err, apperror.ErrUserNotFound, "retract listings")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, dbError(err, apperror.ErrUserNotFound, "retract listings")
	}
	return int(n), nil
}
