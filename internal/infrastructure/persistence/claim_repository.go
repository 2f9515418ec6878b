package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/entity"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/repository"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/valueobject"
	"github.com/ignatzorin/hiring-lifecycle/internal/pkg/apperror"
	"github.com/jmoiron/sqlx"
)

type ClaimRepository struct {
	db *sqlx.DB
}

func NewClaimRepository(db *sqlx.DB) *ClaimRepository {
	return &ClaimRepository{db: db}
}

// Create опирается на частичный уникальный индекс uq_claims_active_hiring:
// вторая активная претензия по найму отклоняется как конфликт.
func (r *ClaimRepository) Create(ctx context.Context, c *entity.Claim) error {
	query := `
		INSERT INTO claims (id, hiring_id, claimant_user_id, respondent_user_id, claim_type, description, status,
		                    priority, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		c.ID, c.HiringID, c.ClaimantUserID, c.RespondentUserID, string(c.ClaimType), c.Description,
		string(c.Status), string(c.Priority), c.Version, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		err = dbError(err, apperror.ErrClaimNotFound, "create claim")
		if apperror.IsStateConflict(err) {
			return apperror.StateConflict("по найму уже есть активная претензия")
		}
	}
	return err
}

func (r *ClaimRepository) Update(ctx context.Context, c *entity.Claim) error {
	query := `
		UPDATE claims
		SET status = $3, clarification_request = $4, clarification_response = $5, status_reason = $6,
		    resolution_type = $7, resolution_justification = $8, resolved_by = $9, resolved_at = $10,
		    updated_at = $11, version = version + 1
		WHERE id = $1 AND version = $2
	`
	return versioned(ctx, conn(ctx, r.db), "claims", c.ID, &c.Version, apperror.ErrClaimNotFound, query,
		c.ID, c.Version, string(c.Status), c.ClarificationRequest, c.ClarificationResponse, c.StatusReason,
		optionalString(c.ResolutionType), c.ResolutionJustification, c.ResolvedBy, c.ResolvedAt, c.UpdatedAt,
	)
}

func (r *ClaimRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Claim, error) {
	var row claimRow
	query := `SELECT ` + claimColumns + ` FROM claims WHERE id = $1`
	if err := conn(ctx, r.db).GetContext(ctx, &row, query, id); err != nil {
		return nil, dbError(err, apperror.ErrClaimNotFound, "get claim")
	}
	return row.toEntity(), nil
}

func (r *ClaimRepository) selectClaims(ctx context.Context, query string, args ...any) ([]*entity.Claim, error) {
	var rows []claimRow
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, dbError(err, apperror.ErrClaimNotFound, "list claims")
	}
	out := make([]*entity.Claim, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}

func (r *ClaimRepository) FindActiveByHiring(ctx context.Context, hiringID uuid.UUID) (*entity.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims WHERE hiring_id = $1 AND status = ANY($2) LIMIT 1`
	list, err := r.selectClaims(ctx, query, hiringID, statusArray(valueobject.ActiveClaimStatuses()))
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, apperror.ErrClaimNotFound
	}
	return list[0], nil
}

func (r *ClaimRepository) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Claim, error) {
	query := `
		SELECT ` + claimColumns + `
		FROM claims
		WHERE (claimant_user_id = $1 OR respondent_user_id = $1) AND status = ANY($2)
		ORDER BY created_at
	`
	return r.selectClaims(ctx, query, userID, statusArray(valueobject.ActiveClaimStatuses()))
}

func (r *ClaimRepository) List(ctx context.Context, filter repository.ClaimFilter) ([]*entity.Claim, int, error) {
	var w where
	if filter.ParticipantID != nil {
		w.add("(claimant_user_id = ? OR respondent_user_id = ?)", *filter.ParticipantID)
	}
	if filter.HiringID != nil {
		w.add("hiring_id = ?", *filter.HiringID)
	}
	if len(filter.Statuses) > 0 {
		w.add("status = ANY(?)", statusArray(filter.Statuses))
	}

	var total int
	if err := conn(ctx, r.db).GetContext(ctx, &total, `SELECT COUNT(*) FROM claims`+w.String(), w.args...); err != nil {
		return nil, 0, dbError(err, apperror.ErrClaimNotFound, "count claims")
	}
	query := `SELECT ` + claimColumns + ` FROM claims` + w.String() + ` ORDER BY created_at DESC`
	query += w.page(filter.Page.Limit, filter.Page.Offset)
	list, err := r.selectClaims(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

type ComplianceRepository struct {
	db *sqlx.DB
}

func NewComplianceRepository(db *sqlx.DB) *ComplianceRepository {
	return &ComplianceRepository{db: db}
}

func (r *ComplianceRepository) CreateBatch(ctx context.Context, list []*entity.Compliance) error {
	query := `
		INSERT INTO compliances (id, claim_id, assigned_user_id, compliance_type, instructions, deadline, status,
		                         evidence_files, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	q := conn(ctx, r.db)
	for _, c := range list {
		evidence, err := encodeAttachments(c.EvidenceFiles)
		if err != nil {
			return err
		}
		_, err = q.ExecContext(ctx, query,
			c.ID, c.ClaimID, c.AssignedUserID, string(c.ComplianceType), c.Instructions, c.Deadline,
			string(c.Status), evidence, c.Version, c.CreatedAt, c.UpdatedAt,
		)
		if err != nil {
			return dbError(err, apperror.ErrComplianceNotFound, "create compliance")
		}
	}
	return nil
}

func (r *ComplianceRepository) Update(ctx context.Context, c *entity.Compliance) error {
	evidence, err := encodeAttachments(c.EvidenceFiles)
	if err != nil {
		return err
	}
	query := `
		UPDATE compliances
		SET status = $3, deadline = $4, user_response = $5, evidence_files = $6, peer_reviewer_id = $7,
		    peer_notes = $8, moderator_notes = $9, submitted_at = $10, reviewed_at = $11, updated_at = $12,
		    version = version + 1
		WHERE id = $1 AND version = $2
	`
	return versioned(ctx, conn(ctx, r.db), "compliances", c.ID, &c.Version, apperror.ErrComplianceNotFound, query,
		c.ID, c.Version, string(c.Status), c.Deadline, c.UserResponse, evidence, c.PeerReviewerID,
		c.PeerNotes, c.ModeratorNotes, c.SubmittedAt, c.ReviewedAt, c.UpdatedAt,
	)
}

func (r *ComplianceRepository) selectCompliances(ctx context.Context, query string, args ...any) ([]*entity.Compliance, error) {
	var rows []complianceRow
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, dbError(err, apperror.ErrComplianceNotFound, "list compliances")
	}
	out := make([]*entity.Compliance, 0, len(rows))
	for _, row := range rows {
		c, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *ComplianceRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Compliance, error) {
	var row complianceRow
	query := `SELECT ` + complianceColumns + ` FROM compliances WHERE id = $1`
	if err := conn(ctx, r.db).GetContext(ctx, &row, query, id); err != nil {
		return nil, dbError(err, apperror.ErrComplianceNotFound, "get compliance")
	}
	return row.toEntity()
}

func (r *ComplianceRepository) List(ctx context.Context, filter repository.ComplianceFilter) ([]*entity.Compliance, int, error) {
	var w where
	if filter.ClaimID != nil {
		w.add("claim_id = ?", *filter.ClaimID)
	}
	if filter.ParticipantID != nil {
		w.add(`(assigned_user_id = ? OR claim_id IN (
			SELECT id FROM claims WHERE claimant_user_id = ? OR respondent_user_id = ?))`, *filter.ParticipantID)
	}
	if len(filter.Statuses) > 0 {
		w.add("status = ANY(?)", statusArray(filter.Statuses))
	}

	var total int
	if err := conn(ctx, r.db).GetContext(ctx, &total, `SELECT COUNT(*) FROM compliances`+w.String(), w.args...); err != nil {
		return nil, 0, dbError(err, apperror.ErrComplianceNotFound, "count compliances")
	}
	query := `SELECT ` + complianceColumns + ` FROM compliances` + w.String() + ` ORDER BY created_at DESC`
	query += w.page(filter.Page.Limit, filter.Page.Offset)
	list, err := r.selectCompliances(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListEscalationDue отбирает только записи, которым пора на следующий уровень.
func (r *ComplianceRepository) ListEscalationDue(ctx context.Context, policy entity.EscalationPolicy, now time.Time, limit int) ([]*entity.Compliance, error) {
	query := `
		SELECT ` + complianceColumns + `
		FROM compliances
		WHERE (status IN ('pending', 'submitted') AND deadline < $1)
			OR (status = 'overdue' AND deadline <= $2)
			OR (status = 'warning' AND deadline <= $3)
			OR (status = 'escalated' AND deadline <= $4)
		ORDER BY deadline
		LIMIT $5
	`
	return r.selectCompliances(ctx, query,
		now,
		now.Add(-policy.WarningAfter),
		now.Add(-policy.EscalateAfter),
		now.Add(-policy.FinishAfter),
		limit,
	)
}

func (r *ComplianceRepository) ListOpenByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Compliance, error) {
	query := `
		SELECT ` + complianceColumns + `
		FROM compliances
		WHERE assigned_user_id = $1 AND status NOT IN ('approved', 'rejected', 'finished_by_moderation')
		ORDER BY created_at
	`
	return r.selectCompliances(ctx, query, userID)
}
