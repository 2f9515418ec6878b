package persistence

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/entity"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/valueobject"
	"github.com/jmoiron/sqlx/types"
)

type hiringRow struct {
	ID                uuid.UUID `db:"id"`
	ClientID          uuid.UUID `db:"client_id"`
	ProviderID        uuid.UUID `db:"provider_id"`
	ServiceID         uuid.UUID `db:"service_id"`
	PaymentModality   string    `db:"payment_modality"`
	QuotedPrice       float64   `db:"quoted_price"`
	Currency          string    `db:"currency"`
	Status            string    `db:"status"`
	StatusBeforeClaim *string   `db:"status_before_claim"`
	Version           int       `db:"version"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

const hiringColumns = `id, client_id, provider_id, service_id, payment_modality, quoted_price, currency,
	status, status_before_claim, version, created_at, updated_at`

func (r hiringRow) toEntity() *entity.Hiring {
	h := &entity.Hiring{
		ID:              r.ID,
		ClientID:        r.ClientID,
		ProviderID:      r.ProviderID,
		ServiceID:       r.ServiceID,
		PaymentModality: valueobject.PaymentModality(r.PaymentModality),
		QuotedPrice:     valueobject.Money{Amount: r.QuotedPrice, Currency: r.Currency},
		Status:          valueobject.HiringStatus(r.Status),
		Version:         r.Version,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if r.StatusBeforeClaim != nil {
		prev := valueobject.HiringStatus(*r.StatusBeforeClaim)
		h.StatusBeforeClaim = &prev
	}
	return h
}

type deliverableRow struct {
	ID                    uuid.UUID  `db:"id"`
	HiringID              uuid.UUID  `db:"hiring_id"`
	Title                 string     `db:"title"`
	Description           string     `db:"description"`
	Price                 float64    `db:"price"`
	Currency              string     `db:"currency"`
	OrderIndex            int        `db:"order_index"`
	EstimatedDeliveryDate *time.Time `db:"estimated_delivery_date"`
	Status                string     `db:"status"`
	Version               int        `db:"version"`
	CreatedAt             time.Time  `db:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at"`
}

const deliverableColumns = `id, hiring_id, title, description, price, currency, order_index,
	estimated_delivery_date, status, version, created_at, updated_at`

func (r deliverableRow) toEntity() *entity.Deliverable {
	return &entity.Deliverable{
		ID:                    r.ID,
		HiringID:              r.HiringID,
		OrderIndex:            r.OrderIndex,
		Title:                 r.Title,
		Description:           r.Description,
		Price:                 valueobject.Money{Amount: r.Price, Currency: r.Currency},
		EstimatedDeliveryDate: r.EstimatedDeliveryDate,
		Status:                valueobject.DeliverableStatus(r.Status),
		Version:               r.Version,
		CreatedAt:             r.CreatedAt,
		UpdatedAt:             r.UpdatedAt,
	}
}

type deliveryRow struct {
	ID            uuid.UUID      `db:"id"`
	HiringID      uuid.UUID      `db:"hiring_id"`
	DeliverableID *uuid.UUID     `db:"deliverable_id"`
	Content       string         `db:"content"`
	Attachments   types.JSONText `db:"attachments"`
	Status        string         `db:"status"`
	Price         float64        `db:"price"`
	Currency      string         `db:"currency"`
	DeliveredAt   time.Time      `db:"delivered_at"`
	ReviewedAt    *time.Time     `db:"reviewed_at"`
	RevisionNotes *string        `db:"revision_notes"`
	ApprovedAt    *time.Time     `db:"approved_at"`
	Version       int            `db:"version"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

const deliveryColumns = `id, hiring_id, deliverable_id, content, attachments, status, price, currency,
	delivered_at, reviewed_at, revision_notes, approved_at, version, updated_at`

func (r deliveryRow) toEntity() (*entity.Delivery, error) {
	attachments, err := decodeAttachments(r.Attachments)
	if err != nil {
		return nil, err
	}
	return &entity.Delivery{
		ID:            r.ID,
		HiringID:      r.HiringID,
		DeliverableID: r.DeliverableID,
		Content:       r.Content,
		Attachments:   attachments,
		Status:        valueobject.DeliveryStatus(r.Status),
		Price:         valueobject.Money{Amount: r.Price, Currency: r.Currency},
		DeliveredAt:   r.DeliveredAt,
		ReviewedAt:    r.ReviewedAt,
		RevisionNotes: r.RevisionNotes,
		ApprovedAt:    r.ApprovedAt,
		Version:       r.Version,
		UpdatedAt:     r.UpdatedAt,
	}, nil
}

type paymentRow struct {
	ID          uuid.UUID `db:"id"`
	DeliveryID  uuid.UUID `db:"delivery_id"`
	HiringID    uuid.UUID `db:"hiring_id"`
	Amount      float64   `db:"amount"`
	Currency    string    `db:"currency"`
	Status      string    `db:"status"`
	ExternalRef string    `db:"external_ref"`
	RedirectURL string    `db:"redirect_url"`
	FailReason  *string   `db:"fail_reason"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

const paymentColumns = `id, delivery_id, hiring_id, amount, currency, status, external_ref, redirect_url,
	fail_reason, created_at, updated_at`

func (r paymentRow) toEntity() *entity.Payment {
	return &entity.Payment{
		ID:          r.ID,
		DeliveryID:  r.DeliveryID,
		HiringID:    r.HiringID,
		Amount:      valueobject.Money{Amount: r.Amount, Currency: r.Currency},
		Status:      valueobject.PaymentStatus(r.Status),
		ExternalRef: r.ExternalRef,
		RedirectURL: r.RedirectURL,
		FailReason:  r.FailReason,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type claimRow struct {
	ID                      uuid.UUID  `db:"id"`
	HiringID                uuid.UUID  `db:"hiring_id"`
	ClaimantUserID          uuid.UUID  `db:"claimant_user_id"`
	RespondentUserID        uuid.UUID  `db:"respondent_user_id"`
	ClaimType               string     `db:"claim_type"`
	Description             string     `db:"description"`
	Status                  string     `db:"status"`
	Priority                string     `db:"priority"`
	ClarificationRequest    *string    `db:"clarification_request"`
	ClarificationResponse   *string    `db:"clarification_response"`
	StatusReason            *string    `db:"status_reason"`
	ResolutionType          *string    `db:"resolution_type"`
	ResolutionJustification *string    `db:"resolution_justification"`
	ResolvedBy              *uuid.UUID `db:"resolved_by"`
	ResolvedAt              *time.Time `db:"resolved_at"`
	Version                 int        `db:"version"`
	CreatedAt               time.Time  `db:"created_at"`
	UpdatedAt               time.Time  `db:"updated_at"`
}

const claimColumns = `id, hiring_id, claimant_user_id, respondent_user_id, claim_type, description, status,
	priority, clarification_request, clarification_response, status_reason, resolution_type,
	resolution_justification, resolved_by, resolved_at, version, created_at, updated_at`

func (r claimRow) toEntity() *entity.Claim {
	c := &entity.Claim{
		ID:                      r.ID,
		HiringID:                r.HiringID,
		ClaimantUserID:          r.ClaimantUserID,
		RespondentUserID:        r.RespondentUserID,
		ClaimType:               valueobject.ClaimType(r.ClaimType),
		Description:             r.Description,
		Status:                  valueobject.ClaimStatus(r.Status),
		Priority:                valueobject.ClaimPriority(r.Priority),
		ClarificationRequest:    r.ClarificationRequest,
		ClarificationResponse:   r.ClarificationResponse,
		StatusReason:            r.StatusReason,
		ResolutionJustification: r.ResolutionJustification,
		ResolvedBy:              r.ResolvedBy,
		ResolvedAt:              r.ResolvedAt,
		Version:                 r.Version,
		CreatedAt:               r.CreatedAt,
		UpdatedAt:               r.UpdatedAt,
	}
	if r.ResolutionType != nil {
		rt := valueobject.ResolutionType(*r.ResolutionType)
		c.ResolutionType = &rt
	}
	return c
}

type complianceRow struct {
	ID             uuid.UUID      `db:"id"`
	ClaimID        uuid.UUID      `db:"claim_id"`
	AssignedUserID uuid.UUID      `db:"assigned_user_id"`
	ComplianceType string         `db:"compliance_type"`
	Instructions   string         `db:"instructions"`
	Deadline       time.Time      `db:"deadline"`
	Status         string         `db:"status"`
	UserResponse   *string        `db:"user_response"`
	EvidenceFiles  types.JSONText `db:"evidence_files"`
	PeerReviewerID *uuid.UUID     `db:"peer_reviewer_id"`
	PeerNotes      *string        `db:"peer_notes"`
	ModeratorNotes *string        `db:"moderator_notes"`
	SubmittedAt    *time.Time     `db:"submitted_at"`
	ReviewedAt     *time.Time     `db:"reviewed_at"`
	Version        int            `db:"version"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

const complianceColumns = `id, claim_id, assigned_user_id, compliance_type, instructions, deadline, status,
	user_response, evidence_files, peer_reviewer_id, peer_notes, moderator_notes, submitted_at,
	reviewed_at, version, created_at, updated_at`

func (r complianceRow) toEntity() (*entity.Compliance, error) {
	evidence, err := decodeAttachments(r.EvidenceFiles)
	if err != nil {
		return nil, err
	}
	return &entity.Compliance{
		ID:             r.ID,
		ClaimID:        r.ClaimID,
		AssignedUserID: r.AssignedUserID,
		ComplianceType: valueobject.ComplianceType(r.ComplianceType),
		Instructions:   r.Instructions,
		Deadline:       r.Deadline,
		Status:         valueobject.ComplianceStatus(r.Status),
		UserResponse:   r.UserResponse,
		EvidenceFiles:  evidence,
		PeerReviewerID: r.PeerReviewerID,
		PeerNotes:      r.PeerNotes,
		ModeratorNotes: r.ModeratorNotes,
		SubmittedAt:    r.SubmittedAt,
		ReviewedAt:     r.ReviewedAt,
		Version:        r.Version,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}, nil
}

type analysisRow struct {
	ID                 uuid.UUID  `db:"id"`
	UserID             uuid.UUID  `db:"user_id"`
	Classification     string     `db:"classification"`
	TotalReports       int        `db:"total_reports"`
	OffensiveReports   int        `db:"offensive_reports"`
	ViolationReports   int        `db:"violation_reports"`
	AISummary          string     `db:"ai_summary"`
	SourceComplianceID *uuid.UUID `db:"source_compliance_id"`
	Resolved           bool       `db:"resolved"`
	ResolutionAction   *string    `db:"resolution_action"`
	ResolutionNotes    *string    `db:"resolution_notes"`
	SuspensionDays     *int       `db:"suspension_days"`
	ResolvedByEmail    *string    `db:"resolved_by_email"`
	ResolvedAt         *time.Time `db:"resolved_at"`
	Version            int        `db:"version"`
	CreatedAt          time.Time  `db:"created_at"`
}

const analysisColumns = `id, user_id, classification, total_reports, offensive_reports, violation_reports,
	ai_summary, source_compliance_id, resolved, resolution_action, resolution_notes, suspension_days,
	resolved_by_email, resolved_at, version, created_at`

func (r analysisRow) toEntity() *entity.ModerationAnalysis {
	a := &entity.ModerationAnalysis{
		ID:                 r.ID,
		UserID:             r.UserID,
		Classification:     valueobject.Classification(r.Classification),
		TotalReports:       r.TotalReports,
		OffensiveReports:   r.OffensiveReports,
		ViolationReports:   r.ViolationReports,
		AISummary:          r.AISummary,
		SourceComplianceID: r.SourceComplianceID,
		Resolved:           r.Resolved,
		ResolutionNotes:    r.ResolutionNotes,
		SuspensionDays:     r.SuspensionDays,
		ResolvedByEmail:    r.ResolvedByEmail,
		ResolvedAt:         r.ResolvedAt,
		Version:            r.Version,
		CreatedAt:          r.CreatedAt,
	}
	if r.ResolutionAction != nil {
		action := valueobject.ModerationAction(*r.ResolutionAction)
		a.ResolutionAction = &action
	}
	return a
}

type userRow struct {
	ID             uuid.UUID  `db:"id"`
	Email          string     `db:"email"`
	Role           string     `db:"role"`
	AccountStatus  string     `db:"account_status"`
	SuspendedUntil *time.Time `db:"suspended_until"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

func (r userRow) toEntity() *entity.User {
	return &entity.User{
		ID:             r.ID,
		Email:          r.Email,
		Role:           valueobject.Role(r.Role),
		AccountStatus:  valueobject.AccountStatus(r.AccountStatus),
		SuspendedUntil: r.SuspendedUntil,
		UpdatedAt:      r.UpdatedAt,
	}
}

func encodeAttachments(list []entity.Attachment) (types.JSONText, error) {
	if list == nil {
		list = []entity.Attachment{}
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("persistence: не удалось сериализовать вложения: %w", err)
	}
	return types.JSONText(raw), nil
}

func decodeAttachments(raw types.JSONText) ([]entity.Attachment, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var list []entity.Attachment
	if err := raw.Unmarshal(&list); err != nil {
		return nil, fmt.Errorf("persistence: повреждены данные вложений: %w", err)
	}
	return list, nil
}

func optionalString[S ~string](v *S) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

// where собирает условия WHERE с нумерацией параметров PostgreSQL.
type where struct {
	conds []string
	args  []any
}

func (w *where) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, strings.ReplaceAll(cond, "?", fmt.Sprintf("$%d", len(w.args))))
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// page добавляет LIMIT/OFFSET и возвращает хвост запроса.
func (w *where) page(limit, offset int) string {
	w.args = append(w.args, limit, offset)
	n := len(w.args)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", n-1, n)
}
