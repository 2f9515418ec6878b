package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/entity"
)

type SubmitComplianceRequest struct {
	Response string          `json:"response" binding:"required"`
	Evidence []AttachmentDTO `json:"evidence" binding:"dive"`
}

type PeerReviewRequest struct {
	Approve *bool  `json:"approve" binding:"required"`
	Notes   string `json:"notes"`
}

type DecideComplianceRequest struct {
	Decision       string `json:"decision" binding:"required"`
	Notes          string `json:"notes"`
	AdjustmentDays int    `json:"adjustment_days"`
}

type ComplianceResponse struct {
	ID             uuid.UUID       `json:"id"`
	ClaimID        uuid.UUID       `json:"claim_id"`
	AssignedUserID uuid.UUID       `json:"assigned_user_id"`
	ComplianceType string          `json:"compliance_type"`
	Instructions   string          `json:"instructions"`
	Deadline       time.Time       `json:"deadline"`
	Status         string          `json:"status"`
	UserResponse   *string         `json:"user_response,omitempty"`
	EvidenceFiles  []AttachmentDTO `json:"evidence_files"`
	PeerReviewerID *uuid.UUID      `json:"peer_reviewer_id,omitempty"`
	PeerNotes      *string         `json:"peer_notes,omitempty"`
	ModeratorNotes *string         `json:"moderator_notes,omitempty"`
	SubmittedAt    *time.Time      `json:"submitted_at,omitempty"`
	ReviewedAt     *time.Time      `json:"reviewed_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func ToComplianceResponse(c *entity.Compliance) ComplianceResponse {
	return ComplianceResponse{
		ID:             c.ID,
		ClaimID:        c.ClaimID,
		AssignedUserID: c.AssignedUserID,
		ComplianceType: string(c.ComplianceType),
		Instructions:   c.Instructions,
		Deadline:       c.Deadline,
		Status:         string(c.Status),
		UserResponse:   c.UserResponse,
		EvidenceFiles:  FromAttachments(c.EvidenceFiles),
		PeerReviewerID: c.PeerReviewerID,
		PeerNotes:      c.PeerNotes,
		ModeratorNotes: c.ModeratorNotes,
		SubmittedAt:    c.SubmittedAt,
		ReviewedAt:     c.ReviewedAt,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func ToComplianceList(list []*entity.Compliance) []ComplianceResponse {
	out := make([]ComplianceResponse, 0, len(list))
	for _, c := range list {
		out = append(out, ToComplianceResponse(c))
	}
	return out
}
