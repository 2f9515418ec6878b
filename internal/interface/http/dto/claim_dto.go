package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/entity"
	"github.com/ignatzorin/hiring-lifecycle/internal/usecase/claim"
)

type OpenClaimRequest struct {
	ClaimType   string `json:"claim_type" binding:"required"`
	Description string `json:"description" binding:"required"`
	Priority    string `json:"priority"`
}

type ClarificationRequest struct {
	Question string `json:"question" binding:"required"`
}

type ClarifyRequest struct {
	Answer string `json:"answer" binding:"required"`
}

type ComplianceSpecDTO struct {
	AssignedUserID uuid.UUID `json:"assigned_user_id"`
	ComplianceType string    `json:"compliance_type" binding:"required"`
	Instructions   string    `json:"instructions" binding:"required"`
	DeadlineDays   int       `json:"deadline_days" binding:"required"`
}

type ResolveClaimRequest struct {
	Resolution    string              `json:"resolution" binding:"required"`
	Justification string              `json:"justification" binding:"required"`
	Compliances   []ComplianceSpecDTO `json:"compliances" binding:"dive"`
}

func (r ResolveClaimRequest) Specs() []claim.ComplianceSpec {
	specs := make([]claim.ComplianceSpec, 0, len(r.Compliances))
	for _, c := range r.Compliances {
		specs = append(specs, claim.ComplianceSpec{
			AssignedUserID: c.AssignedUserID,
			ComplianceType: c.ComplianceType,
			Instructions:   c.Instructions,
			DeadlineDays:   c.DeadlineDays,
		})
	}
	return specs
}

type ClaimResponse struct {
	ID                      uuid.UUID  `json:"id"`
	HiringID                uuid.UUID  `json:"hiring_id"`
	ClaimantUserID          uuid.UUID  `json:"claimant_user_id"`
	RespondentUserID        uuid.UUID  `json:"respondent_user_id"`
	ClaimType               string     `json:"claim_type"`
	Description             string     `json:"description"`
	Status                  string     `json:"status"`
	Priority                string     `json:"priority"`
	ClarificationRequest    *string    `json:"clarification_request,omitempty"`
	ClarificationResponse   *string    `json:"clarification_response,omitempty"`
	StatusReason            *string    `json:"status_reason,omitempty"`
	ResolutionType          *string    `json:"resolution_type,omitempty"`
	ResolutionJustification *string    `json:"resolution_justification,omitempty"`
	ResolvedBy              *uuid.UUID `json:"resolved_by,omitempty"`
	ResolvedAt              *time.Time `json:"resolved_at,omitempty"`
	CreatedAt               time.Time  `json:"created_at"`
	UpdatedAt               time.Time  `json:"updated_at"`
}

// ToClaimResponse отдаёт канонический статус: устаревшие значения приводятся к текущим.
func ToClaimResponse(c *entity.Claim) ClaimResponse {
	resp := ClaimResponse{
		ID:                      c.ID,
		HiringID:                c.HiringID,
		ClaimantUserID:          c.ClaimantUserID,
		RespondentUserID:        c.RespondentUserID,
		ClaimType:               string(c.ClaimType),
		Description:             c.Description,
		Status:                  string(c.Status.Canonical()),
		Priority:                string(c.Priority),
		ClarificationRequest:    c.ClarificationRequest,
		ClarificationResponse:   c.ClarificationResponse,
		StatusReason:            c.StatusReason,
		ResolutionJustification: c.ResolutionJustification,
		ResolvedBy:              c.ResolvedBy,
		ResolvedAt:              c.ResolvedAt,
		CreatedAt:               c.CreatedAt,
		UpdatedAt:               c.UpdatedAt,
	}
	if c.ResolutionType != nil {
		r := string(*c.ResolutionType)
		resp.ResolutionType = &r
	}
	return resp
}

func ToClaimList(list []*entity.Claim) []ClaimResponse {
	out := make([]ClaimResponse, 0, len(list))
	for _, c := range list {
		out = append(out, ToClaimResponse(c))
	}
	return out
}

type ResolveClaimResponse struct {
	Claim       ClaimResponse        `json:"claim"`
	Hiring      HiringResponse       `json:"hiring"`
	Compliances []ComplianceResponse `json:"compliances"`
}

func ToResolveClaimResponse(out *claim.ResolveClaimOutput) ResolveClaimResponse {
	return ResolveClaimResponse{
		Claim:       ToClaimResponse(out.Claim),
		Hiring:      ToHiringResponse(out.Hiring),
		Compliances: ToComplianceList(out.Compliances),
	}
}
