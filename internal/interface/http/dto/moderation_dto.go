package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/entity"
	"github.com/ignatzorin/hiring-lifecycle/internal/usecase/moderation"
)

type ResolveAnalysisRequest struct {
	Action         string `json:"action" binding:"required"`
	Notes          string `json:"notes"`
	SuspensionDays int    `json:"suspension_days"`
}

type FlagUserRequest struct {
	UserID           uuid.UUID `json:"user_id"`
	Classification   string    `json:"classification" binding:"required"`
	TotalReports     int       `json:"total_reports" binding:"gte=0"`
	OffensiveReports int       `json:"offensive_reports" binding:"gte=0"`
	ViolationReports int       `json:"violation_reports" binding:"gte=0"`
	Summary          string    `json:"summary"`
}

func (r FlagUserRequest) Input() entity.FlagInput {
	return entity.FlagInput{
		UserID:           r.UserID,
		Classification:   r.Classification,
		TotalReports:     r.TotalReports,
		OffensiveReports: r.OffensiveReports,
		ViolationReports: r.ViolationReports,
		Summary:          r.Summary,
	}
}

type AnalysisResponse struct {
	ID                 uuid.UUID  `json:"id"`
	UserID             uuid.UUID  `json:"user_id"`
	Classification     string     `json:"classification"`
	TotalReports       int        `json:"total_reports"`
	OffensiveReports   int        `json:"offensive_reports"`
	ViolationReports   int        `json:"violation_reports"`
	AISummary          string     `json:"ai_summary"`
	SourceComplianceID *uuid.UUID `json:"source_compliance_id,omitempty"`
	Resolved           bool       `json:"resolved"`
	ResolutionAction   *string    `json:"resolution_action,omitempty"`
	ResolutionNotes    *string    `json:"resolution_notes,omitempty"`
	SuspensionDays     *int       `json:"suspension_days,omitempty"`
	ResolvedByEmail    *string    `json:"resolved_by_email,omitempty"`
	ResolvedAt         *time.Time `json:"resolved_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

func ToAnalysisResponse(a *entity.ModerationAnalysis) AnalysisResponse {
	resp := AnalysisResponse{
		ID:                 a.ID,
		UserID:             a.UserID,
		Classification:     string(a.Classification),
		TotalReports:       a.TotalReports,
		OffensiveReports:   a.OffensiveReports,
		ViolationReports:   a.ViolationReports,
		AISummary:          a.AISummary,
		SourceComplianceID: a.SourceComplianceID,
		Resolved:           a.Resolved,
		ResolutionNotes:    a.ResolutionNotes,
		SuspensionDays:     a.SuspensionDays,
		ResolvedByEmail:    a.ResolvedByEmail,
		ResolvedAt:         a.ResolvedAt,
		CreatedAt:          a.CreatedAt,
	}
	if a.ResolutionAction != nil {
		action := string(*a.ResolutionAction)
		resp.ResolutionAction = &action
	}
	return resp
}

func ToAnalysisList(list []*entity.ModerationAnalysis) []AnalysisResponse {
	out := make([]AnalysisResponse, 0, len(list))
	for _, a := range list {
		out = append(out, ToAnalysisResponse(a))
	}
	return out
}

type ResolveAnalysisResponse struct {
	Analysis AnalysisResponse          `json:"analysis"`
	Cascade  moderation.CascadeSummary `json:"cascade"`
}
