package valueobject

import "github.com/ignatzorin/hiring-lifecycle/internal/pkg/apperror"

type ComplianceStatus string

const (
	ComplianceStatusPending              ComplianceStatus = "pending"
	ComplianceStatusSubmitted            ComplianceStatus = "submitted"
	ComplianceStatusPeerApproved         ComplianceStatus = "peer_approved"
	ComplianceStatusPeerObjected         ComplianceStatus = "peer_objected"
	ComplianceStatusInReview             ComplianceStatus = "in_review"
	ComplianceStatusRequiresAdjustment   ComplianceStatus = "requires_adjustment"
	ComplianceStatusApproved             ComplianceStatus = "approved"
	ComplianceStatusRejected             ComplianceStatus = "rejected"
	ComplianceStatusOverdue              ComplianceStatus = "overdue"
	ComplianceStatusWarning              ComplianceStatus = "warning"
	ComplianceStatusEscalated            ComplianceStatus = "escalated"
	ComplianceStatusFinishedByModeration ComplianceStatus = "finished_by_moderation"
)

var complianceTransitions = map[ComplianceStatus][]ComplianceStatus{
	ComplianceStatusPending:            {ComplianceStatusSubmitted},
	ComplianceStatusSubmitted:          {ComplianceStatusPeerApproved, ComplianceStatusPeerObjected},
	ComplianceStatusPeerApproved:       {ComplianceStatusApproved},
	ComplianceStatusPeerObjected:       {ComplianceStatusInReview},
	ComplianceStatusInReview:           {ComplianceStatusRequiresAdjustment, ComplianceStatusApproved, ComplianceStatusRejected},
	ComplianceStatusRequiresAdjustment: {ComplianceStatusSubmitted},
}

// escalationLevels задаёт порядок эскалации; уровень никогда не уменьшается.
var escalationLevels = map[ComplianceStatus]int{
	ComplianceStatusOverdue:              1,
	ComplianceStatusWarning:              2,
	ComplianceStatusEscalated:            3,
	ComplianceStatusFinishedByModeration: 4,
}

var escalationByLevel = []ComplianceStatus{
	"",
	ComplianceStatusOverdue,
	ComplianceStatusWarning,
	ComplianceStatusEscalated,
	ComplianceStatusFinishedByModeration,
}

func (s ComplianceStatus) IsValid() bool {
	if _, ok := complianceTransitions[s]; ok {
		return true
	}
	_, ok := escalationLevels[s]
	return ok || s == ComplianceStatusApproved || s == ComplianceStatusRejected
}

func (s ComplianceStatus) CanTransitionTo(next ComplianceStatus) bool {
	return canTransition(complianceTransitions, s, next)
}

func (s ComplianceStatus) IsTerminal() bool {
	switch s {
	case ComplianceStatusApproved, ComplianceStatusRejected, ComplianceStatusFinishedByModeration:
		return true
	}
	return false
}

// EscalationLevel возвращает уровень эскалации (0 - запись не эскалирована).
func (s ComplianceStatus) EscalationLevel() int {
	return escalationLevels[s]
}

// IsEscalationEligible сообщает, может ли просроченный дедлайн эскалировать запись.
func (s ComplianceStatus) IsEscalationEligible() bool {
	switch s {
	case ComplianceStatusPending, ComplianceStatusSubmitted:
		return true
	}
	level := s.EscalationLevel()
	return level > 0 && level < len(escalationByLevel)-1
}

// AcceptsSubmission сообщает, может ли исполнитель обязательства отправить ответ.
func (s ComplianceStatus) AcceptsSubmission() bool {
	return s == ComplianceStatusPending || s == ComplianceStatusRequiresAdjustment
}

// EscalationStatus возвращает статус для уровня эскалации.
func EscalationStatus(level int) ComplianceStatus {
	if level <= 0 {
		return ""
	}
	if level >= len(escalationByLevel) {
		level = len(escalationByLevel) - 1
	}
	return escalationByLevel[level]
}

type ComplianceType string

const (
	ComplianceTypeMonetary     ComplianceType = "monetary"
	ComplianceTypeWork         ComplianceType = "work"
	ComplianceTypeEvidence     ComplianceType = "evidence"
	ComplianceTypeConfirmation ComplianceType = "confirmation"
)

func NewComplianceType(v string) (ComplianceType, error) {
	t := ComplianceType(v)
	switch t {
	case ComplianceTypeMonetary, ComplianceTypeWork, ComplianceTypeEvidence, ComplianceTypeConfirmation:
		return t, nil
	}
	return "", apperror.Validation("некорректный тип обязательства: %q", v)
}

type ComplianceDecision string

const (
	ComplianceDecisionApprove           ComplianceDecision = "approved"
	ComplianceDecisionReject            ComplianceDecision = "rejected"
	ComplianceDecisionRequireAdjustment ComplianceDecision = "requires_adjustment"
)

func NewComplianceDecision(v string) (ComplianceDecision, error) {
	d := ComplianceDecision(v)
	switch d {
	case ComplianceDecisionApprove, ComplianceDecisionReject, ComplianceDecisionRequireAdjustment:
		return d, nil
	}
	return "", apperror.Validation("некорректное решение по обязательству: %q", v)
}
