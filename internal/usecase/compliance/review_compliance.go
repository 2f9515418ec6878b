package compliance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/entity"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/valueobject"
)

type PeerReviewInput struct {
	Actor        entity.Actor
	ComplianceID uuid.UUID
	Approve      bool
	Notes        string
}

type PeerReviewUseCase struct{ deps Deps }

func NewPeerReviewUseCase(deps Deps) *PeerReviewUseCase {
	return &PeerReviewUseCase{deps: deps}
}

// Execute: ответ проверяет вторая сторона претензии, не исполнитель обязательства.
func (uc *PeerReviewUseCase) Execute(ctx context.Context, input PeerReviewInput) (*entity.Compliance, error) {
	allowed := func(c *entity.Compliance, claim *entity.Claim) bool {
		return claim.IsParty(input.Actor.UserID) && c.AssignedUserID != input.Actor.UserID
	}
	return uc.deps.command(ctx, input.Actor, input.ComplianceID, allowed, func(c *entity.Compliance, _ *entity.Claim, now time.Time) error {
		return c.PeerReview(input.Actor.UserID, input.Approve, input.Notes, now)
	})
}

func staffOnly(actor entity.Actor) func(*entity.Compliance, *entity.Claim) bool {
	return func(*entity.Compliance, *entity.Claim) bool { return actor.IsStaff() }
}

type StartReviewUseCase struct{ deps Deps }

func NewStartReviewUseCase(deps Deps) *StartReviewUseCase {
	return &StartReviewUseCase{deps: deps}
}

func (uc *StartReviewUseCase) Execute(ctx context.Context, actor entity.Actor, complianceID uuid.UUID) (*entity.Compliance, error) {
	return uc.deps.command(ctx, actor, complianceID, staffOnly(actor), func(c *entity.Compliance, _ *entity.Claim, now time.Time) error {
		return c.StartReview(now)
	})
}

type DecideInput struct {
	Actor          entity.Actor
	ComplianceID   uuid.UUID
	Decision       string
	Notes          string
	AdjustmentDays int
}

type DecideUseCase struct{ deps Deps }

func NewDecideUseCase(deps Deps) *DecideUseCase {
	return &DecideUseCase{deps: deps}
}

func (uc *DecideUseCase) Execute(ctx context.Context, input DecideInput) (*entity.Compliance, error) {
	decision, err := valueobject.NewComplianceDecision(input.Decision)
	if err != nil {
		return nil, err
	}
	return uc.deps.command(ctx, input.Actor, input.ComplianceID, staffOnly(input.Actor), func(c *entity.Compliance, _ *entity.Claim, now time.Time) error {
		return c.Decide(decision, input.Notes, input.AdjustmentDays, now)
	})
}
