package compliance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/entity"
)

type SubmitComplianceInput struct {
	Actor        entity.Actor
	ComplianceID uuid.UUID
	Response     string
	Evidence     []entity.Attachment
}

type SubmitComplianceUseCase struct{ deps Deps }

func NewSubmitComplianceUseCase(deps Deps) *SubmitComplianceUseCase {
	return &SubmitComplianceUseCase{deps: deps}
}

// Execute принимает ответ исполнителя обязательства. Просроченное обязательство
// ответ не принимает.
func (uc *SubmitComplianceUseCase) Execute(ctx context.Context, input SubmitComplianceInput) (*entity.Compliance, error) {
	allowed := func(c *entity.Compliance, _ *entity.Claim) bool { return c.AssignedUserID == input.Actor.UserID }
	rules := entity.AttachmentRules{MaxFileSize: uc.deps.MaxFileSize}
	return uc.deps.command(ctx, input.Actor, input.ComplianceID, allowed, func(c *entity.Compliance, _ *entity.Claim, now time.Time) error {
		return c.Submit(input.Response, input.Evidence, rules, now)
	})
}
