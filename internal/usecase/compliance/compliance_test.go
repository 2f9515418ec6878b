package compliance_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ignatzorin/hiring-lifecycle/internal/domain/entity"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/repository"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/valueobject"
	"github.com/ignatzorin/hiring-lifecycle/internal/pkg/apperror"
	"github.com/ignatzorin/hiring-lifecycle/internal/usecase/claim"
	"github.com/ignatzorin/hiring-lifecycle/internal/usecase/compliance"
	"github.com/ignatzorin/hiring-lifecycle/internal/usecase/moderation"
	"github.com/ignatzorin/hiring-lifecycle/internal/usecase/usecasetest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var evidence = []entity.Attachment{{FileName: "fix.pdf", FilePath: "2026/03/02/fix.pdf", FileSize: 4096}}

// assign разрешает претензию и назначает исполнителю обязательства со сроками days.
func assign(t *testing.T, env *usecasetest.Env, days ...int) []*entity.Compliance {
	t.Helper()
	h := env.Hiring(t).Hiring
	c := env.ReviewedClaim(t, h.ID)
	specs := make([]claim.ComplianceSpec, 0, len(days))
	for _, d := range days {
		specs = append(specs, claim.ComplianceSpec{
			AssignedUserID: env.Provider.UserID,
			ComplianceType: "work",
			Instructions:   "Доделать адаптивную вёрстку",
			DeadlineDays:   d,
		})
	}
	out, err := env.UC.Claims.Resolve.Execute(context.Background(), claim.ResolveClaimInput{
		Actor:         env.Staff,
		ClaimID:       c.ID,
		Resolution:    string(valueobject.ResolutionPartialAgreement),
		Justification: usecasetest.Justification,
		Compliances:   specs,
	})
	require.NoError(t, err)
	return out.Compliances
}

func load(t *testing.T, env *usecasetest.Env, c *entity.Compliance) *entity.Compliance {
	t.Helper()
	stored, err := env.Repos.Compliances.FindByID(context.Background(), c.ID)
	require.NoError(t, err)
	return stored
}

func submit(env *usecasetest.Env, actor entity.Actor, c *entity.Compliance) (*entity.Compliance, error) {
	return env.UC.Compliances.Submit.Execute(context.Background(), compliance.SubmitComplianceInput{
		Actor:        actor,
		ComplianceID: c.ID,
		Response:     "Вёрстка исправлена, скриншоты приложены",
		Evidence:     evidence,
	})
}

func TestCompliance_PeerApprovedPath(t *testing.T) {
	env := usecasetest.New(t)
	ctx := context.Background()
	c := assign(t, env, 7)[0]

	_, err := submit(env, env.Client, c)
	assert.True(t, apperror.IsForbidden(err), "отвечает только исполнитель")
	_, err = submit(env, env.Outsider, c)
	assert.True(t, apperror.IsForbidden(err))

	submitted, err := submit(env, env.Provider, c)
	require.NoError(t, err)
	assert.Equal(t, valueobject.ComplianceStatusSubmitted, submitted.Status)
	assert.Len(t, submitted.EvidenceFiles, 1)

	_, err = env.UC.Compliances.PeerReview.Execute(ctx, compliance.PeerReviewInput{Actor: env.Provider, ComplianceID: c.ID, Approve: true})
	assert.True(t, apperror.IsForbidden(err), "исполнитель не проверяет сам себя")
	reviewed, err := env.UC.Compliances.PeerReview.Execute(ctx, compliance.PeerReviewInput{Actor: env.Client, ComplianceID: c.ID, Approve: true})
	require.NoError(t, err)
	assert.Equal(t, valueobject.ComplianceStatusPeerApproved, reviewed.Status)

	decide := compliance.DecideInput{Actor: env.Client, ComplianceID: c.ID, Decision: "approved"}
	_, err = env.UC.Compliances.Decide.Execute(ctx, decide)
	assert.True(t, apperror.IsForbidden(err))

	decide.Actor = env.Staff
	decide.Decision = "rejected"
	_, err = env.UC.Compliances.Decide.Execute(ctx, decide)
	assert.True(t, apperror.IsStateConflict(err))

	decide.Decision = "approved"
	decide.Notes = "Принято"
	approved, err := env.UC.Compliances.Decide.Execute(ctx, decide)
	require.NoError(t, err)
	assert.Equal(t, valueobject.ComplianceStatusApproved, approved.Status)
	assert.Equal(t, valueobject.ComplianceStatusApproved, load(t, env, c).Status)
	assert.Contains(t, env.Notifier.Names(env.Client.UserID), repository.EventComplianceUpdated)
}

func TestCompliance_AdjustmentAfterObjection(t *testing.T) {
	env := usecasetest.New(t)
	ctx := context.Background()
	c := assign(t, env, 7)[0]
	_, err := submit(env, env.Provider, c)
	require.NoError(t, err)

	_, err = env.UC.Compliances.PeerReview.Execute(ctx, compliance.PeerReviewInput{Actor: env.Client, ComplianceID: c.ID})
	assert.True(t, apperror.IsValidation(err), "возражение без комментария")
	objected, err := env.UC.Compliances.PeerReview.Execute(ctx, compliance.PeerReviewInput{
		Actor: env.Client, ComplianceID: c.ID, Notes: "Мобильная версия всё ещё ломается",
	})
	require.NoError(t, err)
	assert.Equal(t, valueobject.ComplianceStatusPeerObjected, objected.Status)

	_, err = env.UC.Compliances.StartReview.Execute(ctx, env.Provider, c.ID)
	assert.True(t, apperror.IsForbidden(err))
	_, err = env.UC.Compliances.StartReview.Execute(ctx, env.Staff, c.ID)
	require.NoError(t, err)

	env.Advance(2 * usecasetest.Day)
	adjusted, err := env.UC.Compliances.Decide.Execute(ctx, compliance.DecideInput{
		Actor: env.Staff, ComplianceID: c.ID, Decision: "requires_adjustment", Notes: "Поправьте мобильную версию", AdjustmentDays: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, valueobject.ComplianceStatusRequiresAdjustment, adjusted.Status)
	assert.Equal(t, env.Now().Add(3*usecasetest.Day), adjusted.Deadline)

	resubmitted, err := submit(env, env.Provider, c)
	require.NoError(t, err)
	assert.Equal(t, valueobject.ComplianceStatusSubmitted, resubmitted.Status)

	_, err = env.UC.Compliances.Decide.Execute(ctx, compliance.DecideInput{Actor: env.Staff, ComplianceID: c.ID, Decision: "postponed"})
	assert.True(t, apperror.IsValidation(err))
}

func TestCompliance_OverdueSubmissionPersistsEscalation(t *testing.T) {
	env := usecasetest.New(t)
	c := assign(t, env, 3)[0]

	env.Advance(3*usecasetest.Day + time.Hour)
	_, err := submit(env, env.Provider, c)
	assert.True(t, apperror.IsStateConflict(err))

	stored := load(t, env, c)
	assert.Equal(t, valueobject.ComplianceStatusOverdue, stored.Status)
	assert.Equal(t, c.Version+1, stored.Version)
	assert.Contains(t, env.Notifier.Names(env.Provider.UserID), repository.EventComplianceEscalated)
}

func TestCompliance_ListEvaluatesGetPersists(t *testing.T) {
	env := usecasetest.New(t)
	ctx := context.Background()
	c := assign(t, env, 3)[0]
	env.Advance(7 * usecasetest.Day)

	list, total, err := env.UC.Compliances.List.Execute(ctx, compliance.ListCompliancesInput{Actor: env.Provider})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, valueobject.ComplianceStatusWarning, list[0].Status)
	assert.Equal(t, valueobject.ComplianceStatusPending, load(t, env, c).Status, "список не сохраняет эскалацию")

	_, total, err = env.UC.Compliances.List.Execute(ctx, compliance.ListCompliancesInput{Actor: env.Outsider})
	require.NoError(t, err)
	assert.Zero(t, total)
	_, _, err = env.UC.Compliances.List.Execute(ctx, compliance.ListCompliancesInput{Actor: env.Staff, Statuses: []string{"late"}})
	assert.True(t, apperror.IsValidation(err))

	_, err = env.UC.Compliances.Get.Execute(ctx, env.Outsider, c.ID)
	assert.True(t, apperror.IsForbidden(err))

	got, err := env.UC.Compliances.Get.Execute(ctx, env.Client, c.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.ComplianceStatusWarning, got.Status)
	assert.Equal(t, valueobject.ComplianceStatusWarning, load(t, env, c).Status)
}

func TestSweep_EscalatesOverdue(t *testing.T) {
	env := usecasetest.New(t)
	ctx := context.Background()
	list := assign(t, env, 3, 7, 30)
	late, later, onTime := list[0], list[1], list[2]

	report, err := env.UC.Compliances.Sweep.Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, compliance.SweepReport{}, *report)

	env.Advance(18 * usecasetest.Day)
	report, err = env.UC.Compliances.Sweep.Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, compliance.SweepReport{Scanned: 2, Escalated: 2, Finished: 1}, *report)

	assert.Equal(t, valueobject.ComplianceStatusFinishedByModeration, load(t, env, late).Status)
	assert.Equal(t, valueobject.ComplianceStatusEscalated, load(t, env, later).Status)
	assert.Equal(t, valueobject.ComplianceStatusPending, load(t, env, onTime).Status)

	analyses, total, err := env.UC.Moderation.List.Execute(ctx, moderation.ListAnalysesInput{Actor: env.Staff})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, env.Provider.UserID, analyses[0].UserID)
	require.NotNil(t, analyses[0].SourceComplianceID)
	assert.Equal(t, late.ID, *analyses[0].SourceComplianceID)

	// повторный проход с тем же временем ничего не меняет
	report, err = env.UC.Compliances.Sweep.Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, compliance.SweepReport{}, *report)
}

func TestSweep_SmallBatchReachesEveryRecord(t *testing.T) {
	env := usecasetest.New(t)
	ctx := context.Background()
	list := assign(t, env, 1, 1)
	sweep := compliance.NewSweepUseCase(compliance.Deps{
		Tx:          env.Repos.Tx,
		Compliances: env.Repos.Compliances,
		Claims:      env.Repos.Claims,
		Analyses:    env.Repos.Analyses,
		Notifier:    env.Notifier,
		Policy:      entity.DefaultEscalationPolicy(),
		Clock:       env.Now,
	}, 1)

	env.Advance(8 * usecasetest.Day)
	for range 2 {
		report, err := sweep.Execute(ctx)
		require.NoError(t, err)
		assert.Equal(t, compliance.SweepReport{Scanned: 1, Escalated: 1}, *report)
	}
	for _, c := range list {
		assert.Equal(t, valueobject.ComplianceStatusEscalated, load(t, env, c).Status)
	}

	// уже эскалированные записи не занимают лимит прохода
	report, err := sweep.Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, compliance.SweepReport{}, *report)

	env.Advance(7 * usecasetest.Day)
	for range 2 {
		report, err := sweep.Execute(ctx)
		require.NoError(t, err)
		assert.Equal(t, compliance.SweepReport{Scanned: 1, Escalated: 1, Finished: 1}, *report)
	}
	_, total, err := env.UC.Moderation.List.Execute(ctx, moderation.ListAnalysesInput{Actor: env.Staff})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestSweeper_StartStop(t *testing.T) {
	env := usecasetest.New(t)
	c := assign(t, env, 3)[0]
	env.Advance(7 * usecasetest.Day)

	sweeper := compliance.NewSweeper(env.UC.Compliances.Sweep, 5*time.Millisecond)
	sweeper.Start(context.Background())
	sweeper.Start(context.Background())

	require.Eventually(t, func() bool {
		stored, err := env.Repos.Compliances.FindByID(context.Background(), c.ID)
		return err == nil && stored.Status == valueobject.ComplianceStatusWarning
	}, time.Second, 5*time.Millisecond)

	sweeper.Stop()
	sweeper.Stop()
}
