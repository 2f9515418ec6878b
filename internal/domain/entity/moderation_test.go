package entity_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/hiring-lifecycle/internal/domain/entity"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/valueobject"
	"github.com/ignatzorin/hiring-lifecycle/internal/pkg/apperror"
)

func flagged(t *testing.T) *entity.ModerationAnalysis {
	t.Helper()
	a, err := entity.NewModerationAnalysis(entity.FlagInput{
		UserID:           uuid.New(),
		Classification:   string(valueobject.ClassificationBan),
		TotalReports:     5,
		OffensiveReports: 3,
		ViolationReports: 2,
		Summary:          " оскорбления в переписке ",
	}, now)
	require.NoError(t, err)
	return a
}

func TestNewModerationAnalysis(t *testing.T) {
	a := flagged(t)
	assert.Equal(t, "оскорбления в переписке", a.AISummary)
	assert.False(t, a.Resolved)

	tests := map[string]entity.FlagInput{
		"без пользователя":          {Classification: "Banear"},
		"неизвестная классификация": {UserID: uuid.New(), Classification: "Ignorar"},
		"категорий больше общего":   {UserID: uuid.New(), Classification: "Revisar", TotalReports: 1, OffensiveReports: 1, ViolationReports: 1},
		"отрицательное число":       {UserID: uuid.New(), Classification: "Revisar", TotalReports: -1},
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := entity.NewModerationAnalysis(in, now)
			assert.True(t, apperror.IsValidation(err), "got %v", err)
		})
	}
}

func TestNewComplianceAnalysis(t *testing.T) {
	c := newCompliance(t, 3)
	a := entity.NewComplianceAnalysis(c, now)

	assert.Equal(t, c.AssignedUserID, a.UserID)
	assert.Equal(t, valueobject.ClassificationReview, a.Classification)
	require.NotNil(t, a.SourceComplianceID)
	assert.Equal(t, c.ID, *a.SourceComplianceID)
}

func TestModerationAnalysis_Resolve(t *testing.T) {
	t.Run("блокировка требует заметки", func(t *testing.T) {
		a := flagged(t)
		err := a.Resolve(entity.ModerationResolution{Action: valueobject.ModerationActionBan}, now)
		assert.True(t, apperror.IsValidation(err))
		assert.False(t, a.Resolved)
	})

	t.Run("недопустимый срок приостановки", func(t *testing.T) {
		a := flagged(t)
		err := a.Resolve(entity.ModerationResolution{Action: valueobject.ModerationActionSuspend, Notes: "нарушение", SuspensionDays: 10}, now)
		assert.True(t, apperror.IsValidation(err))
		assert.Nil(t, a.SuspensionDays)
	})

	t.Run("приостановка", func(t *testing.T) {
		a := flagged(t)
		require.NoError(t, a.Resolve(entity.ModerationResolution{
			Action:          valueobject.ModerationActionSuspend,
			Notes:           "нарушение правил",
			SuspensionDays:  15,
			ResolvedByEmail: "mod@example.com",
		}, now))
		assert.True(t, a.Resolved)
		assert.Equal(t, 15, *a.SuspensionDays)
		assert.Equal(t, "mod@example.com", *a.ResolvedByEmail)
		assert.Equal(t, now, *a.ResolvedAt)

		again := a.Resolve(entity.ModerationResolution{Action: valueobject.ModerationActionRelease}, now)
		assert.True(t, apperror.IsAlreadyResolved(again))
		assert.Equal(t, valueobject.ModerationActionSuspend, *a.ResolutionAction)
	})

	t.Run("наблюдение без заметки", func(t *testing.T) {
		a := flagged(t)
		require.NoError(t, a.Resolve(entity.ModerationResolution{Action: valueobject.ModerationActionKeepMonitoring}, now))
		assert.Nil(t, a.ResolutionNotes)
		assert.Nil(t, a.SuspensionDays)
	})
}

func TestUser_AccountStatus(t *testing.T) {
	u := &entity.User{ID: uuid.New(), AccountStatus: valueobject.AccountStatusActive}

	u.Suspend(7, now)
	assert.Equal(t, valueobject.AccountStatusSuspended, u.AccountStatus)
	assert.Equal(t, now.Add(7*day), *u.SuspendedUntil)

	u.Ban(now)
	assert.Equal(t, valueobject.AccountStatusBanned, u.AccountStatus)
	assert.Nil(t, u.SuspendedUntil)

	u.Reactivate(now)
	assert.Equal(t, valueobject.AccountStatusActive, u.AccountStatus)
}
