package hiring_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/hiring-lifecycle/internal/domain/entity"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/repository"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/valueobject"
	"github.com/ignatzorin/hiring-lifecycle/internal/pkg/apperror"
	"github.com/ignatzorin/hiring-lifecycle/internal/usecase/hiring"
	"github.com/ignatzorin/hiring-lifecycle/internal/usecase/usecasetest"
)

func TestCreateHiring_ByDeliverables(t *testing.T) {
	env := usecasetest.New(t)
	out := env.Hiring(t, 30, 45.5, 24.5)

	assert.Equal(t, valueobject.HiringStatusApproved, out.Hiring.Status)
	require.Len(t, out.Deliverables, 3)
	for i, d := range out.Deliverables {
		assert.Equal(t, i+1, d.OrderIndex)
		assert.Equal(t, valueobject.DeliverableStatusPending, d.Status)
	}

	stored := env.LoadHiring(t, out.Hiring.ID)
	assert.Equal(t, 100.0, stored.QuotedPrice.Amount)
}

func TestCreateHiring_Rejects(t *testing.T) {
	env := usecasetest.New(t)
	ctx := context.Background()
	base := hiring.CreateHiringInput{
		Actor:           env.Client,
		ProviderID:      env.Provider.UserID,
		ServiceID:       uuid.New(),
		PaymentModality: string(valueobject.PaymentModalityByDeliverables),
		QuotedPrice:     100,
		Deliverables:    []entity.DeliverablePlan{{Title: "Макет", Price: 60}, {Title: "Вёрстка", Price: 30}},
	}

	_, err := env.UC.Hirings.Create.Execute(ctx, base)
	assert.True(t, apperror.IsValidation(err), "сумма этапов не совпадает с ценой")

	asProvider := base
	asProvider.Actor = env.Provider
	_, err = env.UC.Hirings.Create.Execute(ctx, asProvider)
	assert.True(t, apperror.IsForbidden(err))

	badModality := base
	badModality.PaymentModality = "installments"
	_, err = env.UC.Hirings.Create.Execute(ctx, badModality)
	assert.True(t, apperror.IsValidation(err))

	_, total, err := env.UC.Hirings.List.Execute(ctx, hiring.ListHiringsInput{Actor: env.Staff})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestStartHiring(t *testing.T) {
	env := usecasetest.New(t)
	ctx := context.Background()
	h := env.Hiring(t).Hiring

	_, err := env.UC.Hirings.Start.Execute(ctx, env.Client, h.ID)
	assert.True(t, apperror.IsForbidden(err))

	started, err := env.UC.Hirings.Start.Execute(ctx, env.Provider, h.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.HiringStatusInProgress, started.Status)
	assert.Equal(t, h.Version+1, started.Version)

	_, err = env.UC.Hirings.Start.Execute(ctx, env.Provider, h.ID)
	assert.True(t, apperror.IsStateConflict(err))
}

func TestGetHiring_Visibility(t *testing.T) {
	env := usecasetest.New(t)
	ctx := context.Background()
	h := env.Hiring(t, 50, 50).Hiring

	_, err := env.UC.Hirings.Get.Execute(ctx, env.Outsider, h.ID)
	assert.True(t, apperror.IsForbidden(err))

	// несуществующий найм для постороннего неотличим от чужого
	_, err = env.UC.Hirings.Get.Execute(ctx, env.Outsider, uuid.New())
	assert.True(t, apperror.IsForbidden(err))
	_, err = env.UC.Hirings.Get.Execute(ctx, env.Staff, uuid.New())
	assert.True(t, apperror.IsNotFound(err))

	details, err := env.UC.Hirings.Get.Execute(ctx, env.Client, h.ID)
	require.NoError(t, err)
	require.Len(t, details.Deliverables, 2)
	assert.False(t, details.Deliverables[0].IsLocked)
	assert.True(t, details.Deliverables[1].IsLocked)
	assert.Nil(t, details.ActiveClaim)

	views, err := env.UC.Hirings.ListDeliverables.Execute(ctx, env.Provider, h.ID)
	require.NoError(t, err)
	for _, v := range views {
		assert.False(t, v.IsLocked, "исполнитель видит все этапы открытыми")
	}

	env.OpenClaim(t, h.ID)
	details, err = env.UC.Hirings.Get.Execute(ctx, env.Staff, h.ID)
	require.NoError(t, err)
	require.NotNil(t, details.ActiveClaim)
	assert.Equal(t, valueobject.HiringStatusInClaim, details.Hiring.Status)
}

func TestListHirings(t *testing.T) {
	env := usecasetest.New(t)
	ctx := context.Background()
	env.Hiring(t)
	started := env.Hiring(t).Hiring
	_, err := env.UC.Hirings.Start.Execute(ctx, env.Provider, started.ID)
	require.NoError(t, err)

	tests := []struct {
		name     string
		actor    entity.Actor
		statuses []string
		want     int
	}{
		{"client sees own", env.Client, nil, 2},
		{"provider sees own", env.Provider, nil, 2},
		{"outsider sees nothing", env.Outsider, nil, 0},
		{"staff sees all", env.Staff, nil, 2},
		{"status filter", env.Client, []string{"in_progress"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, total, err := env.UC.Hirings.List.Execute(ctx, hiring.ListHiringsInput{
				Actor:    tt.actor,
				Statuses: tt.statuses,
				Page:     repository.Page{Limit: 10},
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, total)
			assert.Len(t, list, tt.want)
		})
	}

	_, _, err = env.UC.Hirings.List.Execute(ctx, hiring.ListHiringsInput{Actor: env.Client, Statuses: []string{"paused"}})
	assert.True(t, apperror.IsValidation(err))
}
