package delivery_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/hiring-lifecycle/internal/domain/entity"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/repository"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/valueobject"
	"github.com/ignatzorin/hiring-lifecycle/internal/pkg/apperror"
	"github.com/ignatzorin/hiring-lifecycle/internal/usecase/delivery"
	"github.com/ignatzorin/hiring-lifecycle/internal/usecase/usecasetest"
)

func approve(env *usecasetest.Env, deliveryID uuid.UUID) (*delivery.ReviewDeliveryOutput, error) {
	return env.UC.Deliveries.Review.Execute(context.Background(), delivery.ReviewDeliveryInput{
		Actor:      env.Client,
		DeliveryID: deliveryID,
		Action:     delivery.ActionApprove,
	})
}

func requestRevision(env *usecasetest.Env, deliveryID uuid.UUID, notes string) (*delivery.ReviewDeliveryOutput, error) {
	return env.UC.Deliveries.Review.Execute(context.Background(), delivery.ReviewDeliveryInput{
		Actor:      env.Client,
		DeliveryID: deliveryID,
		Action:     delivery.ActionRequestRevision,
		Notes:      notes,
	})
}

func confirm(env *usecasetest.Env, ref string, ok bool) (*delivery.ConfirmPaymentOutput, error) {
	cb := delivery.PaymentCallback{ExternalRef: ref, Succeeded: ok}
	if !ok {
		cb.Reason = "card_declined"
	}
	return env.UC.Deliveries.ConfirmPayment.Execute(context.Background(), cb)
}

func expectPayment(env *usecasetest.Env, deliveryID uuid.UUID) *repository.PaymentSession {
	session := usecasetest.Session()
	env.Gateway.On("InitiatePayment", mock.Anything, mock.MatchedBy(func(req repository.PaymentRequest) bool {
		return req.DeliveryID == deliveryID
	})).Return(session, nil).Once()
	return session
}

func TestSubmitDelivery_EnforcesDeliverableOrder(t *testing.T) {
	env := usecasetest.New(t)
	ctx := context.Background()
	out := env.Hiring(t, 30, 45.5, 24.5)
	h, first, second := out.Hiring, out.Deliverables[0], out.Deliverables[1]

	submit := func(actor entity.Actor, deliverableID *uuid.UUID) error {
		_, err := env.UC.Deliveries.Submit.Execute(ctx, delivery.SubmitDeliveryInput{
			Actor:         actor,
			HiringID:      h.ID,
			DeliverableID: deliverableID,
			Content:       "Готов второй этап работы",
		})
		return err
	}

	assert.True(t, apperror.IsOrderViolation(submit(env.Provider, &second.ID)))
	assert.True(t, apperror.IsValidation(submit(env.Provider, nil)))
	assert.True(t, apperror.IsForbidden(submit(env.Client, &first.ID)))
	unknown := uuid.New()
	assert.True(t, apperror.IsNotFound(submit(env.Provider, &unknown)))

	d := env.Submit(t, h.ID, &first.ID)
	assert.Equal(t, valueobject.DeliveryStatusDelivered, d.Status)
	assert.Equal(t, 30.0, d.Price.Amount)
	assert.Equal(t, valueobject.HiringStatusDelivered, env.LoadHiring(t, h.ID).Status)

	stage, err := env.Repos.Deliverables.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.DeliverableStatusDelivered, stage.Status)

	assert.True(t, apperror.IsStateConflict(submit(env.Provider, &first.ID)), "этап уже на проверке")
	assert.True(t, apperror.IsOrderViolation(submit(env.Provider, &second.ID)))
	assert.Contains(t, env.Notifier.Names(env.Client.UserID), repository.EventDeliverySubmitted)
}

func TestSubmitDelivery_FullPayment(t *testing.T) {
	env := usecasetest.New(t)
	ctx := context.Background()
	h := env.Hiring(t).Hiring

	stage := uuid.New()
	_, err := env.UC.Deliveries.Submit.Execute(ctx, delivery.SubmitDeliveryInput{
		Actor: env.Provider, HiringID: h.ID, DeliverableID: &stage, Content: "Работа готова целиком",
	})
	assert.True(t, apperror.IsValidation(err))

	_, err = env.UC.Deliveries.Submit.Execute(ctx, delivery.SubmitDeliveryInput{
		Actor: env.Provider, HiringID: h.ID, Content: "коротко",
	})
	assert.True(t, apperror.IsValidation(err))

	first := env.Submit(t, h.ID, nil)
	assert.Equal(t, 500.0, first.Price.Amount)

	_, err = env.UC.Deliveries.Submit.Execute(ctx, delivery.SubmitDeliveryInput{
		Actor: env.Provider, HiringID: h.ID, Content: "Ещё одна версия работы",
	})
	assert.True(t, apperror.IsStateConflict(err), "предыдущая сдача ещё на проверке")
}

func TestReviewDelivery_FullPaymentCompletesWithoutGateway(t *testing.T) {
	env := usecasetest.New(t)
	h := env.Hiring(t).Hiring
	d := env.Submit(t, h.ID, nil)

	out, err := approve(env, d.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.DeliveryStatusApproved, out.Delivery.Status)
	assert.Equal(t, valueobject.HiringStatusCompleted, out.Hiring.Status)
	assert.Empty(t, out.RedirectURL)
	env.Gateway.AssertNotCalled(t, "InitiatePayment", mock.Anything, mock.Anything)

	_, err = approve(env, d.ID)
	assert.True(t, apperror.IsStateConflict(err))
	assert.Contains(t, env.Notifier.Names(env.Provider.UserID), repository.EventDeliveryReviewed)
}

func TestReviewDelivery_Rejects(t *testing.T) {
	env := usecasetest.New(t)
	ctx := context.Background()
	h := env.Hiring(t).Hiring
	d := env.Submit(t, h.ID, nil)

	_, err := env.UC.Deliveries.Review.Execute(ctx, delivery.ReviewDeliveryInput{Actor: env.Client, DeliveryID: d.ID, Action: "reject"})
	assert.True(t, apperror.IsValidation(err))

	_, err = env.UC.Deliveries.Review.Execute(ctx, delivery.ReviewDeliveryInput{Actor: env.Provider, DeliveryID: d.ID, Action: delivery.ActionApprove})
	assert.True(t, apperror.IsForbidden(err))

	_, err = approve(env, uuid.New())
	assert.True(t, apperror.IsForbidden(err))

	_, err = requestRevision(env, d.ID, "  ")
	assert.True(t, apperror.IsValidation(err))
	assert.Equal(t, valueobject.DeliveryStatusDelivered, env.LoadDelivery(t, d.ID).Status)
}

func TestReviewDelivery_OnlyLatestIsReviewable(t *testing.T) {
	env := usecasetest.New(t)
	h := env.Hiring(t).Hiring
	first := env.Submit(t, h.ID, nil)

	out, err := requestRevision(env, first.ID, "Поправьте отступы в шапке")
	require.NoError(t, err)
	assert.Equal(t, valueobject.DeliveryStatusRevisionRequested, out.Delivery.Status)
	assert.Equal(t, valueobject.HiringStatusRevisionRequested, out.Hiring.Status)

	second := env.Submit(t, h.ID, nil)
	assert.Equal(t, valueobject.HiringStatusDelivered, env.LoadHiring(t, h.ID).Status)

	_, err = approve(env, first.ID)
	assert.True(t, apperror.IsStateConflict(err))

	out, err = approve(env, second.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.HiringStatusCompleted, out.Hiring.Status)
}

func TestReviewDelivery_GatewayFailureLeavesStateUnchanged(t *testing.T) {
	env := usecasetest.New(t)
	ctx := context.Background()
	out := env.Hiring(t, 40, 60)
	d := env.Submit(t, out.Hiring.ID, &out.Deliverables[0].ID)

	env.Gateway.On("InitiatePayment", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused")).Once()
	_, err := approve(env, d.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsExternal(err))

	stored := env.LoadDelivery(t, d.ID)
	assert.Equal(t, valueobject.DeliveryStatusDelivered, stored.Status)
	assert.Equal(t, d.Version, stored.Version)
	_, err = env.Repos.Payments.FindLatestByDelivery(ctx, d.ID)
	assert.True(t, apperror.IsNotFound(err))
	assert.Equal(t, valueobject.HiringStatusDelivered, env.LoadHiring(t, out.Hiring.ID).Status)

	// после восстановления шлюза одобрение проходит
	session := expectPayment(env, d.ID)
	res, err := approve(env, d.ID)
	require.NoError(t, err)
	assert.Equal(t, session.RedirectURL, res.RedirectURL)
	env.Gateway.AssertExpectations(t)
}

func TestPaymentFlow_ByDeliverables(t *testing.T) {
	env := usecasetest.New(t)
	ctx := context.Background()
	out := env.Hiring(t, 40, 60)
	h, first, second := out.Hiring, out.Deliverables[0], out.Deliverables[1]

	d1 := env.Submit(t, h.ID, &first.ID)
	session := expectPayment(env, d1.ID)
	res, err := approve(env, d1.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.DeliveryStatusPendingPayment, res.Delivery.Status)
	assert.Equal(t, session.RedirectURL, res.RedirectURL)

	p, err := env.Repos.Payments.FindLatestByDelivery(ctx, d1.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.PaymentStatusInitiated, p.Status)
	assert.Equal(t, 40.0, p.Amount.Amount)

	_, err = approve(env, d1.ID)
	assert.True(t, apperror.IsStateConflict(err), "оплата уже начата")

	// следующий этап закрыт, пока предыдущий не оплачен
	_, err = env.UC.Deliveries.Submit.Execute(ctx, delivery.SubmitDeliveryInput{
		Actor: env.Provider, HiringID: h.ID, DeliverableID: &second.ID, Content: "Второй этап готов заранее",
	})
	assert.True(t, apperror.IsOrderViolation(err))

	paid, err := confirm(env, session.ExternalRef, true)
	require.NoError(t, err)
	assert.Equal(t, valueobject.PaymentStatusConfirmed, paid.Payment.Status)
	assert.Equal(t, valueobject.DeliveryStatusApproved, paid.Delivery.Status)
	assert.Equal(t, valueobject.HiringStatusInProgress, paid.Hiring.Status)
	assert.Contains(t, env.Notifier.Names(env.Provider.UserID), repository.EventDeliveryPaid)

	_, err = confirm(env, session.ExternalRef, true)
	assert.True(t, apperror.IsAlreadyResolved(err))

	d2 := env.Submit(t, h.ID, &second.ID)
	session = expectPayment(env, d2.ID)
	_, err = approve(env, d2.ID)
	require.NoError(t, err)
	paid, err = confirm(env, session.ExternalRef, true)
	require.NoError(t, err)
	assert.Equal(t, valueobject.HiringStatusCompleted, paid.Hiring.Status)

	stages, err := env.Repos.Deliverables.ListByHiring(ctx, h.ID)
	require.NoError(t, err)
	assert.True(t, entity.AllApproved(stages))
	env.Gateway.AssertExpectations(t)
}

func TestPaymentFlow_FailedPaymentCanBeRetried(t *testing.T) {
	env := usecasetest.New(t)
	ctx := context.Background()
	out := env.Hiring(t, 100)
	d := env.Submit(t, out.Hiring.ID, &out.Deliverables[0].ID)

	failed := expectPayment(env, d.ID)
	_, err := approve(env, d.ID)
	require.NoError(t, err)

	res, err := confirm(env, failed.ExternalRef, false)
	require.NoError(t, err)
	assert.Equal(t, valueobject.PaymentStatusFailed, res.Payment.Status)
	assert.Equal(t, valueobject.DeliveryStatusPendingPayment, env.LoadDelivery(t, d.ID).Status)
	assert.Contains(t, env.Notifier.Names(env.Client.UserID), repository.EventPaymentFailed)

	_, err = confirm(env, failed.ExternalRef, false)
	assert.True(t, apperror.IsAlreadyResolved(err))

	retry := expectPayment(env, d.ID)
	_, err = approve(env, d.ID)
	require.NoError(t, err)
	p, err := env.Repos.Payments.FindLatestByDelivery(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, retry.ExternalRef, p.ExternalRef)

	paid, err := confirm(env, retry.ExternalRef, true)
	require.NoError(t, err)
	assert.Equal(t, valueobject.HiringStatusCompleted, paid.Hiring.Status)

	_, err = confirm(env, "", true)
	assert.True(t, apperror.IsValidation(err))
	_, err = confirm(env, "pay_unknown", true)
	assert.True(t, apperror.IsNotFound(err))
}

func TestReviewDelivery_ConcurrentApproveStartsOnePayment(t *testing.T) {
	env := usecasetest.New(t)
	ctx := context.Background()
	out := env.Hiring(t, 40, 60)
	d := env.Submit(t, out.Hiring.ID, &out.Deliverables[0].ID)

	env.Gateway.On("InitiatePayment", mock.Anything, mock.Anything).Return(usecasetest.Session(), nil)

	const attempts = 2
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = approve(env, d.ID)
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, apperror.IsStateConflict(err), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)

	stored := env.LoadDelivery(t, d.ID)
	assert.Equal(t, valueobject.DeliveryStatusPendingPayment, stored.Status)
	list, total, err := env.Repos.Deliveries.ListByHiring(ctx, repository.DeliveryFilter{HiringID: out.Hiring.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, list, 1)
}

func TestDeliveries_FrozenDuringClaim(t *testing.T) {
	env := usecasetest.New(t)
	ctx := context.Background()
	h := env.Hiring(t).Hiring
	d := env.Submit(t, h.ID, nil)
	env.OpenClaim(t, h.ID)

	_, err := approve(env, d.ID)
	assert.True(t, apperror.IsStateConflict(err))
	_, err = requestRevision(env, d.ID, "Нужны правки")
	assert.True(t, apperror.IsStateConflict(err))
	_, err = env.UC.Deliveries.Submit.Execute(ctx, delivery.SubmitDeliveryInput{
		Actor: env.Provider, HiringID: h.ID, Content: "Новая версия во время спора",
	})
	assert.True(t, apperror.IsStateConflict(err))
	assert.Equal(t, valueobject.DeliveryStatusDelivered, env.LoadDelivery(t, d.ID).Status)
}

func TestConfirmPayment_DuringClaimRestoresAfterCancel(t *testing.T) {
	env := usecasetest.New(t)
	ctx := context.Background()
	out := env.Hiring(t, 100)
	d := env.Submit(t, out.Hiring.ID, &out.Deliverables[0].ID)
	session := expectPayment(env, d.ID)
	_, err := approve(env, d.ID)
	require.NoError(t, err)

	c := env.OpenClaim(t, out.Hiring.ID)

	paid, err := confirm(env, session.ExternalRef, true)
	require.NoError(t, err)
	assert.Equal(t, valueobject.HiringStatusInClaim, paid.Hiring.Status)
	require.NotNil(t, paid.Hiring.StatusBeforeClaim)
	assert.Equal(t, valueobject.HiringStatusCompleted, *paid.Hiring.StatusBeforeClaim)

	_, err = env.UC.Claims.Cancel.Execute(ctx, env.Client, c.ID, "Оплата прошла, вопрос снят")
	require.NoError(t, err)
	assert.Equal(t, valueobject.HiringStatusCompleted, env.LoadHiring(t, out.Hiring.ID).Status)

	elig, err := env.UC.Claims.CanCreate.Execute(ctx, env.Client, out.Hiring.ID)
	require.NoError(t, err)
	assert.False(t, elig.Allowed)
}

func TestGetDelivery_WatermarksUntilApproved(t *testing.T) {
	env := usecasetest.New(t)
	ctx := context.Background()
	h := env.Hiring(t).Hiring

	stored, err := env.Files.Store(ctx, "notes.txt", strings.NewReader("финальный текст лендинга"))
	require.NoError(t, err)
	attachment := entity.Attachment{FileName: "notes.txt", FilePath: stored.Path, FileSize: stored.Size}
	d := env.Submit(t, h.ID, nil, attachment)

	view, err := env.UC.Deliveries.Get.Execute(ctx, env.Client, d.ID)
	require.NoError(t, err)
	assert.True(t, view.NeedsWatermark)
	assert.Equal(t, "protected/"+stored.Path, view.Attachments[0].FilePath)

	view, err = env.UC.Deliveries.Get.Execute(ctx, env.Provider, d.ID)
	require.NoError(t, err)
	assert.False(t, view.NeedsWatermark)
	assert.Equal(t, stored.Path, view.Attachments[0].FilePath)

	_, err = env.UC.Deliveries.Get.Execute(ctx, env.Outsider, d.ID)
	assert.True(t, apperror.IsForbidden(err))

	_, err = approve(env, d.ID)
	require.NoError(t, err)
	views, total, err := env.UC.Deliveries.List.Execute(ctx, delivery.ListDeliveriesInput{Actor: env.Client, HiringID: h.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.False(t, views[0].NeedsWatermark)
	assert.Equal(t, stored.Path, views[0].Attachments[0].FilePath)
}
