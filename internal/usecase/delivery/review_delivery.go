package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/entity"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/repository"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/valueobject"
	"github.com/ignatzorin/hiring-lifecycle/internal/logger"
	"github.com/ignatzorin/hiring-lifecycle/internal/pkg/apperror"
	"github.com/ignatzorin/hiring-lifecycle/internal/usecase"
)

const (
	ActionApprove         = "approve"
	ActionRequestRevision = "request_revision"
)

type ReviewDeliveryInput struct {
	Actor      entity.Actor
	DeliveryID uuid.UUID
	Action     string
	Notes      string
}

type ReviewDeliveryOutput struct {
	Delivery *entity.Delivery
	Hiring   *entity.Hiring
	// RedirectURL заполняется, если одобрение запустило оплату этапа.
	RedirectURL string
}

type ReviewDeliveryUseCase struct {
	tx              repository.TxManager
	hiringRepo      repository.HiringRepository
	deliverableRepo repository.DeliverableRepository
	deliveryRepo    repository.DeliveryRepository
	claimRepo       repository.ClaimRepository
	paymentRepo     repository.PaymentRepository
	gateway         repository.PaymentGateway
	notifier        repository.Notifier
	paymentTimeout  time.Duration
	clock           usecase.Clock
}

type ReviewDeliveryDeps struct {
	Tx             repository.TxManager
	Hirings        repository.HiringRepository
	Deliverables   repository.DeliverableRepository
	Deliveries     repository.DeliveryRepository
	Claims         repository.ClaimRepository
	Payments       repository.PaymentRepository
	Gateway        repository.PaymentGateway
	Notifier       repository.Notifier
	PaymentTimeout time.Duration
	Clock          usecase.Clock
}

func NewReviewDeliveryUseCase(deps ReviewDeliveryDeps) *ReviewDeliveryUseCase {
	timeout := deps.PaymentTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ReviewDeliveryUseCase{
		tx:              deps.Tx,
		hiringRepo:      deps.Hirings,
		deliverableRepo: deps.Deliverables,
		deliveryRepo:    deps.Deliveries,
		claimRepo:       deps.Claims,
		paymentRepo:     deps.Payments,
		gateway:         deps.Gateway,
		notifier:        deps.Notifier,
		paymentTimeout:  timeout,
		clock:           deps.Clock,
	}
}

// reviewTarget - сдача, найм и этап, заблокированные в транзакции проверки.
type reviewTarget struct {
	delivery    *entity.Delivery
	hiring      *entity.Hiring
	deliverable *entity.Deliverable
}

func (uc *ReviewDeliveryUseCase) load(ctx context.Context, actor entity.Actor, deliveryID uuid.UUID) (*reviewTarget, error) {
	d, err := uc.deliveryRepo.LockByID(ctx, deliveryID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.Forbidden()
		}
		return nil, err
	}
	h, err := uc.hiringRepo.LockByID(ctx, d.HiringID)
	if err != nil {
		return nil, err
	}
	if !h.IsClient(actor.UserID) {
		return nil, apperror.Forbidden()
	}
	if err := ensureNotFrozen(ctx, uc.claimRepo, h); err != nil {
		return nil, err
	}
	latest, err := uc.deliveryRepo.FindLatest(ctx, h.ID, d.DeliverableID)
	if err != nil {
		return nil, err
	}
	if latest.ID != d.ID {
		return nil, apperror.StateConflict("проверять можно только последнюю сдачу")
	}
	t := &reviewTarget{delivery: d, hiring: h}
	if d.DeliverableID != nil {
		t.deliverable, err = uc.deliverableRepo.FindByID(ctx, *d.DeliverableID)
		if err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (uc *ReviewDeliveryUseCase) Execute(ctx context.Context, input ReviewDeliveryInput) (*ReviewDeliveryOutput, error) {
	switch input.Action {
	case ActionRequestRevision:
		return uc.requestRevision(ctx, input)
	case ActionApprove:
		return uc.approve(ctx, input)
	default:
		return nil, apperror.Validation("некорректное действие проверки: %q", input.Action)
	}
}

func (uc *ReviewDeliveryUseCase) requestRevision(ctx context.Context, input ReviewDeliveryInput) (*ReviewDeliveryOutput, error) {
	var out *ReviewDeliveryOutput
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		t, err := uc.load(ctx, input.Actor, input.DeliveryID)
		if err != nil {
			return err
		}
		if t.delivery.Status != valueobject.DeliveryStatusDelivered {
			return apperror.StateConflict("запросить доработку можно только по сдаче в статусе delivered")
		}
		now := uc.clock.Now()
		if err := t.delivery.RequestRevision(input.Notes, now); err != nil {
			return err
		}
		if t.deliverable != nil {
			if err := t.deliverable.RequestRevision(now); err != nil {
				return err
			}
			if err := uc.deliverableRepo.Update(ctx, t.deliverable); err != nil {
				return err
			}
		}
		from := t.hiring.Status
		if err := t.hiring.MarkRevisionRequested(now); err != nil {
			return err
		}
		if err := uc.hiringRepo.Update(ctx, t.hiring); err != nil {
			return err
		}
		if err := uc.deliveryRepo.Update(ctx, t.delivery); err != nil {
			return err
		}
		logger.Transition("delivery", t.delivery.ID, valueobject.DeliveryStatusDelivered, t.delivery.Status, input.Actor.UserID)
		logger.Transition("hiring", t.hiring.ID, from, t.hiring.Status, input.Actor.UserID)
		out = &ReviewDeliveryOutput{Delivery: t.delivery, Hiring: t.hiring}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.notifyReviewed(ctx, out)
	return out, nil
}

func (uc *ReviewDeliveryUseCase) approve(ctx context.Context, input ReviewDeliveryInput) (*ReviewDeliveryOutput, error) {
	var (
		out     *ReviewDeliveryOutput
		pending *reviewTarget
	)
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		t, err := uc.load(ctx, input.Actor, input.DeliveryID)
		if err != nil {
			return err
		}
		if !t.hiring.ByDeliverables() {
			return uc.approveWithoutPayment(ctx, t, input.Actor, &out)
		}
		if err := uc.ensurePayable(ctx, t.delivery); err != nil {
			return err
		}
		pending = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out != nil {
		uc.notifyReviewed(ctx, out)
		return out, nil
	}
	return uc.initiatePayment(ctx, input.Actor, pending)
}

// approveWithoutPayment закрывает сдачу найма с полной оплатой и завершает найм.
func (uc *ReviewDeliveryUseCase) approveWithoutPayment(ctx context.Context, t *reviewTarget, actor entity.Actor, out **ReviewDeliveryOutput) error {
	if t.delivery.Status != valueobject.DeliveryStatusDelivered {
		return apperror.StateConflict("одобрить можно только сдачу в статусе delivered")
	}
	now := uc.clock.Now()
	if err := t.delivery.Approve(now); err != nil {
		return err
	}
	from := t.hiring.Status
	if err := t.hiring.Complete(now); err != nil {
		return err
	}
	if err := uc.deliveryRepo.Update(ctx, t.delivery); err != nil {
		return err
	}
	if err := uc.hiringRepo.Update(ctx, t.hiring); err != nil {
		return err
	}
	logger.Transition("delivery", t.delivery.ID, valueobject.DeliveryStatusDelivered, t.delivery.Status, actor.UserID)
	logger.Transition("hiring", t.hiring.ID, from, t.hiring.Status, actor.UserID)
	*out = &ReviewDeliveryOutput{Delivery: t.delivery, Hiring: t.hiring}
	return nil
}

// ensurePayable: оплату можно начать по сдаче в статусе delivered или повторить,
// если последний платёж по ней завершился ошибкой.
func (uc *ReviewDeliveryUseCase) ensurePayable(ctx context.Context, d *entity.Delivery) error {
	switch d.Status {
	case valueobject.DeliveryStatusDelivered:
		return nil
	case valueobject.DeliveryStatusPendingPayment:
		p, err := uc.paymentRepo.FindLatestByDelivery(ctx, d.ID)
		if err != nil && !apperror.IsNotFound(err) {
			return err
		}
		if err == nil && p.Status != valueobject.PaymentStatusFailed {
			return apperror.StateConflict("оплата по сдаче уже начата")
		}
		return nil
	default:
		return apperror.StateConflict("одобрить можно только сдачу в статусе delivered")
	}
}

// initiatePayment вызывает платёжный шлюз вне транзакции. При ошибке шлюза сдача
// остаётся в исходном статусе. Результат фиксируется, только если сдача не изменилась.
func (uc *ReviewDeliveryUseCase) initiatePayment(ctx context.Context, actor entity.Actor, t *reviewTarget) (*ReviewDeliveryOutput, error) {
	expectedVersion := t.delivery.Version

	callCtx, cancel := context.WithTimeout(ctx, uc.paymentTimeout)
	session, err := uc.gateway.InitiatePayment(callCtx, repository.PaymentRequest{
		DeliveryID:  t.delivery.ID,
		HiringID:    t.hiring.ID,
		Amount:      t.delivery.Price,
		Description: paymentDescription(t),
	})
	cancel()
	if err != nil {
		logger.L().WithError(err).WithField("delivery_id", t.delivery.ID).Warn("payment initiation failed")
		return nil, apperror.External(err, "платёжный сервис недоступен, повторите попытку")
	}

	var out *ReviewDeliveryOutput
	err = uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		cur, err := uc.load(ctx, actor, t.delivery.ID)
		if err != nil {
			return err
		}
		if cur.delivery.Version != expectedVersion {
			return apperror.ErrConcurrentUpdate
		}
		now := uc.clock.Now()
		from := cur.delivery.Status
		if from == valueobject.DeliveryStatusDelivered {
			if err := cur.delivery.MarkPendingPayment(now); err != nil {
				return err
			}
		} else {
			cur.delivery.UpdatedAt = now
		}
		if err := uc.deliveryRepo.Update(ctx, cur.delivery); err != nil {
			return err
		}
		if err := uc.paymentRepo.Create(ctx, entity.NewPayment(cur.delivery, session.ExternalRef, session.RedirectURL, now)); err != nil {
			return err
		}
		logger.Transition("delivery", cur.delivery.ID, from, cur.delivery.Status, actor.UserID)
		out = &ReviewDeliveryOutput{Delivery: cur.delivery, Hiring: cur.hiring, RedirectURL: session.RedirectURL}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func paymentDescription(t *reviewTarget) string {
	if t.deliverable != nil {
		return fmt.Sprintf("Оплата этапа %d: %s", t.deliverable.OrderIndex, t.deliverable.Title)
	}
	return "Оплата работы по найму"
}

func (uc *ReviewDeliveryUseCase) notifyReviewed(ctx context.Context, out *ReviewDeliveryOutput) {
	usecase.Dispatch(ctx, uc.notifier, []usecase.Notification{{
		UserID: out.Hiring.ProviderID,
		Event:  repository.EventDeliveryReviewed,
		Data:   map[string]any{"delivery_id": out.Delivery.ID, "status": out.Delivery.Status},
	}})
}
