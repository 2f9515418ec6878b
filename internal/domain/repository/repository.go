package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/entity"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/valueobject"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

type Page struct {
	Limit  int
	Offset int
}

// Normalize приводит пагинацию к допустимым границам.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// TxManager выполняет fn в одной транзакции. Репозитории, получившие ctx из fn,
// работают внутри неё.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Update во всех репозиториях проверяет Version и увеличивает его;
// при расхождении возвращается apperror.ErrConcurrentUpdate.

type HiringRepository interface {
	Create(ctx context.Context, hiring *entity.Hiring) error
	Update(ctx context.Context, hiring *entity.Hiring) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Hiring, error)
	// LockByID блокирует строку найма до конца транзакции.
	LockByID(ctx context.Context, id uuid.UUID) (*entity.Hiring, error)
	List(ctx context.Context, filter HiringFilter) ([]*entity.Hiring, int, error)
	ListOpenByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Hiring, error)
}

type HiringFilter struct {
	ParticipantID *uuid.UUID
	Statuses      []valueobject.HiringStatus
	Page          Page
}

type DeliverableRepository interface {
	CreateBatch(ctx context.Context, deliverables []*entity.Deliverable) error
	Update(ctx context.Context, deliverable *entity.Deliverable) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Deliverable, error)
	ListByHiring(ctx context.Context, hiringID uuid.UUID) ([]*entity.Deliverable, error)
}

type DeliveryRepository interface {
	Create(ctx context.Context, delivery *entity.Delivery) error
	Update(ctx context.Context, delivery *entity.Delivery) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Delivery, error)
	LockByID(ctx context.Context, id uuid.UUID) (*entity.Delivery, error)
	// FindLatest возвращает последнюю сдачу по этапу (или по найму, если deliverableID == nil).
	FindLatest(ctx context.Context, hiringID uuid.UUID, deliverableID *uuid.UUID) (*entity.Delivery, error)
	ListByHiring(ctx context.Context, filter DeliveryFilter) ([]*entity.Delivery, int, error)
}

type DeliveryFilter struct {
	HiringID      uuid.UUID
	DeliverableID *uuid.UUID
	Statuses      []valueobject.DeliveryStatus
	Page          Page
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	Update(ctx context.Context, payment *entity.Payment) error
	FindByExternalRef(ctx context.Context, ref string) (*entity.Payment, error)
	FindLatestByDelivery(ctx context.Context, deliveryID uuid.UUID) (*entity.Payment, error)
}

type ClaimRepository interface {
	Create(ctx context.Context, claim *entity.Claim) error
	Update(ctx context.Context, claim *entity.Claim) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Claim, error)
	// FindActiveByHiring возвращает нетерминальную претензию или apperror.ErrClaimNotFound.
	FindActiveByHiring(ctx context.Context, hiringID uuid.UUID) (*entity.Claim, error)
	ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Claim, error)
	List(ctx context.Context, filter ClaimFilter) ([]*entity.Claim, int, error)
}

type ClaimFilter struct {
	ParticipantID *uuid.UUID
	HiringID      *uuid.UUID
	Statuses      []valueobject.ClaimStatus
	Page          Page
}

type ComplianceRepository interface {
	CreateBatch(ctx context.Context, compliances []*entity.Compliance) error
	Update(ctx context.Context, compliance *entity.Compliance) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Compliance, error)
	List(ctx context.Context, filter ComplianceFilter) ([]*entity.Compliance, int, error)
	// ListEscalationDue возвращает записи, чей уровень эскалации на момент now выше сохранённого,
	// начиная с самого раннего срока.
	ListEscalationDue(ctx context.Context, policy entity.EscalationPolicy, now time.Time, limit int) ([]*entity.Compliance, error)
	ListOpenByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Compliance, error)
}

type ComplianceFilter struct {
	// ParticipantID ограничивает выборку обязательствами пользователя и претензиями, где он сторона.
	ParticipantID *uuid.UUID
	ClaimID       *uuid.UUID
	Statuses      []valueobject.ComplianceStatus
	Page          Page
}

type ModerationRepository interface {
	Create(ctx context.Context, analysis *entity.ModerationAnalysis) error
	Update(ctx context.Context, analysis *entity.ModerationAnalysis) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.ModerationAnalysis, error)
	LockByID(ctx context.Context, id uuid.UUID) (*entity.ModerationAnalysis, error)
	List(ctx context.Context, filter AnalysisFilter) ([]*entity.ModerationAnalysis, int, error)
}

type AnalysisFilter struct {
	Resolved       *bool
	Classification valueobject.Classification
	Page           Page
}

type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	UpdateAccountStatus(ctx context.Context, user *entity.User) error
}

type ListingRepository interface {
	// RetractByProvider снимает с публикации все активные услуги пользователя.
	RetractByProvider(ctx context.Context, providerID uuid.UUID) (int, error)
}

// Set - все репозитории одного хранилища вместе с его транзакциями.
type Set struct {
	Tx           TxManager
	Hirings      HiringRepository
	Deliverables DeliverableRepository
	Deliveries   DeliveryRepository
	Payments     PaymentRepository
	Claims       ClaimRepository
	Compliances  ComplianceRepository
	Analyses     ModerationRepository
	Users        UserRepository
	Listings     ListingRepository
}
