package memory

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/entity"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/repository"
	"github.com/ignatzorin/hiring-lifecycle/internal/pkg/apperror"
)

func hirings(d *data) table[entity.Hiring] { return d.hirings }
func deliverables(d *data) table[entity.Deliverable] { return d.deliverables }
func deliveries(d *data) table[entity.Delivery] { return d.deliveries }
func payments(d *data) table[entity.Payment] { return d.payments }
func claims(d *data) table[entity.Claim] { return d.claims }
func compliances(d *data) table[entity.Compliance] { return d.compliances }
func analyses(d *data) table[entity.ModerationAnalysis] { return d.analyses }
func users(d *data) table[entity.User] { return d.users }

func hiringVersion(h *entity.Hiring) *int { return &h.Version }
func deliverableVersion(d *entity.Deliverable) *int { return &d.Version }
func deliveryVersion(d *entity.Delivery) *int { return &d.Version }
func claimVersion(c *entity.Claim) *int { return &c.Version }
func complianceVersion(c *entity.Compliance) *int { return &c.Version }
func analysisVersion(a *entity.ModerationAnalysis) *int { return &a.Version }

// Repositories собирает все репозитории поверх одного Store.
type Repositories struct {
	Hirings      *HiringRepository
	Deliverables *DeliverableRepository
	Deliveries   *DeliveryRepository
	Payments     *PaymentRepository
	Claims       *ClaimRepository
	Compliances  *ComplianceRepository
	Moderation   *ModerationRepository
	Users        *UserRepository
	Listings     *ListingRepository
}

func (s *Store) Repositories() Repositories {
	return Repositories{
		Hirings:      &HiringRepository{s: s},
		Deliverables: &DeliverableRepository{s: s},
		Deliveries:   &DeliveryRepository{s: s},
		Payments:     &PaymentRepository{s: s},
		Claims:       &ClaimRepository{s: s},
		Compliances:  &ComplianceRepository{s: s},
		Moderation:   &ModerationRepository{s: s},
		Users:        &UserRepository{s: s},
		Listings:     &ListingRepository{s: s},
	}
}

type HiringRepository struct{ s *Store }

func (r *HiringRepository) Create(ctx context.Context, h *entity.Hiring) error {
	return insert(r.s, hirings, h.ID, *h)
}

func (r *HiringRepository) Update(ctx context.Context, h *entity.Hiring) error {
	return update(r.s, hirings, h.ID, h, hiringVersion, apperror.ErrHiringNotFound)
}

func (r *HiringRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Hiring, error) {
	return get(r.s, hirings, id, apperror.ErrHiringNotFound)
}

func (r *HiringRepository) LockByID(ctx context.Context, id uuid.UUID) (*entity.Hiring, error) {
	return r.FindByID(ctx, id)
}

func (r *HiringRepository) List(ctx context.Context, filter repository.HiringFilter) ([]*entity.Hiring, int, error) {
	items := find(r.s, hirings, func(_ *data, h *entity.Hiring) bool {
		if filter.ParticipantID != nil && !h.IsParty(*filter.ParticipantID) {
			return false
		}
		return len(filter.Statuses) == 0 || slices.Contains(filter.Statuses, h.Status)
	})
	page, total := paginate(items, filter.Page)
	return page, total, nil
}

func (r *HiringRepository) ListOpenByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Hiring, error) {
	return find(r.s, hirings, func(_ *data, h *entity.Hiring) bool {
		return h.IsParty(userID) && !h.Status.IsTerminal()
	}), nil
}

type DeliverableRepository struct{ s *Store }

func (r *DeliverableRepository) CreateBatch(ctx context.Context, list []*entity.Deliverable) error {
	for _, d := range list {
		if err := insert(r.s, deliverables, d.ID, *d); err != nil {
			return err
		}
	}
	return nil
}

func (r *DeliverableRepository) Update(ctx context.Context, d *entity.Deliverable) error {
	return update(r.s, deliverables, d.ID, d, deliverableVersion, apperror.ErrDeliverableNotFound)
}

func (r *DeliverableRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Deliverable, error) {
	return get(r.s, deliverables, id, apperror.ErrDeliverableNotFound)
}

func (r *DeliverableRepository) ListByHiring(ctx context.Context, hiringID uuid.UUID) ([]*entity.Deliverable, error) {
	list := find(r.s, deliverables, func(_ *data, d *entity.Deliverable) bool { return d.HiringID == hiringID })
	entity.SortDeliverables(list)
	return list, nil
}

type DeliveryRepository struct{ s *Store }

func (r *DeliveryRepository) Create(ctx context.Context, d *entity.Delivery) error {
	v := *d
	v.Attachments = slices.Clone(d.Attachments)
	return insert(r.s, deliveries, d.ID, v)
}

func (r *DeliveryRepository) Update(ctx context.Context, d *entity.Delivery) error {
	return update(r.s, deliveries, d.ID, d, deliveryVersion, apperror.ErrDeliveryNotFound)
}

func (r *DeliveryRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Delivery, error) {
	return get(r.s, deliveries, id, apperror.ErrDeliveryNotFound)
}

func (r *DeliveryRepository) LockByID(ctx context.Context, id uuid.UUID) (*entity.Delivery, error) {
	return r.FindByID(ctx, id)
}

func sameDeliverable(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (r *DeliveryRepository) FindLatest(ctx context.Context, hiringID uuid.UUID, deliverableID *uuid.UUID) (*entity.Delivery, error) {
	items := find(r.s, deliveries, func(_ *data, d *entity.Delivery) bool {
		return d.HiringID == hiringID && sameDeliverable(d.DeliverableID, deliverableID)
	})
	if len(items) == 0 {
		return nil, apperror.ErrDeliveryNotFound
	}
	return items[0], nil
}

func (r *DeliveryRepository) ListByHiring(ctx context.Context, filter repository.DeliveryFilter) ([]*entity.Delivery, int, error) {
	items := find(r.s, deliveries, func(_ *data, d *entity.Delivery) bool {
		if d.HiringID != filter.HiringID {
			return false
		}
		if filter.DeliverableID != nil && !sameDeliverable(d.DeliverableID, filter.DeliverableID) {
			return false
		}
		return len(filter.Statuses) == 0 || slices.Contains(filter.Statuses, d.Status)
	})
	page, total := paginate(items, filter.Page)
	return page, total, nil
}

type PaymentRepository struct{ s *Store }

func (r *PaymentRepository) Create(ctx context.Context, p *entity.Payment) error {
	return insert(r.s, payments, p.ID, *p)
}

func (r *PaymentRepository) Update(ctx context.Context, p *entity.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.data.payments[p.ID]
	if !ok {
		return apperror.ErrPaymentNotFound
	}
	r.s.data.payments[p.ID] = row[entity.Payment]{v: *p, seq: cur.seq}
	return nil
}

func (r *PaymentRepository) FindByExternalRef(ctx context.Context, ref string) (*entity.Payment, error) {
	items := find(r.s, payments, func(_ *data, p *entity.Payment) bool { return p.ExternalRef == ref })
	if len(items) == 0 {
		return nil, apperror.ErrPaymentNotFound
	}
	return items[0], nil
}

func (r *PaymentRepository) FindLatestByDelivery(ctx context.Context, deliveryID uuid.UUID) (*entity.Payment, error) {
	items := find(r.s, payments, func(_ *data, p *entity.Payment) bool { return p.DeliveryID == deliveryID })
	if len(items) == 0 {
		return nil, apperror.ErrPaymentNotFound
	}
	return items[0], nil
}

type ClaimRepository struct{ s *Store }

// Create соблюдает ограничение «одна активная претензия на найм», как частичный уникальный индекс в PostgreSQL.
func (r *ClaimRepository) Create(ctx context.Context, c *entity.Claim) error {
	active := find(r.s, claims, func(_ *data, other *entity.Claim) bool {
		return other.HiringID == c.HiringID && other.IsActive()
	})
	if len(active) > 0 {
		return apperror.StateConflict("по найму уже есть активная претензия")
	}
	return insert(r.s, claims, c.ID, *c)
}

func (r *ClaimRepository) Update(ctx context.Context, c *entity.Claim) error {
	return update(r.s, claims, c.ID, c, claimVersion, apperror.ErrClaimNotFound)
}

func (r *ClaimRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Claim, error) {
	return get(r.s, claims, id, apperror.ErrClaimNotFound)
}

func (r *ClaimRepository) FindActiveByHiring(ctx context.Context, hiringID uuid.UUID) (*entity.Claim, error) {
	items := find(r.s, claims, func(_ *data, c *entity.Claim) bool {
		return c.HiringID == hiringID && c.IsActive()
	})
	if len(items) == 0 {
		return nil, apperror.ErrClaimNotFound
	}
	return items[0], nil
}

func (r *ClaimRepository) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Claim, error) {
	return find(r.s, claims, func(_ *data, c *entity.Claim) bool {
		return c.IsParty(userID) && c.IsActive()
	}), nil
}

func (r *ClaimRepository) List(ctx context.Context, filter repository.ClaimFilter) ([]*entity.Claim, int, error) {
	items := find(r.s, claims, func(_ *data, c *entity.Claim) bool {
		if filter.ParticipantID != nil && !c.IsParty(*filter.ParticipantID) {
			return false
		}
		if filter.HiringID != nil && c.HiringID != *filter.HiringID {
			return false
		}
		return len(filter.Statuses) == 0 || slices.Contains(filter.Statuses, c.Status)
	})
	page, total := paginate(items, filter.Page)
	return page, total, nil
}

type ComplianceRepository struct{ s *Store }

func (r *ComplianceRepository) CreateBatch(ctx context.Context, list []*entity.Compliance) error {
	for _, c := range list {
		v := *c
		v.EvidenceFiles = slices.Clone(c.EvidenceFiles)
		if err := insert(r.s, compliances, c.ID, v); err != nil {
			return err
		}
	}
	return nil
}

func (r *ComplianceRepository) Update(ctx context.Context, c *entity.Compliance) error {
	return update(r.s, compliances, c.ID, c, complianceVersion, apperror.ErrComplianceNotFound)
}

func (r *ComplianceRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Compliance, error) {
	return get(r.s, compliances, id, apperror.ErrComplianceNotFound)
}

func (r *ComplianceRepository) List(ctx context.Context, filter repository.ComplianceFilter) ([]*entity.Compliance, int, error) {
	items := find(r.s, compliances, func(d *data, c *entity.Compliance) bool {
		if filter.ClaimID != nil && c.ClaimID != *filter.ClaimID {
			return false
		}
		if filter.ParticipantID != nil && c.AssignedUserID != *filter.ParticipantID {
			claim, ok := d.claims[c.ClaimID]
			if !ok || !claim.v.IsParty(*filter.ParticipantID) {
				return false
			}
		}
		return len(filter.Statuses) == 0 || slices.Contains(filter.Statuses, c.Status)
	})
	page, total := paginate(items, filter.Page)
	return page, total, nil
}

func (r *ComplianceRepository) ListEscalationDue(ctx context.Context, policy entity.EscalationPolicy, now time.Time, limit int) ([]*entity.Compliance, error) {
	items := find(r.s, compliances, func(_ *data, c *entity.Compliance) bool {
		return entity.EvaluateEscalation(c.Status, c.Deadline, now, policy) != c.Status
	})
	slices.SortStableFunc(items, func(a, b *entity.Compliance) int {
		return a.Deadline.Compare(b.Deadline)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (r *ComplianceRepository) ListOpenByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Compliance, error) {
	return find(r.s, compliances, func(_ *data, c *entity.Compliance) bool {
		return c.AssignedUserID == userID && !c.Status.IsTerminal()
	}), nil
}

type ModerationRepository struct{ s *Store }

func (r *ModerationRepository) Create(ctx context.Context, a *entity.ModerationAnalysis) error {
	return insert(r.s, analyses, a.ID, *a)
}

func (r *ModerationRepository) Update(ctx context.Context, a *entity.ModerationAnalysis) error {
	return update(r.s, analyses, a.ID, a, analysisVersion, apperror.ErrAnalysisNotFound)
}

func (r *ModerationRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.ModerationAnalysis, error) {
	return get(r.s, analyses, id, apperror.ErrAnalysisNotFound)
}

func (r *ModerationRepository) LockByID(ctx context.Context, id uuid.UUID) (*entity.ModerationAnalysis, error) {
	return r.FindByID(ctx, id)
}

func (r *ModerationRepository) List(ctx context.Context, filter repository.AnalysisFilter) ([]*entity.ModerationAnalysis, int, error) {
	items := find(r.s, analyses, func(_ *data, a *entity.ModerationAnalysis) bool {
		if filter.Resolved != nil && a.Resolved != *filter.Resolved {
			return false
		}
		return filter.Classification == "" || a.Classification == filter.Classification
	})
	page, total := paginate(items, filter.Page)
	return page, total, nil
}

type UserRepository struct{ s *Store }

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return get(r.s, users, id, apperror.ErrUserNotFound)
}

func (r *UserRepository) UpdateAccountStatus(ctx context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.data.users[u.ID]
	if !ok {
		return apperror.ErrUserNotFound
	}
	r.s.data.users[u.ID] = row[entity.User]{v: *u, seq: cur.seq}
	return nil
}

type ListingRepository struct{ s *Store }

func (r *ListingRepository) RetractByProvider(ctx context.Context, providerID uuid.UUID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for id, l := range r.s.data.listings {
		if l.v.ProviderID == providerID && l.v.Active {
			l.v.Active = false
			r.s.data.listings[id] = l
			n++
		}
	}
	return n, nil
}

// Set возвращает репозитории хранилища как набор портов.
func (s *Store) Set() repository.Set {
	r := s.Repositories()
	return repository.Set{
		Tx:           s,
		Hirings:      r.Hirings,
		Deliverables: r.Deliverables,
		Deliveries:   r.Deliveries,
		Payments:     r.Payments,
		Claims:       r.Claims,
		Compliances:  r.Compliances,
		Analyses:     r.Moderation,
		Users:        r.Users,
		Listings:     r.Listings,
	}
}
