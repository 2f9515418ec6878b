package entity

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/valueobject"
	"github.com/ignatzorin/hiring-lifecycle/internal/pkg/apperror"
)

type Deliverable struct {
	ID                    uuid.UUID
	HiringID              uuid.UUID
	OrderIndex            int
	Title                 string
	Description           string
	Price                 valueobject.Money
	EstimatedDeliveryDate *time.Time
	Status                valueobject.DeliverableStatus
	Version               int
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

type DeliverablePlan struct {
	Title                 string
	Description           string
	Price                 float64
	EstimatedDeliveryDate *time.Time
}

// NewDeliverables строит этапы найма с индексами 1..N в порядке плана.
// Сумма цен этапов должна совпадать с ценой найма.
func NewDeliverables(hiring *Hiring, plan []DeliverablePlan, now time.Time) ([]*Deliverable, error) {
	if !hiring.ByDeliverables() {
		if len(plan) > 0 {
			return nil, apperror.Validation("этапы задаются только для оплаты по этапам")
		}
		return nil, nil
	}
	if len(plan) == 0 {
		return nil, apperror.Validation("для оплаты по этапам нужен хотя бы один этап")
	}

	total := valueobject.Money{Currency: hiring.QuotedPrice.Currency}
	result := make([]*Deliverable, 0, len(plan))
	for i, p := range plan {
		title := strings.TrimSpace(p.Title)
		if title == "" {
			return nil, apperror.Validation("название этапа %d обязательно", i+1)
		}
		price, err := valueobject.NewPrice(p.Price)
		if err != nil {
			return nil, err
		}
		total = total.Add(price)
		result = append(result, &Deliverable{
			ID:                    uuid.New(),
			HiringID:              hiring.ID,
			OrderIndex:            i + 1,
			Title:                 title,
			Description:           strings.TrimSpace(p.Description),
			Price:                 price,
			EstimatedDeliveryDate: p.EstimatedDeliveryDate,
			Status:                valueobject.DeliverableStatusPending,
			Version:               1,
			CreatedAt:             now,
			UpdatedAt:             now,
		})
	}
	if !total.ApproxEqual(hiring.QuotedPrice) {
		return nil, apperror.Validation("сумма этапов %.2f не совпадает с ценой найма %.2f", total.Amount, hiring.QuotedPrice.Amount)
	}
	return result, nil
}

func (d *Deliverable) transition(next valueobject.DeliverableStatus, now time.Time) error {
	if !d.Status.CanTransitionTo(next) {
		return apperror.StateConflict("невозможно перевести этап %d из статуса %s в %s", d.OrderIndex, d.Status, next)
	}
	d.Status = next
	d.UpdatedAt = now
	return nil
}

func (d *Deliverable) MarkDelivered(now time.Time) error {
	return d.transition(valueobject.DeliverableStatusDelivered, now)
}

func (d *Deliverable) Approve(now time.Time) error {
	return d.transition(valueobject.DeliverableStatusApproved, now)
}

func (d *Deliverable) RequestRevision(now time.Time) error {
	return d.transition(valueobject.DeliverableStatusRevisionRequested, now)
}

// SortDeliverables упорядочивает этапы по OrderIndex на месте.
func SortDeliverables(list []*Deliverable) {
	sort.Slice(list, func(i, j int) bool { return list[i].OrderIndex < list[j].OrderIndex })
}

// FirstOpenIndex возвращает OrderIndex первого неодобренного этапа или 0, если одобрены все.
func FirstOpenIndex(list []*Deliverable) int {
	first := 0
	for _, d := range list {
		if d.Status != valueobject.DeliverableStatusApproved && (first == 0 || d.OrderIndex < first) {
			first = d.OrderIndex
		}
	}
	return first
}

// IsLocked сообщает, заблокирован ли этап: среди этапов с меньшим индексом есть неодобренный.
// Это каноническое правило, по нему проверяется каждая сдача.
func IsLocked(list []*Deliverable, target *Deliverable) bool {
	first := FirstOpenIndex(list)
	return first != 0 && target.OrderIndex > first
}

func AllApproved(list []*Deliverable) bool {
	return FirstOpenIndex(list) == 0
}

type DeliverableView struct {
	*Deliverable
	IsLocked bool
}

// ViewDeliverables вычисляет блокировку для просмотра. Исполнитель видит все этапы
// разблокированными, чтобы готовить работу заранее.
func ViewDeliverables(list []*Deliverable, viewerIsClient bool) []DeliverableView {
	sorted := make([]*Deliverable, len(list))
	copy(sorted, list)
	SortDeliverables(sorted)

	views := make([]DeliverableView, 0, len(sorted))
	for _, d := range sorted {
		views = append(views, DeliverableView{
			Deliverable: d,
			IsLocked:    viewerIsClient && IsLocked(sorted, d),
		})
	}
	return views
}
