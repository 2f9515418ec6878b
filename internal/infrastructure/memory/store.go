// Package memory хранит состояние жизненного цикла в памяти процесса.
// Используется драйвером STORAGE_DRIVER=memory и в тестах сценариев.
package memory

import (
	"context"
	"maps"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/entity"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/repository"
	"github.com/ignatzorin/hiring-lifecycle/internal/pkg/apperror"
)

type row[T any] struct {
	v   T
	seq int64
}

type table[T any] map[uuid.UUID]row[T]

type listing struct {
	ID         uuid.UUID
	ProviderID uuid.UUID
	Title      string
	Active     bool
}

type data struct {
	hirings      table[entity.Hiring]
	deliverables table[entity.Deliverable]
	deliveries   table[entity.Delivery]
	payments     table[entity.Payment]
	claims       table[entity.Claim]
	compliances  table[entity.Compliance]
	analyses     table[entity.ModerationAnalysis]
	users        table[entity.User]
	listings     table[listing]
}

func (d data) clone() data {
	return data{
		hirings:      maps.Clone(d.hirings),
		deliverables: maps.Clone(d.deliverables),
		deliveries:   maps.Clone(d.deliveries),
		payments:     maps.Clone(d.payments),
		claims:       maps.Clone(d.claims),
		compliances:  maps.Clone(d.compliances),
		analyses:     maps.Clone(d.analyses),
		users:        maps.Clone(d.users),
		listings:     maps.Clone(d.listings),
	}
}

// Store сериализует транзакции одним мьютексом и откатывает изменения по снимку,
// если функция транзакции вернула ошибку.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	seq  int64
	data data
}

func NewStore() *Store {
	return &Store{data: data{
		hirings:      table[entity.Hiring]{},
		deliverables: table[entity.Deliverable]{},
		deliveries:   table[entity.Delivery]{},
		payments:     table[entity.Payment]{},
		claims:       table[entity.Claim]{},
		compliances:  table[entity.Compliance]{},
		analyses:     table[entity.ModerationAnalysis]{},
		users:        table[entity.User]{},
		listings:     table[listing]{},
	}}
}

type txKey struct{}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if owner, ok := ctx.Value(txKey{}).(*Store); ok && owner == s {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	defer func() {
		if p := recover(); p != nil {
			s.restore(snapshot)
			panic(p)
		}
		if err != nil {
			s.restore(snapshot)
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, s))
}

func (s *Store) restore(snapshot data) {
	s.mu.Lock()
	s.data = snapshot
	s.mu.Unlock()
}

// AddUser регистрирует пользователя (в памяти нет отдельного сервиса аккаунтов).
func (s *Store) AddUser(u entity.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.data.users[u.ID] = row[entity.User]{v: u, seq: s.seq}
}

// AddListing публикует услугу исполнителя и возвращает её id.
func (s *Store) AddListing(providerID uuid.UUID, title string) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	id := uuid.New()
	s.data.listings[id] = row[listing]{v: listing{ID: id, ProviderID: providerID, Title: title, Active: true}, seq: s.seq}
	return id
}

// ActiveListings возвращает число опубликованных услуг исполнителя.
func (s *Store) ActiveListings(providerID uuid.UUID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, r := range s.data.listings {
		if r.v.ProviderID == providerID && r.v.Active {
			n++
		}
	}
	return n
}

type picker[T any] func(*data) table[T]

func get[T any](s *Store, pick picker[T], id uuid.UUID, notFound error) (*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := pick(&s.data)[id]
	if !ok {
		return nil, notFound
	}
	v := r.v
	return &v, nil
}

func insert[T any](s *Store, pick picker[T], id uuid.UUID, v T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := pick(&s.data)
	if _, ok := t[id]; ok {
		return apperror.StateConflict("запись %s уже существует", id)
	}
	s.seq++
	t[id] = row[T]{v: v, seq: s.seq}
	return nil
}

// update сохраняет v, если версия в хранилище совпадает с версией v, и увеличивает её.
func update[T any](s *Store, pick picker[T], id uuid.UUID, v *T, version func(*T) *int, notFound error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := pick(&s.data)
	r, ok := t[id]
	if !ok {
		return notFound
	}
	if *version(&r.v) != *version(v) {
		return apperror.ErrConcurrentUpdate
	}
	*version(v)++
	t[id] = row[T]{v: *v, seq: r.seq}
	return nil
}

// find возвращает записи, прошедшие keep, от новых к старым.
// keep вызывается под блокировкой чтения и может читать другие таблицы через d.
func find[T any](s *Store, pick picker[T], keep func(d *data, v *T) bool) []*T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := make([]row[T], 0)
	for _, r := range pick(&s.data) {
		if keep(&s.data, &r.v) {
			rows = append(rows, r)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq > rows[j].seq })
	out := make([]*T, 0, len(rows))
	for _, r := range rows {
		v := r.v
		out = append(out, &v)
	}
	return out
}

func paginate[T any](items []*T, page repository.Page) ([]*T, int) {
	page = page.Normalize()
	total := len(items)
	if page.Offset >= total {
		return []*T{}, total
	}
	end := min(page.Offset+page.Limit, total)
	return items[page.Offset:end], total
}
