// Package usecasetest собирает окружение для сценарных тестов: хранилище в памяти,
// фиксированные часы, мок платёжного шлюза и запись уведомлений.
package usecasetest

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/hiring-lifecycle/internal/app"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/entity"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/repository"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/valueobject"
	"github.com/ignatzorin/hiring-lifecycle/internal/infrastructure/memory"
	"github.com/ignatzorin/hiring-lifecycle/internal/storage"
	"github.com/ignatzorin/hiring-lifecycle/internal/usecase"
	"github.com/ignatzorin/hiring-lifecycle/internal/usecase/claim"
	"github.com/ignatzorin/hiring-lifecycle/internal/usecase/compliance"
	"github.com/ignatzorin/hiring-lifecycle/internal/usecase/delivery"
	"github.com/ignatzorin/hiring-lifecycle/internal/usecase/hiring"
)

// Start - момент, с которого идут часы окружения.
var Start = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

const Day = 24 * time.Hour

// Gateway - мок платёжного шлюза.
type Gateway struct {
	mock.Mock
}

func (g *Gateway) InitiatePayment(ctx context.Context, req repository.PaymentRequest) (*repository.PaymentSession, error) {
	args := g.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PaymentSession), args.Error(1)
}

// Session - ответ шлюза с уникальным идентификатором платежа.
func Session() *repository.PaymentSession {
	ref := "pay_" + uuid.NewString()
	return &repository.PaymentSession{ExternalRef: ref, RedirectURL: "https://pay.example.com/checkout/" + ref}
}

type Event struct {
	UserID uuid.UUID
	Name   string
	Data   any
}

// Recorder запоминает отправленные уведомления.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Notify(_ context.Context, userID uuid.UUID, event string, data any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{UserID: userID, Name: event, Data: data})
}

// Names возвращает имена событий пользователя в порядке отправки.
func (r *Recorder) Names(userID uuid.UUID) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		if e.UserID == userID {
			out = append(out, e.Name)
		}
	}
	return out
}

type Env struct {
	Store    *memory.Store
	Repos    repository.Set
	UC       *app.UseCases
	Gateway  *Gateway
	Notifier *Recorder
	Files    *storage.AttachmentStorage

	Client   entity.Actor
	Provider entity.Actor
	Staff    entity.Actor
	Outsider entity.Actor

	mu  sync.Mutex
	now time.Time
}

func New(t testing.TB) *Env {
	t.Helper()
	files, err := storage.NewAttachmentStorage(t.TempDir(), 5)
	require.NoError(t, err)

	store := memory.NewStore()
	e := &Env{
		Store:    store,
		Repos:    store.Set(),
		Gateway:  &Gateway{},
		Notifier: &Recorder{},
		Files:    files,
		now:      Start,
	}
	e.Client = e.AddUser(valueobject.RoleClient)
	e.Provider = e.AddUser(valueobject.RoleProvider)
	e.Staff = e.AddUser(valueobject.RoleModerator)
	e.Outsider = e.AddUser(valueobject.RoleClient)

	e.UC = app.NewUseCases(app.Deps{
		Repos:          e.Repos,
		Gateway:        e.Gateway,
		Storage:        files,
		Notifier:       e.Notifier,
		Clock:          usecase.Clock(e.Now),
		Escalation:     entity.DefaultEscalationPolicy(),
		MaxFileSize:    entity.DefaultMaxFileSize,
		PaymentTimeout: time.Second,
		SweepBatch:     compliance.DefaultSweepBatch,
	})
	return e
}

// AddUser регистрирует активного пользователя с указанной ролью.
func (e *Env) AddUser(role valueobject.Role) entity.Actor {
	id := uuid.New()
	email := string(role) + "-" + id.String()[:8] + "@example.com"
	e.Store.AddUser(entity.User{ID: id, Email: email, Role: role, AccountStatus: valueobject.AccountStatusActive, UpdatedAt: Start})
	return entity.Actor{UserID: id, Role: role, Email: email}
}

func (e *Env) Now() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now
}

func (e *Env) Advance(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = e.now.Add(d)
}

// Hiring создаёт найм клиента у исполнителя окружения. Цены этапов задают оплату по этапам,
// без них найм оплачивается целиком.
func (e *Env) Hiring(t testing.TB, stagePrices ...float64) *hiring.CreateHiringOutput {
	t.Helper()
	input := hiring.CreateHiringInput{
		Actor:           e.Client,
		ProviderID:      e.Provider.UserID,
		ServiceID:       uuid.New(),
		PaymentModality: string(valueobject.PaymentModalityFull),
		QuotedPrice:     500,
	}
	if len(stagePrices) > 0 {
		input.PaymentModality = string(valueobject.PaymentModalityByDeliverables)
		input.QuotedPrice = 0
		for i, p := range stagePrices {
			input.QuotedPrice += p
			input.Deliverables = append(input.Deliverables, entity.DeliverablePlan{
				Title: "Этап " + strings.Repeat("I", i+1),
				Price: p,
			})
		}
	}
	out, err := e.UC.Hirings.Create.Execute(context.Background(), input)
	require.NoError(t, err)
	return out
}

// Submit сдаёт работу от имени исполнителя.
func (e *Env) Submit(t testing.TB, hiringID uuid.UUID, deliverableID *uuid.UUID, attachments ...entity.Attachment) *entity.Delivery {
	t.Helper()
	d, err := e.UC.Deliveries.Submit.Execute(context.Background(), delivery.SubmitDeliveryInput{
		Actor:         e.Provider,
		HiringID:      hiringID,
		DeliverableID: deliverableID,
		Content:       "Работа готова, ссылки во вложениях",
		Attachments:   attachments,
	})
	require.NoError(t, err)
	return d
}

// OpenClaim открывает претензию клиента по найму.
func (e *Env) OpenClaim(t testing.TB, hiringID uuid.UUID) *entity.Claim {
	t.Helper()
	c, err := e.UC.Claims.Open.Execute(context.Background(), claim.OpenClaimInput{
		Actor:       e.Client,
		HiringID:    hiringID,
		ClaimType:   string(valueobject.ClaimTypePoorQuality),
		Description: "Макет не соответствует согласованному брифу",
	})
	require.NoError(t, err)
	return c
}

// ReviewedClaim открывает претензию и переводит её на рассмотрение модератором.
func (e *Env) ReviewedClaim(t testing.TB, hiringID uuid.UUID) *entity.Claim {
	t.Helper()
	c := e.OpenClaim(t, hiringID)
	c, err := e.UC.Claims.StartReview.Execute(context.Background(), e.Staff, c.ID)
	require.NoError(t, err)
	return c
}

// Justification - обоснование решения достаточной длины.
const Justification = "Работа сдана не полностью, часть этапов не выполнена"

// LoadHiring перечитывает найм из хранилища.
func (e *Env) LoadHiring(t testing.TB, id uuid.UUID) *entity.Hiring {
	t.Helper()
	h, err := e.Repos.Hirings.FindByID(context.Background(), id)
	require.NoError(t, err)
	return h
}

func (e *Env) LoadDelivery(t testing.TB, id uuid.UUID) *entity.Delivery {
	t.Helper()
	d, err := e.Repos.Deliveries.FindByID(context.Background(), id)
	require.NoError(t, err)
	return d
}
