package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/hiring-lifecycle/internal/domain/entity"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/repository"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/valueobject"
	"github.com/ignatzorin/hiring-lifecycle/internal/pkg/apperror"
)

var now = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func newHiring(clientID, providerID uuid.UUID) *entity.Hiring {
	return &entity.Hiring{
		ID:              uuid.New(),
		ClientID:        clientID,
		ProviderID:      providerID,
		ServiceID:       uuid.New(),
		Status:          valueobject.HiringStatusApproved,
		PaymentModality: valueobject.PaymentModalityFull,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestUpdate_OptimisticLocking(t *testing.T) {
	s := NewStore()
	repo := s.Repositories().Hirings
	ctx := context.Background()
	h := newHiring(uuid.New(), uuid.New())
	require.NoError(t, repo.Create(ctx, h))

	first, err := repo.FindByID(ctx, h.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, h.ID)
	require.NoError(t, err)

	first.Status = valueobject.HiringStatusInProgress
	require.NoError(t, repo.Update(ctx, first))
	assert.Equal(t, 2, first.Version)

	second.Status = valueobject.HiringStatusDelivered
	err = repo.Update(ctx, second)
	assert.ErrorIs(t, err, apperror.ErrConcurrentUpdate)
	assert.True(t, apperror.IsStateConflict(err))

	stored, err := repo.FindByID(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.HiringStatusInProgress, stored.Status)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.True(t, apperror.IsNotFound(err))
	assert.True(t, apperror.IsNotFound(repo.Update(ctx, newHiring(uuid.New(), uuid.New()))))
	assert.True(t, apperror.IsStateConflict(repo.Create(ctx, h)), "повторная вставка")
}

func TestFindByID_ReturnsCopy(t *testing.T) {
	s := NewStore()
	repo := s.Repositories().Hirings
	ctx := context.Background()
	h := newHiring(uuid.New(), uuid.New())
	require.NoError(t, repo.Create(ctx, h))

	got, err := repo.FindByID(ctx, h.ID)
	require.NoError(t, err)
	got.Status = valueobject.HiringStatusCompleted

	again, err := repo.FindByID(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.HiringStatusApproved, again.Status)
}

func TestWithinTx(t *testing.T) {
	ctx := context.Background()

	t.Run("ошибка откатывает изменения", func(t *testing.T) {
		s := NewStore()
		repo := s.Repositories().Hirings
		h := newHiring(uuid.New(), uuid.New())
		boom := errors.New("boom")

		err := s.WithinTx(ctx, func(ctx context.Context) error {
			require.NoError(t, repo.Create(ctx, h))
			return boom
		})
		assert.ErrorIs(t, err, boom)
		_, err = repo.FindByID(ctx, h.ID)
		assert.True(t, apperror.IsNotFound(err))
	})

	t.Run("паника откатывает и пробрасывается", func(t *testing.T) {
		s := NewStore()
		repo := s.Repositories().Hirings
		h := newHiring(uuid.New(), uuid.New())

		assert.PanicsWithValue(t, "boom", func() {
			_ = s.WithinTx(ctx, func(ctx context.Context) error {
				_ = repo.Create(ctx, h)
				panic("boom")
			})
		})
		_, err := repo.FindByID(ctx, h.ID)
		assert.True(t, apperror.IsNotFound(err))

		// мьютекс транзакций освобождён
		require.NoError(t, s.WithinTx(ctx, func(ctx context.Context) error { return nil }))
	})

	t.Run("вложенная транзакция выполняется во внешней", func(t *testing.T) {
		s := NewStore()
		repo := s.Repositories().Hirings
		outer := newHiring(uuid.New(), uuid.New())
		inner := newHiring(uuid.New(), uuid.New())

		err := s.WithinTx(ctx, func(ctx context.Context) error {
			require.NoError(t, repo.Create(ctx, outer))
			return s.WithinTx(ctx, func(ctx context.Context) error {
				return repo.Create(ctx, inner)
			})
		})
		require.NoError(t, err)
		_, err = repo.FindByID(ctx, inner.ID)
		assert.NoError(t, err)
	})

	t.Run("отменённый контекст", func(t *testing.T) {
		s := NewStore()
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		called := false
		err := s.WithinTx(cancelled, func(ctx context.Context) error {
			called = true
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, called)
	})
}

func TestHiringRepository_List(t *testing.T) {
	s := NewStore()
	repo := s.Repositories().Hirings
	ctx := context.Background()
	clientID, providerID := uuid.New(), uuid.New()

	var ids []uuid.UUID
	for range 5 {
		h := newHiring(clientID, providerID)
		require.NoError(t, repo.Create(ctx, h))
		ids = append(ids, h.ID)
	}
	require.NoError(t, repo.Create(ctx, newHiring(uuid.New(), uuid.New())))

	page, total, err := repo.List(ctx, repository.HiringFilter{
		ParticipantID: &clientID,
		Page:          repository.Page{Limit: 2, Offset: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, ids[3], page[0].ID, "от новых к старым")
	assert.Equal(t, ids[2], page[1].ID)

	page, total, err = repo.List(ctx, repository.HiringFilter{Page: repository.Page{Limit: 10, Offset: 50}})
	require.NoError(t, err)
	assert.Equal(t, 6, total)
	assert.Empty(t, page)
}

func TestClaimRepository_OneActivePerHiring(t *testing.T) {
	s := NewStore()
	repo := s.Repositories().Claims
	ctx := context.Background()
	hiringID := uuid.New()
	newClaim := func() *entity.Claim {
		return &entity.Claim{
			ID:             uuid.New(),
			HiringID:       hiringID,
			ClaimantUserID: uuid.New(),
			Status:         valueobject.ClaimStatusOpen,
			Version:        1,
			CreatedAt:      now,
		}
	}

	first := newClaim()
	require.NoError(t, repo.Create(ctx, first))
	assert.True(t, apperror.IsStateConflict(repo.Create(ctx, newClaim())))

	first.Status = valueobject.ClaimStatusCancelled
	require.NoError(t, repo.Update(ctx, first))
	require.NoError(t, repo.Create(ctx, newClaim()))
}

func TestListingRepository_RetractByProvider(t *testing.T) {
	s := NewStore()
	providerID := uuid.New()
	s.AddListing(providerID, "Лендинг")
	s.AddListing(providerID, "Логотип")
	s.AddListing(uuid.New(), "Чужая услуга")

	n, err := s.Repositories().Listings.RetractByProvider(context.Background(), providerID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Zero(t, s.ActiveListings(providerID))

	n, err = s.Repositories().Listings.RetractByProvider(context.Background(), providerID)
	require.NoError(t, err)
	assert.Zero(t, n)
}
