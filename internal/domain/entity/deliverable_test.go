package entity_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/hiring-lifecycle/internal/domain/entity"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/valueobject"
	"github.com/ignatzorin/hiring-lifecycle/internal/pkg/apperror"
)

func threeStagePlan() []entity.DeliverablePlan {
	return []entity.DeliverablePlan{
		{Title: "Макет", Price: 30},
		{Title: "Вёрстка", Price: 45.5},
		{Title: "Интеграция", Price: 24.5},
	}
}

func TestNewDeliverables(t *testing.T) {
	h := newHiring(t, valueobject.PaymentModalityByDeliverables, 100)

	list, err := entity.NewDeliverables(h, threeStagePlan(), now)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, d := range list {
		assert.Equal(t, i+1, d.OrderIndex)
		assert.Equal(t, h.ID, d.HiringID)
		assert.Equal(t, valueobject.DeliverableStatusPending, d.Status)
	}
}

func TestNewDeliverables_Validation(t *testing.T) {
	byStages := newHiring(t, valueobject.PaymentModalityByDeliverables, 100)
	full := newHiring(t, valueobject.PaymentModalityFull, 100)

	t.Run("сумма не совпадает с ценой", func(t *testing.T) {
		plan := threeStagePlan()
		plan[0].Price = 31
		_, err := entity.NewDeliverables(byStages, plan, now)
		assert.True(t, apperror.IsValidation(err))
	})
	t.Run("расхождение в пределах цента", func(t *testing.T) {
		plan := threeStagePlan()
		plan[2].Price = 24.51
		_, err := entity.NewDeliverables(byStages, plan, now)
		assert.NoError(t, err)
	})
	t.Run("пустой план", func(t *testing.T) {
		_, err := entity.NewDeliverables(byStages, nil, now)
		assert.True(t, apperror.IsValidation(err))
	})
	t.Run("этап без названия", func(t *testing.T) {
		plan := threeStagePlan()
		plan[1].Title = "  "
		_, err := entity.NewDeliverables(byStages, plan, now)
		assert.True(t, apperror.IsValidation(err))
	})
	t.Run("этапы при полной оплате", func(t *testing.T) {
		_, err := entity.NewDeliverables(full, threeStagePlan(), now)
		assert.True(t, apperror.IsValidation(err))

		list, err := entity.NewDeliverables(full, nil, now)
		assert.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestDeliverables_Locking(t *testing.T) {
	h := newHiring(t, valueobject.PaymentModalityByDeliverables, 100)
	list, err := entity.NewDeliverables(h, threeStagePlan(), now)
	require.NoError(t, err)
	first, second, third := list[0], list[1], list[2]

	assert.Equal(t, 1, entity.FirstOpenIndex(list))
	assert.False(t, entity.IsLocked(list, first))
	assert.True(t, entity.IsLocked(list, second))
	assert.True(t, entity.IsLocked(list, third))

	require.NoError(t, first.MarkDelivered(now))
	require.NoError(t, first.Approve(now))
	assert.False(t, entity.IsLocked(list, second))
	assert.True(t, entity.IsLocked(list, third))

	require.NoError(t, second.MarkDelivered(now))
	require.NoError(t, second.Approve(now))
	require.NoError(t, third.MarkDelivered(now))
	require.NoError(t, third.Approve(now))
	assert.True(t, entity.AllApproved(list))
	assert.Equal(t, 0, entity.FirstOpenIndex(list))
}

func TestDeliverable_Transitions(t *testing.T) {
	h := newHiring(t, valueobject.PaymentModalityByDeliverables, 100)
	list, err := entity.NewDeliverables(h, threeStagePlan(), now)
	require.NoError(t, err)
	d := list[0]

	assert.True(t, apperror.IsStateConflict(d.Approve(now)))
	require.NoError(t, d.MarkDelivered(now))
	require.NoError(t, d.RequestRevision(now))
	require.NoError(t, d.MarkDelivered(now))
	require.NoError(t, d.Approve(now))
	assert.True(t, apperror.IsStateConflict(d.MarkDelivered(now)))
}

func TestViewDeliverables(t *testing.T) {
	h := newHiring(t, valueobject.PaymentModalityByDeliverables, 100)
	list, err := entity.NewDeliverables(h, threeStagePlan(), now)
	require.NoError(t, err)
	reversed := []*entity.Deliverable{list[2], list[1], list[0]}

	clientView := entity.ViewDeliverables(reversed, true)
	require.Len(t, clientView, 3)
	assert.Equal(t, 1, clientView[0].OrderIndex)
	assert.False(t, clientView[0].IsLocked)
	assert.True(t, clientView[1].IsLocked)
	assert.True(t, clientView[2].IsLocked)

	for _, v := range entity.ViewDeliverables(reversed, false) {
		assert.False(t, v.IsLocked, "исполнитель видит этап %d заблокированным", v.OrderIndex)
	}
	// исходный срез не переупорядочивается
	assert.Equal(t, 3, reversed[0].OrderIndex)
}

func TestNewDelivery(t *testing.T) {
	hiringID := uuid.New()
	price := valueobject.Money{Amount: 50, Currency: "USD"}
	valid := []entity.Attachment{{FileName: "logo.png", FilePath: "2026/03/02/a.png", FileSize: 1024}}

	d, err := entity.NewDelivery(hiringID, nil, "  Готовый макет главной страницы  ", valid, price, entity.AttachmentRules{}, now)
	require.NoError(t, err)
	assert.Equal(t, "Готовый макет главной страницы", d.Content)
	assert.Equal(t, valueobject.DeliveryStatusDelivered, d.Status)

	_, err = entity.NewDelivery(hiringID, nil, "коротко", nil, price, entity.AttachmentRules{}, now)
	assert.True(t, apperror.IsValidation(err))

	tests := map[string]entity.Attachment{
		"неизвестное расширение": {FileName: "run.exe", FilePath: "x/run.exe", FileSize: 10},
		"пустой файл":            {FileName: "a.pdf", FilePath: "x/a.pdf", FileSize: 0},
		"без пути":               {FileName: "a.pdf", FileSize: 10},
		"слишком большой":        {FileName: "a.pdf", FilePath: "x/a.pdf", FileSize: entity.DefaultMaxFileSize + 1},
	}
	for name, a := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := entity.NewDelivery(hiringID, nil, "Достаточно длинное описание", []entity.Attachment{a}, price, entity.AttachmentRules{}, now)
			assert.True(t, apperror.IsValidation(err), "got %v", err)
		})
	}

	tooMany := make([]entity.Attachment, entity.MaxDeliveryAttachments+1)
	for i := range tooMany {
		tooMany[i] = valid[0]
	}
	_, err = entity.NewDelivery(hiringID, nil, "Достаточно длинное описание", tooMany, price, entity.AttachmentRules{}, now)
	assert.True(t, apperror.IsValidation(err))
}

func TestDelivery_Review(t *testing.T) {
	newDelivery := func(t *testing.T) *entity.Delivery {
		d, err := entity.NewDelivery(uuid.New(), nil, "Достаточно длинное описание", nil, valueobject.Money{Amount: 10}, entity.AttachmentRules{}, now)
		require.NoError(t, err)
		return d
	}

	t.Run("доработка требует заметки", func(t *testing.T) {
		d := newDelivery(t)
		assert.True(t, apperror.IsValidation(d.RequestRevision(" ", now)))
		require.NoError(t, d.RequestRevision("Поправить цвета", now))
		assert.Equal(t, valueobject.DeliveryStatusRevisionRequested, d.Status)
		require.NotNil(t, d.RevisionNotes)
		assert.True(t, apperror.IsStateConflict(d.Approve(now)))
	})

	t.Run("оплата через шлюз", func(t *testing.T) {
		d := newDelivery(t)
		assert.True(t, d.NeedsWatermark(true))
		require.NoError(t, d.MarkPendingPayment(now))
		assert.True(t, d.NeedsWatermark(true))
		assert.True(t, apperror.IsStateConflict(d.RequestRevision("поздно", now)))

		later := now.Add(time.Hour)
		require.NoError(t, d.Approve(later))
		assert.Equal(t, now, *d.ReviewedAt)
		assert.Equal(t, later, *d.ApprovedAt)
		assert.False(t, d.NeedsWatermark(true))
		assert.False(t, d.NeedsWatermark(false))
	})
}
