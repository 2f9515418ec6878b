package compliance

import (
	"context"
	"sync"
	"time"

	"github.com/ignatzorin/hiring-lifecycle/internal/domain/entity"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/valueobject"
	"github.com/ignatzorin/hiring-lifecycle/internal/goroutine"
	"github.com/ignatzorin/hiring-lifecycle/internal/logger"
	"github.com/ignatzorin/hiring-lifecycle/internal/pkg/apperror"
	"github.com/ignatzorin/hiring-lifecycle/internal/usecase"
)

const DefaultSweepBatch = 200

// SweepReport - итог одного прохода эскалации.
type SweepReport struct {
	Scanned   int
	Escalated int
	Finished  int
	Skipped   int
	Failed    int
}

type SweepUseCase struct {
	deps  Deps
	batch int
}

func NewSweepUseCase(deps Deps, batch int) *SweepUseCase {
	if batch <= 0 {
		batch = DefaultSweepBatch
	}
	return &SweepUseCase{deps: deps, batch: batch}
}

// Execute продвигает эскалацию всех просроченных записей. Каждая запись
// обрабатывается в своей транзакции; повторный запуск с тем же временем ничего не меняет.
func (uc *SweepUseCase) Execute(ctx context.Context) (*SweepReport, error) {
	now := uc.deps.Clock.Now()
	list, err := uc.deps.Compliances.ListEscalationDue(ctx, uc.deps.policy(), now, uc.batch)
	if err != nil {
		return nil, err
	}

	report := &SweepReport{Scanned: len(list)}
	for _, item := range list {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		var (
			changed *entity.Compliance
			events  []usecase.Notification
		)
		err := uc.deps.Tx.WithinTx(ctx, func(ctx context.Context) error {
			c, err := uc.deps.Compliances.FindByID(ctx, item.ID)
			if err != nil {
				return err
			}
			if events, err = uc.deps.escalate(ctx, c, now); err != nil {
				return err
			}
			if len(events) > 0 {
				changed = c
			}
			return nil
		})
		switch {
		case err == nil && changed == nil:
			report.Skipped++
		case err == nil:
			report.Escalated++
			if changed.Status == valueobject.ComplianceStatusFinishedByModeration {
				report.Finished++
			}
			usecase.Dispatch(ctx, uc.deps.Notifier, events)
		case apperror.IsStateConflict(err):
			// запись изменили параллельно; её подберёт следующий проход
			report.Skipped++
		default:
			report.Failed++
			logger.L().WithError(err).WithField("compliance_id", item.ID).Error("compliance escalation failed")
		}
	}

	if report.Escalated > 0 || report.Failed > 0 {
		logger.L().WithField("scanned", report.Scanned).
			WithField("escalated", report.Escalated).
			WithField("finished", report.Finished).
			WithField("failed", report.Failed).
			Info("compliance escalation sweep")
	}
	return report, nil
}

// Sweeper периодически запускает проверку сроков до остановки.
type Sweeper struct {
	sweep    *SweepUseCase
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewSweeper(sweep *SweepUseCase, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &Sweeper{sweep: sweep, interval: interval}
}

// Start запускает цикл в фоне. Повторный вызов без Stop ничего не делает.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	done := s.done

	goroutine.SafeGoWithContext(ctx, func(ctx context.Context) {
		defer close(done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.sweep.Execute(ctx); err != nil && ctx.Err() == nil {
					logger.L().WithError(err).Error("compliance sweep failed")
				}
			}
		}
	})
}

// Stop останавливает цикл и ждёт завершения текущего прохода.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}
