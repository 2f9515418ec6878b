package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/hiring-lifecycle/internal/config"
	"github.com/ignatzorin/hiring-lifecycle/internal/db"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/entity"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/repository"
	"github.com/ignatzorin/hiring-lifecycle/internal/infrastructure/memory"
	"github.com/ignatzorin/hiring-lifecycle/internal/infrastructure/payment"
	"github.com/ignatzorin/hiring-lifecycle/internal/infrastructure/persistence"
	"github.com/ignatzorin/hiring-lifecycle/internal/logger"
)

// Storage - открытое хранилище выбранного драйвера.
type Storage struct {
	Repos repository.Set
	// DB равен nil для драйвера memory.
	DB *sqlx.DB
}

// OpenStorage подключает хранилище. Для postgres при migrate=true применяются миграции.
func OpenStorage(ctx context.Context, cfg *config.Config, migrate bool) (*Storage, error) {
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		logger.L().Warn("app: используется хранилище в памяти, данные не сохраняются между запусками")
		return &Storage{Repos: memory.NewStore().Set()}, nil
	case config.StorageDriverPostgres:
		conn, err := db.NewPostgres(ctx, cfg.DatabaseURL, db.PoolConfig{})
		if err != nil {
			return nil, err
		}
		if migrate {
			applied, err := db.RunMigrations(ctx, conn, cfg.MigrationsPath)
			if err != nil {
				_ = conn.Close()
				return nil, err
			}
			for _, name := range applied {
				logger.L().WithField("migration", name).Info("app: миграция применена")
			}
		}
		return &Storage{Repos: persistence.NewSet(conn), DB: conn}, nil
	default:
		return nil, fmt.Errorf("app: неизвестный драйвер хранилища %q", cfg.StorageDriver)
	}
}

func (s *Storage) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// PaymentGateway выбирает шлюз: без PAYMENT_BASE_URL платежи идут через песочницу.
func PaymentGateway(cfg config.PaymentConfig) repository.PaymentGateway {
	if cfg.Sandbox() {
		return payment.Sandbox{ReturnURL: cfg.ReturnURL}
	}
	return payment.NewGateway(payment.Config{
		BaseURL:        cfg.BaseURL,
		APIKey:         cfg.APIKey,
		CallbackSecret: cfg.CallbackSecret,
		ReturnURL:      cfg.ReturnURL,
		Timeout:        cfg.Timeout,
	}, nil)
}

func EscalationPolicy(cfg config.EscalationConfig) entity.EscalationPolicy {
	return entity.EscalationPolicy{
		WarningAfter:  cfg.WarningAfter,
		EscalateAfter: cfg.EscalateAfter,
		FinishAfter:   cfg.FinishAfter,
	}
}
