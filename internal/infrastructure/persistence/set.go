package persistence

import (
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/repository"
	"github.com/jmoiron/sqlx"
)

// NewSet собирает PostgreSQL-репозитории над одним пулом соединений.
func NewSet(db *sqlx.DB) repository.Set {
	return repository.Set{
		Tx:           NewTxManager(db),
		Hirings:      NewHiringRepository(db),
		Deliverables: NewDeliverableRepository(db),
		Deliveries:   NewDeliveryRepository(db),
		Payments:     NewPaymentRepository(db),
		Claims:       NewClaimRepository(db),
		Compliances:  NewComplianceRepository(db),
		Analyses:     NewModerationRepository(db),
		Users:        NewUserRepository(db),
		Listings:     NewListingRepository(db),
	}
}
