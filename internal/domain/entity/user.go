package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/valueobject"
)

type User struct {
	ID             uuid.UUID
	Email          string
	Role           valueobject.Role
	AccountStatus  valueobject.AccountStatus
	SuspendedUntil *time.Time
	UpdatedAt      time.Time
}

func (u *User) Ban(now time.Time) {
	u.AccountStatus = valueobject.AccountStatusBanned
	u.SuspendedUntil = nil
	u.UpdatedAt = now
}

func (u *User) Suspend(days int, now time.Time) {
	until := now.Add(time.Duration(days) * 24 * time.Hour)
	u.AccountStatus = valueobject.AccountStatusSuspended
	u.SuspendedUntil = &until
	u.UpdatedAt = now
}

func (u *User) Reactivate(now time.Time) {
	u.AccountStatus = valueobject.AccountStatusActive
	u.SuspendedUntil = nil
	u.UpdatedAt = now
}
