package entity

import (
	"github.com/google/uuid"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/valueobject"
)

// Actor - пользователь, от имени которого выполняется команда.
type Actor struct {
	UserID uuid.UUID
	Role   valueobject.Role
	Email  string
}

func (a Actor) IsStaff() bool {
	return a.Role.IsStaff()
}
