// Package access решает, какие записи может читать и изменять актор.
package access

import (
	"fmt"

	"github.com/linemk/agriconnect/internal/domain/models"
)

// Actor: пользователь, от имени которого выполняется запрос.
// Нулевое значение означает анонимный запрос.
type Actor struct {
	ID   int64
	Role models.Role
}

// Anonymous возвращает анонимного актора
func Anonymous() Actor {
	return Actor{}
}

func (a Actor) Authenticated() bool {
	return a.ID > 0
}

func (a Actor) IsFarmer() bool {
	return a.Authenticated() && a.Role == models.RoleFarmer
}

// Operation вид операции над записью
type Operation int

const (
	OpRead Operation = iota
	OpUpdate
	OpDelete
)

func (op Operation) String() string {
	switch op {
	case OpRead:
		return "read"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Authorize проверяет право actor выполнить op над record.
// Чтение товаров, заказов и отзывов разрешено: видимость заказов уже
// ограничена областью выборки. Запись разрешена только владельцу,
// которого запись объявляет через Ownership.
func Authorize(actor Actor, record models.Owned, op Operation) error {
	own := record.Ownership()

	if op == OpRead {
		if own.Relation != models.RelationSelf {
			return nil
		}
		if !actor.Authenticated() {
			return models.ErrUnauthenticated
		}
		if actor.ID == own.OwnerID {
			return nil
		}
		return deny(actor, own, op)
	}

	if !actor.Authenticated() {
		return models.ErrUnauthenticated
	}

	switch own.Relation {
	case models.RelationFarmer, models.RelationBuyer, models.RelationUser, models.RelationSelf:
		if own.OwnerID == actor.ID {
			return nil
		}
	}
	return deny(actor, own, op)
}

func deny(actor Actor, own models.Ownership, op Operation) error {
	return fmt.Errorf("%w: user %d may not %s a record owned via %s by user %d",
		models.ErrForbidden, actor.ID, op, own.Relation, own.OwnerID)
}
