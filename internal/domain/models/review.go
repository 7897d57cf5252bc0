package models

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// Review отзыв пользователя о товаре; не более одного на пару (товар, пользователь)
type Review struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"product"`
	UserID    int64     `json:"user"`
	UserName  string    `json:"user_name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

func (r *Review) Ownership() Ownership {
	return Ownership{Relation: RelationUser, OwnerID: r.UserID}
}
