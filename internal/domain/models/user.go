package models

import (
	"strings"
	"time"
)

// Role роль пользователя на площадке
type Role string

const (
	RoleFarmer Role = "farmer"
	RoleBuyer  Role = "buyer"
)

func (r Role) Valid() bool {
	return r == RoleFarmer || r == RoleBuyer
}

// User представляет пользователя: фермера (продавца) или покупателя
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PassHash     []byte    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Role         Role      `json:"user_type"`
	PhoneNumber  string    `json:"phone_number"`
	Address      string    `json:"address"`
	ProfileImage string    `json:"profile_image"`
	IsActive     bool      `json:"-"`
	DateJoined   time.Time `json:"date_joined"`
}

// FullName: отображаемое имя ("first last")
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Ownership пользователь владеет только собой
func (u *User) Ownership() Ownership {
	return Ownership{Relation: RelationSelf, OwnerID: u.ID}
}
