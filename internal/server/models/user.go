// Package models holds the entities persisted by the repositories.
package models

import "time"

// User is an account. PasswordHash is never serialized.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Age          int       `json:"age"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserUpdate lists the only fields an update may touch. Nil means unchanged.
type UserUpdate struct {
	Name         *string
	Email        *string
	Age          *int
	PasswordHash *string
}

// IsEmpty reports whether no field is set.
func (u UserUpdate) IsEmpty() bool {
	return u.Name == nil && u.Email == nil && u.Age == nil && u.PasswordHash == nil
}
