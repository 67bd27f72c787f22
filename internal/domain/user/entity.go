// internal/domain/user/entity.go
package user

import "context"

type User struct {
	ID    string `json:"id" db:"id"`
	Email string `json:"email" db:"email"`
	Name  string `json:"name" db:"name"`
}

type Repository interface {
	FindByID(ctx context.Context, id string) (*User, error)
}
