package dto

import (
	"time"

	domainuser "homio/internal/domain/user"
)

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type AuthSession struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

func MapUser(u *domainuser.User) User {
	if u == nil {
		return User{}
	}
	return User{
		ID:        string(u.ID),
		Email:     u.Email,
		Name:      u.Name,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}
