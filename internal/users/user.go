package users

import "time"

type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	// the bcrypt hash never leaves the service
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
