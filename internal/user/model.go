package user

import "time"

type User struct {
	ID           string
	Email        string
	FullName     string
	Phone        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
