package models

import (
	"time"
)

type User struct {
	// ID in format "usr-" + 12 alphanumeric characters
	ID           string
	CreatedAt    time.Time
	Username     string
	PasswordHash string
}
