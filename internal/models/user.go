// Package models contains data structures for the application's domain models.
package models

import "time"

// User is an administrator credential. Only admins exist in this application.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	IsAdmin      bool      `gorm:"not null;default:false;index" json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}
