package models

import "time"

// Post is an article (usually a book write-up) visible to every reader.
type Post struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Title  string `gorm:"not null" json:"title"`
	Author string `gorm:"not null" json:"author"`
	Body   string `gorm:"type:text;not null" json:"body"`
	// CreatedAt is written on insert only.
	CreatedAt time.Time `gorm:"<-:create;index" json:"created_at"`
}
