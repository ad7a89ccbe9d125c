package models

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// ReviewStatus is the moderation state of a review.
type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
)

// Rating bounds. Unparseable input falls back to DefaultRating.
const (
	MinRating     = 1
	MaxRating     = 5
	DefaultRating = 5
)

// Review is reader feedback on a post. New reviews are pending until an admin moderates them.
type Review struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	PostID    uint         `gorm:"not null;index" json:"post_id"`
	Post      *Post        `gorm:"foreignKey:PostID" json:"post,omitempty"`
	Name      string       `json:"name"`
	Rating    int          `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	Text      string       `gorm:"type:text" json:"text"`
	Status    ReviewStatus `gorm:"type:varchar(16);not null;default:pending;index" json:"status"`
	CreatedAt time.Time    `gorm:"<-:create;index" json:"created_at"`
}

// Valid reports whether s is one of the known review states.
func (s ReviewStatus) Valid() bool {
	switch s {
	case ReviewStatusPending, ReviewStatusApproved, ReviewStatusRejected:
		return true
	}
	return false
}

// ClampRating normalises a rating: ints outside [MinRating, MaxRating] are clamped.
func ClampRating(r int) int {
	return max(MinRating, min(MaxRating, r))
}

// ParseRating reads a rating from form input. Absent or non-numeric input yields
// DefaultRating; the result is always clamped. Leading digits are honoured
// ("4 stars" reads as 4).
func ParseRating(raw string) int {
	raw = strings.TrimSpace(raw)
	end := 0
	if end < len(raw) && (raw[end] == '-' || raw[end] == '+') {
		end++
	}
	for end < len(raw) && raw[end] >= '0' && raw[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(raw[:end])
	if errors.Is(err, strconv.ErrRange) {
		if raw[0] == '-' {
			return MinRating
		}
		return MaxRating
	}
	if err != nil {
		return DefaultRating
	}
	return ClampRating(n)
}

// StatusForAction maps a moderation action token to a review status. Only
// "approve" approves; every other token rejects. known is false when the token
// was neither "approve" nor "reject".
func StatusForAction(action string) (status ReviewStatus, known bool) {
	switch action {
	case "approve":
		return ReviewStatusApproved, true
	case "reject":
		return ReviewStatusRejected, true
	default:
		return ReviewStatusRejected, false
	}
}
