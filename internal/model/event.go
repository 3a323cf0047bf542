package model

import "time"

// Event is a single logged wellness activity.
type Event struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Seq       int64     `gorm:"index;not null"`
	Category  string    `gorm:"index"`
	Date      time.Time `gorm:"not null"`
	Points    int       `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DateOnly truncates t to a calendar date at UTC midnight.
func DateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
