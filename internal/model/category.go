package model

import "time"

// GoalCategory is a wellness goal with a target count and a running achievement counter.
type GoalCategory struct {
	Name      string `gorm:"primaryKey"`
	Goal      int    `gorm:"not null"`
	Achieved  int    `gorm:"not null;default:0"`
	Position  int    `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Reached reports whether the achievement counter is at or past the goal.
func (c GoalCategory) Reached() bool {
	return c.Achieved >= c.Goal
}

// Remaining is how many more events the goal accepts.
func (c GoalCategory) Remaining() int {
	if c.Reached() {
		return 0
	}
	return c.Goal - c.Achieved
}

// DefaultCategories is the catalog seeded at startup.
func DefaultCategories() []GoalCategory {
	return []GoalCategory{
		{Name: "Get a Dental Exam", Goal: 2, Achieved: 1},
		{Name: "Track Your Daily Water Intake", Goal: 365, Achieved: 1},
		{Name: "Get 120 Minutes of Exercise", Goal: 365, Achieved: 5},
		{Name: "Eat 2.5 cups of fruits and vegetables per day for the week", Goal: 52, Achieved: 4},
		{Name: "Mental Habits", Goal: 1, Achieved: 0},
	}
}
