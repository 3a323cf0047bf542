package service

import "wellness-tracker/internal/model"

// MaxLevel is the last gamification tier.
const MaxLevel = 4

// levelThresholds[i] is the point total that unlocks level i+1.
var levelThresholds = [MaxLevel]int{0, 1500, 2250, 3000}

// LevelSummary is derived from the ledger on every read.
type LevelSummary struct {
	TotalPoints       int  `json:"total_points"`
	Level             int  `json:"level"`
	PointsToNextLevel *int `json:"points_to_next_level"`
}

// MaxLevelReached reports whether there is no further level.
func (s LevelSummary) MaxLevelReached() bool {
	return s.PointsToNextLevel == nil
}

// NextLevel returns the level after the current one, or 0 at the top.
func (s LevelSummary) NextLevel() int {
	if s.MaxLevelReached() {
		return 0
	}
	return s.Level + 1
}

// ComputeLevel sums points across events and maps the total onto the level table.
func ComputeLevel(events []model.Event) LevelSummary {
	total := 0
	for _, ev := range events {
		total += ev.Points
	}

	level := 1
	for i, threshold := range levelThresholds {
		if total >= threshold {
			level = i + 1
		}
	}

	summary := LevelSummary{TotalPoints: total, Level: level}
	if level < MaxLevel {
		remaining := levelThresholds[level] - total
		summary.PointsToNextLevel = &remaining
	}
	return summary
}
