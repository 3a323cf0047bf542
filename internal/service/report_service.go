package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"wellness-tracker/internal/model"
)

// ReportService builds the human-readable progress report.
type ReportService struct {
	events *EventService
}

func NewReportService(events *EventService) *ReportService {
	return &ReportService{events: events}
}

// Progress renders level and goal progress as Telegram HTML.
func (s *ReportService) Progress(ctx context.Context, now time.Time) (string, error) {
	events, err := s.events.ListEvents(ctx)
	if err != nil {
		return "", err
	}
	categories, err := s.events.ListCategories(ctx)
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	builder.WriteString("🏅 <b>Wellness progress</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("2006-01-02")))
	builder.WriteString(FormatLevel(ComputeLevel(events)))
	builder.WriteString("\n\n🎯 <b>Goals</b>\n")
	if len(categories) == 0 {
		builder.WriteString("— no goal categories\n")
	}
	for _, cat := range categories {
		builder.WriteString(FormatCategory(cat))
	}

	return strings.TrimSpace(builder.String()), nil
}

// FormatLevel renders the points panel.
func FormatLevel(summary LevelSummary) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("⭐ Total points: <b>%d</b>\n", summary.TotalPoints))
	sb.WriteString(fmt.Sprintf("📈 Current level: <b>%d</b>\n", summary.Level))
	if summary.MaxLevelReached() {
		sb.WriteString("🏆 Max level reached. Congrats!")
	} else {
		sb.WriteString(fmt.Sprintf("⏭ %d points to level %d", *summary.PointsToNextLevel, summary.NextLevel()))
	}
	return sb.String()
}

// FormatCategory renders one goal line.
func FormatCategory(cat model.GoalCategory) string {
	icon := "▫️"
	if cat.Reached() {
		icon = "✅"
	}
	return fmt.Sprintf("%s %s — %d/%d\n", icon, html.EscapeString(cat.Name), cat.Achieved, cat.Goal)
}
