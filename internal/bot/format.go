package bot

import (
	"fmt"
	"html"
	"strings"

	"wellness-tracker/internal/model"
)

const dateLayout = "2006-01-02"

func escape(s string) string {
	return html.EscapeString(s)
}

func formatEvent(n int, ev model.Event) string {
	return fmt.Sprintf("<b>#%d</b> %s\n   📅 %s · ⭐ %d\n\n", n, escape(ev.Category), ev.Date.Format(dateLayout), ev.Points)
}

func formatEventDetails(ev model.Event) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("• <b>Type:</b> %s\n", escape(ev.Category)))
	sb.WriteString(fmt.Sprintf("• <b>Date:</b> %s\n", ev.Date.Format(dateLayout)))
	sb.WriteString(fmt.Sprintf("• <b>Points:</b> %d\n", ev.Points))
	return sb.String()
}

func formatGoalDetails(cat model.GoalCategory) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🎯 <b>%s</b>\n", escape(cat.Name)))
	sb.WriteString(fmt.Sprintf("Goal: %d\n", cat.Goal))
	sb.WriteString(fmt.Sprintf("Times achieved: %d", cat.Achieved))
	if cat.Reached() {
		sb.WriteString("\n✅ Goal reached")
	}
	return sb.String()
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}
