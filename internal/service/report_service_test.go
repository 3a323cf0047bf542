package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wellness-tracker/internal/model"
)

func TestReportService_Progress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateEvent(ctx, EventInput{Category: dental, Date: date(3), Points: 10})
	require.NoError(t, err)

	text, err := NewReportService(f.svc).Progress(ctx, time.Date(2024, time.May, 4, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Contains(t, text, "2024-05-04")
	assert.Contains(t, text, "Total points: <b>10</b>")
	assert.Contains(t, text, "Current level: <b>1</b>")
	assert.Contains(t, text, "1490 points to level 2")
	assert.Contains(t, text, "✅ Get a Dental Exam — 2/2")
	assert.Contains(t, text, "▫️ Mental Habits — 0/1")
}

func TestFormatCategory_EscapesName(t *testing.T) {
	line := FormatCategory(model.GoalCategory{Name: "Eat <fruit> & veg", Goal: 3, Achieved: 1})
	assert.Equal(t, "▫️ Eat &lt;fruit&gt; &amp; veg — 1/3\n", line)
}
