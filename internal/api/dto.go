package api

import (
	"time"

	"wellness-tracker/internal/model"
	"wellness-tracker/internal/service"
)

const dateLayout = "2006-01-02"

// EventRequest is the body of POST /events and PUT /events/:id.
type EventRequest struct {
	Category string `json:"category"`
	Date     string `json:"date"`
	Points   *int   `json:"points,omitempty"`
}

// EventResponse represents a single ledger row.
type EventResponse struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Date     string `json:"date"`
	Points   int    `json:"points"`
}

// EventListResponse represents the ledger.
type EventListResponse struct {
	Events []EventResponse `json:"events"`
}

// CategoryResponse represents a goal category.
type CategoryResponse struct {
	Name     string `json:"name"`
	Goal     int    `json:"goal"`
	Achieved int    `json:"achieved"`
	Reached  bool   `json:"reached"`
}

// CategoryListResponse represents every goal category.
type CategoryListResponse struct {
	Categories []CategoryResponse `json:"categories"`
}

// DeleteResponse reports the outcome of a delete.
type DeleteResponse struct {
	Removed          bool   `json:"removed"`
	AffectedCategory string `json:"affected_category,omitempty"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	Field string `json:"field,omitempty"`
}

const (
	codeInvalidBody = "INVALID_BODY"
	codeValidation  = "VALIDATION"
	codeGoalReached = "GOAL_REACHED"
	codeNotFound    = "NOT_FOUND"
	codeInternal    = "INTERNAL"
)

// toInput converts the request into service input. An unparsable date becomes a zero date,
// which the service rejects.
func (r EventRequest) toInput(defaultPoints int) service.EventInput {
	input := service.EventInput{Category: r.Category, Points: defaultPoints}
	if r.Points != nil {
		input.Points = *r.Points
	}
	if d, err := time.Parse(dateLayout, r.Date); err == nil {
		input.Date = d
	}
	return input
}

func toEventResponse(ev model.Event) EventResponse {
	return EventResponse{
		ID:       ev.ID,
		Category: ev.Category,
		Date:     ev.Date.Format(dateLayout),
		Points:   ev.Points,
	}
}

func toEventListResponse(events []model.Event) EventListResponse {
	out := EventListResponse{Events: make([]EventResponse, 0, len(events))}
	for _, ev := range events {
		out.Events = append(out.Events, toEventResponse(ev))
	}
	return out
}

func toCategoryListResponse(categories []model.GoalCategory) CategoryListResponse {
	out := CategoryListResponse{Categories: make([]CategoryResponse, 0, len(categories))}
	for _, cat := range categories {
		out.Categories = append(out.Categories, CategoryResponse{
			Name:     cat.Name,
			Goal:     cat.Goal,
			Achieved: cat.Achieved,
			Reached:  cat.Reached(),
		})
	}
	return out
}
