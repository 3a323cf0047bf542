package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"wellness-tracker/internal/model"
	"wellness-tracker/internal/repository"
)

// EventInput carries the user-entered fields of a create or edit.
type EventInput struct {
	Category string
	Date     time.Time
	Points   int
}

func (in EventInput) normalize() EventInput {
	in.Category = strings.TrimSpace(in.Category)
	in.Date = model.DateOnly(in.Date)
	return in
}

// DeleteResult tells the caller what a delete touched.
type DeleteResult struct {
	Removed bool
	// AffectedCategory is set when the category counter was decremented.
	AffectedCategory string
}

// EventService is the only writer of the event ledger and the goal category counters.
// Each operation updates both inside one transaction.
type EventService struct {
	db         *gorm.DB
	events     *repository.EventRepository
	categories *repository.CategoryRepository
	newID      func() string

	mu     sync.Mutex
	clamps int
}

func NewEventService(db *gorm.DB, events *repository.EventRepository, categories *repository.CategoryRepository) *EventService {
	return &EventService{
		db:         db,
		events:     events,
		categories: categories,
		newID:      uuid.NewString,
	}
}

// CreateEvent logs a new event and counts it towards its category.
// It returns ErrGoalAlreadyReached without writing anything when the goal is met.
func (s *EventService) CreateEvent(ctx context.Context, input EventInput) (*model.Event, error) {
	input = input.normalize()
	if input.Category == "" {
		return nil, invalid("category", "is required")
	}
	if input.Date.IsZero() {
		return nil, invalid("date", "is required")
	}
	if input.Points < 0 {
		return nil, invalid("points", "must not be negative")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var created *model.Event
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		categories := s.categories.WithTx(tx)
		category, err := categories.FindByName(ctx, input.Category)
		if err != nil {
			return err
		}
		if category == nil {
			return invalid("category", fmt.Sprintf("unknown category %q", input.Category))
		}
		if category.Reached() {
			return ErrGoalAlreadyReached
		}

		event := model.Event{
			ID:       s.newID(),
			Category: category.Name,
			Date:     input.Date,
			Points:   input.Points,
		}
		if err := categories.UpdateAchieved(ctx, category.Name, category.Achieved+1); err != nil {
			return err
		}
		if err := s.events.WithTx(tx).Append(ctx, &event); err != nil {
			return err
		}
		created = &event
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrGoalAlreadyReached) {
			log.Printf("[info] create rejected, goal already reached category=%q", input.Category)
		}
		return nil, err
	}

	log.Printf("[info] event created id=%s category=%q points=%d", created.ID, created.Category, created.Points)
	return created, nil
}

// EditEvent moves one count from the event's previous category to the new one and
// rewrites the event in place. An unknown id is a no-op and yields a nil event.
//
// The goal cap is not checked here: editing into a category whose goal is met
// still increments it. Create is the only operation that rejects on the cap.
func (s *EventService) EditEvent(ctx context.Context, id string, input EventInput) (*model.Event, error) {
	id = strings.TrimSpace(id)
	input = input.normalize()
	if id == "" {
		return nil, invalid("id", "is required")
	}
	if input.Date.IsZero() {
		return nil, invalid("date", "is required")
	}
	if input.Points < 0 {
		return nil, invalid("points", "must not be negative")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		edited  *model.Event
		clamped bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		events := s.events.WithTx(tx)
		categories := s.categories.WithTx(tx)

		previous, err := events.FindByID(ctx, id)
		if err != nil || previous == nil {
			return err
		}

		prevCategory, err := categories.FindByName(ctx, previous.Category)
		if err != nil {
			return err
		}
		if prevCategory != nil {
			achieved := prevCategory.Achieved - 1
			if achieved < 0 {
				achieved = 0
				clamped = true
			}
			if err := categories.UpdateAchieved(ctx, prevCategory.Name, achieved); err != nil {
				return err
			}
		}

		// Read after the decrement so an edit within one category nets to zero.
		nextCategory, err := categories.FindByName(ctx, input.Category)
		if err != nil {
			return err
		}
		if nextCategory != nil {
			if err := categories.UpdateAchieved(ctx, nextCategory.Name, nextCategory.Achieved+1); err != nil {
				return err
			}
		}

		updated := *previous
		updated.Category = input.Category
		updated.Date = input.Date
		updated.Points = input.Points
		if err := events.Replace(ctx, id, updated); err != nil {
			return err
		}
		edited = &updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	if clamped {
		s.clamps++
		log.Printf("[warn] achievement counter below zero clamped, ledger and categories were out of sync event=%s", id)
	}
	if edited != nil {
		log.Printf("[info] event edited id=%s category=%q points=%d", edited.ID, edited.Category, edited.Points)
	}
	return edited, nil
}

// DeleteEvent removes the event and releases one count from its category.
// A nil event or one without a category is ignored.
func (s *EventService) DeleteEvent(ctx context.Context, event *model.Event) (DeleteResult, error) {
	if event == nil || strings.TrimSpace(event.Category) == "" {
		return DeleteResult{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var result DeleteResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		events := s.events.WithTx(tx)
		categories := s.categories.WithTx(tx)

		stored, err := events.FindByID(ctx, event.ID)
		if err != nil || stored == nil {
			return err
		}
		removed, err := events.Remove(ctx, stored.ID)
		if err != nil || !removed {
			return err
		}
		result.Removed = true

		category, err := categories.FindByName(ctx, stored.Category)
		if err != nil {
			return err
		}
		if category != nil && category.Achieved > 0 {
			if err := categories.UpdateAchieved(ctx, category.Name, category.Achieved-1); err != nil {
				return err
			}
			result.AffectedCategory = category.Name
		}
		return nil
	})
	if err != nil {
		return DeleteResult{}, err
	}
	if result.Removed {
		log.Printf("[info] event deleted id=%s category=%q", event.ID, result.AffectedCategory)
	}
	return result, nil
}

// DeleteEventByID looks the event up and deletes it. Unknown ids are ignored.
func (s *EventService) DeleteEventByID(ctx context.Context, id string) (DeleteResult, error) {
	event, err := s.GetEvent(ctx, id)
	if err != nil {
		return DeleteResult{}, err
	}
	return s.DeleteEvent(ctx, event)
}

// GetEvent returns nil when the id is unknown.
func (s *EventService) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events.FindByID(ctx, strings.TrimSpace(id))
}

// ListEvents returns a snapshot of the ledger in insertion order.
func (s *EventService) ListEvents(ctx context.Context) ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events.List(ctx)
}

// ListCategories returns a snapshot of the goal categories.
func (s *EventService) ListCategories(ctx context.Context) ([]model.GoalCategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.categories.List(ctx)
}

// Summary recomputes the level from the current ledger.
func (s *EventService) Summary(ctx context.Context) (LevelSummary, error) {
	events, err := s.ListEvents(ctx)
	if err != nil {
		return LevelSummary{}, err
	}
	return ComputeLevel(events), nil
}

// Clamps counts edits that found a counter already at zero.
func (s *EventService) Clamps() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clamps
}
