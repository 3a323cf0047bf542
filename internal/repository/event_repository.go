package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"wellness-tracker/internal/model"
)

// ErrDuplicateID is matched by DuplicateIDError.
var ErrDuplicateID = errors.New("duplicate event id")

// DuplicateIDError is returned by Append when the ledger already holds the id.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("event %s already exists", e.ID)
}

func (e *DuplicateIDError) Is(target error) bool {
	return target == ErrDuplicateID
}

// EventRepository is the ordered event ledger.
type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// WithTx returns a copy bound to tx.
func (r *EventRepository) WithTx(tx *gorm.DB) *EventRepository {
	return &EventRepository{db: tx}
}

// List returns the ledger in insertion order.
func (r *EventRepository) List(ctx context.Context) ([]model.Event, error) {
	var events []model.Event
	if err := r.db.WithContext(ctx).Order("seq ASC").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// FindByID returns nil without an error when the id is unknown.
func (r *EventRepository) FindByID(ctx context.Context, id string) (*model.Event, error) {
	var event model.Event
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&event).Error
	switch {
	case err == nil:
		return &event, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	default:
		return nil, fmt.Errorf("find event: %w", err)
	}
}

// Append adds event at the end of the ledger and sets its Seq.
func (r *EventRepository) Append(ctx context.Context, event *model.Event) error {
	db := r.db.WithContext(ctx)

	var count int64
	if err := db.Model(&model.Event{}).Where("id = ?", event.ID).Count(&count).Error; err != nil {
		return fmt.Errorf("check event id: %w", err)
	}
	if count > 0 {
		return &DuplicateIDError{ID: event.ID}
	}

	var last int64
	if err := db.Model(&model.Event{}).Select("COALESCE(MAX(seq), 0)").Scan(&last).Error; err != nil {
		return fmt.Errorf("read ledger tail: %w", err)
	}
	event.Seq = last + 1

	if err := db.Create(event).Error; err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// Replace overwrites category, date and points of the event with the given id.
// Missing ids are ignored.
func (r *EventRepository) Replace(ctx context.Context, id string, event model.Event) error {
	err := r.db.WithContext(ctx).Model(&model.Event{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"category": event.Category,
			"date":     event.Date,
			"points":   event.Points,
		}).Error
	if err != nil {
		return fmt.Errorf("replace event: %w", err)
	}
	return nil
}

// Remove deletes the event and reports whether a row was removed.
func (r *EventRepository) Remove(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Event{})
	if res.Error != nil {
		return false, fmt.Errorf("remove event: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
