package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"wellness-tracker/internal/model"
	"wellness-tracker/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageCategory
	stageDate
	stagePoints
)

const defaultPoints = 1

type conversationState struct {
	stage conversationStage
	// editing is nil while creating a new event.
	editing *model.Event
	input   service.EventInput
}

func (b *Bot) startCreateConversation(ctx context.Context, msg *tgbotapi.Message) error {
	if err := b.ensureUser(ctx, msg); err != nil {
		return err
	}
	categories, err := b.categorySvc.List(ctx)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not load goals: %s", escape(err.Error())))
	}

	state := &conversationState{stage: stageCategory, input: service.EventInput{Points: defaultPoints}}
	if name := b.getSelected(msg.From.ID); name != "" {
		state.input.Category = name
	}
	b.setConversation(msg.From.ID, state)
	log.Printf("[info] start create conversation user=%d", msg.From.ID)

	prompt := "🆕 New event.\n<b>Step 1:</b> pick the event type."
	return b.sendWithReplyMarkup(msg.Chat.ID, prompt, categoryKeyboard(categories, state.input.Category != ""))
}

func (b *Bot) startEditConversation(ctx context.Context, chatID, userID int64, event model.Event) error {
	categories, err := b.categorySvc.List(ctx)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not load goals: %s", escape(err.Error())))
	}

	b.clearConfirmation(userID)
	b.setConversation(userID, &conversationState{
		stage:   stageCategory,
		editing: &event,
		input:   service.EventInput{Category: event.Category, Date: event.Date, Points: event.Points},
	})
	log.Printf("[info] start edit conversation user=%d event=%s", userID, event.ID)

	prompt := fmt.Sprintf("✏️ Editing \"%s\" (%s, %d points).\n<b>Step 1:</b> pick the event type.",
		escape(event.Category), event.Date.Format(dateLayout), event.Points)
	return b.sendWithReplyMarkup(chatID, prompt, categoryKeyboard(categories, true))
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	keep := isKeepInput(text)
	switch state.stage {
	case stageCategory:
		if !keep {
			category, err := b.categorySvc.Resolve(ctx, text)
			if err != nil {
				return err
			}
			if category == nil {
				return b.sendText(msg.Chat.ID, "Unknown event type. Pick one from the keyboard or /cancel.")
			}
			state.input.Category = category.Name
		}
		if state.input.Category == "" {
			return b.sendText(msg.Chat.ID, "Pick an event type from the keyboard.")
		}
		state.stage = stageDate
		return b.sendWithReplyMarkup(msg.Chat.ID, "📅 <b>Step 2:</b> when? Send a date like <code>2025-11-30</code> or tap «Today».", dateKeyboard(state.editing != nil))
	case stageDate:
		if !keep || state.input.Date.IsZero() {
			date, err := parseDate(text, time.Now())
			if err != nil {
				return b.sendWithReplyMarkup(msg.Chat.ID, "I cannot read that date. Use <code>2025-11-30</code> or «Today».", dateKeyboard(state.editing != nil))
			}
			state.input.Date = date
		}
		state.stage = stagePoints
		return b.sendWithReplyMarkup(msg.Chat.ID, fmt.Sprintf("⭐ <b>Step 3:</b> how many points? (current: %d)", state.input.Points), pointsKeyboard())
	case stagePoints:
		if !keep {
			points, err := strconv.Atoi(text)
			if err != nil || points < 0 {
				return b.sendWithReplyMarkup(msg.Chat.ID, "Points must be a whole number, 0 or more.", pointsKeyboard())
			}
			state.input.Points = points
		}
		b.clearConversation(msg.From.ID)
		if state.editing != nil {
			return b.finishEdit(ctx, msg.Chat.ID, msg.From.ID, state.editing.ID, state.input)
		}
		return b.finishCreate(ctx, msg.Chat.ID, msg.From.ID, state.input)
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Input reset. Start again with /log.")
	}
}

func (b *Bot) finishCreate(ctx context.Context, chatID, userID int64, input service.EventInput) error {
	event, err := b.eventSvc.CreateEvent(ctx, input)
	switch {
	case errors.Is(err, service.ErrGoalAlreadyReached):
		b.clearSelected(userID)
		return b.sendText(chatID, fmt.Sprintf("⚠️ <b>Warning:</b> goal already reached for \"%s\". Nothing was logged.", escape(input.Category)))
	case errors.Is(err, service.ErrValidation):
		return b.sendText(chatID, fmt.Sprintf("Could not save the event: %s", escape(err.Error())))
	case err != nil:
		return b.sendText(chatID, fmt.Sprintf("Error: %s", escape(err.Error())))
	}
	b.clearSelected(userID)

	summary, err := b.eventSvc.Summary(ctx)
	if err != nil {
		return err
	}
	text := "✅ <b>Event saved</b>\n" + formatEventDetails(*event) + "\n" + service.FormatLevel(summary)
	return b.sendText(chatID, text)
}

func (b *Bot) finishEdit(ctx context.Context, chatID, userID int64, id string, input service.EventInput) error {
	event, err := b.eventSvc.EditEvent(ctx, id, input)
	switch {
	case errors.Is(err, service.ErrValidation):
		return b.sendText(chatID, fmt.Sprintf("Could not save the event: %s", escape(err.Error())))
	case err != nil:
		return b.sendText(chatID, fmt.Sprintf("Error: %s", escape(err.Error())))
	case event == nil:
		return b.sendText(chatID, "Event not found or already deleted.")
	}
	b.clearSelected(userID)

	if err := b.sendText(chatID, "✏️ <b>Event updated</b>\n"+formatEventDetails(*event)); err != nil {
		return err
	}
	return b.sendEventList(ctx, chatID)
}

// parseDate accepts YYYY-MM-DD, "today" and "yesterday".
func parseDate(text string, now time.Time) (time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "today", strings.ToLower(btnToday):
		return model.DateOnly(now), nil
	case "yesterday", strings.ToLower(btnYesterday):
		return model.DateOnly(now.AddDate(0, 0, -1)), nil
	}
	parsed, err := time.Parse(dateLayout, strings.TrimSpace(text))
	if err != nil {
		return time.Time{}, err
	}
	return parsed, nil
}

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) hasConversation(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.conversations[userID]
	return ok
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}
