package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"wellness-tracker/internal/model"
	"wellness-tracker/internal/repository"
	"wellness-tracker/internal/service"
)

const (
	cbEditPrefix   = "edit:"
	cbDeletePrefix = "delete:"
	cbGoalPrefix   = "goal:"
)

// sender is the subset of the Telegram API the bot talks to.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot is the Telegram front end of the tracker.
type Bot struct {
	api         *tgbotapi.BotAPI
	out         sender
	ownerID     int64
	userRepo    *repository.UserRepository
	categorySvc *service.CategoryService
	eventSvc    *service.EventService
	reportSvc   *service.ReportService

	mu            sync.Mutex
	conversations map[int64]*conversationState
	confirmations map[int64]string
	selected      map[int64]string
}

func New(token string, ownerID int64, userRepo *repository.UserRepository, categorySvc *service.CategoryService, eventSvc *service.EventService, reportSvc *service.ReportService) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] bot authorized on account %s", api.Self.UserName)

	b := newBot(api, ownerID, userRepo, categorySvc, eventSvc, reportSvc)
	b.api = api
	return b, nil
}

func newBot(out sender, ownerID int64, userRepo *repository.UserRepository, categorySvc *service.CategoryService, eventSvc *service.EventService, reportSvc *service.ReportService) *Bot {
	return &Bot{
		out:           out,
		ownerID:       ownerID,
		userRepo:      userRepo,
		categorySvc:   categorySvc,
		eventSvc:      eventSvc,
		reportSvc:     reportSvc,
		conversations: make(map[int64]*conversationState),
		confirmations: make(map[int64]string),
		selected:      make(map[int64]string),
	}
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	if b.api == nil {
		return errors.New("bot api is not configured")
	}
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	log.Println("[info] start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		b.handleUpdate(ctx, update)
	}

	return nil
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
			log.Printf("handle callback: %v", err)
		}
	case update.Message != nil:
		if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
			return
		}
		if err := b.handleMessage(ctx, update.Message); err != nil {
			log.Printf("handle message: %v", err)
		}
	}
}

func (b *Bot) allowed(from *tgbotapi.User) bool {
	return from != nil && (b.ownerID == 0 || from.ID == b.ownerID)
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}
	if !b.allowed(msg.From) {
		return b.sendText(msg.Chat.ID, "🔒 This tracker is private.")
	}

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Input cancelled.")
	}

	if !msg.IsCommand() {
		if handled, err := b.handleMenuAlias(ctx, msg); handled {
			return err
		}
	}

	if msg.IsCommand() {
		log.Printf("[info] command from %d: /%s %s", msg.From.ID, msg.Command(), msg.CommandArguments())
		return b.handleCommand(ctx, msg)
	}

	if eventID, ok := b.getConfirmation(msg.From.ID); ok {
		return b.handleConfirmationResponse(ctx, msg, eventID)
	}

	if b.hasConversation(msg.From.ID) {
		return b.handleConversation(ctx, msg)
	}

	return b.sendText(msg.Chat.ID, "I did not understand that. Send /log to record an event or /help for the command list.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	case "log":
		return b.startCreateConversation(ctx, msg)
	case "events":
		return b.handleListEvents(ctx, msg)
	case "edit":
		return b.handleEdit(ctx, msg)
	case "delete":
		return b.handleDelete(ctx, msg)
	case "goals":
		return b.handleGoals(ctx, msg)
	case "goal":
		return b.handleSelectGoal(ctx, msg.Chat.ID, msg.From.ID, msg.CommandArguments())
	case "level":
		return b.handleLevel(ctx, msg)
	case "report":
		return b.handleReport(ctx, msg)
	case "cancel":
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Input cancelled.")
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	if err := b.ensureUser(ctx, msg); err != nil {
		return err
	}

	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}

	text := fmt.Sprintf("👋 Hi, %s!\n<b>Employee Wellness tracker.</b> Log wellness events, reach your goals and level up.\n\n%s",
		escape(name), commandList)
	return b.sendText(msg.Chat.ID, text)
}

const commandList = "Commands:\n" +
	"• /log — record a wellness event\n" +
	"• /events — list logged events\n" +
	"• /edit &lt;n&gt; — edit event #n\n" +
	"• /delete &lt;n&gt; — delete event #n\n" +
	"• /goals — goal categories and progress\n" +
	"• /goal &lt;n&gt; — select a goal and show its details\n" +
	"• /level — points and level\n" +
	"• /report — full progress report\n" +
	"• /cancel — cancel the current input"

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	return b.sendText(msg.Chat.ID, "ℹ️ <b>Help</b>\n"+commandList)
}

func (b *Bot) handleLevel(ctx context.Context, msg *tgbotapi.Message) error {
	summary, err := b.eventSvc.Summary(ctx)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not compute the level: %s", escape(err.Error())))
	}
	return b.sendText(msg.Chat.ID, "🏅 <b>Current total</b>\n"+service.FormatLevel(summary))
}

func (b *Bot) handleReport(ctx context.Context, msg *tgbotapi.Message) error {
	if err := b.ensureUser(ctx, msg); err != nil {
		return err
	}
	text, err := b.reportSvc.Progress(ctx, time.Now())
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not build the report: %s", escape(err.Error())))
	}
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleGoals(ctx context.Context, msg *tgbotapi.Message) error {
	categories, err := b.categorySvc.List(ctx)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not load goals: %s", escape(err.Error())))
	}
	if len(categories) == 0 {
		return b.sendText(msg.Chat.ID, "No goal categories configured.")
	}

	var builder strings.Builder
	builder.WriteString("🎯 <b>Goals</b>\n")
	var buttons [][]tgbotapi.InlineKeyboardButton
	for i, cat := range categories {
		builder.WriteString(fmt.Sprintf("%d. %s", i+1, service.FormatCategory(cat)))
		buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(shortTitle(cat.Name, 40), fmt.Sprintf("%s%d", cbGoalPrefix, i+1)),
		))
	}

	out := tgbotapi.NewMessage(msg.Chat.ID, strings.TrimSpace(builder.String()))
	out.ParseMode = tgbotapi.ModeHTML
	out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	_, err = b.out.Send(out)
	return err
}

// handleSelectGoal marks a category as selected for this user and shows its details.
func (b *Bot) handleSelectGoal(ctx context.Context, chatID, userID int64, ref string) error {
	if strings.TrimSpace(ref) == "" {
		return b.sendText(chatID, "Tell me which goal: /goal 2")
	}
	category, err := b.categorySvc.Resolve(ctx, ref)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Error: %s", escape(err.Error())))
	}
	if category == nil {
		return b.sendText(chatID, "Goal not found. See /goals.")
	}
	b.setSelected(userID, category.Name)
	return b.sendText(chatID, formatGoalDetails(*category))
}

func (b *Bot) handleListEvents(ctx context.Context, msg *tgbotapi.Message) error {
	return b.sendEventList(ctx, msg.Chat.ID)
}

func (b *Bot) sendEventList(ctx context.Context, chatID int64) error {
	events, err := b.eventSvc.ListEvents(ctx)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not load events: %s", escape(err.Error())))
	}
	if len(events) == 0 {
		return b.sendText(chatID, "No events yet. Record one with /log.")
	}

	var builder strings.Builder
	builder.WriteString("📋 <b>Events</b>\n\n")
	var buttons [][]tgbotapi.InlineKeyboardButton
	for i, ev := range events {
		builder.WriteString(formatEvent(i+1, ev))
		buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("✏️ #%d", i+1), cbEditPrefix+ev.ID),
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("🗑 #%d", i+1), cbDeletePrefix+ev.ID),
		))
	}
	builder.WriteString(service.FormatLevel(service.ComputeLevel(events)))

	out := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	out.ParseMode = tgbotapi.ModeHTML
	out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	_, err = b.out.Send(out)
	return err
}

// eventAt resolves a 1-based ledger position.
func (b *Bot) eventAt(ctx context.Context, raw string) (*model.Event, error) {
	n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "#")))
	if err != nil || n < 1 {
		return nil, nil
	}
	events, err := b.eventSvc.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	if n > len(events) {
		return nil, nil
	}
	return &events[n-1], nil
}

func (b *Bot) handleEdit(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())
	if args == "" {
		return b.sendText(msg.Chat.ID, "Tell me the event number: /edit 2")
	}
	event, err := b.eventAt(ctx, args)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Error: %s", escape(err.Error())))
	}
	if event == nil {
		return b.sendText(msg.Chat.ID, "Event not found.")
	}
	return b.startEditConversation(ctx, msg.Chat.ID, msg.From.ID, *event)
}

func (b *Bot) handleDelete(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())
	if args == "" {
		return b.sendText(msg.Chat.ID, "Tell me the event number: /delete 2")
	}
	event, err := b.eventAt(ctx, args)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Error: %s", escape(err.Error())))
	}
	if event == nil {
		return b.sendText(msg.Chat.ID, "Event not found.")
	}
	return b.askDeleteConfirmation(msg.Chat.ID, msg.From.ID, *event)
}

func (b *Bot) askDeleteConfirmation(chatID, userID int64, event model.Event) error {
	b.setConfirmation(userID, event.ID)
	text := fmt.Sprintf("Delete \"%s\" (%s, %d points)?", escape(event.Category), event.Date.Format(dateLayout), event.Points)
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, eventID string) error {
	text := strings.TrimSpace(msg.Text)
	switch {
	case isConfirmInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.deleteEventAndRefresh(ctx, msg.Chat.ID, msg.From.ID, eventID)
	case isCancelInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Nothing was deleted.")
	default:
		return b.sendWithReplyMarkup(msg.Chat.ID, "Confirm or cancel the deletion.", confirmKeyboard())
	}
}

func (b *Bot) deleteEventAndRefresh(ctx context.Context, chatID, userID int64, eventID string) error {
	event, err := b.eventSvc.GetEvent(ctx, eventID)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Error: %s", escape(err.Error())))
	}
	result, err := b.eventSvc.DeleteEvent(ctx, event)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not delete the event: %s", escape(err.Error())))
	}
	if !result.Removed {
		return b.sendText(chatID, "Event not found or already deleted.")
	}
	if result.AffectedCategory != "" && b.getSelected(userID) == result.AffectedCategory {
		b.clearSelected(userID)
	}

	if err := b.sendText(chatID, fmt.Sprintf("🗑 Event \"%s\" deleted.", escape(event.Category))); err != nil {
		return err
	}
	return b.sendEventList(ctx, chatID)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	if _, err := b.out.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Printf("callback ack: %v", err)
	}
	if !b.allowed(cb.From) {
		return nil
	}

	chatID := cb.Message.Chat.ID
	data := cb.Data
	log.Printf("[info] callback user=%d data=%s", cb.From.ID, data)

	switch {
	case strings.HasPrefix(data, cbEditPrefix):
		event, err := b.eventSvc.GetEvent(ctx, strings.TrimPrefix(data, cbEditPrefix))
		if err != nil {
			return err
		}
		if event == nil {
			return b.sendText(chatID, "Event not found.")
		}
		return b.startEditConversation(ctx, chatID, cb.From.ID, *event)
	case strings.HasPrefix(data, cbDeletePrefix):
		event, err := b.eventSvc.GetEvent(ctx, strings.TrimPrefix(data, cbDeletePrefix))
		if err != nil {
			return err
		}
		if event == nil {
			return b.sendText(chatID, "Event not found.")
		}
		return b.askDeleteConfirmation(chatID, cb.From.ID, *event)
	case strings.HasPrefix(data, cbGoalPrefix):
		return b.handleSelectGoal(ctx, chatID, cb.From.ID, strings.TrimPrefix(data, cbGoalPrefix))
	default:
		return nil
	}
}

// SendReports sends the progress report to every known chat.
func (b *Bot) SendReports(ctx context.Context) error {
	users, err := b.userRepo.ListAll(ctx)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		return nil
	}
	text, err := b.reportSvc.Progress(ctx, time.Now())
	if err != nil {
		return err
	}
	for _, user := range users {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		chatID := user.ChatID
		if chatID == 0 {
			chatID = user.TelegramID
		}
		if err := b.sendText(chatID, text); err != nil {
			log.Printf("send report to %d: %v", user.TelegramID, err)
		}
	}
	return nil
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelLog):
		return true, b.startCreateConversation(ctx, msg)
	case strings.ToLower(menuLabelEvents):
		return true, b.handleListEvents(ctx, msg)
	case strings.ToLower(menuLabelGoals):
		return true, b.handleGoals(ctx, msg)
	case strings.ToLower(menuLabelLevel):
		return true, b.handleLevel(ctx, msg)
	case strings.ToLower(menuLabelHelp):
		return true, b.handleHelp(msg)
	default:
		return false, nil
	}
}

func (b *Bot) ensureUser(ctx context.Context, msg *tgbotapi.Message) error {
	_, err := b.userRepo.UpsertFromTelegram(ctx, msg.From.ID, msg.Chat.ID, msg.From.FirstName, msg.From.LastName, msg.From.UserName)
	return err
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.out.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.out.Send(msg)
	return err
}

func (b *Bot) getConfirmation(userID int64) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id, ok := b.confirmations[userID]
	return id, ok
}

func (b *Bot) setConfirmation(userID int64, eventID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirmations[userID] = eventID
}

func (b *Bot) clearConfirmation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.confirmations, userID)
}

func (b *Bot) getSelected(userID int64) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.selected[userID]
}

func (b *Bot) setSelected(userID int64, name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.selected[userID] = name
}

func (b *Bot) clearSelected(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.selected, userID)
}
