package bot

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"wellness-tracker/internal/model"
)

const (
	btnKeep         = "↪️ Keep"
	btnToday        = "📅 Today"
	btnYesterday    = "📅 Yesterday"
	btnConfirm      = "✅ Confirm"
	btnCancel       = "↩️ Cancel"
	btnCancelDialog = "⏪ Cancel input"
	menuLabelLog    = "➕ Log event"
	menuLabelEvents = "📋 Events"
	menuLabelGoals  = "🎯 Goals"
	menuLabelLevel  = "🏅 Level"
	menuLabelHelp   = "ℹ️ Help"
)

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelLog),
			tgbotapi.NewKeyboardButton(menuLabelEvents),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelGoals),
			tgbotapi.NewKeyboardButton(menuLabelLevel),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

// categoryKeyboard lists every category; withKeep adds a button that keeps the current one.
func categoryKeyboard(categories []model.GoalCategory, withKeep bool) tgbotapi.ReplyKeyboardMarkup {
	rows := make([][]tgbotapi.KeyboardButton, 0, len(categories)+1)
	for _, cat := range categories {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(cat.Name)))
	}
	last := tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancelDialog))
	if withKeep {
		last = append([]tgbotapi.KeyboardButton{tgbotapi.NewKeyboardButton(btnKeep)}, last...)
	}
	rows = append(rows, last)

	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func dateKeyboard(withKeep bool) tgbotapi.ReplyKeyboardMarkup {
	first := tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(btnToday),
		tgbotapi.NewKeyboardButton(btnYesterday),
	)
	last := tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancelDialog))
	if withKeep {
		last = append([]tgbotapi.KeyboardButton{tgbotapi.NewKeyboardButton(btnKeep)}, last...)
	}
	kb := tgbotapi.NewReplyKeyboard(first, last)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func pointsKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("1"),
			tgbotapi.NewKeyboardButton("5"),
			tgbotapi.NewKeyboardButton("10"),
			tgbotapi.NewKeyboardButton("50"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnKeep),
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnConfirm),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func isKeepInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnKeep) || value == "keep" || value == "-"
}

func isConfirmInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnConfirm) || value == "confirm" || value == "yes"
}

func isCancelInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancel) || value == "cancel" || value == "no"
}

func isCancelDialogInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancelDialog) || value == "cancel input"
}
