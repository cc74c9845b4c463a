package bot

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	btnSkip          = "⏭️ Пропустить"
	btnConfirm       = "✅ Подтвердить"
	btnCancel        = "↩️ Отмена"
	btnCancelDialog  = "⏪ Отменить ввод"
	menuLabelNewTask = "➕ Новая задача"
	menuLabelToday   = "🗓 Сегодня"
	menuLabelWeek    = "📅 Неделя"
	menuLabelTasks   = "📋 Задачи"
	menuLabelHelp    = "ℹ️ Помощь"
)

// menuCommands maps lowercased main menu labels to the commands they run.
var menuCommands = map[string]string{
	strings.ToLower(menuLabelNewTask): "newtask",
	strings.ToLower(menuLabelToday):   "today",
	strings.ToLower(menuLabelWeek):    "week",
	strings.ToLower(menuLabelTasks):   "tasks",
	strings.ToLower(menuLabelHelp):    "help",
}

// replyKeyboard builds a resized keyboard, one row per slice of labels.
func replyKeyboard(oneTime bool, rows ...[]string) tgbotapi.ReplyKeyboardMarkup {
	buttons := make([][]tgbotapi.KeyboardButton, 0, len(rows))
	for _, row := range rows {
		line := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, label := range row {
			line = append(line, tgbotapi.NewKeyboardButton(label))
		}
		buttons = append(buttons, line)
	}
	kb := tgbotapi.NewReplyKeyboard(buttons...)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = oneTime
	return kb
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return replyKeyboard(false,
		[]string{menuLabelToday, menuLabelWeek},
		[]string{menuLabelNewTask, menuLabelTasks, menuLabelHelp},
	)
}

func confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return replyKeyboard(true, []string{btnConfirm, btnCancel})
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return replyKeyboard(true, []string{btnCancelDialog})
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return replyKeyboard(true, []string{btnSkip}, []string{btnCancelDialog})
}

func categoryKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return replyKeyboard(true,
		[]string{"Учеба", "Работа"},
		[]string{"Дом", "Здоровье"},
		[]string{btnSkip, btnCancelDialog},
	)
}

func matchesAny(text string, options ...string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	for _, option := range options {
		if value == strings.ToLower(option) {
			return true
		}
	}
	return false
}

func isSkipInput(text string) bool {
	return matchesAny(text, "-", btnSkip, "пропустить", "skip")
}

func isConfirmInput(text string) bool {
	return matchesAny(text, btnConfirm, "подтвердить", "да")
}

func isCancelInput(text string) bool {
	return matchesAny(text, btnCancel, "отмена")
}

func isCancelDialogInput(text string) bool {
	return matchesAny(text, btnCancelDialog, "отменить ввод")
}
