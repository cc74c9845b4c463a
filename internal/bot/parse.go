package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"task-planner/internal/model"
	"task-planner/internal/schedule"
	"task-planner/internal/service"
)

func parseTaskID(data, prefix string) (uint, error) {
	raw := strings.TrimSpace(strings.TrimPrefix(data, prefix))
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(value), nil
}

// parseDayArg understands 2006-01-02, relative offsets like +3 and the words
// today/tomorrow/yesterday. An empty argument means today.
func parseDayArg(raw string, now time.Time) (time.Time, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	today := schedule.StartOfDay(now)
	switch value {
	case "", "today", "сегодня":
		return today, nil
	case "tomorrow", "завтра":
		return schedule.AddDays(today, 1), nil
	case "yesterday", "вчера":
		return schedule.AddDays(today, -1), nil
	}
	if strings.HasPrefix(value, "+") || strings.HasPrefix(value, "-") {
		offset, err := strconv.Atoi(value)
		if err != nil {
			return time.Time{}, err
		}
		return schedule.AddDays(today, offset), nil
	}
	return time.ParseInLocation(time.DateOnly, value, now.Location())
}

// parseEndInput accepts either an end date or a positive number of days.
func parseEndInput(text string, now time.Time) (*time.Time, *int, error) {
	value := strings.TrimSpace(text)
	if days, err := strconv.Atoi(value); err == nil {
		if days < 1 {
			return nil, nil, fmt.Errorf("%w: range must be at least one day", schedule.ErrInvalidArgument)
		}
		return nil, &days, nil
	}
	end, err := parseDayArg(value, now)
	if err != nil {
		return nil, nil, err
	}
	return &end, nil, nil
}

// parseOptionalNumber returns nil for skip input.
func parseOptionalNumber(text string) (*int, error) {
	if isSkipInput(text) {
		return nil, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: %d is negative", schedule.ErrInvalidArgument, n)
	}
	return &n, nil
}

func parseListArgs(raw string) (service.ListOptions, error) {
	opts := service.ListOptions{SortBy: service.SortByStart}
	for _, field := range strings.Fields(raw) {
		switch strings.ToLower(field) {
		case "desc":
			opts.Descending = true
		case "all":
			opts.IncludeCompleted = true
		default:
			key, err := service.ParseSortKey(field)
			if err != nil {
				return opts, err
			}
			opts.SortBy = key
		}
	}
	return opts, nil
}

// nextPostponeDay is the earliest day a postponement of task is accepted for.
func nextPostponeDay(task model.Task, now time.Time) time.Time {
	day := schedule.StartOfDay(now)
	if schedule.CompareDays(task.StartDate, day) > 0 {
		day = schedule.StartOfDay(task.StartDate)
	}
	if last, ok := schedule.LastPostponeUntilDay(task.Actions); ok && schedule.CompareDays(last, day) > 0 {
		day = schedule.StartOfDay(last)
	}
	return schedule.AddDays(day, 1)
}

func dayTitle(day, now time.Time) string {
	label := day.Format("02.01.2006")
	switch schedule.DaysBetween(now, day) {
	case 0:
		return label + " · сегодня"
	case 1:
		return label + " · завтра"
	case -1:
		return label + " · вчера"
	default:
		return label
	}
}

func shortTitle(title string, maxLen int) string {
	clean := service.NormalizeTitle(strings.ReplaceAll(title, "\n", " "))
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func taskButtons(task model.Task) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("✅ #%d · %s", task.ID, shortTitle(task.Title, 18)), fmt.Sprintf("%s%d", cbCompletePrefix, task.ID)),
		tgbotapi.NewInlineKeyboardButtonData("⏭ +1", fmt.Sprintf("%s%d", cbPostponePrefix, task.ID)),
		tgbotapi.NewInlineKeyboardButtonData("🗑", fmt.Sprintf("%s%d", cbDeletePrefix, task.ID)),
	)
}

// inlineMarkup returns nil for no rows so the message keeps no keyboard.
func inlineMarkup(rows [][]tgbotapi.InlineKeyboardButton) any {
	if len(rows) == 0 {
		return nil
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
