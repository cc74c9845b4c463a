package service

import (
	"fmt"
	"html"
	"strings"
	"time"
	"unicode"

	"task-planner/internal/model"
	"task-planner/internal/schedule"
)

const (
	IconDefault   = "🟢"
	IconDue       = "⏳"
	IconOverdue   = "⚠️"
	IconDone      = "✅"
	IconProjected = "🔮"
	IconRepeating = "♻️"
)

// dueSoonPriority marks tasks that have used up most of their range.
const dueSoonPriority = 0.75

// TaskIcon picks the status icon of a task looked at on the instant at.
func TaskIcon(task model.Task, at time.Time) string {
	switch {
	case task.IsCompleted():
		return IconDone
	case task.IsProjected:
		return IconProjected
	}
	p := schedule.CalculatePriority(task.StartDate, task.EndDate, at)
	switch {
	case p > 1:
		return IconOverdue
	case p >= dueSoonPriority:
		return IconDue
	default:
		return IconDefault
	}
}

// FormatTask renders a task as an HTML block for Telegram messages.
func FormatTask(task model.Task, at time.Time, catNames map[uint]string) string {
	var sb strings.Builder

	id := fmt.Sprintf("#%d", task.ID)
	if task.IsProjected {
		id = fmt.Sprintf("повтор #%d", task.ID)
	}
	sb.WriteString(fmt.Sprintf("%s <b>%s</b> %s", TaskIcon(task, at), id, html.EscapeString(NormalizeTitle(task.Title))))
	if task.CategoryID != nil {
		if name := strings.TrimSpace(catNames[*task.CategoryID]); name != "" {
			sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", html.EscapeString(name)))
		}
	}
	sb.WriteByte('\n')

	sb.WriteString(fmt.Sprintf("   📆 %s", formatRange(task)))
	if !task.IsCompleted() && !task.IsProjected {
		p := schedule.CalculatePriority(task.StartDate, task.EndDate, at)
		if p > 1 {
			sb.WriteString(" — <b>просрочено</b>")
		} else {
			sb.WriteString(fmt.Sprintf(" · %d%%", int(p*100)))
		}
	}
	sb.WriteByte('\n')

	if until, ok := schedule.LastPostponeUntilDay(task.Actions); ok && !task.IsCompleted() {
		sb.WriteString(fmt.Sprintf("   ⏸ Отложено до %s\n", until.Format(time.DateOnly)))
	}
	if task.IsRepeating() {
		sb.WriteString(fmt.Sprintf("   %s Каждые %d дн.\n", IconRepeating, *task.RepeatDays))
	}
	if task.TimeEstimateMins != nil {
		sb.WriteString(fmt.Sprintf("   ⏱ %s\n", FormatEstimate(*task.TimeEstimateMins)))
	}
	if task.Description != "" {
		sb.WriteString(fmt.Sprintf("   📝 %s\n", html.EscapeString(task.Description)))
	}
	return sb.String()
}

// FormatEstimate renders minutes as "1 ч 30 мин".
func FormatEstimate(mins int) string {
	h, m := mins/60, mins%60
	switch {
	case h == 0:
		return fmt.Sprintf("%d мин", m)
	case m == 0:
		return fmt.Sprintf("%d ч", h)
	default:
		return fmt.Sprintf("%d ч %d мин", h, m)
	}
}

func formatRange(task model.Task) string {
	if task.RangeDays <= 1 {
		return task.StartDate.Format(time.DateOnly)
	}
	return fmt.Sprintf("%s → %s (%d дн.)", task.StartDate.Format(time.DateOnly), task.EndDate.Format(time.DateOnly), task.RangeDays)
}

func NormalizeTitle(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	runes := []rune(value)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
