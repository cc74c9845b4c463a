package service

import (
	"context"
	"fmt"
	"html"
	"slices"
	"strings"
	"time"

	"task-planner/internal/model"
	"task-planner/internal/schedule"
)

// upcomingDays is how far ahead the daily summary looks.
const upcomingDays = 3

// ReminderService builds human-readable summaries for daily notifications.
type ReminderService struct {
	tasks      *TaskService
	categories *CategoryService
}

func NewReminderService(tasks *TaskService, categories *CategoryService) *ReminderService {
	return &ReminderService{tasks: tasks, categories: categories}
}

func (s *ReminderService) DailySummary(ctx context.Context, user model.User, now time.Time) (string, error) {
	today, err := s.tasks.TasksForDay(ctx, &user, now, now)
	if err != nil {
		return "", err
	}

	open, err := s.tasks.ListTasks(ctx, &user, ListOptions{SortBy: SortByEnd})
	if err != nil {
		return "", err
	}
	overdue := slices.DeleteFunc(open, func(t model.Task) bool {
		return schedule.CompareDays(t.EndDate, now) >= 0
	})

	agenda, err := s.tasks.Agenda(ctx, &user, schedule.AddDays(now, 1), upcomingDays, now)
	if err != nil {
		return "", err
	}

	catNames, err := s.categories.Names(ctx, &user)
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	builder.WriteString("📋 <b>Ежедневный отчёт</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("02.01.2006")))

	builder.WriteString("🔥 <b>Сегодня</b>\n")
	if len(today) == 0 {
		builder.WriteString("— на сегодня задач нет\n")
	} else {
		for _, task := range today {
			builder.WriteString(FormatTask(task, now, catNames))
		}
	}

	if len(overdue) > 0 {
		builder.WriteString("\n⚠️ <b>Просрочено</b>\n")
		for _, task := range overdue {
			builder.WriteString(FormatTask(task, now, catNames))
		}
	}

	builder.WriteString("\n🔭 <b>Ближайшие дни</b>\n")
	for _, day := range agenda {
		builder.WriteString(fmt.Sprintf("• %s: %s\n", day.Day.Format("02.01"), dayDigest(day.Tasks)))
	}

	return strings.TrimSpace(builder.String()), nil
}

func dayDigest(tasks []model.Task) string {
	if len(tasks) == 0 {
		return "свободно"
	}
	names := make([]string, 0, len(tasks))
	for _, task := range tasks {
		name := NormalizeTitle(task.Title)
		if task.IsProjected {
			name = IconProjected + " " + name
		}
		names = append(names, name)
	}
	return html.EscapeString(strings.Join(names, ", "))
}
