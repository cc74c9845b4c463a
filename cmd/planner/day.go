package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"task-planner/internal/model"
	"task-planner/internal/schedule"
	"task-planner/internal/service"
)

func dayCmd(a *app) *cobra.Command {
	var (
		telegramID int64
		days       int
	)

	cmd := &cobra.Command{
		Use:   "day [YYYY-MM-DD]",
		Short: "Print a user's tasks for a day, repeating tasks included",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			now := a.cfg.LocalTime(time.Now())
			from := schedule.StartOfDay(now)
			if len(args) == 1 {
				parsed, err := time.ParseInLocation(time.DateOnly, args[0], now.Location())
				if err != nil {
					return fmt.Errorf("parse day %q: %w", args[0], err)
				}
				from = parsed
			}
			if days < 1 {
				return fmt.Errorf("--days must be at least 1")
			}

			be, err := a.openBackend()
			if err != nil {
				return err
			}
			defer be.Close()

			ctx := cmd.Context()
			user, err := be.user(ctx, telegramID, false)
			if err != nil {
				return err
			}

			svc := service.NewTaskService(be.tasks, be.categories, a.log.Named("tasks"))
			agenda, err := svc.Agenda(ctx, user, from, days, now)
			if err != nil {
				return err
			}
			for _, day := range agenda {
				printDay(cmd.OutOrStdout(), day.Day, day.Tasks, now)
			}
			return nil
		},
	}

	cmd.Flags().Int64VarP(&telegramID, "user", "u", 0, "Telegram user id")
	cmd.Flags().IntVarP(&days, "days", "n", 1, "number of consecutive days to print")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func printDay(w io.Writer, day time.Time, tasks []model.Task, now time.Time) {
	fmt.Fprintln(w, day.Format(time.DateOnly))
	if len(tasks) == 0 {
		fmt.Fprintln(w, "  (no tasks)")
		return
	}

	at := service.PriorityAt(day, now)
	for _, task := range tasks {
		id := fmt.Sprintf("#%d", task.ID)
		if task.IsProjected {
			id = "repeat"
		}
		priority := schedule.CalculatePriority(task.StartDate, task.EndDate, at)
		fmt.Fprintf(w, "  %s %-7s %s  %s..%s  %3.0f%%\n",
			service.TaskIcon(task, at), id, task.Title,
			task.StartDate.Format(time.DateOnly), task.EndDate.Format(time.DateOnly),
			priority*100)
	}
}
