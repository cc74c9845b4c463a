package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"task-planner/internal/bot"
	"task-planner/internal/service"
)

const reportTimeout = 30 * time.Second

func botCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot and the report scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBot(cmd.Context())
		},
	}
}

func (a *app) runBot(ctx context.Context) error {
	if err := a.cfg.RequireTelegram(); err != nil {
		return err
	}
	if a.cfg.DemoDataFile != "" {
		return fmt.Errorf("the bot needs a database for Telegram users, drop --demo")
	}

	be, err := a.openBackend()
	if err != nil {
		return err
	}
	defer be.Close()

	categorySvc := service.NewCategoryService(be.categories)
	taskSvc := service.NewTaskService(be.tasks, be.categories, a.log.Named("tasks"))
	reminderSvc := service.NewReminderService(taskSvc, categorySvc)

	telegramBot, err := bot.New(a.cfg.TelegramToken, be.users, categorySvc, taskSvc, reminderSvc, &a.cfg, a.log.Named("bot"))
	if err != nil {
		return fmt.Errorf("bot: %w", err)
	}

	scheduler := service.NewSchedulerService(a.cfg.Location)
	scheduled, err := scheduler.ScheduleReports(a.cfg.DailyReportTime, a.cfg.ReportInterval, func() {
		jobCtx, cancel := context.WithTimeout(ctx, reportTimeout)
		defer cancel()
		if err := telegramBot.SendDailyReports(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
			a.log.Error("send reports", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule reports: %w", err)
	}
	if scheduled {
		scheduler.Start()
		defer scheduler.Stop()
		if next, ok := scheduler.Next(); ok {
			a.log.Info("reports scheduled", zap.Time("next", next))
		}
	}

	a.log.Info("task planner bot started")
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("bot stopped with error: %w", err)
	}
	a.log.Info("shutdown complete")
	return nil
}
