package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"task-planner/internal/importer"
	"task-planner/internal/service"
)

func importCmd(a *app) *cobra.Command {
	var telegramID int64

	cmd := &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Import tasks from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			be, err := a.openBackend()
			if err != nil {
				return err
			}
			defer be.Close()

			ctx := cmd.Context()
			user, err := be.user(ctx, telegramID, true)
			if err != nil {
				return err
			}

			svc := service.NewTaskService(be.tasks, be.categories, a.log.Named("tasks"))
			count, importErr := importer.Import(ctx, svc, user, raw, a.cfg.Location)
			if count > 0 {
				if err := be.persist(); err != nil {
					return err
				}
			}
			if importErr != nil {
				a.log.Warn("import stopped", zap.Int("imported", count), zap.Error(importErr))
				return importErr
			}

			fmt.Fprintf(cmd.OutOrStdout(), "imported %d tasks\n", count)
			return nil
		},
	}

	cmd.Flags().Int64VarP(&telegramID, "user", "u", 0, "Telegram user id that owns the tasks")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
