package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"task-planner/internal/model"
	"task-planner/internal/repository"
	"task-planner/internal/service"
	"task-planner/internal/store"
)

// backend is either the SQLite database or the YAML demo store.
type backend struct {
	tasks      service.TaskStore
	categories service.CategoryStore
	users      *repository.UserRepository
	demo       *store.DemoStore
	close      func() error
}

func (a *app) openBackend() (*backend, error) {
	if a.cfg.DemoDataFile != "" {
		demo := store.NewDemoStore(a.cfg.DemoDataFile)
		if err := demo.Load(); err != nil {
			return nil, err
		}
		a.log.Debug("using demo store", zap.String("path", a.cfg.DemoDataFile))
		return &backend{tasks: demo, categories: demo.Categories(), demo: demo}, nil
	}

	db, err := repository.NewDB(a.cfg.DatabaseURL, a.log)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db handle: %w", err)
	}
	a.log.Debug("using database", zap.String("dsn", a.cfg.DatabaseURL))
	return &backend{
		tasks:      repository.NewTaskRepository(db),
		categories: repository.NewCategoryRepository(db),
		users:      repository.NewUserRepository(db),
		close:      sqlDB.Close,
	}, nil
}

func (b *backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// user resolves a Telegram id. The demo store has no user table, so the id is
// used directly as the owner.
func (b *backend) user(ctx context.Context, telegramID int64, create bool) (*model.User, error) {
	if b.users == nil {
		return &model.User{ID: uint(telegramID), TelegramID: telegramID}, nil
	}
	user, err := b.users.FindByTelegramID(ctx, telegramID)
	if errors.Is(err, gorm.ErrRecordNotFound) && create {
		return b.users.UpsertFromTelegram(ctx, telegramID, "", "", "")
	}
	return user, err
}

// persist flushes the demo store. The database needs nothing.
func (b *backend) persist() error {
	if b.demo == nil {
		return nil
	}
	return b.demo.Flush()
}
