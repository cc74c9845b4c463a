package repository

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"task-planner/internal/model"
)

// DefaultDSN is used when no database is configured.
const DefaultDSN = "task_planner.db"

// filePragmas are added to file databases unless the DSN sets them. The bot
// and the report scheduler write to the same file, so writers wait for the
// lock instead of failing with SQLITE_BUSY.
var filePragmas = map[string]string{
	"_busy_timeout": "5000",
	"_journal_mode": "WAL",
}

// NewDB opens a SQLite database and runs migrations. gorm's own log output is
// routed through log.
func NewDB(dsn string, log *zap.Logger) (*gorm.DB, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}
	if log == nil {
		log = zap.NewNop()
	}

	if err := ensureDirForSQLite(dsn); err != nil {
		return nil, err
	}
	dsn = sqliteDSN(dsn)

	dbLogger := logger.New(
		zap.NewStdLog(log.Named("gorm")),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: dbLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.AutoMigrate(&model.User{}, &model.Category{}, &model.Task{}, &model.Action{}); err != nil {
		return nil, fmt.Errorf("migrate db: %w", err)
	}

	log.Debug("database ready", zap.String("dsn", dsn))
	return db, nil
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// sqliteDSN fills in filePragmas for file databases. In-memory DSNs and
// DSNs with a malformed query are returned unchanged.
func sqliteDSN(dsn string) string {
	if isMemoryDSN(dsn) {
		return dsn
	}
	path, query, _ := strings.Cut(dsn, "?")
	params, err := url.ParseQuery(query)
	if err != nil {
		return dsn
	}
	for key, value := range filePragmas {
		if !params.Has(key) {
			params.Set(key, value)
		}
	}
	return path + "?" + params.Encode()
}

// ensureDirForSQLite creates parent dir for SQLite file if needed.
func ensureDirForSQLite(dsn string) error {
	if isMemoryDSN(dsn) {
		return nil
	}
	clean := strings.TrimPrefix(dsn, "file:")
	clean = strings.Split(clean, "?")[0]
	dir := filepath.Dir(clean)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db dir %q: %w", dir, err)
	}
	return nil
}
