package rdb

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const defaultDSN = "./kdeploy.db"

// OpenFromURL opens the journal database named by dbURL.
// Supported:
//   - sqlite:<path>  e.g. sqlite:./kdeploy.db, sqlite:~/.local/state/kdeploy/runs.db or sqlite::memory:
//   - sqlite3:<path> alias of sqlite
//
// The parent directory of a file database is created when missing.
func OpenFromURL(dbURL string) (*gorm.DB, error) {
	scheme, dsn, ok := strings.Cut(dbURL, ":")
	if !ok || (scheme != "sqlite" && scheme != "sqlite3") {
		return nil, fmt.Errorf("unsupported db scheme: %s", dbURL)
	}
	if dsn == "" {
		dsn = defaultDSN
	}
	if !strings.HasPrefix(dsn, ":memory:") && !strings.HasPrefix(dsn, "file:") {
		path, err := expandHome(dsn)
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create journal directory: %w", err)
		}
		dsn = path
	}
	return gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
}

func expandHome(path string) (string, error) {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, rest), nil
}

// AutoMigrate applies schema migrations for all RDB models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&RunRecord{})
}
