// Package testutil provides shared test helpers for config files and sqlite-backed stores.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/haevelyn/schedule/internal/config"
	"github.com/haevelyn/schedule/internal/database"
)

// SetupTestConfig writes a config file pointing at a sqlite database in tmpDir.
// Returns the path to the generated config file.
func SetupTestConfig(t *testing.T, tmpDir string) string {
	t.Helper()

	configContent := fmt.Sprintf(`server:
  port: 18080
database:
  driver: sqlite
  path: %s
client:
  base_url: http://127.0.0.1:18080
  timeout_seconds: 2
  retry_attempts: 1
logging:
  file: %s
`,
		filepath.Join(tmpDir, "schedule.db"),
		filepath.Join(tmpDir, "schedule.log"),
	)

	configPath := filepath.Join(tmpDir, "config.yml")
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))
	return configPath
}

// NewSQLiteDB opens a migrated sqlite database under t.TempDir and closes it on cleanup.
func NewSQLiteDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{
		Driver: database.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "schedule.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}
