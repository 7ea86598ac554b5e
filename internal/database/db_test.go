package database

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haevelyn/schedule/internal/config"
)

func TestOpen(t *testing.T) {
	tests := []struct {
		name       string
		cfg        config.DatabaseConfig
		wantDriver string
		wantErr    bool
	}{
		{
			name: "creates mysql connection with valid config",
			cfg: config.DatabaseConfig{
				Driver:   "mysql",
				Host:     "localhost",
				Port:     3306,
				Database: "testdb",
				Username: "testuser",
				Password: "testpass",
			},
			wantDriver: "mysql",
		},
		{
			name: "empty driver defaults to mysql",
			cfg: config.DatabaseConfig{
				Host:     "db.example.com",
				Port:     3307,
				Database: "schedule",
				Username: "admin",
				Password: "secret",
			},
			wantDriver: "mysql",
		},
		{
			name: "creates mysql connection with pool settings and params",
			cfg: config.DatabaseConfig{
				Driver:          "mysql",
				Host:            "localhost",
				Port:            3306,
				Database:        "testdb",
				Username:        "testuser",
				Password:        "testpass",
				TLS:             true,
				Params:          map[string]string{"charset": "utf8mb4"},
				MaxOpenConns:    25,
				MaxIdleConns:    5,
				ConnMaxLifetime: 300,
			},
			wantDriver: "mysql",
		},
		{
			name: "creates sqlite connection",
			cfg: config.DatabaseConfig{
				Driver: "sqlite",
				Path:   filepath.Join(t.TempDir(), "schedule.db"),
			},
			wantDriver: "sqlite",
		},
		{
			name:    "unsupported driver",
			cfg:     config.DatabaseConfig{Driver: "postgres"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Open(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, got)
			defer got.Close()

			assert.Equal(t, tt.wantDriver, got.DriverName())
		})
	}
}

func TestMigrate(t *testing.T) {
	db, err := Open(config.DatabaseConfig{
		Driver: DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "schedule.db"),
	})
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, db))
	// running twice must not fail
	require.NoError(t, Migrate(ctx, db))

	var count int
	require.NoError(t, db.GetContext(ctx, &count, "SELECT COUNT(*) FROM schedules"))
	assert.Equal(t, 0, count)
}

func TestIsDuplicateKey(t *testing.T) {
	db, err := Open(config.DatabaseConfig{
		Driver: DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "schedule.db"),
	})
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()
	require.NoError(t, Migrate(ctx, db))

	insert := "INSERT INTO schedules (date, events, memo, version) VALUES (?, '[]', 'memo', 1)"
	_, err = db.ExecContext(ctx, insert, "2025-03-10")
	require.NoError(t, err)
	_, sqliteErr := db.ExecContext(ctx, insert, "2025-03-10")
	require.Error(t, sqliteErr)

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "mysql duplicate entry",
			err:  fmt.Errorf("exec > %w", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}),
			want: true,
		},
		{
			name: "other mysql error",
			err:  &mysql.MySQLError{Number: 1146, Message: "Table doesn't exist"},
			want: false,
		},
		{
			name: "sqlite primary key violation",
			err:  sqliteErr,
			want: true,
		},
		{
			name: "plain error",
			err:  fmt.Errorf("connection refused"),
			want: false,
		},
		{
			name: "nil",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDuplicateKey(tt.err))
		})
	}
}
