package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DB_TYPE", "mysql")
	t.Setenv("DB_DATABASE", "obras")
	t.Setenv("DB_USER", "obras")
	t.Setenv("PORT", "8080")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.DBType)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 5, cfg.DBConnectionLimit)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFileEnvironmentOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "obrasdb.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db_type: sqlite\ndb_database: obras.db\nport: \"4000\"\n"), 0o600))
	t.Setenv("PORT", "5000")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DBType)
	assert.Equal(t, "obras.db", cfg.DBDatabase)
	assert.Equal(t, "5000", cfg.Port)
	assert.True(t, cfg.IsSQLite())
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"no database", Config{DBType: "postgres", DBConnectionLimit: 5}, "DB_DATABASE is required"},
		{"no user", Config{DBType: "postgres", DBDatabase: "obras", DBConnectionLimit: 5}, "DB_USER is required for postgres"},
		{"sqlite needs no user", Config{DBType: "sqlite-pure", DBDatabase: "obras.db", DBConnectionLimit: 1}, ""},
		{"bad pool", Config{DBType: "sqlite", DBDatabase: "obras.db"}, "DB_CONNECTION_LIMIT must be positive, got 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}
