/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "database.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
connection_config:
  type: sqlite
  dsn: "file:config?mode=memory&cache=shared"
  connect_timeout: 5s
  enable_ddl_log: true
data_migrate_config:
  allow_column_modify: true
  state_file: state/enums.yaml
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.ConnectionConfig.Type)
	assert.Equal(t, 5*time.Second, cfg.ConnectionConfig.ConnectTimeout)
	assert.True(t, cfg.ConnectionConfig.EnableDDLLog)
	assert.Equal(t, 100, cfg.ConnectionConfig.MaxOpenConns, "defaults survive")

	assert.True(t, cfg.DataMigrateConfig.AllowColumnModify)
	assert.True(t, cfg.DataMigrateConfig.AllowColumnAdd, "defaults survive")
	assert.Equal(t, "state/enums.yaml", cfg.DataMigrateConfig.StateFile)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestOverrideFromEnv(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6432")
	t.Setenv("DB_USERNAME", "app")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "shop")
	t.Setenv("DB_SSLMODE", "require")
	t.Setenv("DB_ENABLE_QUERY_LOG", "true")

	cfg := DefaultConnectionConfig()
	cfg.Port = 5432
	overrideFromEnv(cfg)
	assert.Equal(t, "db.internal", cfg.Host)
	assert.Equal(t, 6432, cfg.Port)
	assert.Equal(t, "app", cfg.Username)
	assert.Equal(t, "secret", cfg.Password)
	assert.Equal(t, "shop", cfg.DBName)
	assert.Equal(t, "require", cfg.SSLMode)
	assert.True(t, cfg.EnableQueryLog)

	t.Setenv("DB_PORT", "not-a-port")
	overrideFromEnv(cfg)
	assert.Equal(t, 6432, cfg.Port)
}

func TestCreateFromConfigRejectsUnknownType(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ConnectionConfig.Type = "oracle"
	_, err := NewDatabaseFactory().CreateFromConfig(cfg)
	assert.ErrorContains(t, err, "unsupported database type: oracle")

	_, err = NewDatabaseFactory().CreateFromConfig(nil)
	assert.Error(t, err)
}

func TestInitDBSQLite(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ConnectionConfig.Type = "sqlite"
	cfg.ConnectionConfig.DSN = "file:" + t.Name() + "?mode=memory&cache=shared"
	cfg.DataMigrateConfig.EnableMigrateOnStartup = true
	cfg.DataMigrateConfig.StateFile = filepath.Join(t.TempDir(), "state.yaml")

	db, err := InitDB(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = CloseDB() })
	assert.Same(t, db, GetDB())
	require.NotNil(t, GetDatabaseManager())
	require.NoError(t, GetDatabaseManager().Ping(context.Background()))

	exists, err := db.NewSelect().Model((*Migration)(nil)).Exists(context.Background())
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, RunMigrations(context.Background()))
}
