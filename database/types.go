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
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/uptrace/bun"
	"gopkg.in/yaml.v3"
)

// AbstractDatabaseManager defines the operations for managing a database
// connection and synchronizing enum schema.
type AbstractDatabaseManager interface {
	Connect(ctx context.Context) error
	Disconnect() error
	Ping(ctx context.Context) error
	GetDB() *bun.DB
	GetSQLDB() *sql.DB
	RunMigrations(ctx context.Context) error
	SetLogger(logger Logger)
}

// ConnectionConfig describes how to connect to a database and tune its pool.
type ConnectionConfig struct {
	Type            string        `json:"type" yaml:"type"` // postgres、mysql、sqlite
	Host            string        `json:"host" yaml:"host"`
	Port            int           `json:"port" yaml:"port"`
	Username        string        `json:"username" yaml:"username"`
	Password        string        `json:"password" yaml:"password"`
	DBName          string        `json:"dbname" yaml:"dbname"`
	SSLMode         string        `json:"sslmode" yaml:"sslmode"`
	DSN             string        `json:"dsn" yaml:"dsn"`
	MaxIdleConns    int           `json:"max_idle_conns" yaml:"max_idle_conns"`
	MaxOpenConns    int           `json:"max_open_conns" yaml:"max_open_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" yaml:"conn_max_lifetime"`
	ConnectTimeout  time.Duration `json:"connect_timeout" yaml:"connect_timeout"`
	EnableQueryLog  bool          `json:"enable_query_log" yaml:"enable_query_log"`
	EnableDDLLog    bool          `json:"enable_ddl_log" yaml:"enable_ddl_log"`
}

// DataMigrateConfig controls how enum types and columns are synchronized.
type DataMigrateConfig struct {
	EnableMigrateOnStartup bool   `json:"enable_migrate_on_startup" yaml:"enable_migrate_on_startup"`
	EnableEnumSync         bool   `json:"enable_enum_sync" yaml:"enable_enum_sync"`
	CreateTables           bool   `json:"create_tables" yaml:"create_tables"`
	AllowEnumCreate        bool   `json:"allow_enum_create" yaml:"allow_enum_create"`
	AllowEnumValueAdd      bool   `json:"allow_enum_value_add" yaml:"allow_enum_value_add"`
	AllowColumnAdd         bool   `json:"allow_column_add" yaml:"allow_column_add"`
	AllowColumnModify      bool   `json:"allow_column_modify" yaml:"allow_column_modify"`
	StateFile              string `json:"state_file" yaml:"state_file"`
}

// Config aggregates connection and migration settings.
type Config struct {
	ConnectionConfig  ConnectionConfig  `json:"connection_config" yaml:"connection_config"`
	DataMigrateConfig DataMigrateConfig `json:"data_migrate_config" yaml:"data_migrate_config"`
}

// DefaultConnectionConfig returns a connection config with sensible defaults.
func DefaultConnectionConfig() *ConnectionConfig {
	return &ConnectionConfig{
		MaxIdleConns:    10,
		MaxOpenConns:    100,
		ConnMaxLifetime: time.Hour,
		ConnectTimeout:  time.Second * 10,
	}
}

// DefaultMigrateConfig enables every additive change and nothing destructive.
func DefaultMigrateConfig() DataMigrateConfig {
	return DataMigrateConfig{
		EnableEnumSync:    true,
		CreateTables:      true,
		AllowEnumCreate:   true,
		AllowEnumValueAdd: true,
		AllowColumnAdd:    true,
		StateFile:         "migrations/enum_state.yaml",
	}
}

// DefaultConfig combines the default connection and migration settings.
func DefaultConfig() *Config {
	return &Config{
		ConnectionConfig:  *DefaultConnectionConfig(),
		DataMigrateConfig: DefaultMigrateConfig(),
	}
}

// LoadConfig reads a YAML configuration file on top of DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}
