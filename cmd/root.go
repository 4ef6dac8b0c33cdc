/*
 * Copyright 2025 Google LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *    https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */
package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/config"
	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/database"
	_ "github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/database/mysql"
	_ "github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/database/postgres"
	_ "github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/database/sqlite"
	_ "github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/database/sqlserver"
	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/logging"
)

var (
	configFile   string
	verbose      bool
	dryRun       bool
	geminiAPIKey string

	// Database connection flags
	dialect                        string
	host                           string
	port                           int
	username                       string
	password                       string
	dbName                         string
	cloudSQLInstanceConnectionName string
	cloudSQLUsePrivateIP           bool

	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "dummy_data_generator",
	Short: "A tool to generate dummy rows for a database schema",
	Long: `dummy_data_generator reads a database schema and a set of join columns
and generates multi-row INSERT statements whose key columns stay consistent
across tables.`,
	SilenceUsage:      true,
	PersistentPreRunE: initFlagsAndConfig,
}

// initFlagsAndConfig loads .env files, the config file and DDG_* variables,
// then applies the flags that were set explicitly on the command line.
func initFlagsAndConfig(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	if cmd != nil {
		flags := cmd.Flags()
		dbCfg := &cfg.Database
		if flags.Changed("dialect") {
			dbCfg.Dialect = strings.ToLower(dialect)
		}
		if flags.Changed("host") {
			dbCfg.Host = host
		}
		if flags.Changed("port") {
			dbCfg.Port = port
		}
		if flags.Changed("username") {
			dbCfg.User = username
		}
		if flags.Changed("password") {
			dbCfg.Password = password
		}
		if flags.Changed("database") {
			dbCfg.DBName = dbName
		}
		if flags.Changed("cloudsql-instance-connection-name") {
			dbCfg.CloudSQLInstanceConnectionName = cloudSQLInstanceConnectionName
		}
		if flags.Changed("cloudsql-use-private-ip") {
			dbCfg.UsePrivateIP = cloudSQLUsePrivateIP
		}
	}

	if geminiAPIKey != "" {
		cfg.GeminiAPIKey = geminiAPIKey
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	l, err := logging.New(verbose)
	if err != nil {
		return err
	}
	logger = l
	config.SetConfig(cfg)
	return nil
}

func setupDatabase(ctx context.Context) (*database.DB, error) {
	dbConfig := config.Current().Database
	if dbConfig.Dialect == "" {
		return nil, fmt.Errorf("database dialect is not configured")
	}
	db, err := database.New(ctx, dbConfig)
	if err != nil {
		logger.Error("failed to connect to database", zap.String("dialect", dbConfig.Dialect), zap.Error(err))
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	defer func() { _ = logger.Sync() }()
	return rootCmd.Execute()
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (YAML or JSON); defaults to ./ddg.config.yaml when present")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", true, "Enable dry-run mode (no database modifications)")

	// Database connection flags
	rootCmd.PersistentFlags().StringVar(&dialect, "dialect", "", fmt.Sprintf("Database dialect (%s)", strings.Join(config.SupportedDialects, ", ")))
	rootCmd.PersistentFlags().StringVar(&host, "host", "", "Database host")
	rootCmd.PersistentFlags().IntVar(&port, "port", 0, "Database port")
	rootCmd.PersistentFlags().StringVar(&username, "username", "", "Database username")
	rootCmd.PersistentFlags().StringVar(&password, "password", "", "Database password")
	rootCmd.PersistentFlags().StringVar(&dbName, "database", "", "Database name (file path for sqlite)")
	rootCmd.PersistentFlags().StringVar(&cloudSQLInstanceConnectionName, "cloudsql-instance-connection-name", "", "Cloud SQL instance connection name (for Cloud SQL dialects) - MANDATORY for CloudSQL")
	rootCmd.PersistentFlags().BoolVar(&cloudSQLUsePrivateIP, "cloudsql-use-private-ip", false, "Use private IP for Cloud SQL connection (Cloud SQL)")

	// Gemini API Key flag
	rootCmd.PersistentFlags().StringVar(&geminiAPIKey, "gemini-api-key", "", "Gemini API key (can also be set via GEMINI_API_KEY environment variable)")

	// Add subcommands
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(exportSchemaCmd)
	rootCmd.AddCommand(listTablesCmd)
	rootCmd.AddCommand(serveCmd)
}
