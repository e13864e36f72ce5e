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

	"github.com/GoogleCloudPlatform/db-data-dictionary/internal/config"
	"github.com/GoogleCloudPlatform/db-data-dictionary/internal/database"
	_ "github.com/GoogleCloudPlatform/db-data-dictionary/internal/database/mysql"
	_ "github.com/GoogleCloudPlatform/db-data-dictionary/internal/database/postgres"
	_ "github.com/GoogleCloudPlatform/db-data-dictionary/internal/database/sqlite"
	_ "github.com/GoogleCloudPlatform/db-data-dictionary/internal/database/sqlserver"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

var cfgFile string

// flagKeys maps each config key to the command line flag that overrides it.
var flagKeys = map[string]string{
	"database.dialect":                           "dialect",
	"database.host":                              "host",
	"database.port":                              "port",
	"database.user":                              "username",
	"database.password":                          "password",
	"database.name":                              "database",
	"database.schema":                            "schema",
	"database.cloudsql_instance_connection_name": "cloudsql-instance-connection-name",
	"database.cloudsql_use_private_ip":           "cloudsql-use-private-ip",
	"dictionary.sample_size":                     "sample-size",
	"dictionary.tables":                          "tables",
	"llm.provider":                               "llm-provider",
	"llm.endpoint":                               "llm-endpoint",
	"llm.model":                                  "model",
	"llm.api_key":                                "llm-api-key",
	"llm.max_attempts":                           "llm-max-attempts",
	"llm.timeout":                                "llm-timeout",
	"report.output_filename":                     "out_file",
	"report.format":                              "format",
	"report.metrics_file":                        "metrics-file",
	"verbose":                                    "verbose",
}

var rootCmd = &cobra.Command{
	Use:   "db_data_dictionary",
	Short: "A tool to build a data dictionary for a database schema",
	Long: `db_data_dictionary is a CLI tool that samples every table of a database schema,
asks a language model to describe each column and writes the result as a data dictionary.`,
	SilenceUsage: true,
}

// loadConfig resolves the configuration for cmd from defaults, the optional
// config file, the environment and the flags the user set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := make(map[string]*pflag.Flag, len(flagKeys))
	for key, name := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			flags[key] = f
		}
	}
	return config.Load(cfgFile, flags)
}

// newLogger builds the console logger used by every command. Each invocation
// gets its own run_id so interleaved logs of separate runs can be told apart.
func newLogger(verbose bool) (*zap.Logger, error) {
	logConfig := zap.NewDevelopmentConfig()
	logConfig.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	if verbose {
		logConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logConfig.DisableStacktrace = !verbose
	logger, err := logConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger.With(zap.String("run_id", uuid.NewString())), nil
}

func setupDatabase(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*database.DB, error) {
	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", zap.String("dialect", cfg.Database.Dialect), zap.Error(err))
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	db.ExcludePrefixes = cfg.Dictionary.ExcludePrefixes
	db.RandomSample = cfg.Dictionary.RandomSample
	logger.Info("Connected to database",
		zap.String("dialect", cfg.Database.Dialect),
		zap.String("database", cfg.Database.DBName),
		zap.String("schema", db.Schema()))
	return db, nil
}

func closeDatabase(db *database.DB, logger *zap.Logger) {
	if err := db.Close(); err != nil {
		logger.Warn("Error closing database connection", zap.Error(err))
		return
	}
	logger.Info("Database connection closed")
}

// Execute adds all child commands to the root command and runs it with ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "YAML config file (keys mirror the flags, e.g. database.host)")
	pf.Bool("verbose", false, "Enable debug logging")

	// Database connection flags
	pf.String("dialect", "postgres", fmt.Sprintf("Database dialect (%s)", strings.Join(config.SupportedDialects, ", ")))
	pf.String("host", "", "Database host (prompted when missing)")
	pf.Int("port", 0, "Database port (defaults to the dialect's standard port)")
	pf.String("username", "", "Database username (prompted when missing)")
	pf.String("password", "", "Database password (prompted when missing)")
	pf.String("database", "", "Database name, or file path for sqlite (prompted when missing)")
	pf.String("schema", "", "Schema to document (defaults to the dialect's default schema)")
	pf.String("cloudsql-instance-connection-name", "", "Cloud SQL instance connection name (for Cloud SQL dialects)")
	pf.Bool("cloudsql-use-private-ip", false, "Use private IP for Cloud SQL connection (Cloud SQL)")
	pf.String("tables", "", `Tables to include, optionally with columns: "table1[column1,column3],table2"`)

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(listTablesCmd)
}
