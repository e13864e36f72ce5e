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
	"errors"
	"fmt"

	"github.com/GoogleCloudPlatform/db-data-dictionary/internal/config"
	"github.com/GoogleCloudPlatform/db-data-dictionary/internal/enricher"
	"github.com/GoogleCloudPlatform/db-data-dictionary/internal/genai"
	"github.com/GoogleCloudPlatform/db-data-dictionary/internal/report"
	"github.com/GoogleCloudPlatform/db-data-dictionary/internal/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a data dictionary for every table in the schema",
	Long: `Connects to the database, samples rows from each table, asks the configured language model
to describe every column and writes one dictionary record per column to a report file.`,
	Example: `./db_data_dictionary generate --dialect postgres --host localhost --username user --database mydb --model gemma3:4b
./db_data_dictionary generate --dialect sqlite --database ./shop.db --format markdown --yes
./db_data_dictionary generate --dialect cloudsqlpostgres --username user --password pass --database mydb --cloudsql-instance-connection-name my-project:my-region:my-instance --llm-provider gemini --tables "orders[id,total],users"`,
	RunE: runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	out := cmd.OutOrStdout()
	prompter := utils.NewPrompter(cmd.InOrStdin(), out)
	if err := collectCredentials(prompter, out, &cfg.Database); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	tableFilters, err := utils.ParseTablesFlag(cfg.Dictionary.Tables)
	if err != nil {
		return fmt.Errorf("invalid --tables: %w", err)
	}
	writer, err := report.NewWriter(cfg.Report.Format, logger)
	if err != nil {
		return err
	}
	assumeYes, err := cmd.Flags().GetBool("yes")
	if err != nil {
		return err
	}

	printConnectionSummary(out, cfg)
	if !assumeYes && !prompter.Confirm("Proceed with these settings?") {
		fmt.Fprintln(out, "Aborted by user.")
		return nil
	}

	var uploader *report.Uploader
	if cfg.Report.S3.Enabled() {
		if uploader, err = report.NewS3Uploader(cfg.Report.S3, logger); err != nil {
			return fmt.Errorf("failed to configure report upload: %w", err)
		}
	}

	ctx := cmd.Context()
	logger.Info("Starting run",
		zap.String("dialect", cfg.Database.Dialect),
		zap.String("database", cfg.Database.DBName),
		zap.String("provider", cfg.LLM.Provider),
		zap.String("model", cfg.LLM.Model))

	db, err := setupDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeDatabase(db, logger)

	client, err := genai.NewClient(ctx, cfg.LLM, logger)
	if err != nil {
		return fmt.Errorf("failed to create %s client: %w", cfg.LLM.Provider, err)
	}
	defer client.Close()
	if v, ok := client.(genai.Validator); ok {
		if err := v.Validate(ctx); err != nil {
			return fmt.Errorf("failed to validate %s credentials: %w", client.Name(), err)
		}
	}

	retry := enricher.DefaultRetryOptions
	retry.MaxAttempts = cfg.LLM.MaxAttempts
	metrics := enricher.NewMetrics()
	describer := enricher.NewDescriber(client, retry, logger, metrics)
	svc := enricher.NewService(db, describer, enricher.Config{
		SampleSize:   cfg.Dictionary.SampleSize,
		TableFilters: tableFilters,
	}, logger, metrics)

	result, summary, err := svc.Generate(ctx)
	writeMetrics(cfg.Report, metrics, logger)
	if err != nil {
		var cancelled *enricher.ErrCancelled
		if errors.As(err, &cancelled) {
			logger.Warn("Run interrupted, no report written", zap.Int("records", len(result)))
		}
		return fmt.Errorf("failed to generate data dictionary: %w", err)
	}
	logSummary(logger, summary)

	path, err := writer.Save(result, cfg.Database.DisplayName(), cfg.Report.OutputFilename)
	if err != nil {
		return fmt.Errorf("failed to save data dictionary: %w", err)
	}
	if path == "" {
		fmt.Fprintln(out, "Nothing to save.")
		return nil
	}
	fmt.Fprintf(out, "Data dictionary written to: %s\n", path)

	if uploader != nil {
		key, err := uploader.Upload(ctx, path)
		if err != nil {
			return fmt.Errorf("failed to upload data dictionary: %w", err)
		}
		fmt.Fprintf(out, "Uploaded to: s3://%s/%s\n", cfg.Report.S3.Bucket, key)
	}

	logger.Info("Data dictionary generation completed")
	return nil
}

func logSummary(logger *zap.Logger, summary *enricher.Summary) {
	if summary == nil {
		return
	}
	logger.Info("Run summary",
		zap.Int("tables_listed", summary.TablesListed),
		zap.Int("tables_processed", summary.TablesProcessed),
		zap.Int("tables_skipped", summary.TablesSkipped),
		zap.Int("records", summary.Records),
		zap.Int("degraded_descriptions", summary.Degraded))
	for _, skipped := range summary.Skipped {
		logger.Warn("Skipped table", zap.String("table", skipped.Table), zap.String("stage", skipped.Stage), zap.Error(skipped.Err))
	}
}

func writeMetrics(cfg config.ReportConfig, metrics *enricher.Metrics, logger *zap.Logger) {
	if cfg.MetricsFile == "" {
		return
	}
	if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
		logger.Warn("Failed to write metrics file", zap.String("path", cfg.MetricsFile), zap.Error(err))
		return
	}
	logger.Debug("Metrics written", zap.String("path", cfg.MetricsFile))
}

func init() {
	f := generateCmd.Flags()
	f.Int("sample-size", config.DefaultSampleSize, "Number of rows sampled from each table")
	f.String("llm-provider", config.ProviderOllama, "Summarization service (ollama, gemini, openai)")
	f.String("llm-endpoint", "", "Summarization service URL (defaults per provider)")
	f.String("model", "", "Model name (defaults per provider, gemma3:4b for ollama)")
	f.String("llm-api-key", "", "API key for gemini or openai (or GEMINI_API_KEY / OPENAI_API_KEY)")
	f.Int("llm-max-attempts", 1, "Attempts per column description, retrying transient failures")
	f.Duration("llm-timeout", 0, "Timeout for each summarization request (0 means none)")
	f.StringP("out_file", "o", "", "File path for the report (defaults to data_dictionary_<database>_<timestamp>.<ext>)")
	f.String("format", config.FormatCSV, "Report format (csv, markdown, parquet)")
	f.String("metrics-file", "", "Write run metrics in Prometheus text format to this file")
	f.BoolP("yes", "y", false, "Skip the confirmation prompt")
}
