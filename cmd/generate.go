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
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/config"
	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/genai"
	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/generator"
	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/schema"
	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/utils"
)

var (
	generateInputs workspaceInputs
	generateFlags  generationFlags
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate INSERT statements for every table of a schema",
	Long: `Reads the schema (from a CSV file or a live database) and the join column
declarations, then writes one multi-row INSERT statement per table to a file for
review. With --dry-run=false the statements are applied in a single transaction
after confirmation.`,
	Example: `./dummy_data_generator generate --schema ./schema.csv --join-columns ./join_columns.yaml --out_file ./insert_statements.sql --seed 42`,
	RunE:    runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg := config.Current()
	ctx := cmd.Context()

	if err := applyGenerationFlags(cmd, generateFlags, &cfg.Generation); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	outputFile := cmd.Flag("out_file").Value.String()
	if outputFile == "" {
		outputFile = cfg.Generation.OutputFile
	}
	if outputFile == "" {
		outputFile = utils.GetDefaultOutputFilePath(cfg.Database.DBName, "generate")
	}

	logger.Info("starting generate operation",
		zap.String("schema", generateInputs.SchemaFile),
		zap.String("join_columns", generateInputs.JoinColumnsFile))

	ws, err := loadWorkspace(ctx, generateInputs)
	if err != nil {
		return err
	}
	snapshot := ws.Snapshot()
	if len(snapshot.Tables) == 0 {
		return fmt.Errorf("the schema contains no tables")
	}

	genCfg, err := cfg.Generation.GeneratorConfig()
	if err != nil {
		return err
	}
	if cfg.Generation.StringExamples {
		samples, err := collectStringSamples(ctx, cfg, snapshot.Tables)
		if err != nil {
			return err
		}
		genCfg.Samples = samples
	}

	result, err := generator.NewService(logger, genCfg).Generate(ctx, snapshot.Tables, snapshot.JoinColumns)
	if err != nil {
		return fmt.Errorf("statement generation failed: %w", err)
	}
	for _, f := range result.Failures {
		logger.Warn("table skipped", zap.Error(f))
	}

	if err := utils.WriteOutputFile(outputFile, result.SQL); err != nil {
		return err
	}
	printGenerationSummary(cmd.OutOrStdout(), result, outputFile)

	if dryRun {
		logger.Info("generate operation completed in dry-run mode, no changes were made to the database")
		return nil
	}
	if len(result.Tables) == 0 {
		logger.Info("no statements to apply")
		return nil
	}

	// --- User Confirmation ---
	if !utils.ConfirmAction(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("%d INSERT statements", len(result.Tables))) {
		logger.Info("insertion aborted by user")
		return nil
	}
	// Re-read the statements from the output file as they may have been edited.
	return applyStatementsFile(ctx, outputFile)
}

// collectStringSamples asks Gemini for text column values. An invalid API key
// disables the samples instead of failing the run.
func collectStringSamples(ctx context.Context, cfg *config.Config, tables []schema.Table) (map[string]map[string][]string, error) {
	apiKey := cfg.GeminiAPIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("--string-examples requires a Gemini API key. Please set the GEMINI_API_KEY environment variable")
	}

	knowledgeContext, err := utils.ReadContextFiles(generateFlags.ContextFiles)
	if err != nil {
		return nil, fmt.Errorf("failed to read context files: %w", err)
	}

	client, err := genai.NewClient(ctx, genai.Config{
		APIKey:           apiKey,
		Model:            generateFlags.Model,
		KnowledgeContext: knowledgeContext,
	}, logger)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	if err := client.IsAPIKeyValid(ctx); err != nil {
		logger.Warn("Gemini API key is invalid, string samples will be skipped", zap.Error(err))
		return nil, nil
	}
	return genai.CollectSamples(ctx, client, tables, cfg.Generation.ExamplesPerCol, logger)
}

func printGenerationSummary(w io.Writer, result *generator.Result, outputFile string) {
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)

	for _, t := range result.Tables {
		green.Fprintf(w, "  %-30s %6d rows", t.Table, t.Rows)
		if len(t.PKJoinColumns) > 0 {
			fmt.Fprintf(w, "  (join: %s)", strings.Join(t.PKJoinColumns, ", "))
		}
		fmt.Fprintln(w)
	}
	for _, name := range result.EmptyTables {
		yellow.Fprintf(w, "  %-30s no rows: a primary key join column has no values\n", name)
	}
	for _, f := range result.Failures {
		red.Fprintf(w, "  skipped: %v\n", f)
	}
	color.New(color.FgCyan).Fprintf(w, "SQL statements have been written to: %s\n", outputFile)
}

func init() {
	var outputFile string

	// Flags for generate command
	generateCmd.Flags().StringVarP(&outputFile, "out_file", "o", "", "File path to output generated SQL statements (defaults to insert_statements.sql)")
	addWorkspaceFlags(generateCmd, &generateInputs)
	addGenerationFlags(generateCmd, &generateFlags)
}
