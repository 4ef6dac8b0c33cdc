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
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/config"
	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/generator"
	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/schema"
	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/utils"
	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/workspace"
)

// workspaceInputs names where the schema and join columns come from.
type workspaceInputs struct {
	SchemaFile      string
	JoinColumnsFile string
	// Tables filters the live export when no schema file is given.
	Tables string
}

func addWorkspaceFlags(cmd *cobra.Command, in *workspaceInputs) {
	cmd.Flags().StringVar(&in.SchemaFile, "schema", "", "Schema CSV file (table_name, column_name, data_type, char_length, numeric_precision, numeric_scale, not_null, is_primary_key). Without it the schema is read from the database.")
	cmd.Flags().StringVar(&in.JoinColumnsFile, "join-columns", "", "YAML or JSON file declaring join columns (replaces join_columns from the config file)")
	cmd.Flags().StringVar(&in.Tables, "tables", "", "Comma-separated list of tables and columns to read from the database (e.g., 'table1[col1,col2],table2')")
}

// loadWorkspace builds a workspace from the join column declarations and the
// schema CSV, or from the live database when no CSV is given.
func loadWorkspace(ctx context.Context, in workspaceInputs) (*workspace.Workspace, error) {
	ws := workspace.New(logger)

	joinColumns, err := resolveJoinColumns(in.JoinColumnsFile)
	if err != nil {
		return nil, err
	}
	if err := ws.ReplaceJoinColumns(joinColumns); err != nil {
		return nil, fmt.Errorf("invalid join columns: %w", err)
	}

	records, err := readSchemaRecords(ctx, in)
	if err != nil {
		return nil, err
	}
	if _, err := ws.ImportRecords(records); err != nil {
		return nil, fmt.Errorf("failed to import schema: %w", err)
	}
	logger.Info("workspace loaded",
		zap.Int("records", len(records)),
		zap.Int("join_columns", len(joinColumns)))
	return ws, nil
}

// resolveJoinColumns reads the join columns file, or falls back to the
// join_columns of the config file.
func resolveJoinColumns(path string) ([]schema.JoinColumn, error) {
	if path == "" {
		return config.Current().JoinColumns, nil
	}
	return config.LoadJoinColumns(path)
}

func readSchemaRecords(ctx context.Context, in workspaceInputs) ([]schema.Record, error) {
	if in.SchemaFile != "" {
		f, err := os.Open(in.SchemaFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open schema file: %w", err)
		}
		defer f.Close()
		return schema.ReadRecords(f)
	}

	filters, err := utils.ParseTablesFlag(in.Tables)
	if err != nil {
		return nil, err
	}
	db, err := setupDatabase(ctx)
	if err != nil {
		return nil, fmt.Errorf("no --schema file given and the database is unavailable: %w", err)
	}
	defer db.Close()
	return db.ExportRecords(ctx, filters)
}

// generationFlags are the command line overrides of config.GenerationConfig.
type generationFlags struct {
	PlaceholderCount int
	IntRange         string
	NumericRange     string
	TimestampStart   string
	TimestampEnd     string
	Seed             int64
	StringExamples   bool
	ExamplesPerCol   int
	ContextFiles     string
	Model            string
}

func addGenerationFlags(cmd *cobra.Command, f *generationFlags) {
	cmd.Flags().IntVar(&f.PlaceholderCount, "placeholder-count", generator.DefaultPlaceholderCount, "Number of placeholder values generated for random_generated join columns")
	cmd.Flags().StringVar(&f.IntRange, "int-range", "", "Integer value range as min:max (default 1:1000)")
	cmd.Flags().StringVar(&f.NumericRange, "numeric-range", "", "Numeric value range as min:max (default 0:9999)")
	cmd.Flags().StringVar(&f.TimestampStart, "timestamp-start", "", "Start of the timestamp window (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().StringVar(&f.TimestampEnd, "timestamp-end", "", "End of the timestamp window (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().Int64Var(&f.Seed, "seed", 0, "Seed for reproducible output")
	cmd.Flags().BoolVar(&f.StringExamples, "string-examples", false, "Ask Gemini for realistic values of text columns (requires a Gemini API key)")
	cmd.Flags().IntVar(&f.ExamplesPerCol, "examples-per-column", 10, "Number of Gemini samples requested per text column")
	cmd.Flags().StringVar(&f.ContextFiles, "context", "", "Comma-separated list of files describing the data set, passed to Gemini")
	cmd.Flags().StringVar(&f.Model, "model", "", "Gemini model used for string samples")
}

// applyGenerationFlags copies the flags that were set onto g.
func applyGenerationFlags(cmd *cobra.Command, f generationFlags, g *config.GenerationConfig) error {
	flags := cmd.Flags()
	if flags.Changed("placeholder-count") {
		g.PlaceholderCount = f.PlaceholderCount
	}
	if flags.Changed("int-range") {
		r, err := parseIntRange(f.IntRange)
		if err != nil {
			return err
		}
		g.IntRange = r
	}
	if flags.Changed("numeric-range") {
		r, err := parseFloatRange(f.NumericRange)
		if err != nil {
			return err
		}
		g.NumericRange = r
	}
	if flags.Changed("timestamp-start") {
		g.TimestampStart = f.TimestampStart
	}
	if flags.Changed("timestamp-end") {
		g.TimestampEnd = f.TimestampEnd
	}
	if flags.Changed("seed") {
		seed := f.Seed
		g.Seed = &seed
	}
	if flags.Changed("string-examples") {
		g.StringExamples = f.StringExamples
	}
	if flags.Changed("examples-per-column") {
		g.ExamplesPerCol = f.ExamplesPerCol
	}
	return nil
}

func splitRange(v string) (string, string, error) {
	lo, hi, ok := strings.Cut(strings.TrimSpace(v), ":")
	if !ok {
		return "", "", fmt.Errorf("invalid range %q: expected min:max", v)
	}
	return strings.TrimSpace(lo), strings.TrimSpace(hi), nil
}

func parseIntRange(v string) (generator.IntRange, error) {
	lo, hi, err := splitRange(v)
	if err != nil {
		return generator.IntRange{}, err
	}
	minV, err := strconv.ParseInt(lo, 10, 64)
	if err != nil {
		return generator.IntRange{}, fmt.Errorf("invalid range minimum %q: %w", lo, err)
	}
	maxV, err := strconv.ParseInt(hi, 10, 64)
	if err != nil {
		return generator.IntRange{}, fmt.Errorf("invalid range maximum %q: %w", hi, err)
	}
	if minV > maxV {
		return generator.IntRange{}, fmt.Errorf("invalid range %q: minimum is greater than maximum", v)
	}
	return generator.IntRange{Min: minV, Max: maxV}, nil
}

func parseFloatRange(v string) (generator.FloatRange, error) {
	lo, hi, err := splitRange(v)
	if err != nil {
		return generator.FloatRange{}, err
	}
	minV, err := strconv.ParseFloat(lo, 64)
	if err != nil {
		return generator.FloatRange{}, fmt.Errorf("invalid range minimum %q: %w", lo, err)
	}
	maxV, err := strconv.ParseFloat(hi, 64)
	if err != nil {
		return generator.FloatRange{}, fmt.Errorf("invalid range maximum %q: %w", hi, err)
	}
	if minV > maxV {
		return generator.FloatRange{}, fmt.Errorf("invalid range %q: minimum is greater than maximum", v)
	}
	return generator.FloatRange{Min: minV, Max: maxV}, nil
}
