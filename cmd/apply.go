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

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/config"
	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/utils"
)

var applyCmd = &cobra.Command{
	Use:     "apply",
	Short:   "Apply a generated SQL file to the database",
	Long:    `Reads the INSERT statements from a file written by generate (and possibly edited) and executes them in a single transaction after confirmation.`,
	Example: `./dummy_data_generator apply --dialect postgres --host localhost --username user --password pass --database mydb --in_file ./insert_statements.sql --dry-run=false`,
	RunE:    runApply,
}

func runApply(cmd *cobra.Command, args []string) error {
	inputFile := cmd.Flag("in_file").Value.String()
	if inputFile == "" {
		inputFile = config.Current().Generation.OutputFile
	}

	sqlStatements, err := utils.ReadSQLStatementsFromFile(inputFile)
	if err != nil {
		return err
	}
	if len(sqlStatements) == 0 {
		logger.Info("no SQL statements found", zap.String("file", inputFile))
		return nil
	}

	if dryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "%d statements read from %s. Run with --dry-run=false to apply them.\n", len(sqlStatements), inputFile)
		return nil
	}
	if !utils.ConfirmAction(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("%d SQL statements from %s", len(sqlStatements), inputFile)) {
		logger.Info("apply aborted by user")
		return nil
	}
	return applyStatementsFile(cmd.Context(), inputFile)
}

func applyStatementsFile(ctx context.Context, path string) error {
	sqlStatements, err := utils.ReadSQLStatementsFromFile(path)
	if err != nil {
		return fmt.Errorf("failed to read SQL statements from output file: %w", err)
	}

	db, err := setupDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.ExecuteSQLStatements(ctx, sqlStatements); err != nil {
		return fmt.Errorf("failed to execute SQL statements: %w", err)
	}
	logger.Info("successfully inserted rows into the database", zap.Int("statements", len(sqlStatements)))
	return nil
}

func init() {
	var inputFile string

	applyCmd.Flags().StringVarP(&inputFile, "in_file", "i", "", "File containing the SQL statements to apply (defaults to insert_statements.sql)")
}
