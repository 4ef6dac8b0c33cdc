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
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/config"
	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/schema"
	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/utils"
)

var exportSchemaCmd = &cobra.Command{
	Use:     "export-schema",
	Short:   "Write the schema of a database as a CSV file",
	Long:    `Connects to the database, reads the column metadata of every table and writes it in the CSV layout consumed by generate --schema.`,
	Example: `./dummy_data_generator export-schema --dialect cloudsqlpostgres --username user --password pass --database mydb --cloudsql-instance-connection-name my-project:my-region:my-instance --tables "orders,customers[customer_id,name]"`,
	RunE:    runExportSchema,
}

func runExportSchema(cmd *cobra.Command, args []string) error {
	dbConfig := config.Current().Database

	outputFile := cmd.Flag("out_file").Value.String()
	if outputFile == "" {
		outputFile = utils.GetDefaultOutputFilePath(dbConfig.DBName, "export-schema")
	}

	tableFilters, err := utils.ParseTablesFlag(cmd.Flag("tables").Value.String())
	if err != nil {
		return err
	}

	logger.Info("starting export-schema operation",
		zap.String("dialect", dbConfig.Dialect),
		zap.String("database", dbConfig.DBName))

	ctx := cmd.Context()
	db, err := setupDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	records, err := db.ExportRecords(ctx, tableFilters)
	if err != nil {
		return fmt.Errorf("failed to read the schema: %w", err)
	}

	file, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := schema.WriteRecords(file, records); err != nil {
		return fmt.Errorf("failed to write schema CSV: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Schema of %d columns written to: %s\n", len(records), outputFile)
	return nil
}

func init() {
	var outputFile string
	var tables string

	exportSchemaCmd.Flags().StringVarP(&outputFile, "out_file", "o", "", "File path of the schema CSV (defaults to <database>_schema.csv)")
	exportSchemaCmd.Flags().StringVar(&tables, "tables", "", "Comma-separated list of tables and columns to include (e.g., 'table1[col1,col2],table2,table3[col4]')")
}
