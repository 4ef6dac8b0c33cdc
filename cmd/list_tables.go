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
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/schema"
)

var listTablesInputs workspaceInputs

var listTablesCmd = &cobra.Command{
	Use:     "list-tables",
	Short:   "List the tables of a schema with their keys and join columns",
	Example: `./dummy_data_generator list-tables --schema ./schema.csv --join-columns ./join_columns.yaml`,
	RunE:    runListTables,
}

func runListTables(cmd *cobra.Command, args []string) error {
	ws, err := loadWorkspace(cmd.Context(), listTablesInputs)
	if err != nil {
		return err
	}
	printTables(cmd.OutOrStdout(), ws.Tables())
	return nil
}

func printTables(w io.Writer, tables []schema.Table) {
	if len(tables) == 0 {
		color.New(color.FgYellow).Fprintln(w, "No tables found.")
		return
	}

	bold := color.New(color.Bold)
	cyan := color.New(color.FgCyan)
	for _, t := range tables {
		bold.Fprintf(w, "%s", t.Name)
		fmt.Fprintf(w, " (%d columns)\n", len(t.Columns))
		if len(t.PKOrdering) > 0 {
			fmt.Fprintf(w, "  primary key: %s\n", strings.Join(t.PKOrdering, ", "))
		}
		var joins []string
		for _, c := range t.Columns {
			if !c.IsJoinColumn {
				continue
			}
			if c.IsPrimaryKey {
				joins = append(joins, c.Name+"*")
			} else {
				joins = append(joins, c.Name)
			}
		}
		if len(joins) > 0 {
			cyan.Fprintf(w, "  join columns: %s\n", strings.Join(joins, ", "))
		}
	}
}

func init() {
	addWorkspaceFlags(listTablesCmd, &listTablesInputs)
}
