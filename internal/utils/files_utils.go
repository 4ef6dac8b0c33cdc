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
package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/database"
)

func ReadSQLStatementsFromFile(filePath string) ([]string, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return database.SplitStatements(string(content)), nil
}

// WriteOutputFile writes content to filePath, creating parent directories.
func WriteOutputFile(filePath, content string) error {
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory '%s': %w", dir, err)
		}
	}
	if err := os.WriteFile(filePath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write output file '%s': %w", filePath, err)
	}
	return nil
}

// ReadContextFiles reads the content of the specified context files and combines them into a single string.
func ReadContextFiles(filePaths string) (string, error) {
	if filePaths == "" {
		return "", nil // No context files provided
	}

	paths := strings.Split(filePaths, ",")
	var combinedContext strings.Builder
	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read context file '%s': %w", path, err)
		}
		combinedContext.WriteString("\n-- Context from file: " + path + " --\n")
		combinedContext.WriteString(string(content))
	}
	return combinedContext.String(), nil
}

func GetDefaultOutputFilePath(dbName, commandName string) string {
	switch commandName {
	case "export-schema":
		return fmt.Sprintf("%s_schema.csv", dbName)
	default: // generate
		return "insert_statements.sql"
	}
}

// ConfirmAction prints a summary of what was generated and reads a yes/no
// answer from in.
func ConfirmAction(in io.Reader, out io.Writer, actionDescription string) bool {
	reader := bufio.NewReader(in)
	fmt.Fprintf(out, "\n-------------------------------------------------------------\n")
	fmt.Fprintf(out, "Generated %s:\n", actionDescription)
	fmt.Fprint(out, "Do you want to apply these changes to the database? (yes/no): ")
	text, _ := reader.ReadString('\n')
	action := strings.TrimSpace(strings.ToLower(text))
	return action == "yes" || action == "y"
}

// ParseTablesFlag parses "t1[c1,c2],t2" into a table to columns map. A table
// without brackets maps to nil, meaning all of its columns.
func ParseTablesFlag(tablesFlag string) (map[string][]string, error) {
	tableColumns := make(map[string][]string)
	if tablesFlag == "" {
		return tableColumns, nil
	}

	// strip any whitespace
	tablesFlag = strings.ReplaceAll(tablesFlag, " ", "")

	for _, part := range SplitOutsideBrackets(tablesFlag) {
		if part == "" {
			continue
		}

		bracketStart := strings.Index(part, "[")
		if bracketStart == -1 {
			tableColumns[part] = nil
			continue
		}
		bracketEnd := strings.Index(part, "]")
		if bracketEnd == -1 || bracketEnd < bracketStart {
			return nil, fmt.Errorf("missing closing bracket in: %s", part)
		}

		tableName := part[:bracketStart]
		if tableName == "" {
			return nil, fmt.Errorf("missing table name in: %s", part)
		}
		var columns []string
		for _, col := range strings.Split(part[bracketStart+1:bracketEnd], ",") {
			if col != "" {
				columns = append(columns, col)
			}
		}
		tableColumns[tableName] = columns
	}

	return tableColumns, nil
}

// SplitOutsideBrackets Helper function to split string by commas that are not within brackets
func SplitOutsideBrackets(s string) []string {
	var result []string
	var current strings.Builder
	inBrackets := false

	for _, char := range s {
		switch char {
		case '[':
			inBrackets = true
			current.WriteRune(char)
		case ']':
			inBrackets = false
			current.WriteRune(char)
		case ',':
			if inBrackets {
				current.WriteRune(char)
			} else {
				result = append(result, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(char)
		}
	}

	// Add the last part
	if current.Len() > 0 {
		result = append(result, current.String())
	}

	return result
}
