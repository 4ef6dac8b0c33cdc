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
package database

import "strings"

// SplitStatements splits a blob of generated SQL on statement terminators
// at line ends and drops empty statements.
func SplitStatements(text string) []string {
	var statements []string
	for _, stmt := range strings.Split(text, ";\n") {
		trimmed := strings.TrimSpace(stmt)
		trimmed = strings.TrimSuffix(trimmed, ";")
		if trimmed != "" {
			statements = append(statements, trimmed)
		}
	}
	return statements
}
