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
package genai

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/schema"
)

// CollectSamples requests perColumn samples for every text column that is not
// a primary key join column. Columns whose request fails keep the default
// placeholders; only a cancelled context aborts the collection.
// The result is keyed by table name, then column name.
func CollectSamples(ctx context.Context, client LLMClient, tables []schema.Table, perColumn int, logger *zap.Logger) (map[string]map[string][]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	samples := make(map[string]map[string][]string)
	if client == nil || perColumn <= 0 {
		return samples, nil
	}

	for _, table := range tables {
		for _, col := range table.Columns {
			if col.DataType != schema.TypeVarchar && col.DataType != schema.TypeText {
				continue
			}
			if col.IsPrimaryKeyJoin() {
				continue
			}
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("sample collection cancelled: %w", err)
			}

			values, err := client.GenerateStringSamples(ctx, table.Name, col.Name, string(col.DataType), perColumn)
			if err != nil {
				logger.Warn("keeping placeholder strings",
					zap.String("table", table.Name),
					zap.String("column", col.Name),
					zap.Error(err))
				continue
			}
			if len(values) == 0 {
				continue
			}
			if samples[table.Name] == nil {
				samples[table.Name] = make(map[string][]string)
			}
			samples[table.Name][col.Name] = values
		}
	}
	return samples, nil
}
