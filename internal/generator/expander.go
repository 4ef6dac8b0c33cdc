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
package generator

import (
	"fmt"

	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/schema"
)

// CellSource tells where a generated cell literal came from.
type CellSource int

const (
	// SourceJoinTuple cells hold a value from the primary key join tuple.
	SourceJoinTuple CellSource = iota
	// SourceSynthesized cells were produced by a type-specific generator.
	SourceSynthesized
	// SourceFallback cells hold the '{column}_{row}' placeholder.
	SourceFallback
)

func (s CellSource) String() string {
	switch s {
	case SourceJoinTuple:
		return "join_tuple"
	case SourceSynthesized:
		return "synthesized"
	case SourceFallback:
		return "fallback"
	default:
		return fmt.Sprintf("CellSource(%d)", int(s))
	}
}

// Cell is one SQL literal of a generated row.
type Cell struct {
	Literal string
	Source  CellSource
}

// fallbackCell is the deterministic placeholder for a column at rowIndex.
func fallbackCell(columnName string, rowIndex int) Cell {
	return Cell{
		Literal: quoteLiteral(fmt.Sprintf("%s_%d", columnName, rowIndex+1)),
		Source:  SourceFallback,
	}
}

// CartesianProduct returns every combination that takes one value from each
// list, in list order. No lists yield a single empty tuple; any empty list
// yields no tuples.
func CartesianProduct(lists [][]string) [][]string {
	product := [][]string{{}}
	for _, list := range lists {
		next := make([][]string, 0, len(product)*len(list))
		for _, prefix := range product {
			for _, v := range list {
				tuple := make([]string, len(prefix), len(prefix)+1)
				copy(tuple, prefix)
				next = append(next, append(tuple, v))
			}
		}
		product = next
	}
	return product
}

// Expansion is the set of primary key rows required for one table.
type Expansion struct {
	// PKJoinColumns are the primary key join columns in column declaration order.
	PKJoinColumns []string
	// Tuples holds one entry per output row, index-aligned with PKJoinColumns.
	Tuples    [][]string
	TotalRows int
}

// ExpandRows computes the primary key join combinations of a table.
func ExpandRows(table schema.Table, values JoinValues) Expansion {
	var names []string
	var lists [][]string
	for _, col := range table.Columns {
		if col.IsPrimaryKeyJoin() {
			names = append(names, col.Name)
			lists = append(lists, values.Lookup(col.Name))
		}
	}
	tuples := CartesianProduct(lists)
	return Expansion{
		PKJoinColumns: names,
		Tuples:        tuples,
		TotalRows:     len(tuples),
	}
}

// Value returns the join tuple cell of columnName for rowIndex. Lookups
// outside the expansion produce a fallback placeholder instead of failing.
func (e Expansion) Value(columnName string, rowIndex int) Cell {
	pos := -1
	for i, name := range e.PKJoinColumns {
		if name == columnName {
			pos = i
			break
		}
	}
	if pos < 0 || rowIndex < 0 || rowIndex >= len(e.Tuples) || pos >= len(e.Tuples[rowIndex]) {
		return fallbackCell(columnName, rowIndex)
	}
	return Cell{Literal: quoteLiteral(e.Tuples[rowIndex][pos]), Source: SourceJoinTuple}
}
