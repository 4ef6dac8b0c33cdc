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
	"math"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/schema"
)

// sqlTimestampLayout is the literal layout of timestamp with time zone values.
const sqlTimestampLayout = "2006-01-02 15:04:05"

// IntRange is an inclusive integer range.
type IntRange struct {
	Min int64 `mapstructure:"min" json:"min"`
	Max int64 `mapstructure:"max" json:"max"`
}

// FloatRange bounds generated numeric values.
type FloatRange struct {
	Min float64 `mapstructure:"min" json:"min"`
	Max float64 `mapstructure:"max" json:"max"`
}

// TimeRange bounds generated timestamps.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// StringFormatter produces the unquoted value of a text cell.
type StringFormatter func(rowIndex int, columnName string) string

// Options tunes value synthesis. Zero values select the defaults.
type Options struct {
	StringFormat   StringFormatter
	IntRange       *IntRange
	NumericRange   *FloatRange
	TimestampRange *TimeRange
	// Now anchors the default timestamp window; time.Now when nil.
	Now func() time.Time
}

var (
	defaultIntRange     = IntRange{Min: 1, Max: 1000}
	defaultNumericRange = FloatRange{Min: 0, Max: 9999}
)

// Synthesizer produces placeholder literals for non-key columns.
type Synthesizer struct {
	opts Options
	rand *rand.Rand
}

// NewSynthesizer returns a Synthesizer drawing from src. A nil src is seeded
// from the clock.
func NewSynthesizer(opts Options, src rand.Source) *Synthesizer {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Synthesizer{opts: opts, rand: rand.New(src)}
}

// Synthesize returns the literal for column at rowIndex.
func (s *Synthesizer) Synthesize(column schema.Column, rowIndex int) Cell {
	switch column.DataType {
	case schema.TypeVarchar, schema.TypeText:
		return synthesized(s.stringValue(column, rowIndex))
	case schema.TypeInt:
		return synthesized(s.intValue())
	case schema.TypeBool:
		if s.rand.Float64() < 0.5 {
			return synthesized("'true'")
		}
		return synthesized("'false'")
	case schema.TypeNumeric:
		return synthesized(s.numericValue(column))
	case schema.TypeTimestampTZ:
		return synthesized(s.timestampValue())
	default:
		return fallbackCell(column.Name, rowIndex)
	}
}

func synthesized(literal string) Cell {
	return Cell{Literal: literal, Source: SourceSynthesized}
}

func (s *Synthesizer) stringValue(column schema.Column, rowIndex int) string {
	if s.opts.StringFormat != nil {
		return quoteLiteral(s.opts.StringFormat(rowIndex, column.Name))
	}
	return quoteLiteral(column.Name + "_" + strconv.Itoa(rowIndex+1))
}

func (s *Synthesizer) intValue() string {
	r := defaultIntRange
	if s.opts.IntRange != nil {
		r = *s.opts.IntRange
	}
	if r.Max < r.Min {
		r.Min, r.Max = r.Max, r.Min
	}
	// The span is computed in uint64 so ranges wider than MaxInt64 do not overflow.
	span := uint64(r.Max - r.Min)
	offset := s.rand.Uint64()
	if span < math.MaxUint64 {
		offset %= span + 1
	}
	return strconv.FormatInt(r.Min+int64(offset), 10)
}

func (s *Synthesizer) numericValue(column schema.Column) string {
	r := defaultNumericRange
	if s.opts.NumericRange != nil {
		r = *s.opts.NumericRange
	}

	if column.NumericPrecision == nil || *column.NumericPrecision == 0 {
		v := s.rand.Float64()*(r.Max-r.Min) + r.Min
		return strconv.FormatFloat(v, 'f', -1, 64)
	}

	precision := *column.NumericPrecision
	scale := 0
	if column.NumericScale != nil && *column.NumericScale > 0 {
		scale = *column.NumericScale
	}
	intDigits := precision - scale

	limit := math.Pow10(intDigits) - math.Pow10(-scale)
	hi := math.Min(r.Max, limit)
	lo := math.Max(r.Min, -hi)
	if lo > hi {
		lo = hi
	}

	// Draw whole units of 10^-scale inside [lo, hi] so rounding never
	// leaves the range.
	factor := math.Pow10(scale)
	first := math.Ceil(lo * factor)
	last := math.Floor(hi * factor)
	var units float64
	switch {
	case first > last:
		// No value with this scale fits; take the one nearest the range.
		units = math.Round((lo + hi) / 2 * factor)
	case last-first < 1<<62:
		units = first + float64(s.rand.Int63n(int64(last-first)+1))
	default:
		units = math.Round(s.rand.Float64()*(last-first) + first)
	}
	return formatScaled(units/factor, scale)
}

// formatScaled renders v with scale fractional digits, without a negative zero.
func formatScaled(v float64, scale int) string {
	out := strconv.FormatFloat(v, 'f', scale, 64)
	if strings.TrimLeft(out, "-0.") == "" {
		out = strings.TrimPrefix(out, "-")
	}
	return out
}

// defaultTimeRange spans midnight one year before today to midnight one year
// after today.
func (s *Synthesizer) defaultTimeRange() TimeRange {
	now := time.Now()
	if s.opts.Now != nil {
		now = s.opts.Now()
	}
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return TimeRange{Start: midnight.AddDate(-1, 0, 0), End: midnight.AddDate(1, 0, 0)}
}

func (s *Synthesizer) timestampValue() string {
	r := s.defaultTimeRange()
	if s.opts.TimestampRange != nil {
		r = *s.opts.TimestampRange
	}
	start, end := r.Start, r.End
	if end.Before(start) {
		start, end = end, start
	}

	// Whole seconds only, so the truncated literal never leaves the window.
	first := start.Unix()
	if start.Nanosecond() > 0 {
		first++
	}
	last := end.Unix()
	sec := first
	if last > first {
		sec = first + s.rand.Int63n(last-first+1)
	}
	return quoteLiteral(time.Unix(sec, 0).UTC().Format(sqlTimestampLayout))
}

// quoteLiteral wraps v in single quotes, doubling embedded quotes.
func quoteLiteral(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}
