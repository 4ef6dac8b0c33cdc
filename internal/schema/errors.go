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
package schema

import (
	"errors"
	"fmt"
)

// ErrMalformedSchema is matched by every ErrMalformedInput via errors.Is.
var ErrMalformedSchema = errors.New("malformed schema input")

// ErrMalformedInput reports a schema record that cannot be normalized.
type ErrMalformedInput struct {
	Record int // 1-based position of the offending record
	Msg    string
	Err    error
}

func (e *ErrMalformedInput) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed schema input: record %d: %s: %v", e.Record, e.Msg, e.Err)
	}
	return fmt.Sprintf("malformed schema input: record %d: %s", e.Record, e.Msg)
}

func (e *ErrMalformedInput) Unwrap() error {
	return e.Err
}

func (e *ErrMalformedInput) Is(target error) bool {
	return target == ErrMalformedSchema
}
