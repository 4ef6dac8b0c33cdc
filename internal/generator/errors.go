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
	"errors"
	"fmt"
)

// ErrTableSkipped is matched by every ErrInvalidTable via errors.Is.
var ErrTableSkipped = errors.New("table skipped")

// ErrInvalidTable reports a table that could not be turned into an INSERT
// statement. Other tables of the same run are unaffected.
type ErrInvalidTable struct {
	Table string
	Err   error
}

func (e *ErrInvalidTable) Error() string {
	return fmt.Sprintf("invalid table %q: %v", e.Table, e.Err)
}

func (e *ErrInvalidTable) Unwrap() error {
	return e.Err
}

func (e *ErrInvalidTable) Is(target error) bool {
	return target == ErrTableSkipped
}
