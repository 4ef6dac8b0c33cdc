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
package workspace

import "fmt"

// ErrNotFound reports a join column, table or column missing from the workspace.
type ErrNotFound struct {
	Kind string
	Key  string
}

// ErrInvalidInput reports a rejected workspace mutation.
type ErrInvalidInput struct {
	Msg string
	Err error
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Key)
}

func (e *ErrInvalidInput) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid input: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("invalid input: %s", e.Msg)
}

func (e *ErrInvalidInput) Unwrap() error {
	return e.Err
}
