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
package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/schema"
	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/workspace"
)

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func Success(c *gin.Context, statusCode int, data interface{}, message string) {
	c.JSON(statusCode, APIResponse{
		Status:  "success",
		Message: message,
		Data:    data,
	})
}

func Fail(c *gin.Context, statusCode int, err error, message string) {
	resp := APIResponse{
		Status:  "error",
		Message: message,
	}
	if err != nil {
		resp.Error = err.Error()
	}
	c.JSON(statusCode, resp)
}

// FailFromError picks the status code from the error type.
func FailFromError(c *gin.Context, err error, message string) {
	var notFound *workspace.ErrNotFound
	var invalid *workspace.ErrInvalidInput
	switch {
	case errors.As(err, &notFound):
		Fail(c, http.StatusNotFound, err, message)
	case errors.As(err, &invalid), errors.Is(err, schema.ErrMalformedSchema):
		Fail(c, http.StatusBadRequest, err, message)
	default:
		Fail(c, http.StatusInternalServerError, err, message)
	}
}
