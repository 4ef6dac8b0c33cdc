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
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/config"
	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/generator"
	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/schema"
	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/workspace"
)

func (s *Server) health(c *gin.Context) {
	Success(c, http.StatusOK, gin.H{"status": "ok"}, "")
}

func (s *Server) listJoinColumns(c *gin.Context) {
	Success(c, http.StatusOK, s.workspace.JoinColumns(), "")
}

func (s *Server) createJoinColumn(c *gin.Context) {
	var req schema.JoinColumn
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	jc, err := s.workspace.AddJoinColumn(req)
	if err != nil {
		FailFromError(c, err, "Error while adding the join column")
		return
	}
	Success(c, http.StatusCreated, jc, "Join column added successfully")
}

func (s *Server) replaceJoinColumns(c *gin.Context) {
	var req []schema.JoinColumn
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	if err := s.workspace.ReplaceJoinColumns(req); err != nil {
		FailFromError(c, err, "Error while replacing the join columns")
		return
	}
	Success(c, http.StatusOK, s.workspace.JoinColumns(), "Join columns replaced successfully")
}

func (s *Server) exportJoinColumns(c *gin.Context) {
	var buf bytes.Buffer
	if err := config.WriteJoinColumns(&buf, s.workspace.JoinColumns()); err != nil {
		Fail(c, http.StatusInternalServerError, err, "Error while exporting the join columns")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="join_columns.yaml"`)
	c.Data(http.StatusOK, "application/yaml", buf.Bytes())
}

func (s *Server) updateJoinColumn(c *gin.Context) {
	var patch workspace.JoinColumnPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		Fail(c, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	jc, err := s.workspace.UpdateJoinColumn(c.Param("id"), patch)
	if err != nil {
		FailFromError(c, err, "Error while updating the join column")
		return
	}
	Success(c, http.StatusOK, jc, "Join column updated successfully")
}

func (s *Server) deleteJoinColumn(c *gin.Context) {
	if err := s.workspace.DeleteJoinColumn(c.Param("id")); err != nil {
		FailFromError(c, err, "Error while deleting the join column")
		return
	}
	Success(c, http.StatusOK, nil, "Join column deleted successfully")
}

// importTables accepts a multipart "file" field, a JSON array of records or a
// raw CSV body.
func (s *Server) importTables(c *gin.Context) {
	var records []schema.Record

	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			Fail(c, http.StatusBadRequest, err, "Could not open the uploaded file")
			return
		}
		defer f.Close()
		if records, err = schema.ReadRecords(f); err != nil {
			Fail(c, http.StatusBadRequest, err, "Invalid schema CSV")
			return
		}
	} else if strings.HasPrefix(c.ContentType(), "application/json") {
		if err := c.ShouldBindJSON(&records); err != nil {
			Fail(c, http.StatusBadRequest, err, "Invalid request body")
			return
		}
	} else {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			Fail(c, http.StatusBadRequest, err, "Could not read the request body")
			return
		}
		if records, err = schema.ReadRecords(bytes.NewReader(body)); err != nil {
			Fail(c, http.StatusBadRequest, err, "Invalid schema CSV")
			return
		}
	}

	tables, err := s.workspace.ImportRecords(records)
	if err != nil {
		FailFromError(c, err, "Error while importing the schema")
		return
	}
	Success(c, http.StatusOK, tables, fmt.Sprintf("Imported %d tables", len(tables)))
}

func (s *Server) listTables(c *gin.Context) {
	Success(c, http.StatusOK, s.workspace.Tables(), "")
}

func (s *Server) getTable(c *gin.Context) {
	table, err := s.workspace.Table(c.Param("name"))
	if err != nil {
		FailFromError(c, err, "Error while fetching the table")
		return
	}
	Success(c, http.StatusOK, table, "")
}

func (s *Server) updateTable(c *gin.Context) {
	var table schema.Table
	if err := c.ShouldBindJSON(&table); err != nil {
		Fail(c, http.StatusBadRequest, err, "Invalid request body")
		return
	}
	name := c.Param("name")
	if table.Name == "" {
		table.Name = name
	}
	if table.Name != name {
		Fail(c, http.StatusBadRequest, nil, "Table name in body does not match the path")
		return
	}

	if err := s.workspace.UpdateTable(table); err != nil {
		FailFromError(c, err, "Error while updating the table")
		return
	}
	Success(c, http.StatusOK, table, "Table updated successfully")
}

func (s *Server) selectPrimaryKey(c *gin.Context) {
	s.respondTable(c)(s.workspace.SelectPrimaryKey(c.Param("name"), c.Param("column")))
}

func (s *Server) deselectPrimaryKey(c *gin.Context) {
	s.respondTable(c)(s.workspace.DeselectPrimaryKey(c.Param("name"), c.Param("column")))
}

func (s *Server) toggleJoinColumn(c *gin.Context) {
	s.respondTable(c)(s.workspace.ToggleJoinColumn(c.Param("name"), c.Param("column")))
}

func (s *Server) respondTable(c *gin.Context) func(schema.Table, error) {
	return func(table schema.Table, err error) {
		if err != nil {
			FailFromError(c, err, "Error while updating the table")
			return
		}
		Success(c, http.StatusOK, table, "Table updated successfully")
	}
}

// generate runs the generator over a snapshot of the workspace. The SQL is
// returned as an attachment unless format=json is requested.
func (s *Server) generate(c *gin.Context) {
	cfg := s.genCfg
	if raw := c.Query("seed"); raw != "" {
		seed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			Fail(c, http.StatusBadRequest, err, "Invalid seed")
			return
		}
		cfg.Seed = &seed
	}

	snapshot := s.workspace.Snapshot()
	if len(snapshot.Tables) == 0 {
		Fail(c, http.StatusBadRequest, nil, "No tables imported")
		return
	}

	result, err := generator.NewService(s.logger, cfg).Generate(c.Request.Context(), snapshot.Tables, snapshot.JoinColumns)
	if err != nil {
		Fail(c, http.StatusInternalServerError, err, "Error while generating the statements")
		return
	}

	if c.Query("format") == "json" {
		failures := make([]string, 0, len(result.Failures))
		for _, f := range result.Failures {
			failures = append(failures, f.Error())
		}
		Success(c, http.StatusOK, gin.H{
			"sql":          result.SQL,
			"tables":       result.Tables,
			"empty_tables": result.EmptyTables,
			"failures":     failures,
		}, "Statements generated")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", config.DefaultOutputFile))
	if len(result.EmptyTables) > 0 {
		c.Header("X-Empty-Tables", strings.Join(result.EmptyTables, ","))
	}
	c.Data(http.StatusOK, "text/sql", []byte(result.SQL))
}
