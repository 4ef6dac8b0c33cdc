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

import (
	"os"
	"strings"

	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/config"
)

// CloudSQLParams are the connection settings shared by the Cloud SQL dialects.
type CloudSQLParams struct {
	User         string
	Password     string
	DBName       string
	Instance     string
	UsePrivateIP bool
}

// ResolveCloudSQLParams reads the Cloud SQL settings from cfg, falling back
// to the user_name, password, database_name, instance_name and PRIVATE_IP
// environment variables for empty fields.
func ResolveCloudSQLParams(cfg config.DatabaseConfig) CloudSQLParams {
	fallback := func(v, env string) string {
		if v == "" {
			return os.Getenv(env)
		}
		return v
	}

	p := CloudSQLParams{
		User:         fallback(cfg.User, "user_name"),
		Password:     fallback(cfg.Password, "password"),
		DBName:       fallback(cfg.DBName, "database_name"),
		Instance:     fallback(cfg.CloudSQLInstanceConnectionName, "instance_name"),
		UsePrivateIP: cfg.UsePrivateIP,
	}
	if !p.UsePrivateIP {
		env := strings.ToLower(os.Getenv("PRIVATE_IP"))
		p.UsePrivateIP = env != "" && env != "false" && env != "0"
	}
	return p
}

// Complete reports whether every required Cloud SQL setting is present.
func (p CloudSQLParams) Complete() bool {
	return p.User != "" && p.Password != "" && p.DBName != "" && p.Instance != ""
}
