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
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/config"
	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/server"
	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/workspace"
)

var (
	serveInputs workspaceInputs
	serveFlags  generationFlags
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the workspace and the generator over HTTP",
	Long: `Starts an HTTP API to import schemas, edit join columns, primary keys and join
flags, and download the generated INSERT statements. A schema and join columns
given on the command line are loaded before the server starts.`,
	Example: `./dummy_data_generator serve --listen-port 8080 --schema ./schema.csv`,
	RunE:    runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Current()
	if err := applyGenerationFlags(cmd, serveFlags, &cfg.Generation); err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("listen-host") {
		cfg.Server.Host, _ = flags.GetString("listen-host")
	}
	if flags.Changed("listen-port") {
		cfg.Server.Port, _ = flags.GetInt("listen-port")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	genCfg, err := cfg.Generation.GeneratorConfig()
	if err != nil {
		return err
	}

	ws := workspace.New(logger)
	if serveInputs.SchemaFile != "" {
		if ws, err = loadWorkspace(cmd.Context(), serveInputs); err != nil {
			return err
		}
	} else {
		jcs, err := resolveJoinColumns(serveInputs.JoinColumnsFile)
		if err != nil {
			return err
		}
		if err := ws.ReplaceJoinColumns(jcs); err != nil {
			return fmt.Errorf("invalid join columns: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.New(cfg.Server, ws, genCfg, logger).Run(ctx)
}

func init() {
	serveCmd.Flags().StringVar(&serveInputs.SchemaFile, "schema", "", "Schema CSV file loaded at startup")
	serveCmd.Flags().StringVar(&serveInputs.JoinColumnsFile, "join-columns", "", "YAML or JSON join columns file loaded at startup")
	serveCmd.Flags().String("listen-host", "", "Address the HTTP server binds to (default 0.0.0.0)")
	serveCmd.Flags().Int("listen-port", 0, "Port the HTTP server listens on (default 8080)")
	addGenerationFlags(serveCmd, &serveFlags)
}
