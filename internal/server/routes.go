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

import "github.com/gin-gonic/gin"

func (s *Server) registerRoutes(router *gin.Engine) {
	router.GET("/healthz", s.health)

	api := router.Group("/api/v1")
	{
		api.GET("/join-columns", s.listJoinColumns)
		api.POST("/join-columns", s.createJoinColumn)
		api.PUT("/join-columns", s.replaceJoinColumns)
		api.GET("/join-columns/export", s.exportJoinColumns)
		api.PATCH("/join-columns/:id", s.updateJoinColumn)
		api.DELETE("/join-columns/:id", s.deleteJoinColumn)

		api.POST("/tables/import", s.importTables)
		api.GET("/tables", s.listTables)
		api.GET("/tables/:name", s.getTable)
		api.PUT("/tables/:name", s.updateTable)
		api.POST("/tables/:name/primary-keys/:column", s.selectPrimaryKey)
		api.DELETE("/tables/:name/primary-keys/:column", s.deselectPrimaryKey)
		api.POST("/tables/:name/join-columns/:column/toggle", s.toggleJoinColumn)

		api.POST("/generate", s.generate)
	}
}
