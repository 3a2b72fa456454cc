package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/oreo-io/delta-sharing-server/internal/sharing/apperr"
	"github.com/oreo-io/delta-sharing-server/internal/sharing/authn"
	"github.com/oreo-io/delta-sharing-server/internal/sharing/state"
)

// SetupRouter registers spec.md §6's full HTTP surface on a fresh Gin
// engine, the same top-level shape as the teacher's
// internal/handlers/router.go SetupRouter (global error-recovery
// middleware installed first, then a grouped tree of routes using Gin's
// :param wildcards for the nested share/schema/table path segments).
func SetupRouter(s *state.State, tokens authn.TokenStore) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(apperr.ErrorHandler())
	r.Use(authn.Middleware(tokens))

	r.GET("/healthz", func(c *gin.Context) { c.Status(200) })

	shares := r.Group("/shares")
	{
		shares.GET("", listShares(s))
		shares.GET("/:share", getShare(s))
		shares.GET("/:share/schemas", listSchemas(s))
		shares.GET("/:share/all-tables", listAllTables(s))

		tables := shares.Group("/:share/schemas/:schema/tables")
		{
			tables.GET("", listTablesInSchema(s))
			tables.GET("/:table/version", getTableVersion(s))
			tables.GET("/:table/metadata", getTableMetadata(s))
			tables.POST("/:table/query", queryTable(s))
			tables.GET("/:table/changes", changes(s))
		}
	}

	return r
}
