// Package extract turns inbound Gin requests into the typed values the
// sharing handlers operate on: pagination, version selectors, capability
// headers and request bodies. Grounded on original_source's
// src/extract.rs (one FromRequestParts impl per concern) re-expressed as
// Gin query/header binding, the way the teacher binds JSON bodies with
// c.ShouldBindJSON in controllers/*.go.
package extract

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/oreo-io/delta-sharing-server/internal/sharing/apperr"
	"github.com/oreo-io/delta-sharing-server/internal/sharing/model"
)

type paginationQuery struct {
	MaxResults *uint32 `form:"maxResults"`
	PageToken  string  `form:"pageToken"`
}

// Pagination reads maxResults/pageToken off the query string. maxResults
// must be a non-negative integer when present; anything else is
// InvalidQueryParameters.
func Pagination(c *gin.Context) (model.Pagination, *apperr.AppError) {
	raw := c.Query("maxResults")
	var q paginationQuery
	q.PageToken = c.Query("pageToken")

	if raw != "" {
		n, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return model.Pagination{}, apperr.BadQueryParams("maxResults must be a non-negative integer")
		}
		v := uint32(n)
		q.MaxResults = &v
	}

	return model.Pagination{MaxResults: q.MaxResults, PageToken: q.PageToken}, nil
}
