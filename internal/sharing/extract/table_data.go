package extract

import (
	"github.com/gin-gonic/gin"

	"github.com/oreo-io/delta-sharing-server/internal/sharing/apperr"
)

// TableDataParams is the JSON body of a table-data query request.
// limitHint is advisory only (spec.md resolves it as never enforced);
// predicateHints/jsonPredicateHints are passed through to the reader as
// optimizer hints, never applied as hard filters.
type TableDataParams struct {
	PredicateHints     []string `json:"predicateHints"`
	LimitHint          *int64   `json:"limitHint"`
	Version            *uint64  `json:"version"`
	JSONPredicateHints string   `json:"jsonPredicateHints"`
	Timestamp          string   `json:"timestamp"`
	StartingVersion    *uint64  `json:"startingVersion"`
	EndingVersion      *uint64  `json:"endingVersion"`
}

// TableData binds the table-data request body. A missing or empty body is
// valid (all fields are optional); a malformed body is
// InvalidQueryParameters since it reflects a client-side request error.
func TableData(c *gin.Context) (TableDataParams, *apperr.AppError) {
	var params TableDataParams
	if c.Request.ContentLength == 0 {
		return params, nil
	}
	if err := c.ShouldBindJSON(&params); err != nil {
		return TableDataParams{}, apperr.BadQueryParams("malformed request body: " + err.Error())
	}
	return params, nil
}
