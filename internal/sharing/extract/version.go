package extract

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oreo-io/delta-sharing-server/internal/sharing/apperr"
	"github.com/oreo-io/delta-sharing-server/internal/sharing/model"
)

// VersionSelector reads startingTimestamp off the query string, defaulting
// to the latest version when absent (spec.md resolves startingTimestamp as
// inclusive of the version active at that instant).
func VersionSelector(c *gin.Context) (model.VersionSelector, *apperr.AppError) {
	raw := c.Query("startingTimestamp")
	if raw == "" {
		return model.Latest(), nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return model.VersionSelector{}, apperr.BadQueryParams("startingTimestamp must be an RFC 3339 timestamp")
	}
	return model.AtTimestamp(ts), nil
}

// TableChangePredicates extracts the version or timestamp range and the
// includeHistoricalMetadata flag for the table-changes endpoint. Exactly
// one of {startingVersion & endingVersion} or {startingTimestamp &
// endingTimestamp} must be present.
func TableChangePredicates(c *gin.Context) (model.VersionRange, bool, *apperr.AppError) {
	startVersion, hasStartVersion, aerr := queryUint64(c, "startingVersion")
	if aerr != nil {
		return model.VersionRange{}, false, aerr
	}
	endVersion, hasEndVersion, aerr := queryUint64(c, "endingVersion")
	if aerr != nil {
		return model.VersionRange{}, false, aerr
	}
	startTs := c.Query("startingTimestamp")
	endTs := c.Query("endingTimestamp")

	includeHistorical := c.Query("includeHistoricalMetadata") == "true"

	switch {
	case hasStartVersion && hasEndVersion && startTs == "" && endTs == "":
		if startVersion > endVersion {
			return model.VersionRange{}, false, apperr.BadQueryParams("starting table version cannot be higher than ending table version")
		}
		return model.VersionRange{Kind: model.RangeByVersion, StartVersion: startVersion, EndVersion: endVersion}, includeHistorical, nil

	case !hasStartVersion && !hasEndVersion && startTs != "" && endTs != "":
		start, err := time.Parse(time.RFC3339, startTs)
		if err != nil {
			return model.VersionRange{}, false, apperr.BadQueryParams("startingTimestamp must be an RFC 3339 timestamp")
		}
		end, err := time.Parse(time.RFC3339, endTs)
		if err != nil {
			return model.VersionRange{}, false, apperr.BadQueryParams("endingTimestamp must be an RFC 3339 timestamp")
		}
		if end.Before(start) {
			return model.VersionRange{}, false, apperr.BadQueryParams("starting table timestamp must be before ending table timestamp")
		}
		return model.VersionRange{Kind: model.RangeByTimestamp, StartTimestamp: start, EndTimestamp: end}, includeHistorical, nil

	default:
		return model.VersionRange{}, false, apperr.BadQueryParams(
			"specify the range of table version either with startingVersion and endingVersion or startingTimestamp and endingTimestamp")
	}
}

func queryUint64(c *gin.Context, key string) (uint64, bool, *apperr.AppError) {
	raw := c.Query(key)
	if raw == "" {
		return 0, false, nil
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false, apperr.BadQueryParams(key + " must be a non-negative integer")
	}
	return n, true, nil
}
