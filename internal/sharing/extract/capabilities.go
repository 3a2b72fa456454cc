package extract

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oreo-io/delta-sharing-server/internal/sharing/model"
)

// Capabilities parses the delta-sharing-capabilities request header, a
// semicolon-separated list of key=value1,value2 pairs. An absent header
// yields zero-value Capabilities (supports neither format, no features) —
// never an error, since the header is optional.
func Capabilities(c *gin.Context) model.Capabilities {
	header := c.GetHeader("delta-sharing-capabilities")
	var caps model.Capabilities
	if header == "" {
		return caps
	}

	for _, pair := range strings.Split(header, ";") {
		key, values, found := strings.Cut(pair, "=")
		if !found {
			continue
		}
		switch strings.ToLower(key) {
		case "responseformat":
			for _, v := range strings.Split(values, ",") {
				switch strings.ToLower(v) {
				case "parquet":
					caps.ResponseFormat = append(caps.ResponseFormat, model.FormatParquet)
				case "delta":
					caps.ResponseFormat = append(caps.ResponseFormat, model.FormatDelta)
				}
			}
		case "readerfeatures":
			for _, v := range strings.Split(values, ",") {
				caps.ReaderFeatures = append(caps.ReaderFeatures, strings.ToLower(v))
			}
		}
	}

	return caps
}
