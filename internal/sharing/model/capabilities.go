package model

import "strings"

// ResponseFormat is a client-declared acceptable envelope.
type ResponseFormat string

const (
	FormatParquet ResponseFormat = "parquet"
	FormatDelta   ResponseFormat = "delta"
)

// Capabilities is the client-declared negotiation vector derived from the
// delta-sharing-capabilities request header.
type Capabilities struct {
	ResponseFormat []ResponseFormat
	ReaderFeatures []string
}

// SupportsDeltaFormat reports whether the client accepts the delta envelope.
func (c Capabilities) SupportsDeltaFormat() bool {
	for _, f := range c.ResponseFormat {
		if f == FormatDelta {
			return true
		}
	}
	return false
}

// SupportsReaderFeature reports whether the client declared a given reader
// feature (case-insensitive, as features are always lowercased on parse).
func (c Capabilities) SupportsReaderFeature(feature string) bool {
	feature = strings.ToLower(feature)
	for _, f := range c.ReaderFeatures {
		if f == feature {
			return true
		}
	}
	return false
}

// Preferred picks the envelope to respond with: delta when the client
// declared support for it, parquet otherwise.
func (c Capabilities) Preferred() ResponseFormat {
	if c.SupportsDeltaFormat() {
		return FormatDelta
	}
	return FormatParquet
}

// SupportsProtocol reports whether the negotiated capabilities are
// sufficient to read a table with the given minimum reader version and
// required reader features. minReaderVersion == 1 is always supported.
func (c Capabilities) SupportsProtocol(minReaderVersion uint32, requiredFeatures []string) bool {
	if minReaderVersion == 1 {
		return true
	}
	if !c.SupportsDeltaFormat() {
		return false
	}
	for _, feat := range requiredFeatures {
		if !c.SupportsReaderFeature(feat) {
			return false
		}
	}
	return true
}
