package glitchreveal

import (
	"net/url"
	"strings"
)

// Visit holds the inputs the hosting page passes in for one load.
type Visit struct {
	Code      string // personalization code, "" when absent
	Debug     bool   // bypasses the date gate
	Reset     bool   // clears the persisted record before loading
	UserAgent string
}

// ParseVisit reads the debug, reset and code query parameters. debug and
// reset count as set whenever present, whatever their value.
func ParseVisit(q url.Values, userAgent string) Visit {
	return Visit{
		Code:      strings.TrimSpace(q.Get("code")),
		Debug:     q.Has("debug"),
		Reset:     q.Has("reset"),
		UserAgent: userAgent,
	}
}

// ParseVisitURL is ParseVisit for a full page URL.
func ParseVisitURL(raw, userAgent string) (Visit, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Visit{}, err
	}
	return ParseVisit(u.Query(), userAgent), nil
}
