package stac

import (
	"strings"
	"time"

	"github.com/matzehuels/ogdraster/pkg/errors"
)

// Latest selects the newest available model run.
const Latest = "latest"

var refTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02T15",
	"200601021504",
	"2006010215",
}

// RefTime is a parsed reference time. The zero value means "latest".
type RefTime struct {
	Time time.Time
}

// IsLatest reports whether r selects the newest run.
func (r RefTime) IsLatest() bool { return r.Time.IsZero() }

// String returns "latest" or the UTC time in RFC 3339.
func (r RefTime) String() string {
	if r.IsLatest() {
		return Latest
	}
	return r.Time.UTC().Format(time.RFC3339)
}

// ParseRefTime parses "latest" (or "") or a UTC timestamp. Timestamps
// without a zone are taken as UTC.
func ParseRefTime(s string) (RefTime, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, Latest) {
		return RefTime{}, nil
	}
	for _, layout := range refTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return RefTime{Time: t.UTC()}, nil
		}
	}
	return RefTime{}, errors.New(errors.ErrCodeInvalidInput,
		"invalid reference time %q (want 'latest' or e.g. 2025-01-01T00:00:00Z)", s)
}
