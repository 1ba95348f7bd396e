package stac

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/ogdraster/pkg/errors"
)

// DefaultHorizon is the analysis time step.
const DefaultHorizon = "P0DT0H"

var horizonRE = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// ParseHorizon parses an ISO-8601 duration of the form PnDTnHnMnS.
// Years, months, weeks, fractions and negative durations are rejected.
func ParseHorizon(s string) (time.Duration, error) {
	in := strings.ToUpper(strings.TrimSpace(s))
	m := horizonRE.FindStringSubmatch(in)
	if m == nil || in == "P" || strings.HasSuffix(in, "T") {
		return 0, errors.New(errors.ErrCodeInvalidDuration,
			"invalid horizon %q (want an ISO-8601 duration such as P0DT6H)", s)
	}

	units := []time.Duration{24 * time.Hour, time.Hour, time.Minute, time.Second}
	var d time.Duration
	for i, unit := range units {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.ParseInt(m[i+1], 10, 64)
		if err != nil || n > int64(1<<62)/int64(unit) {
			return 0, errors.New(errors.ErrCodeInvalidDuration, "horizon %q out of range", s)
		}
		d += time.Duration(n) * unit
	}
	return d, nil
}

// FormatHorizon renders d in the catalog's canonical spelling: days and
// hours always, minutes and seconds only when non-zero.
func FormatHorizon(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	mins := d / time.Minute
	d -= mins * time.Minute
	secs := d / time.Second

	s := fmt.Sprintf("P%dDT%dH", days, hours)
	if mins > 0 || secs > 0 {
		s += fmt.Sprintf("%dM", mins)
	}
	if secs > 0 {
		s += fmt.Sprintf("%dS", secs)
	}
	return s
}

// NormalizeHorizon parses s and re-formats it canonically.
func NormalizeHorizon(s string) (string, error) {
	d, err := ParseHorizon(s)
	if err != nil {
		return "", err
	}
	return FormatHorizon(d), nil
}
