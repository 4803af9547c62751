// Package civiltime pins the marketplace to a single civil time zone.
package civiltime

import (
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/araddon/dateparse"
)

const ZoneName = "Africa/Nairobi"

var Zone = mustLoad(ZoneName)

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("EAT", 3*60*60)
	}
	return loc
}

func Now() time.Time {
	return time.Now().In(Zone)
}

// Parse accepts any layout dateparse understands. Values without an offset
// are read as Nairobi wall clock time. The result is always in Zone.
func Parse(value string) (time.Time, error) {
	t, err := dateparse.ParseIn(strings.TrimSpace(value), Zone)
	if err != nil {
		return time.Time{}, err
	}
	return t.In(Zone), nil
}
