package domain

import (
	"time"

	"github.com/nathan-osman/go-sunrise"
)

// IsDaytime reports whether at falls between a sunrise and the following
// sunset at loc. Solar days are computed for at's UTC calendar date and its
// neighbours, since far from Greenwich a local afternoon spills into the
// next UTC date. On a date where the sun neither rises nor sets, the sun's
// elevation at at decides: up under midnight sun, down in polar night.
func IsDaytime(loc Location, at time.Time) bool {
	utc := at.UTC()
	for offset := -1; offset <= 1; offset++ {
		day := utc.AddDate(0, 0, offset)
		rise, set := sunrise.SunriseSunset(loc.Latitude, loc.Longitude, day.Year(), day.Month(), day.Day())
		if rise.IsZero() || set.IsZero() {
			if offset == 0 {
				return sunrise.Elevation(loc.Latitude, loc.Longitude, utc) > 0
			}
			continue
		}
		if !utc.Before(rise) && !utc.After(set) {
			return true
		}
	}
	return false
}
