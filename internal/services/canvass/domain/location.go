package domain

import (
	"fmt"
	"math"

	apperrors "github.com/hellovoter/hellovoter/internal/platform/errors"
)

// Location is a WGS84 position in decimal degrees.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// IsZero reports whether the location was never set.
func (l Location) IsZero() bool {
	return l.Latitude == 0 && l.Longitude == 0
}

// Validate checks that both coordinates are set and in range.
func (l Location) Validate() error {
	if l.IsZero() {
		return apperrors.New(apperrors.CodeLocationMissing, "location is required")
	}
	if math.IsNaN(l.Latitude) || l.Latitude < -90 || l.Latitude > 90 {
		return apperrors.WithMetadata(apperrors.CodeLocationMissing, "latitude out of range",
			map[string]string{"latitude": fmt.Sprint(l.Latitude)})
	}
	if math.IsNaN(l.Longitude) || l.Longitude < -180 || l.Longitude > 180 {
		return apperrors.WithMetadata(apperrors.CodeLocationMissing, "longitude out of range",
			map[string]string{"longitude": fmt.Sprint(l.Longitude)})
	}
	return nil
}

// PreferredLocation returns the user-confirmed canvassing area when set,
// else the live position.
func PreferredLocation(live, area Location) Location {
	if !area.IsZero() {
		return area
	}
	return live
}
