// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package location

import (
	"encoding/json"
	"fmt"
	"math"
)

// EarthRadius is the mean radius of the sphere used for distances, in meters.
const EarthRadius = 6371000.0

// Coordinate is a point on the earth with optional altitude, accuracy and
// motion values. Fields that are not known hold NaN.
type Coordinate struct {
	Latitude           float64
	Longitude          float64
	Altitude           float64
	HorizontalAccuracy float64
	VerticalAccuracy   float64
	Speed              float64
	Course             float64
}

// Unknown is the coordinate with no known fields.
var Unknown = Coordinate{
	Latitude:           math.NaN(),
	Longitude:          math.NaN(),
	Altitude:           math.NaN(),
	HorizontalAccuracy: math.NaN(),
	VerticalAccuracy:   math.NaN(),
	Speed:              math.NaN(),
	Course:             math.NaN(),
}

// NewCoordinate returns a coordinate at lat/lon with every other field
// unknown.
func NewCoordinate(lat, lon float64) (c Coordinate, err error) {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		err = fmt.Errorf("location.NewCoordinate: latitude %v out of range", lat)
		return
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		err = fmt.Errorf("location.NewCoordinate: longitude %v out of range", lon)
		return
	}

	c = Unknown
	c.Latitude = lat
	c.Longitude = lon
	return
}

func (c Coordinate) IsUnknown() bool {
	return math.IsNaN(c.Latitude) && math.IsNaN(c.Longitude)
}

// Equal compares latitude and longitude only.
func (c Coordinate) Equal(o Coordinate) bool {
	return sameValue(c.Latitude, o.Latitude) && sameValue(c.Longitude, o.Longitude)
}

func (c Coordinate) String() string {
	if c.IsUnknown() {
		return "Unknown"
	}
	return fmt.Sprintf("%.6f, %.6f", c.Latitude, c.Longitude)
}

func sameValue(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return a == b
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Distance returns the great-circle distance between a and b in meters. It is
// NaN when either coordinate is unknown.
func Distance(a, b Coordinate) float64 {
	if a.IsUnknown() || b.IsUnknown() {
		return math.NaN()
	}

	lat1 := radians(a.Latitude)
	lat2 := radians(b.Latitude)
	dLat := lat2 - lat1
	dLon := radians(b.Longitude - a.Longitude)

	h := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dLon/2), 2)
	// rounding can push h slightly past 1 for antipodal points
	c := 2 * math.Asin(math.Min(1, math.Sqrt(h)))

	return EarthRadius * c
}

type coordinateJSON struct {
	Latitude           *float64 `json:"lat"`
	Longitude          *float64 `json:"lon"`
	Altitude           *float64 `json:"alt"`
	HorizontalAccuracy *float64 `json:"h_acc"`
	VerticalAccuracy   *float64 `json:"v_acc"`
	Speed              *float64 `json:"speed"`
	Course             *float64 `json:"course"`
}

func toPtr(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func fromPtr(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

// MarshalJSON writes unknown fields as null, since JSON has no NaN.
func (c Coordinate) MarshalJSON() ([]byte, error) {
	return json.Marshal(coordinateJSON{
		Latitude:           toPtr(c.Latitude),
		Longitude:          toPtr(c.Longitude),
		Altitude:           toPtr(c.Altitude),
		HorizontalAccuracy: toPtr(c.HorizontalAccuracy),
		VerticalAccuracy:   toPtr(c.VerticalAccuracy),
		Speed:              toPtr(c.Speed),
		Course:             toPtr(c.Course),
	})
}

func (c *Coordinate) UnmarshalJSON(data []byte) error {
	var j coordinateJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return fmt.Errorf("location.Coordinate.UnmarshalJSON: %w", err)
	}

	*c = Coordinate{
		Latitude:           fromPtr(j.Latitude),
		Longitude:          fromPtr(j.Longitude),
		Altitude:           fromPtr(j.Altitude),
		HorizontalAccuracy: fromPtr(j.HorizontalAccuracy),
		VerticalAccuracy:   fromPtr(j.VerticalAccuracy),
		Speed:              fromPtr(j.Speed),
		Course:             fromPtr(j.Course),
	}
	return nil
}
