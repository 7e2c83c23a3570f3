// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package fix

import (
	"math"
	"time"

	"gitlab.com/postmarketOS/gnss_watch/internal/location"
)

const (
	// DOPToMeters converts a dilution of precision into an accuracy
	// estimate, it is the assumed user equivalent range error.
	DOPToMeters = 6.0

	// MaxDOP is the largest horizontal DOP a fix may have to be used.
	MaxDOP = 7.0

	// MinSatellites is the fewest satellites a fix may be computed from.
	MinSatellites = 3

	// dopCap bounds the DOP fed into the accuracy estimate.
	dopCap = 50.0

	// sigmaConfidence is the confidence, in percent, of a 1-sigma error
	// ellipse.
	sigmaConfidence = 39.0

	knotsToMetersPerSecond = 0.514444
)

const required = Latitude | Longitude | UTCTime

// Validate decides whether raw is usable and converts it into a coordinate
// and the UTC time it was taken. ok is false if any check failed.
func Validate(raw RawFix) (c location.Coordinate, ts time.Time, ok bool) {
	if raw.Valid == 0 || !raw.Valid.Has(required) {
		return
	}

	// some receivers flag the time valid before they know the date
	if raw.Time.Year == 0 || !raw.Time.real() {
		return
	}

	// the satellite count flag is not checked, receivers flag a count of
	// zero as valid
	if raw.SatelliteCount < MinSatellites {
		return
	}

	if raw.Valid.Has(HorizontalDOP) && (math.IsNaN(raw.HorizontalDOP) || raw.HorizontalDOP > MaxDOP) {
		return
	}

	c, err := location.NewCoordinate(raw.Latitude, raw.Longitude)
	if err != nil {
		return
	}

	c.HorizontalAccuracy = horizontalAccuracy(raw)
	c.VerticalAccuracy = verticalAccuracy(raw)

	switch {
	case raw.Valid.Has(AltitudeSeaLevel):
		c.Altitude = raw.AltitudeSeaLevel
	case raw.Valid.Has(AltitudeEllipsoid):
		c.Altitude = raw.AltitudeEllipsoid
	}

	if raw.Valid.Has(Speed) {
		c.Speed = raw.Speed * knotsToMetersPerSecond
	}
	if raw.Valid.Has(Heading) {
		c.Course = raw.Heading
	}

	return c, raw.Time.Time(), true
}

func uncertainty(raw RawFix) *Uncertainty {
	if raw.Version < Version2 || raw.Uncertainty == nil || raw.Uncertainty.HorizontalConfidence <= 0 {
		return nil
	}
	return raw.Uncertainty
}

func horizontalAccuracy(raw RawFix) float64 {
	if u := uncertainty(raw); u != nil {
		// scale the ellipse back to a 1-sigma radius
		mean := (u.HorizontalErrorAlong + u.HorizontalErrorPerp) / 2
		return mean / u.HorizontalConfidence * sigmaConfidence
	}
	if raw.Valid.Has(HorizontalDOP) {
		return math.Min(raw.HorizontalDOP, dopCap) * DOPToMeters
	}
	return math.NaN()
}

func verticalAccuracy(raw RawFix) float64 {
	if u := uncertainty(raw); u != nil {
		return u.VerticalError
	}
	if raw.Valid.Has(VerticalDOP) {
		return math.Min(raw.VerticalDOP, dopCap) * DOPToMeters
	}
	return math.NaN()
}
