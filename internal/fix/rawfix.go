// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package fix

import "time"

// Flags marks which fields of a RawFix carry data.
type Flags uint32

const (
	UTCTime           Flags = 0x00000001
	Latitude          Flags = 0x00000002
	Longitude         Flags = 0x00000004
	Speed             Flags = 0x00000008
	Heading           Flags = 0x00000010
	MagneticVariation Flags = 0x00000020
	AltitudeSeaLevel  Flags = 0x00000040
	AltitudeEllipsoid Flags = 0x00000080
	PositionDOP       Flags = 0x00000100
	HorizontalDOP     Flags = 0x00000200
	VerticalDOP       Flags = 0x00000400
	SatelliteCount    Flags = 0x00000800
)

func (f Flags) Has(want Flags) bool {
	return f&want == want
}

// ProtocolVersion is the layout a provider reports fixes in. Version2 adds
// the uncertainty block and report interval control.
type ProtocolVersion int

const (
	Version1 ProtocolVersion = 1
	Version2 ProtocolVersion = 2
)

// UTCFields holds the broken-down time fields as the receiver reported them. A
// zero Year means the receiver has not learned the date yet.
type UTCFields struct {
	Year        int
	Month       int
	Day         int
	Hour        int
	Minute      int
	Second      int
	Millisecond int
}

func (u UTCFields) Time() time.Time {
	return time.Date(u.Year, time.Month(u.Month), u.Day, u.Hour, u.Minute, u.Second,
		u.Millisecond*int(time.Millisecond), time.UTC)
}

// real reports whether the fields name an actual calendar instant.
func (u UTCFields) real() bool {
	if u.Month < 1 || u.Month > 12 || u.Day < 1 || u.Day > 31 {
		return false
	}
	if u.Hour < 0 || u.Hour > 23 || u.Minute < 0 || u.Minute > 59 || u.Second < 0 || u.Second > 60 {
		return false
	}
	// time.Date normalizes e.g. Feb 30 into March
	return u.Time().Day() == u.Day
}

// Uncertainty is the error ellipse some receivers report next to the DOP
// values. Errors are in meters, the angle in degrees from north and the
// confidence in percent.
type Uncertainty struct {
	HorizontalErrorAngle float64
	HorizontalErrorAlong float64
	HorizontalErrorPerp  float64
	VerticalError        float64
	HorizontalConfidence float64
}

// RawFix is one unprocessed reading from a provider. Uncertainty is only
// populated when Version is Version2.
type RawFix struct {
	Version ProtocolVersion
	Valid   Flags
	Time    UTCFields

	Latitude          float64
	Longitude         float64
	AltitudeSeaLevel  float64
	AltitudeEllipsoid float64
	Speed             float64 // knots
	Heading           float64

	PositionDOP    float64
	HorizontalDOP  float64
	VerticalDOP    float64
	SatelliteCount int

	Uncertainty *Uncertainty
}
