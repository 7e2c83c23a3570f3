// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package gnss

import (
	"fmt"
	"strings"

	"github.com/adrianmo/go-nmea"

	"gitlab.com/postmarketOS/gnss_watch/internal/fix"
)

// Confidence of a 1 sigma error ellipse, in percent.
const gstConfidence = 39

// Assembler collects the sentences of one receiver epoch into a RawFix. The
// RMC sentence closes the epoch.
type Assembler struct {
	version fix.ProtocolVersion
	date    nmea.Date
	cur     fix.RawFix
	last    fix.RawFix
}

func NewAssembler(version fix.ProtocolVersion) *Assembler {
	return &Assembler{
		version: version,
		cur:     fix.RawFix{Version: version},
		last:    fix.RawFix{Version: version},
	}
}

// Feed parses one line and reports whether it completed an epoch. Sentence
// types the assembler does not use are ignored.
func (a *Assembler) Feed(line string) (done bool, err error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$") {
		return
	}

	s, err := nmea.Parse(line)
	if err != nil {
		err = fmt.Errorf("gnss/Assembler.Feed: %w", err)
		return
	}

	switch s := s.(type) {
	case nmea.GGA:
		a.gga(s)
	case nmea.GSA:
		a.gsa(s)
	case nmea.GST:
		a.gst(s)
	case nmea.RMC:
		a.rmc(s)
		a.last = a.cur
		a.cur = fix.RawFix{Version: a.version}
		done = true
	}

	return
}

// Fix returns the last complete epoch.
func (a *Assembler) Fix() fix.RawFix {
	return a.last
}

func (a *Assembler) setTime(t nmea.Time) {
	if !t.Valid {
		return
	}
	a.cur.Time.Hour = t.Hour
	a.cur.Time.Minute = t.Minute
	a.cur.Time.Second = t.Second
	a.cur.Time.Millisecond = t.Millisecond
	if a.date.Valid {
		a.cur.Time.Year = 2000 + a.date.YY
		a.cur.Time.Month = a.date.MM
		a.cur.Time.Day = a.date.DD
		a.cur.Valid |= fix.UTCTime
	}
}

func (a *Assembler) gga(s nmea.GGA) {
	a.setTime(s.Time)

	a.cur.SatelliteCount = int(s.NumSatellites)
	a.cur.Valid |= fix.SatelliteCount
	if s.HDOP > 0 {
		a.cur.HorizontalDOP = s.HDOP
		a.cur.Valid |= fix.HorizontalDOP
	}

	if s.FixQuality == nmea.Invalid {
		return
	}
	a.cur.Latitude = s.Latitude
	a.cur.Longitude = s.Longitude
	a.cur.AltitudeSeaLevel = s.Altitude
	a.cur.AltitudeEllipsoid = s.Altitude + s.Separation
	a.cur.Valid |= fix.Latitude | fix.Longitude | fix.AltitudeSeaLevel | fix.AltitudeEllipsoid
}

func (a *Assembler) gsa(s nmea.GSA) {
	if s.PDOP > 0 {
		a.cur.PositionDOP = s.PDOP
		a.cur.Valid |= fix.PositionDOP
	}
	if s.HDOP > 0 {
		a.cur.HorizontalDOP = s.HDOP
		a.cur.Valid |= fix.HorizontalDOP
	}
	if s.VDOP > 0 {
		a.cur.VerticalDOP = s.VDOP
		a.cur.Valid |= fix.VerticalDOP
	}
}

func (a *Assembler) gst(s nmea.GST) {
	if a.version < fix.Version2 {
		return
	}
	a.cur.Uncertainty = &fix.Uncertainty{
		HorizontalErrorAngle: s.SemiMajorOrientation,
		HorizontalErrorAlong: s.SemiMajorError,
		HorizontalErrorPerp:  s.SemiMinorError,
		VerticalError:        s.AltitudeError,
		HorizontalConfidence: gstConfidence,
	}
}

func (a *Assembler) rmc(s nmea.RMC) {
	if s.Date.Valid {
		a.date = s.Date
	}
	a.setTime(s.Time)

	if s.Validity != nmea.ValidRMC {
		// the receiver has no position, whatever GGA said
		a.cur.Valid &^= fix.Latitude | fix.Longitude | fix.AltitudeSeaLevel | fix.AltitudeEllipsoid
		return
	}
	a.cur.Latitude = s.Latitude
	a.cur.Longitude = s.Longitude
	a.cur.Speed = s.Speed
	a.cur.Heading = s.Course
	a.cur.Valid |= fix.Latitude | fix.Longitude | fix.Speed | fix.Heading
}
