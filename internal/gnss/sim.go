// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package gnss

import (
	"fmt"
	"math"
	"time"

	"gitlab.com/postmarketOS/gnss_watch/internal/location"
	"gitlab.com/postmarketOS/gnss_watch/internal/nmea"
)

const knotsToMetersPerSecond = 0.514444

// Sim is a receiver that drives along a straight line at constant speed and
// reports one epoch (GGA, GSA, GST, RMC) every Interval.
type Sim struct {
	Latitude   float64
	Longitude  float64
	Altitude   float64
	SpeedKnots float64
	Course     float64
	Satellites int
	HDOP       float64
	Interval   time.Duration

	// Now defaults to time.Now
	Now func() time.Time
}

func (s *Sim) Open() (err error) {
	if s.Interval <= 0 {
		s.Interval = time.Second
	}
	if s.Satellites == 0 {
		s.Satellites = 8
	}
	if s.HDOP == 0 {
		s.HDOP = 0.9
	}
	if s.Now == nil {
		s.Now = time.Now
	}
	if _, err = location.NewCoordinate(s.Latitude, s.Longitude); err != nil {
		err = fmt.Errorf("gnss/Sim.Open: %w", err)
	}
	return
}

func (s *Sim) Close() (err error) {
	return
}

func (s *Sim) Start(sendCh chan<- []byte, stop <-chan struct{}, errCh chan<- error) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		for _, sentence := range s.Epoch(s.Now()) {
			select {
			case <-stop:
				return
			case sendCh <- sentence.Bytes():
			}
		}
		s.advance(s.Interval)

		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

// Epoch builds the sentences describing the current position at time t.
func (s *Sim) Epoch(t time.Time) []nmea.Sentence {
	lat, ns := nmea.Latitude(s.Latitude)
	lon, ew := nmea.Longitude(s.Longitude)
	ts := nmea.Time(t)
	hdop := fmt.Sprintf("%.1f", s.HDOP)
	// errors of a 1 sigma ellipse, derived from the HDOP
	sigma := fmt.Sprintf("%.1f", s.HDOP*2)

	sv := make([]string, 12)
	for i := 0; i < s.Satellites && i < len(sv); i++ {
		sv[i] = fmt.Sprintf("%02d", i+1)
	}

	return []nmea.Sentence{
		{Type: "GPGGA", Data: []string{ts, lat, ns, lon, ew, "1", fmt.Sprintf("%02d", s.Satellites), hdop,
			fmt.Sprintf("%.1f", s.Altitude), "M", "0.0", "M", "", ""}},
		{Type: "GPGSA", Data: append(append([]string{"A", "3"}, sv...), fmt.Sprintf("%.1f", s.HDOP*1.5), hdop,
			fmt.Sprintf("%.1f", s.HDOP*1.2))},
		{Type: "GPGST", Data: []string{ts, sigma, sigma, sigma, "0.0", sigma, sigma, sigma}},
		{Type: "GPRMC", Data: []string{ts, "A", lat, ns, lon, ew, fmt.Sprintf("%.1f", s.SpeedKnots),
			fmt.Sprintf("%.1f", s.Course), nmea.Date(t), "", "", "A"}},
	}
}

// advance moves the position along the course for d.
func (s *Sim) advance(d time.Duration) {
	meters := s.SpeedKnots * knotsToMetersPerSecond * d.Seconds()
	if meters == 0 {
		return
	}
	course := s.Course * math.Pi / 180
	lat := s.Latitude * math.Pi / 180

	s.Latitude += meters * math.Cos(course) / location.EarthRadius * 180 / math.Pi
	s.Longitude += meters * math.Sin(course) / (location.EarthRadius * math.Cos(lat)) * 180 / math.Pi
	s.Latitude = math.Max(-90, math.Min(90, s.Latitude))
	if s.Longitude > 180 {
		s.Longitude -= 360
	} else if s.Longitude < -180 {
		s.Longitude += 360
	}
}
