// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

// Package nmea builds NMEA 0183 sentences. Parsing is left to go-nmea.
package nmea

import (
	"fmt"
	"math"
	"strings"
	"time"
)

type Sentence struct {
	Type string
	Data []string
}

func checksum(s string) string {
	var sum uint8
	for i := 0; i < len(s); i++ {
		sum ^= s[i]
	}

	return fmt.Sprintf("%02X", sum)
}

func (s Sentence) String() string {
	body := strings.Join(append([]string{s.Type}, s.Data...), ",")
	if len(s.Data) == 0 {
		// always make sure the type is followed by a comma if there is no data
		body += ","
	}

	return fmt.Sprintf("$%s*%s", body, checksum(body))
}

func (s Sentence) Bytes() []byte {
	return []byte(s.String())
}

// Latitude formats decimal degrees as the ddmm.mmmmm and N/S field pair.
func Latitude(deg float64) (string, string) {
	hemisphere := "N"
	if deg < 0 {
		hemisphere = "S"
	}
	return degMin(math.Abs(deg), 2), hemisphere
}

// Longitude formats decimal degrees as the dddmm.mmmmm and E/W field pair.
func Longitude(deg float64) (string, string) {
	hemisphere := "E"
	if deg < 0 {
		hemisphere = "W"
	}
	return degMin(math.Abs(deg), 3), hemisphere
}

func degMin(deg float64, width int) string {
	whole := math.Floor(deg)
	minutes := (deg - whole) * 60
	// rounding the minutes may carry into the degrees
	if fmt.Sprintf("%08.5f", minutes) == "60.00000" {
		whole++
		minutes = 0
	}
	return fmt.Sprintf("%0*d%08.5f", width, int(whole), minutes)
}

// Time formats the time of day as hhmmss.sss.
func Time(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%02d%02d%02d.%03d", t.Hour(), t.Minute(), t.Second(), t.Nanosecond()/int(time.Millisecond))
}

// Date formats the date as ddmmyy.
func Date(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%02d%02d%02d", t.Day(), int(t.Month()), t.Year()%100)
}
