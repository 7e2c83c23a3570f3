// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package gnss

import (
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/postmarketOS/gnss_watch/internal/location"
)

func TestGnssDeviceReadsLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gnss0")
	require.NoError(t, os.WriteFile(path, []byte("$GPGGA,1*00\n$GPRMC,2*00\n"), 0o600))

	d := NewGnssDevice(path)
	require.NoError(t, d.Open())
	defer d.Close()

	lines := make(chan []byte)
	errs := make(chan error, 1)
	stop := make(chan struct{})
	defer close(stop)
	go d.Start(lines, stop, errs)

	assert.Equal(t, "$GPGGA,1*00", string(<-lines))
	assert.Equal(t, "$GPRMC,2*00", string(<-lines))
	assert.ErrorIs(t, <-errs, io.EOF)
}

func TestGnssDeviceMissing(t *testing.T) {
	d := NewGnssDevice(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, d.Open())
}

func TestSerialDeviceMissing(t *testing.T) {
	d := NewSerialDevice(filepath.Join(t.TempDir(), "ttyUSB9"), 9600)
	assert.Error(t, d.Open())
}

func TestSimAdvance(t *testing.T) {
	tables := []struct {
		course float64
		dLat   float64
		dLon   float64
	}{
		{0, 1, 0},
		{90, 0, 1},
		{180, -1, 0},
		{270, 0, -1},
	}

	for _, table := range tables {
		s := &Sim{Latitude: 10, Longitude: 20, SpeedKnots: 100, Course: table.course}
		start, _ := location.NewCoordinate(s.Latitude, s.Longitude)
		s.advance(10 * time.Second)
		end, _ := location.NewCoordinate(s.Latitude, s.Longitude)

		if math.Signbit(s.Latitude-10) != math.Signbit(table.dLat) && table.dLat != 0 {
			t.Errorf("course %v moved latitude the wrong way: %v", table.course, s.Latitude)
		}
		if math.Signbit(s.Longitude-20) != math.Signbit(table.dLon) && table.dLon != 0 {
			t.Errorf("course %v moved longitude the wrong way: %v", table.course, s.Longitude)
		}
		assert.InDelta(t, 100*knotsToMetersPerSecond*10, location.Distance(start, end), 0.01)
	}
}

func TestSimStart(t *testing.T) {
	s := &Sim{Latitude: 10, Longitude: 20, Interval: 10 * time.Millisecond, Now: func() time.Time { return epochTime }}
	require.NoError(t, s.Open())

	lines := make(chan []byte)
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		s.Start(lines, stop, make(chan error, 1))
		close(done)
	}()

	for i := 0; i < 8; i++ {
		l := <-lines
		assert.Equal(t, byte('$'), l[0])
	}
	close(stop)
	<-done
}

func TestSimOpenRange(t *testing.T) {
	s := &Sim{Latitude: 91}
	assert.Error(t, s.Open())
}
