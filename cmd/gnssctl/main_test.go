// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/postmarketOS/gnss_watch/internal/fix"
	"gitlab.com/postmarketOS/gnss_watch/internal/gnss"
	"gitlab.com/postmarketOS/gnss_watch/internal/location"
)

func TestDistance(t *testing.T) {
	tables := []struct {
		in       []string
		expected string
		wantErr  bool
	}{
		{[]string{"0", "0", "0", "0"}, "0.000\n", false},
		{[]string{"0", "0", "0", "90"}, "10007543.398\n", false},
		{[]string{"0", "0", "north", "0"}, "", true},
		{[]string{"95", "0", "0", "0"}, "", true},
	}

	for _, table := range tables {
		var out bytes.Buffer
		err := distance(table.in, &out)
		if (err != nil) != table.wantErr {
			t.Errorf("%q expected error: %v, got: %v", table.in, table.wantErr, err)
			continue
		}
		if out.String() != table.expected {
			t.Errorf("%q expected: %q, got: %q", table.in, table.expected, out.String())
		}
	}
}

func TestFixes(t *testing.T) {
	start := time.Date(2021, 6, 4, 12, 0, 0, 0, time.UTC)
	sim := &gnss.Sim{Latitude: 48.1, Longitude: 11.5, SpeedKnots: 20, Course: 90, Satellites: 8, HDOP: 1}

	var in strings.Builder
	in.WriteString("garbage\n")
	for _, s := range sim.Epoch(start) {
		in.WriteString(s.String() + "\n")
	}
	// an epoch without a position
	in.WriteString("$GPRMC,120001.000,V,,,,,,,040621,,,N*4E\n")

	var out bytes.Buffer
	require.NoError(t, fixes(strings.NewReader(in.String()), fix.Version2, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 1)

	var p location.Position[location.Coordinate]
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &p))
	assert.InDelta(t, 48.1, p.Location.Latitude, 1e-6)
	assert.True(t, start.Equal(p.Timestamp))
}
