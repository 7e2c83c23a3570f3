// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package event

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/postmarketOS/gnss_watch/internal/location"
	"gitlab.com/postmarketOS/gnss_watch/internal/watcher"
)

// source records the callbacks handed to it.
type source struct {
	position func(location.Position[location.Coordinate])
	status   func(watcher.Status)
	property func(string)
	removed  int
}

func (s *source) OnPositionChanged(fn func(location.Position[location.Coordinate])) func() {
	s.position = fn
	return func() { s.removed++ }
}

func (s *source) OnStatusChanged(fn func(watcher.Status)) func() {
	s.status = fn
	return func() { s.removed++ }
}

func (s *source) OnPropertyChanged(fn func(string)) func() {
	s.property = fn
	return func() { s.removed++ }
}

func TestForward(t *testing.T) {
	at := time.Date(2021, 6, 4, 12, 0, 0, 0, time.UTC)
	now = func() time.Time { return at }
	defer func() { now = func() time.Time { return time.Now().UTC() } }()

	src := &source{}
	var got []Event
	off := Forward(src, func(e Event) { got = append(got, e) })

	c, err := location.NewCoordinate(48.1, 11.5)
	require.NoError(t, err)
	src.position(location.Position[location.Coordinate]{Location: c, Timestamp: at})
	src.status(watcher.Ready)
	src.property("MovementThreshold")

	require.Len(t, got, 3)
	assert.Equal(t, TypePosition, got[0].Type)
	assert.Equal(t, 48.1, got[0].Position.Location.Latitude)
	assert.Equal(t, TypeStatus, got[1].Type)
	assert.Equal(t, watcher.Ready, *got[1].Status)
	assert.Equal(t, Event{Type: TypeProperty, Time: at, Property: "MovementThreshold"}, got[2])

	off()
	assert.Equal(t, 3, src.removed)
}

func TestEventJSON(t *testing.T) {
	at := time.Date(2021, 6, 4, 12, 0, 0, 0, time.UTC)
	s := watcher.NoData

	tables := []struct {
		in       Event
		expected string
	}{
		{Event{Type: TypeStatus, Time: at, Status: &s}, `{"type":"status","time":"2021-06-04T12:00:00Z","status":"no_data"}`},
		{Event{Type: TypeProperty, Time: at, Property: "ReportInterval"}, `{"type":"property","time":"2021-06-04T12:00:00Z","property":"ReportInterval"}`},
	}

	for _, table := range tables {
		out, err := table.in.Bytes()
		require.NoError(t, err)
		if string(out) != table.expected {
			t.Errorf("expected: %q, got: %q", table.expected, out)
		}
	}

	c, err := location.NewCoordinate(1, 2)
	require.NoError(t, err)
	out, err := Event{Type: TypePosition, Time: at, Position: &location.Position[location.Coordinate]{Location: c, Timestamp: at}}.Bytes()
	require.NoError(t, err)

	var decoded Event
	require.NoError(t, json.Unmarshal(out, &decoded))
	require.NotNil(t, decoded.Position)
	assert.True(t, decoded.Position.Location.Equal(c))
	assert.Equal(t, at, decoded.Position.Timestamp)
}
