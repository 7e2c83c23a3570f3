// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package track

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/postmarketOS/gnss_watch/internal/location"
)

var t0 = time.Date(2021, 6, 4, 12, 0, 0, 0, time.UTC)

func openTrack(t *testing.T) *Track {
	t.Helper()
	tr, err := Open(filepath.Join(t.TempDir(), "track.db"))
	require.NoError(t, err)
	t.Cleanup(func() { tr.Close() })
	return tr
}

func at(t *testing.T, lat, lon float64, ts time.Time) Position {
	t.Helper()
	c, err := location.NewCoordinate(lat, lon)
	require.NoError(t, err)
	c.HorizontalAccuracy = 5
	return Position{Location: c, Timestamp: ts}
}

func TestRecordLatest(t *testing.T) {
	tr := openTrack(t)

	_, ok, err := tr.Latest()
	require.NoError(t, err)
	assert.False(t, ok)

	// recorded out of order on purpose
	require.NoError(t, tr.Record(at(t, 2, 2, t0.Add(time.Minute))))
	require.NoError(t, tr.Record(at(t, 1, 1, t0)))

	p, ok, err := tr.Latest()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2.0, p.Location.Latitude)
	assert.Equal(t, 5.0, p.Location.HorizontalAccuracy)
	assert.False(t, p.Location.IsUnknown())
	assert.True(t, t0.Add(time.Minute).Equal(p.Timestamp))
}

func TestRecordUnknown(t *testing.T) {
	tr := openTrack(t)

	assert.ErrorIs(t, tr.Record(location.UnknownPosition()), ErrUnknownPosition)
	assert.ErrorIs(t, tr.Record(at(t, 1, 1, time.Time{})), ErrUnknownPosition)
}

func TestRange(t *testing.T) {
	tr := openTrack(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, tr.Record(at(t, float64(i), 0, t0.Add(time.Duration(i)*time.Second))))
	}

	tables := []struct {
		from     time.Time
		to       time.Time
		expected []float64
	}{
		{t0, t0.Add(5 * time.Second), []float64{0, 1, 2, 3, 4}},
		{t0.Add(time.Second), t0.Add(3 * time.Second), []float64{1, 2}},
		{t0.Add(500 * time.Millisecond), t0.Add(1500 * time.Millisecond), []float64{1}},
		{t0.Add(time.Hour), t0.Add(2 * time.Hour), nil},
	}

	for _, table := range tables {
		ps, err := tr.Range(table.from, table.to)
		require.NoError(t, err)
		var got []float64
		for _, p := range ps {
			got = append(got, p.Location.Latitude)
		}
		assert.Equal(t, table.expected, got, "range %v - %v", table.from, table.to)
	}
}

func TestPrune(t *testing.T) {
	tr := openTrack(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, tr.Record(at(t, float64(i), 0, t0.Add(time.Duration(i)*time.Second))))
	}

	n, err := tr.Prune(t0.Add(3 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	ps, err := tr.Range(t0, t0.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, ps, 2)
	assert.Equal(t, 3.0, ps[0].Location.Latitude)

	n, err = tr.Prune(t0)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.db")
	tr, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, tr.Record(at(t, 7, 8, t0)))
	require.NoError(t, tr.Close())

	tr, err = Open(path)
	require.NoError(t, err)
	defer tr.Close()
	p, ok, err := tr.Latest()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 8.0, p.Location.Longitude)
}
