// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

// Package track keeps a log of reported positions in a bbolt database,
// keyed by the time of the fix.
package track

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"gitlab.com/postmarketOS/gnss_watch/internal/location"
)

var bucket = []byte("positions")

var ErrUnknownPosition = errors.New("position is unknown")

type Position = location.Position[location.Coordinate]

type Track struct {
	db *bolt.DB
}

func Open(path string) (t *Track, err error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		err = fmt.Errorf("track.Open(%s): %w", path, err)
		return
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		db.Close()
		err = fmt.Errorf("track.Open(%s): %w", path, err)
		return
	}

	t = &Track{db: db}
	return
}

func (t *Track) Close() error {
	return t.db.Close()
}

// Keys sort by time, so cursors walk the track in order.
func key(ts time.Time) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(ts.UnixNano()))
	return k
}

// Record stores p. A later record with the same timestamp replaces it.
func (t *Track) Record(p Position) (err error) {
	if p.Location.IsUnknown() || p.Timestamp.IsZero() {
		return fmt.Errorf("track/Track.Record: %w", ErrUnknownPosition)
	}

	v, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("track/Track.Record: %w", err)
	}

	err = t.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put(key(p.Timestamp), v)
	})
	if err != nil {
		err = fmt.Errorf("track/Track.Record: %w", err)
	}
	return
}

// Latest returns the newest position, or ok false if the track is empty.
func (t *Track) Latest() (p Position, ok bool, err error) {
	err = t.db.View(func(tx *bolt.Tx) error {
		_, v := tx.Bucket(bucket).Cursor().Last()
		if v == nil {
			return nil
		}
		ok = true
		return json.Unmarshal(v, &p)
	})
	if err != nil {
		err = fmt.Errorf("track/Track.Latest: %w", err)
	}
	return
}

// Range returns the positions taken at or after from and before to, oldest
// first.
func (t *Track) Range(from, to time.Time) (ps []Position, err error) {
	err = t.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucket).Cursor()
		end := key(to)
		for k, v := c.Seek(key(from)); k != nil && bytes.Compare(k, end) < 0; k, v = c.Next() {
			var p Position
			if err := json.Unmarshal(v, &p); err != nil {
				return err
			}
			ps = append(ps, p)
		}
		return nil
	})
	if err != nil {
		err = fmt.Errorf("track/Track.Range: %w", err)
	}
	return
}

// Prune deletes every position taken before before and returns how many
// were removed.
func (t *Track) Prune(before time.Time) (n int, err error) {
	err = t.db.Update(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucket).Cursor()
		end := key(before)
		for k, _ := c.First(); k != nil && bytes.Compare(k, end) < 0; k, _ = c.First() {
			if err := c.Delete(); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	if err != nil {
		n = 0
		err = fmt.Errorf("track/Track.Prune: %w", err)
	}
	return
}
