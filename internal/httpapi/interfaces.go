// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package httpapi

import (
	"time"

	"gitlab.com/postmarketOS/gnss_watch/internal/location"
	"gitlab.com/postmarketOS/gnss_watch/internal/track"
	"gitlab.com/postmarketOS/gnss_watch/internal/watcher"
)

//go:generate mockgen -source=interfaces.go -destination=../mocks/httpapi_mocks.go -package=mocks

type Watcher interface {
	Status() watcher.Status
	Position() location.Position[location.Coordinate]
	MovementThreshold() float64
	SetMovementThreshold(meters float64) error
	ReportInterval() time.Duration
	SetReportInterval(interval time.Duration) error
}

type TrackStore interface {
	Latest() (track.Position, bool, error)
	Range(from, to time.Time) ([]track.Position, error)
}
