// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package location

import "time"

// Position pairs a location payload with the time it was measured.
type Position[T any] struct {
	Location  T         `json:"location"`
	Timestamp time.Time `json:"timestamp"`
}

// UnknownPosition is what a watcher reports before its first fix and after it
// is stopped.
func UnknownPosition() Position[Coordinate] {
	return Position[Coordinate]{Location: Unknown}
}
