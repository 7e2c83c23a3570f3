// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package gnss

// Receiver is a source of NMEA lines. Start sends every line it reads to
// sendCh until stop is closed or reading fails, in which case the error is
// sent to errCh.
type Receiver interface {
	Open() (err error)
	Close() (err error)

	Start(sendCh chan<- []byte, stop <-chan struct{}, errCh chan<- error)
}
