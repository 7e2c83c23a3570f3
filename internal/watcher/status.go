// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package watcher

import (
	"errors"
	"fmt"
	"strings"
)

// Status is where a watcher is in its lifecycle. The zero value is Disabled.
type Status int

const (
	Disabled Status = iota
	Initializing
	NoData
	Ready
)

var statusNames = map[Status]string{
	Disabled:     "disabled",
	Initializing: "initializing",
	NoData:       "no_data",
	Ready:        "ready",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	for status, name := range statusNames {
		if strings.EqualFold(name, string(text)) {
			*s = status
			return nil
		}
	}
	return fmt.Errorf("watcher.Status.UnmarshalText: unknown status %q", text)
}

// ErrArgumentRange is matched by every ArgumentRangeError.
var ErrArgumentRange = errors.New("argument out of range")

type ArgumentRangeError struct {
	Name  string
	Value interface{}
}

func (e *ArgumentRangeError) Error() string {
	return fmt.Sprintf("watcher: %s: %v is out of range", e.Name, e.Value)
}

func (e *ArgumentRangeError) Is(target error) bool {
	return target == ErrArgumentRange
}
