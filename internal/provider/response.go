// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package provider

import (
	"errors"
	"fmt"
)

// Code is a provider response code. Zero is success.
type Code uint32

const (
	CodeSuccess            Code = 0
	CodeInvalidHandle      Code = 6
	CodeNotReady           Code = 21
	CodeInvalidParameter   Code = 87
	CodeDeviceNotConnected Code = 1167
	CodeTimeout            Code = 1460
)

var (
	ErrInvalidHandle      = errors.New("invalid handle")
	ErrNotReady           = errors.New("device not ready")
	ErrInvalidParameter   = errors.New("invalid parameter")
	ErrDeviceNotConnected = errors.New("device not connected")
	ErrTimeout            = errors.New("timed out")
)

var codeErrors = map[Code]error{
	CodeInvalidHandle:      ErrInvalidHandle,
	CodeNotReady:           ErrNotReady,
	CodeInvalidParameter:   ErrInvalidParameter,
	CodeDeviceNotConnected: ErrDeviceNotConnected,
	CodeTimeout:            ErrTimeout,
}

// ResponseError is returned when a provider call answers with a non-zero
// code.
type ResponseError struct {
	Op   string
	Code Code
}

func (e *ResponseError) Error() string {
	if err, ok := codeErrors[e.Code]; ok {
		return fmt.Sprintf("provider.%s: %s (code %d)", e.Op, err, e.Code)
	}
	return fmt.Sprintf("provider.%s: failed with code %d", e.Op, e.Code)
}

func (e *ResponseError) Is(target error) bool {
	return codeErrors[e.Code] == target
}

// CheckResponse turns a response code from op into an error.
func CheckResponse(op string, code Code) error {
	if code == CodeSuccess {
		return nil
	}
	return &ResponseError{Op: op, Code: code}
}
