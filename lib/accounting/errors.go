// Copyright 2026 The Construct @ RIT Developers
// SPDX-License-Identifier: Apache-2.0

package accounting

import (
	"errors"
	"fmt"
)

// TransportError reports that the accounting service could not be
// reached at all: connection refused, DNS failure, timeout. Windows
// surface it as "Server can't be reached".
type TransportError struct {
	// Op names the operation that failed (e.g. "user/find").
	Op string

	// Err is the underlying network error.
	Err error
}

func (err *TransportError) Error() string {
	return fmt.Sprintf("accounting: %s: server unreachable: %v", err.Op, err.Err)
}

func (err *TransportError) Unwrap() error { return err.Err }

// ProtocolError reports that the accounting service answered, but with
// something other than the expected contract: a non-2xx status or a
// body that does not decode. Windows surface it as "Internal server
// error".
type ProtocolError struct {
	// Op names the operation that failed.
	Op string

	// StatusCode is the HTTP status, or 0 when the failure was a
	// malformed body on a 2xx response.
	StatusCode int

	// Detail describes what was wrong with the response.
	Detail string
}

func (err *ProtocolError) Error() string {
	if err.StatusCode != 0 {
		return fmt.Sprintf("accounting: %s: HTTP %d: %s", err.Op, err.StatusCode, err.Detail)
	}
	return fmt.Sprintf("accounting: %s: %s", err.Op, err.Detail)
}

// IsTransport reports whether err is a *TransportError.
func IsTransport(err error) bool {
	var transportError *TransportError
	return errors.As(err, &transportError)
}

// IsProtocol reports whether err is a *ProtocolError.
func IsProtocol(err error) bool {
	var protocolError *ProtocolError
	return errors.As(err, &protocolError)
}
