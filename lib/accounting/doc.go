// Copyright 2026 The Construct @ RIT Developers
// SPDX-License-Identifier: Apache-2.0

// Package accounting is a typed client for the lab's accounting
// service: account lookup, last-print queries, and print logging.
//
// University IDs never cross the wire in the clear. Every operation
// that takes an ID hashes it with [HashIdentifier] first; the service
// only ever stores and compares digests. Registered emails, which the
// service itself hands back, are sent as-is.
//
// Failures are split into two categories so callers can phrase them
// for users: a *TransportError means the service could not be reached,
// a *ProtocolError means it answered with something unexpected. Use
// [IsTransport] and [IsProtocol] to distinguish them.
package accounting
