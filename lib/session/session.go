// Copyright 2026 The Construct @ RIT Developers
// SPDX-License-Identifier: Apache-2.0

// Package session tracks the elevated job-mode session: which lab
// worker, if any, is currently operating the slicer on the lab's
// behalf.
package session

import "sync/atomic"

// User identifies the lab worker behind an elevated session.
type User struct {
	// Email is the worker's registered email.
	Email string

	// Name is the worker's display name.
	Name string
}

// Session holds the current elevated user. Writes happen from the UI
// loop when job mode is entered or left; reads are safe from any
// goroutine.
type Session struct {
	user atomic.Pointer[User]
}

// New creates an inactive session.
func New() *Session {
	return &Session{}
}

// Activate starts an elevated session for user. Activating over an
// existing session replaces it.
func (session *Session) Activate(user User) {
	session.user.Store(&user)
}

// Deactivate ends the elevated session, if any.
func (session *Session) Deactivate() {
	session.user.Store(nil)
}

// Active returns the current elevated user, or nil when no session is
// active. The returned value is a snapshot; it does not change if the
// session is later replaced.
func (session *Session) Active() *User {
	return session.user.Load()
}
