// Package service provides the chat business logic: room directory, message
// sync, outgoing-message composition and escalation gating.
package service

import "errors"

var (
	// ErrSelfMessage rejects sends whose resolved receiver equals the
	// sender. Enforced before any store or network call.
	ErrSelfMessage = errors.New("cannot send a message to yourself")

	// ErrNotAllowed rejects sends by users who are neither participants nor
	// staff acting on an escalated room.
	ErrNotAllowed = errors.New("not allowed to reply in this room")

	// ErrRoomResolved rejects sends into a room whose escalation episode has
	// been closed. Resolved rooms are read-only for everyone.
	ErrRoomResolved = errors.New("room is resolved and read-only")

	// ErrEmptyMessage rejects sends with no text, no file and no pending
	// listing reference.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrNoActiveRoom rejects session sends before a room was activated.
	ErrNoActiveRoom = errors.New("no active room selected")
)
