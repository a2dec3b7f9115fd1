// Package model defines data structures for the marketplace chat platform.
package model

import (
	"time"
)

// Room represents a conversation between exactly two participants, optionally
// scoped to a car listing. The participant slots are fixed at creation.
type Room struct {
	ID      string `json:"id"`
	User1ID string `json:"user1_id"`
	User2ID string `json:"user2_id"`

	// CarID is set when the room was opened from a listing page.
	CarID string `json:"car_id,omitempty"`

	// Per-participant unread counters, maintained by the store on insert.
	UnreadUser1 int `json:"unread_user1"`
	UnreadUser2 int `json:"unread_user2"`

	// Last-message preview, maintained by the store on insert.
	LastMessage   string     `json:"last_message,omitempty"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`

	// Escalation state. ResolvedAt set means the escalation episode is closed
	// and the room is read-only.
	IsEscalated bool       `json:"is_escalated"`
	ResolvedBy  string     `json:"resolved_by,omitempty"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// PeerID returns the participant slot that is not selfID. For a degenerate
// self-room both slots match and the same ID comes back; callers that send
// messages must reject that case.
func (r *Room) PeerID(selfID string) string {
	if r.User1ID == selfID {
		return r.User2ID
	}
	return r.User1ID
}

// IsParticipant reports whether userID occupies either slot.
func (r *Room) IsParticipant(userID string) bool {
	return r.User1ID == userID || r.User2ID == userID
}

// IsSelfRoom reports whether both slots hold the same user. Self-rooms are
// excluded from human-facing listings but stay fetchable by ID.
func (r *Room) IsSelfRoom() bool {
	return r.User1ID == r.User2ID
}

// IsResolved reports whether the escalation episode has been closed out.
func (r *Room) IsResolved() bool {
	return r.ResolvedAt != nil
}

// UnreadFor returns the unread counter for the given participant.
func (r *Room) UnreadFor(userID string) int {
	switch userID {
	case r.User1ID:
		return r.UnreadUser1
	case r.User2ID:
		return r.UnreadUser2
	}
	return 0
}

// CreateRoomRequest is the request to open a room with another user. The
// caller takes slot one.
type CreateRoomRequest struct {
	PeerID string `json:"peer_id"`
	CarID  string `json:"car_id,omitempty"`
}

// ListRoomsResponse is the response for listing rooms.
type ListRoomsResponse struct {
	Rooms []Room `json:"rooms"`
	Total int    `json:"total"`
}
