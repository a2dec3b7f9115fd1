// Package store provides persistent storage for rooms, messages and
// attachments.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/otomarket/chat-platform/internal/model"
)

// ErrNotFound is returned when a room or message does not exist.
var ErrNotFound = errors.New("not found")

// ErrAlreadyResolved is returned when resolving a room whose escalation
// episode is already closed. Resolution is terminal.
var ErrAlreadyResolved = errors.New("room already resolved")

// DataStore defines the interface for persistent chat storage.
type DataStore interface {
	Close() error
	Ping(ctx context.Context) error

	// Room operations.
	CreateRoom(ctx context.Context, room *model.Room) error
	GetRoom(ctx context.Context, id string) (*model.Room, error)
	// ListRooms returns the rooms where userID occupies either participant
	// slot, most-recent-activity first with never-active rooms last.
	// Self-rooms are excluded.
	ListRooms(ctx context.Context, userID string) ([]model.Room, error)
	EscalateRoom(ctx context.Context, id string) error
	ResolveRoom(ctx context.Context, id, staffID string, at time.Time) error

	// Message operations. InsertMessage also updates the room's last-message
	// preview, activity time and the receiver's unread counter in the same
	// transaction.
	InsertMessage(ctx context.Context, msg *model.Message) error
	ListMessages(ctx context.Context, roomID string) ([]model.Message, error)
	// MarkRead flips the read flag for all unread messages in the room
	// addressed to receiverID and resets the matching unread counter.
	// Idempotent: returns 0 when nothing was unread.
	MarkRead(ctx context.Context, roomID, receiverID string, at time.Time) (int64, error)
	SoftDeleteMessage(ctx context.Context, id, senderID string) error

	// Attachment operations. The attachment row is written after its message
	// row; a failure in between leaves an accepted orphan text-only message.
	InsertAttachment(ctx context.Context, att *model.Attachment) error
}
