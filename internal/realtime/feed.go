package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/otomarket/chat-platform/internal/model"
)

// SubjectPrefix is the prefix for all room subjects.
const SubjectPrefix = "chat.room"

// RoomSubject returns the subject carrying inserts for one room.
func RoomSubject(roomID string) string {
	return fmt.Sprintf("%s.%s", SubjectPrefix, roomID)
}

// PublishMessage announces a newly inserted message on its room's subject.
func (c *Client) PublishMessage(ctx context.Context, msg *model.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := c.conn.Publish(RoomSubject(msg.RoomID), data); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// SubscribeRoom opens a push channel scoped to one room. Every message
// published for the room is delivered to fn in arrival order. The returned
// function unsubscribes; callers switching rooms must invoke it before
// subscribing elsewhere. A malformed event is dropped with a logged warning
// rather than crashing the channel.
func (c *Client) SubscribeRoom(roomID string, fn func(model.Message)) (func(), error) {
	sub, err := c.conn.Subscribe(RoomSubject(roomID), func(m *nats.Msg) {
		var msg model.Message
		if err := json.Unmarshal(m.Data, &msg); err != nil {
			c.logger.Warn("dropping malformed room event", "room_id", roomID, "error", err)
			return
		}
		fn(msg)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to room: %w", err)
	}

	return func() {
		if err := sub.Unsubscribe(); err != nil {
			c.logger.Warn("unsubscribe failed", "room_id", roomID, "error", err)
		}
	}, nil
}
