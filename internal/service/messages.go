package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/otomarket/chat-platform/internal/listing"
	"github.com/otomarket/chat-platform/internal/model"
	"github.com/otomarket/chat-platform/internal/store"
	"github.com/otomarket/chat-platform/pkg/logger"
	"github.com/otomarket/chat-platform/pkg/metrics"
)

// Feed is the live fan-out collaborator: publish on insert, subscribe per
// room with a clean unsubscribe handle.
type Feed interface {
	PublishMessage(ctx context.Context, msg *model.Message) error
	SubscribeRoom(roomID string, fn func(model.Message)) (func(), error)
}

// BlobStore persists attachment binaries and returns their durable URL.
type BlobStore interface {
	Save(roomID, messageID, fileName string, r io.Reader) (url string, size int64, err error)
}

// MessageService handles message history, sending and read marking.
type MessageService struct {
	store    store.DataStore
	feed     Feed
	listings listing.Resolver
	blobs    BlobStore
	logger   *logger.Logger
}

// NewMessageService creates a new message service.
func NewMessageService(st store.DataStore, feed Feed, listings listing.Resolver, blobs BlobStore, log *logger.Logger) *MessageService {
	return &MessageService{store: st, feed: feed, listings: listings, blobs: blobs, logger: log}
}

// Room fetches one room.
func (s *MessageService) Room(ctx context.Context, roomID string) (*model.Room, error) {
	return s.store.GetRoom(ctx, roomID)
}

// History returns the raw ordered message history for a room.
func (s *MessageService) History(ctx context.Context, roomID string) ([]model.Message, error) {
	msgs, err := s.store.ListMessages(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return msgs, nil
}

// MarkRead flips the read flag for all unread messages addressed to userID
// in the room. Idempotent.
func (s *MessageService) MarkRead(ctx context.Context, roomID, userID string) (int64, error) {
	return s.store.MarkRead(ctx, roomID, userID, time.Now().UTC())
}

// SendInput describes an outgoing message before composition.
type SendInput struct {
	RoomID    string
	SenderID  string
	Staff     bool
	Body      string
	ReplyToID string
}

// Send runs the full outgoing pipeline: gating, receiver resolution, the
// self-messaging guard, pending-listing merge, insert and publish. All
// rejections happen before any store write.
func (s *MessageService) Send(ctx context.Context, in SendInput) (*model.Message, error) {
	room, err := s.store.GetRoom(ctx, in.RoomID)
	if err != nil {
		return nil, err
	}

	if err := CanReply(room, in.SenderID, in.Staff); err != nil {
		metrics.MessagesRejectedTotal.WithLabelValues(rejectReason(err)).Inc()
		return nil, err
	}

	receiver, channel := resolveReceiver(room, in.SenderID, in.Staff)
	if receiver == in.SenderID {
		metrics.MessagesRejectedTotal.WithLabelValues("self_message").Inc()
		return nil, ErrSelfMessage
	}

	car, err := s.pendingCar(ctx, room, in.SenderID)
	if err != nil {
		// Listing lookup failure degrades to a plain text send rather than
		// blocking the user.
		s.logger.Warn("listing lookup failed, sending without car context",
			"room_id", room.ID, "car_id", room.CarID, "error", err)
		car = nil
	}

	composed, err := ComposeOutgoing(strings.TrimSpace(in.Body), car)
	if err != nil {
		metrics.MessagesRejectedTotal.WithLabelValues("empty").Inc()
		return nil, err
	}

	msg := &model.Message{
		ID:         uuid.Must(uuid.NewV7()).String(),
		RoomID:     room.ID,
		SenderID:   in.SenderID,
		ReceiverID: receiver,
		Body:       composed.Body,
		Type:       composed.Type,
		Channel:    channel,
		ReplyToID:  in.ReplyToID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.InsertMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	s.publish(ctx, msg)

	metrics.MessagesTotal.WithLabelValues(string(msg.Type), string(msg.Channel)).Inc()
	return msg, nil
}

// SendFile sends a file message: message row first, then the uploaded blob,
// then the attachment row. A failure after the message row leaves an orphan
// text-only message, which is the accepted degraded state.
func (s *MessageService) SendFile(ctx context.Context, in SendInput, fileName string, r io.Reader) (*model.Message, error) {
	room, err := s.store.GetRoom(ctx, in.RoomID)
	if err != nil {
		return nil, err
	}

	if err := CanReply(room, in.SenderID, in.Staff); err != nil {
		metrics.MessagesRejectedTotal.WithLabelValues(rejectReason(err)).Inc()
		return nil, err
	}

	receiver, channel := resolveReceiver(room, in.SenderID, in.Staff)
	if receiver == in.SenderID {
		metrics.MessagesRejectedTotal.WithLabelValues("self_message").Inc()
		return nil, ErrSelfMessage
	}

	msg := &model.Message{
		ID:         uuid.Must(uuid.NewV7()).String(),
		RoomID:     room.ID,
		SenderID:   in.SenderID,
		ReceiverID: receiver,
		Body:       strings.TrimSpace(in.Body),
		Type:       mediaTypeOf(fileName),
		Channel:    channel,
		ReplyToID:  in.ReplyToID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.InsertMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("send file message: %w", err)
	}

	url, size, err := s.blobs.Save(room.ID, msg.ID, fileName, r)
	if err != nil {
		s.logger.Warn("file upload failed, message left without attachment",
			"room_id", room.ID, "message_id", msg.ID, "error", err)
		s.publish(ctx, msg)
		return msg, nil
	}
	metrics.UploadBytesTotal.Add(float64(size))

	att := &model.Attachment{
		MessageID: msg.ID,
		FileURL:   url,
		FileName:  fileName,
		FileSize:  size,
		MediaType: string(msg.Type),
		CreatedAt: msg.CreatedAt,
	}
	if err := s.store.InsertAttachment(ctx, att); err != nil {
		s.logger.Warn("attachment record failed, message left without attachment",
			"room_id", room.ID, "message_id", msg.ID, "error", err)
		s.publish(ctx, msg)
		return msg, nil
	}
	msg.Attachment = att

	s.publish(ctx, msg)
	metrics.MessagesTotal.WithLabelValues(string(msg.Type), string(msg.Channel)).Inc()
	return msg, nil
}

// DeleteOwn soft-deletes one of the sender's own messages. The row stays for
// audit; it just stops appearing in history.
func (s *MessageService) DeleteOwn(ctx context.Context, messageID, senderID string) error {
	return s.store.SoftDeleteMessage(ctx, messageID, senderID)
}

// pendingCar resolves the listing metadata owed to the conversation, if any.
func (s *MessageService) pendingCar(ctx context.Context, room *model.Room, senderID string) (*model.CarInfo, error) {
	if room.CarID == "" {
		return nil, nil
	}
	history, err := s.store.ListMessages(ctx, room.ID)
	if err != nil {
		return nil, fmt.Errorf("scan history for pending listing: %w", err)
	}
	carID := PendingListing(room, history)
	if carID == "" {
		return nil, nil
	}
	car, err := s.listings.Resolve(ctx, carID)
	if err != nil {
		if errors.Is(err, listing.ErrNotFound) {
			// Listing gone from the catalog: nothing to attach.
			return nil, nil
		}
		return nil, err
	}
	return car, nil
}

// publish announces the insert on the room's live channel. The message is
// already durable; a fan-out failure is logged, not returned.
func (s *MessageService) publish(ctx context.Context, msg *model.Message) {
	if err := s.feed.PublishMessage(ctx, msg); err != nil {
		s.logger.Warn("failed to publish message", "room_id", msg.RoomID, "message_id", msg.ID, "error", err)
	}
}

// resolveReceiver picks the addressee. Participants address their peer.
// Staff replying in an escalated room they are not part of address slot one,
// which holds the customer by room-creation convention, and their messages
// ride the admin channel.
func resolveReceiver(room *model.Room, senderID string, staff bool) (string, model.Channel) {
	if room.IsParticipant(senderID) {
		channel := model.ChannelUser
		if staff {
			channel = model.ChannelAdmin
		}
		return room.PeerID(senderID), channel
	}
	return room.User1ID, model.ChannelAdmin
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrRoomResolved):
		return "resolved"
	case errors.Is(err, ErrNotAllowed):
		return "not_allowed"
	default:
		return "other"
	}
}

// mediaTypeOf maps a file name to the coarse message type tag.
func mediaTypeOf(fileName string) model.MessageType {
	switch strings.ToLower(path.Ext(fileName)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return model.TypeImage
	case ".mp3", ".ogg", ".m4a", ".wav":
		return model.TypeAudio
	case ".mp4", ".mov", ".webm":
		return model.TypeVideo
	default:
		return model.TypeFile
	}
}
