package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/otomarket/chat-platform/internal/model"
	"github.com/otomarket/chat-platform/internal/store"
	"github.com/otomarket/chat-platform/pkg/logger"
	"github.com/otomarket/chat-platform/pkg/metrics"
)

// resolvedNotice is the system message announcing an escalation episode was
// closed. Emitting it is part of the transition, not optional.
const resolvedNotice = "This conversation has been resolved by our support team."

// CanReply enforces who may send into a room. A resolved room is read-only
// for everyone. Otherwise participants may always reply; staff may also
// reply in escalated rooms they do not participate in. Callers run this
// before constructing any outgoing message.
func CanReply(room *model.Room, userID string, staff bool) error {
	if room.IsResolved() {
		return ErrRoomResolved
	}
	if room.IsParticipant(userID) {
		return nil
	}
	if staff && room.IsEscalated {
		return nil
	}
	return ErrNotAllowed
}

// EscalationService manages the staff handoff lifecycle of rooms.
type EscalationService struct {
	store  store.DataStore
	feed   Feed
	logger *logger.Logger
}

// NewEscalationService creates a new escalation service.
func NewEscalationService(st store.DataStore, feed Feed, log *logger.Logger) *EscalationService {
	return &EscalationService{store: st, feed: feed, logger: log}
}

// Escalate flags a room for staff intervention. Detection of what warrants
// escalation lives outside this service; this is the explicit admin action.
func (s *EscalationService) Escalate(ctx context.Context, roomID string) error {
	if err := s.store.EscalateRoom(ctx, roomID); err != nil {
		return err
	}
	s.logger.Info("room escalated", "room_id", roomID)
	return nil
}

// Resolve closes an escalation episode: it stamps the room with the resolver
// and timestamp, then emits a system message announcing the resolution. The
// transition is terminal for the episode.
func (s *EscalationService) Resolve(ctx context.Context, roomID, staffID string) (*model.Message, error) {
	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.store.ResolveRoom(ctx, roomID, staffID, now); err != nil {
		return nil, err
	}

	notice := &model.Message{
		ID:         uuid.Must(uuid.NewV7()).String(),
		RoomID:     roomID,
		SenderID:   staffID,
		ReceiverID: room.User1ID,
		Body:       resolvedNotice,
		Type:       model.TypeSystem,
		Channel:    model.ChannelAdmin,
		CreatedAt:  now,
	}
	if err := s.store.InsertMessage(ctx, notice); err != nil {
		return nil, fmt.Errorf("insert resolution notice: %w", err)
	}
	if err := s.feed.PublishMessage(ctx, notice); err != nil {
		s.logger.Warn("failed to publish resolution notice", "room_id", roomID, "error", err)
	}

	metrics.RoomsResolvedTotal.Inc()
	s.logger.Info("room resolved", "room_id", roomID, "resolved_by", staffID)
	return notice, nil
}
