package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/otomarket/chat-platform/internal/model"
	"github.com/otomarket/chat-platform/internal/normalize"
	"github.com/otomarket/chat-platform/pkg/logger"
)

// Session is one user's live view of a single chat room. Activating a room
// loads its history and opens the room's live channel; at most one room is
// live per session, and switching rooms tears the previous channel down
// first.
//
// The sync invariant: the live subscription opens before the history fetch,
// with live arrivals buffered until the backfill merges. Merging
// de-duplicates by message ID and sorts by send time, so N historical plus M
// live messages always yield exactly N+M entries regardless of how the two
// interleave.
type Session struct {
	userID string
	staff  bool
	svc    *MessageService
	logger *logger.Logger

	mu          sync.Mutex
	epoch       int
	roomID      string
	room        *model.Room
	seen        map[string]struct{}
	timeline    []model.Display
	backfilling bool
	buffer      []model.Message
	pendingCar  string
	unsub       func()
	events      chan model.Display
}

// NewSession creates a session for one user.
func NewSession(userID string, staff bool, svc *MessageService, log *logger.Logger) *Session {
	return &Session{
		userID: userID,
		staff:  staff,
		svc:    svc,
		logger: log,
		events: make(chan model.Display, 64),
	}
}

// Activate makes roomID the session's live room. The previous room's
// subscription is torn down first. A late-finishing activation for a room
// the session has since left is discarded, never applied.
func (s *Session) Activate(ctx context.Context, roomID string) error {
	s.mu.Lock()
	s.epoch++
	myEpoch := s.epoch
	if s.unsub != nil {
		s.unsub()
		s.unsub = nil
	}
	s.roomID = roomID
	s.room = nil
	s.seen = make(map[string]struct{})
	s.timeline = nil
	s.buffer = nil
	s.backfilling = true
	s.pendingCar = ""
	s.mu.Unlock()

	room, err := s.svc.Room(ctx, roomID)
	if err != nil {
		return err
	}

	unsub, err := s.svc.feed.SubscribeRoom(roomID, func(msg model.Message) {
		s.onLive(myEpoch, msg)
	})
	if err != nil {
		return fmt.Errorf("subscribe room: %w", err)
	}

	history, err := s.svc.History(ctx, roomID)
	if err != nil {
		unsub()
		return err
	}

	s.mu.Lock()
	if s.epoch != myEpoch {
		// The user already moved on; this response belongs to an abandoned
		// activation.
		s.mu.Unlock()
		unsub()
		return nil
	}
	s.unsub = unsub
	s.room = room
	for _, msg := range history {
		s.appendLocked(msg)
	}
	for _, msg := range s.buffer {
		s.appendLocked(msg)
	}
	s.buffer = nil
	s.backfilling = false
	sort.SliceStable(s.timeline, func(i, j int) bool {
		return s.timeline[i].CreatedAt.Before(s.timeline[j].CreatedAt)
	})
	s.pendingCar = PendingListing(room, history)
	s.mu.Unlock()

	if _, err := s.svc.MarkRead(ctx, roomID, s.userID); err != nil {
		s.logger.Warn("mark read failed on activation", "room_id", roomID, "error", err)
	}
	return nil
}

// onLive handles one event from the room's push channel.
func (s *Session) onLive(epoch int, msg model.Message) {
	s.mu.Lock()
	if s.epoch != epoch || msg.RoomID != s.roomID {
		// Stale subscription or cross-room bleed; drop.
		s.mu.Unlock()
		return
	}
	if s.backfilling {
		s.buffer = append(s.buffer, msg)
		s.mu.Unlock()
		return
	}
	if !s.appendLocked(msg) {
		s.mu.Unlock()
		return
	}
	d := s.timeline[len(s.timeline)-1]
	if s.pendingCar != "" && normalize.CarID(msg) == s.pendingCar {
		s.pendingCar = ""
	}
	inbound := msg.ReceiverID == s.userID
	roomID := s.roomID
	s.mu.Unlock()

	select {
	case s.events <- d:
	default:
		s.logger.Warn("session event buffer full, dropping event", "room_id", roomID, "message_id", d.ID)
	}

	if inbound {
		go s.markReadAsync(roomID)
	}
}

// appendLocked adds a message to the timeline unless its ID was already
// seen. Caller holds s.mu.
func (s *Session) appendLocked(msg model.Message) bool {
	if _, dup := s.seen[msg.ID]; dup {
		return false
	}
	s.seen[msg.ID] = struct{}{}
	s.timeline = append(s.timeline, normalize.Message(msg))
	return true
}

func (s *Session) markReadAsync(roomID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := s.svc.MarkRead(ctx, roomID, s.userID); err != nil {
		s.logger.Warn("mark read failed", "room_id", roomID, "error", err)
	}
}

// Messages returns a snapshot of the active room's normalized timeline.
func (s *Session) Messages() []model.Display {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Display, len(s.timeline))
	copy(out, s.timeline)
	return out
}

// Events is the live feed of normalized messages appended after activation.
// Consumers de-duplicate against their own replay snapshot by message ID.
func (s *Session) Events() <-chan model.Display {
	return s.events
}

// PendingCar returns the listing reference the next outgoing message will
// carry, or "" when the listing context was already delivered.
func (s *Session) PendingCar() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingCar
}

// Room returns the active room, or nil.
func (s *Session) Room() *model.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room
}

// SendText sends a message into the active room. The pending listing
// reference, if any, is merged by the send pipeline and cleared when the
// insert comes back around on the live channel.
func (s *Session) SendText(ctx context.Context, body string) (*model.Message, error) {
	s.mu.Lock()
	roomID := s.roomID
	s.mu.Unlock()
	if roomID == "" {
		return nil, ErrNoActiveRoom
	}

	msg, err := s.svc.Send(ctx, SendInput{
		RoomID:   roomID,
		SenderID: s.userID,
		Staff:    s.staff,
		Body:     body,
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.pendingCar != "" && normalize.CarID(*msg) == s.pendingCar {
		s.pendingCar = ""
	}
	s.mu.Unlock()
	return msg, nil
}

// Close tears down the live subscription. The session can be reactivated.
func (s *Session) Close() {
	s.mu.Lock()
	s.epoch++
	if s.unsub != nil {
		s.unsub()
		s.unsub = nil
	}
	s.roomID = ""
	s.room = nil
	s.mu.Unlock()
}
