package service

import (
	"context"
	"fmt"

	"github.com/otomarket/chat-platform/internal/model"
	"github.com/otomarket/chat-platform/internal/store"
	"github.com/otomarket/chat-platform/pkg/logger"
)

// RoomService exposes the room directory.
type RoomService struct {
	store  store.DataStore
	logger *logger.Logger
}

// NewRoomService creates a new room service.
func NewRoomService(st store.DataStore, log *logger.Logger) *RoomService {
	return &RoomService{store: st, logger: log}
}

// List returns the rooms where userID occupies either participant slot,
// most-recent-activity first. Self-rooms never appear here.
func (s *RoomService) List(ctx context.Context, userID string) (*model.ListRoomsResponse, error) {
	rooms, err := s.store.ListRooms(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	// The store already filters self-rooms; keep a defensive pass so a
	// degenerate row can never reach a human-facing list.
	out := rooms[:0]
	for _, r := range rooms {
		if r.IsSelfRoom() {
			continue
		}
		out = append(out, r)
	}
	return &model.ListRoomsResponse{Rooms: out, Total: len(out)}, nil
}

// Get fetches one room by ID. Self-rooms remain reachable here for direct
// inspection.
func (s *RoomService) Get(ctx context.Context, id string) (*model.Room, error) {
	room, err := s.store.GetRoom(ctx, id)
	if err != nil {
		return nil, err
	}
	return room, nil
}

// Create opens a room between two users, optionally scoped to a listing.
func (s *RoomService) Create(ctx context.Context, room *model.Room) error {
	if room.User1ID == "" || room.User2ID == "" {
		return fmt.Errorf("both participant slots are required")
	}
	if err := s.store.CreateRoom(ctx, room); err != nil {
		return err
	}
	s.logger.Info("room created", "room_id", room.ID, "car_id", room.CarID)
	return nil
}
