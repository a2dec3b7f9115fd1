package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/otomarket/chat-platform/internal/model"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func makeRoom(t *testing.T, s *SQLiteStore, id, u1, u2, carID string) *model.Room {
	t.Helper()
	room := &model.Room{ID: id, User1ID: u1, User2ID: u2, CarID: carID}
	if err := s.CreateRoom(context.Background(), room); err != nil {
		t.Fatalf("create room: %v", err)
	}
	return room
}

func makeMessage(id, roomID, sender, receiver, body string) *model.Message {
	return &model.Message{
		ID:         id,
		RoomID:     roomID,
		SenderID:   sender,
		ReceiverID: receiver,
		Body:       body,
		Type:       model.TypeText,
		Channel:    model.ChannelUser,
	}
}

func TestListRoomsOrderingAndSelfRoomFilter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	makeRoom(t, s, "r-idle", "budi", "sari", "")
	makeRoom(t, s, "r-active", "budi", "dewi", "")
	makeRoom(t, s, "r-self", "budi", "budi", "")
	makeRoom(t, s, "r-other", "sari", "dewi", "")

	if err := s.InsertMessage(ctx, makeMessage("m1", "r-active", "dewi", "budi", "halo")); err != nil {
		t.Fatalf("insert message: %v", err)
	}

	rooms, err := s.ListRooms(ctx, "budi")
	if err != nil {
		t.Fatalf("list rooms: %v", err)
	}
	if len(rooms) != 2 {
		t.Fatalf("expected 2 rooms, got %d: %+v", len(rooms), rooms)
	}
	if rooms[0].ID != "r-active" {
		t.Fatalf("expected active room first, got %s", rooms[0].ID)
	}
	if rooms[1].ID != "r-idle" {
		t.Fatalf("expected never-active room last, got %s", rooms[1].ID)
	}
	for _, r := range rooms {
		if r.IsSelfRoom() {
			t.Fatalf("self-room leaked into listing: %s", r.ID)
		}
	}

	// Self-rooms stay fetchable by ID for direct inspection.
	if _, err := s.GetRoom(ctx, "r-self"); err != nil {
		t.Fatalf("get self-room: %v", err)
	}
}

func TestInsertMessageUpdatesRoomPreviewAndUnread(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	makeRoom(t, s, "r1", "budi", "sari", "")
	if err := s.InsertMessage(ctx, makeMessage("m1", "r1", "budi", "sari", "masih ada?")); err != nil {
		t.Fatalf("insert: %v", err)
	}

	room, err := s.GetRoom(ctx, "r1")
	if err != nil {
		t.Fatalf("get room: %v", err)
	}
	if room.LastMessage != "masih ada?" {
		t.Fatalf("preview not updated: %q", room.LastMessage)
	}
	if room.LastMessageAt == nil {
		t.Fatal("last_message_at not set")
	}
	if room.UnreadFor("sari") != 1 || room.UnreadFor("budi") != 0 {
		t.Fatalf("unexpected unread counters: %+v", room)
	}
}

func TestMarkReadIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	makeRoom(t, s, "r1", "budi", "sari", "")
	for _, id := range []string{"m1", "m2"} {
		if err := s.InsertMessage(ctx, makeMessage(id, "r1", "budi", "sari", "halo")); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}

	updated, err := s.MarkRead(ctx, "r1", "sari", time.Now())
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if updated != 2 {
		t.Fatalf("expected 2 updated, got %d", updated)
	}

	room, _ := s.GetRoom(ctx, "r1")
	if room.UnreadFor("sari") != 0 {
		t.Fatalf("unread counter not reset: %+v", room)
	}

	// Second call is a no-op, not an error.
	updated, err = s.MarkRead(ctx, "r1", "sari", time.Now())
	if err != nil {
		t.Fatalf("second mark read: %v", err)
	}
	if updated != 0 {
		t.Fatalf("expected 0 updated, got %d", updated)
	}

	msgs, err := s.ListMessages(ctx, "r1")
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	for _, m := range msgs {
		if !m.IsRead || m.ReadAt == nil {
			t.Fatalf("message %s not marked read", m.ID)
		}
	}
}

func TestListMessagesJoinsAttachment(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	makeRoom(t, s, "r1", "budi", "sari", "")
	if err := s.InsertMessage(ctx, makeMessage("m1", "r1", "budi", "sari", "")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	att := &model.Attachment{
		MessageID: "m1",
		FileURL:   "/files/r1/m1/bpkb.pdf",
		FileName:  "bpkb.pdf",
		FileSize:  4096,
		MediaType: "file",
	}
	if err := s.InsertAttachment(ctx, att); err != nil {
		t.Fatalf("insert attachment: %v", err)
	}

	msgs, err := s.ListMessages(ctx, "r1")
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Attachment == nil {
		t.Fatalf("attachment not joined: %+v", msgs)
	}
	if msgs[0].Attachment.FileURL != att.FileURL || msgs[0].Attachment.FileSize != 4096 {
		t.Fatalf("unexpected attachment: %+v", msgs[0].Attachment)
	}
}

func TestListMessagesAscendingOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	makeRoom(t, s, "r1", "budi", "sari", "")
	base := time.Now().UTC().Truncate(time.Second)
	for i, id := range []string{"m1", "m2", "m3"} {
		msg := makeMessage(id, "r1", "budi", "sari", id)
		msg.CreatedAt = base.Add(time.Duration(i) * time.Second)
		if err := s.InsertMessage(ctx, msg); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}

	msgs, err := s.ListMessages(ctx, "r1")
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	for i, want := range []string{"m1", "m2", "m3"} {
		if msgs[i].ID != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, msgs[i].ID)
		}
	}
}

func TestResolveRoomIsTerminal(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	makeRoom(t, s, "r1", "budi", "sari", "")
	if err := s.EscalateRoom(ctx, "r1"); err != nil {
		t.Fatalf("escalate: %v", err)
	}
	if err := s.ResolveRoom(ctx, "r1", "cs-agus", time.Now()); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	room, _ := s.GetRoom(ctx, "r1")
	if !room.IsResolved() || room.ResolvedBy != "cs-agus" {
		t.Fatalf("resolution not recorded: %+v", room)
	}

	if err := s.ResolveRoom(ctx, "r1", "cs-lain", time.Now()); !errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("expected ErrAlreadyResolved, got %v", err)
	}

	if err := s.ResolveRoom(ctx, "missing", "cs-agus", time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSoftDeleteHidesMessage(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	makeRoom(t, s, "r1", "budi", "sari", "")
	if err := s.InsertMessage(ctx, makeMessage("m1", "r1", "budi", "sari", "salah kirim")); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// Only the sender may delete their own message.
	if err := s.SoftDeleteMessage(ctx, "m1", "sari"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for wrong sender, got %v", err)
	}
	if err := s.SoftDeleteMessage(ctx, "m1", "budi"); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	msgs, err := s.ListMessages(ctx, "r1")
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("deleted message still listed: %+v", msgs)
	}
}
