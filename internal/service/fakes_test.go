package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/otomarket/chat-platform/internal/listing"
	"github.com/otomarket/chat-platform/internal/model"
	"github.com/otomarket/chat-platform/internal/store"
	"github.com/otomarket/chat-platform/pkg/logger"
)

// fakeFeed is an in-process stand-in for the NATS feed: publishes deliver
// synchronously to every subscriber of the room.
type fakeFeed struct {
	mu        sync.Mutex
	nextID    int
	subs      map[string]map[int]func(model.Message)
	published []model.Message
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{subs: make(map[string]map[int]func(model.Message))}
}

func (f *fakeFeed) PublishMessage(ctx context.Context, msg *model.Message) error {
	f.mu.Lock()
	f.published = append(f.published, *msg)
	var fns []func(model.Message)
	for _, fn := range f.subs[msg.RoomID] {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(*msg)
	}
	return nil
}

func (f *fakeFeed) SubscribeRoom(roomID string, fn func(model.Message)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := f.nextID
	if f.subs[roomID] == nil {
		f.subs[roomID] = make(map[int]func(model.Message))
	}
	f.subs[roomID][id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs[roomID], id)
	}, nil
}

// deliver injects a live event directly, bypassing publish bookkeeping.
func (f *fakeFeed) deliver(roomID string, msg model.Message) {
	f.mu.Lock()
	var fns []func(model.Message)
	for _, fn := range f.subs[roomID] {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(msg)
	}
}

func (f *fakeFeed) subscriberCount(roomID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs[roomID])
}

func (f *fakeFeed) publishedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.published)
}

// staticResolver serves listing metadata from a fixed map.
type staticResolver struct {
	cars map[string]*model.CarInfo
}

func (r staticResolver) Resolve(ctx context.Context, carID string) (*model.CarInfo, error) {
	if car, ok := r.cars[carID]; ok {
		c := *car
		return &c, nil
	}
	return nil, listing.ErrNotFound
}

// failingResolver simulates a listing service outage.
type failingResolver struct{}

func (failingResolver) Resolve(ctx context.Context, carID string) (*model.CarInfo, error) {
	return nil, errors.New("listing service unavailable")
}

// memBlobs records saves in memory; fail makes every save error.
type memBlobs struct {
	mu    sync.Mutex
	fail  bool
	saved []string
}

func (b *memBlobs) Save(roomID, messageID, fileName string, r io.Reader) (string, int64, error) {
	if b.fail {
		return "", 0, errors.New("disk full")
	}
	size, err := io.Copy(io.Discard, r)
	if err != nil {
		return "", 0, err
	}
	b.mu.Lock()
	b.saved = append(b.saved, messageID)
	b.mu.Unlock()
	return "/files/" + roomID + "/" + messageID + "/" + fileName, size, nil
}

// hookedStore lets a test run code between the history query and its use,
// simulating writes that race the backfill.
type hookedStore struct {
	store.DataStore
	onListMessages func()
}

func (h *hookedStore) ListMessages(ctx context.Context, roomID string) ([]model.Message, error) {
	msgs, err := h.DataStore.ListMessages(ctx, roomID)
	if h.onListMessages != nil {
		h.onListMessages()
	}
	return msgs, err
}

type testEnv struct {
	store    store.DataStore
	feed     *fakeFeed
	resolver staticResolver
	blobs    *memBlobs
	svc      *MessageService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st, err := store.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	env := &testEnv{
		store:    st,
		feed:     newFakeFeed(),
		resolver: staticResolver{cars: map[string]*model.CarInfo{"car-42": avanza}},
		blobs:    &memBlobs{},
	}
	env.svc = NewMessageService(st, env.feed, env.resolver, env.blobs, logger.NewNop())
	return env
}

func (e *testEnv) createRoom(t *testing.T, user1, user2, carID string) *model.Room {
	t.Helper()
	room := &model.Room{
		ID:        uuid.Must(uuid.NewV7()).String(),
		User1ID:   user1,
		User2ID:   user2,
		CarID:     carID,
		CreatedAt: time.Now().UTC(),
	}
	if err := e.store.CreateRoom(context.Background(), room); err != nil {
		t.Fatalf("create room: %v", err)
	}
	return room
}

// insertMessage seeds one history row directly, skipping the send pipeline.
func (e *testEnv) insertMessage(t *testing.T, roomID, sender, receiver, body string, at time.Time) *model.Message {
	t.Helper()
	msg := &model.Message{
		ID:         uuid.Must(uuid.NewV7()).String(),
		RoomID:     roomID,
		SenderID:   sender,
		ReceiverID: receiver,
		Body:       body,
		Type:       model.TypeText,
		Channel:    model.ChannelUser,
		CreatedAt:  at,
	}
	if err := e.store.InsertMessage(context.Background(), msg); err != nil {
		t.Fatalf("insert message: %v", err)
	}
	return msg
}
