package service

import (
	"errors"
	"testing"

	"github.com/otomarket/chat-platform/internal/model"
	"github.com/otomarket/chat-platform/internal/normalize"
)

var avanza = &model.CarInfo{
	CarID:   "car-42",
	Title:   "Toyota Avanza 1.3 G 2019",
	Price:   "Rp 165.000.000",
	Year:    2019,
	Mileage: 45000,
	Color:   "Silver",
}

func TestComposeTextWithListing(t *testing.T) {
	composed, err := ComposeOutgoing("Masih ada?", avanza)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if composed.Type != model.TypeText {
		t.Fatalf("expected text type, got %s", composed.Type)
	}

	// The payload must decode back to the original intent.
	text, car, ok := normalize.DecodeEnvelope(composed.Body)
	if !ok {
		t.Fatalf("envelope did not decode: %q", composed.Body)
	}
	if text != "Masih ada?" || car == nil || car.CarID != "car-42" {
		t.Fatalf("round trip lost data: text=%q car=%+v", text, car)
	}
}

func TestComposeListingOnly(t *testing.T) {
	composed, err := ComposeOutgoing("", avanza)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if composed.Type != model.TypeCarInfo {
		t.Fatalf("expected car_info type, got %s", composed.Type)
	}

	// Both write forms decode to the same display shape.
	d := normalize.Message(model.Message{Body: composed.Body, Type: composed.Type})
	if d.CarInfo == nil || d.CarInfo.CarID != "car-42" || d.CarInfo.Price != avanza.Price {
		t.Fatalf("car_info payload did not decode: %+v", d.CarInfo)
	}
}

func TestComposePlainText(t *testing.T) {
	composed, err := ComposeOutgoing("halo", nil)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if composed.Type != model.TypeText || composed.Body != "halo" {
		t.Fatalf("unexpected composed message: %+v", composed)
	}
}

func TestComposeEmptyRejected(t *testing.T) {
	if _, err := ComposeOutgoing("", nil); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestPendingListingEmptyHistory(t *testing.T) {
	room := &model.Room{ID: "r1", User1ID: "budi", User2ID: "sari", CarID: "car-42"}
	if got := PendingListing(room, nil); got != "car-42" {
		t.Fatalf("expected pending car-42, got %q", got)
	}
}

func TestPendingListingClearedByEnvelopeMessage(t *testing.T) {
	room := &model.Room{ID: "r1", User1ID: "budi", User2ID: "sari", CarID: "car-42"}
	body, _ := model.EncodeEnvelope("Masih ada?", avanza)
	history := []model.Message{
		{ID: "m1", RoomID: "r1", Body: "halo", Type: model.TypeText},
		{ID: "m2", RoomID: "r1", Body: body, Type: model.TypeText},
	}
	if got := PendingListing(room, history); got != "" {
		t.Fatalf("expected no pending, got %q", got)
	}
}

func TestPendingListingClearedByExplicitCarInfo(t *testing.T) {
	room := &model.Room{ID: "r1", User1ID: "budi", User2ID: "sari", CarID: "car-42"}
	history := []model.Message{
		{ID: "m1", RoomID: "r1", Body: `{"carId":"car-42","title":"Avanza"}`, Type: model.TypeCarInfo},
	}
	if got := PendingListing(room, history); got != "" {
		t.Fatalf("expected no pending, got %q", got)
	}
}

func TestPendingListingIgnoresOtherListings(t *testing.T) {
	room := &model.Room{ID: "r1", User1ID: "budi", User2ID: "sari", CarID: "car-42"}
	history := []model.Message{
		{ID: "m1", RoomID: "r1", Body: `{"carId":"car-7","title":"Brio"}`, Type: model.TypeCarInfo},
	}
	if got := PendingListing(room, history); got != "car-42" {
		t.Fatalf("expected pending car-42, got %q", got)
	}
}

func TestPendingListingNoRoomListing(t *testing.T) {
	room := &model.Room{ID: "r1", User1ID: "budi", User2ID: "sari"}
	if got := PendingListing(room, nil); got != "" {
		t.Fatalf("expected no pending for unscoped room, got %q", got)
	}
}
