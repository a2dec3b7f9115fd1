package service

import (
	"encoding/json"

	"github.com/otomarket/chat-platform/internal/model"
	"github.com/otomarket/chat-platform/internal/normalize"
)

// PendingListing decides whether the room still owes its listing context to
// the conversation. It returns the room's car ID when no message in history
// references that listing yet, either as an explicit car_info message or as
// a text envelope whose carInfo.carId matches. Detection scans history rather
// than a stored flag, so it survives reloads.
func PendingListing(room *model.Room, history []model.Message) string {
	if room == nil || room.CarID == "" {
		return ""
	}
	for _, msg := range history {
		if normalize.CarID(msg) == room.CarID {
			return ""
		}
	}
	return room.CarID
}

// Composed is an outgoing payload ready for insertion.
type Composed struct {
	Body string
	Type model.MessageType
}

// ComposeOutgoing merges the typed text with the pending listing metadata,
// if any:
//
//   - text + listing  -> one text message carrying the {text, carInfo} envelope
//   - listing only    -> one car_info message whose payload is the metadata
//     (the canonical listing-only write form; the envelope form stays readable)
//   - text only       -> a plain text message
//   - neither         -> ErrEmptyMessage
func ComposeOutgoing(text string, car *model.CarInfo) (Composed, error) {
	switch {
	case car != nil && text != "":
		body, err := model.EncodeEnvelope(text, car)
		if err != nil {
			return Composed{}, err
		}
		return Composed{Body: body, Type: model.TypeText}, nil
	case car != nil:
		data, err := json.Marshal(car)
		if err != nil {
			return Composed{}, err
		}
		return Composed{Body: string(data), Type: model.TypeCarInfo}, nil
	case text != "":
		return Composed{Body: text, Type: model.TypeText}, nil
	default:
		return Composed{}, ErrEmptyMessage
	}
}
