// Package normalize converts persisted message records into display-ready
// variants. Decoding is defensive: a payload that fails to parse, or parses
// to an unrelated shape, falls back to verbatim text and never errors.
package normalize

import (
	"encoding/json"

	"github.com/otomarket/chat-platform/internal/model"
)

// Message maps a raw persisted message into its display variant.
//
// Text payloads may be a JSON envelope {text, carInfo}; when the envelope
// decodes, the unpacked text and listing metadata replace the raw body.
// Explicit car_info payloads decode straight to listing metadata, falling
// back to a generic title on failure. Attachment metadata passes through
// unchanged on every variant.
func Message(msg model.Message) model.Display {
	d := model.Display{
		ID:         msg.ID,
		RoomID:     msg.RoomID,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		Kind:       kindOf(msg.Type),
		Channel:    msg.Channel,
		IsRead:     msg.IsRead,
		ReplyToID:  msg.ReplyToID,
		Attachment: msg.Attachment,
		CreatedAt:  msg.CreatedAt,
	}

	switch d.Kind {
	case model.KindText:
		text, car, ok := DecodeEnvelope(msg.Body)
		if ok {
			d.Text = text
			d.CarInfo = car
		} else {
			d.Text = msg.Body
		}
	case model.KindCarInfo:
		car, ok := decodeCarInfo(msg.Body)
		if ok {
			d.CarInfo = car
		} else {
			d.CarInfo = &model.CarInfo{Title: msg.Body}
		}
	default:
		d.Text = msg.Body
	}

	return d
}

// History normalizes a full message slice in order.
func History(msgs []model.Message) []model.Display {
	out := make([]model.Display, len(msgs))
	for i, m := range msgs {
		out[i] = Message(m)
	}
	return out
}

// DecodeEnvelope attempts to unpack a text body as the {text, carInfo} JSON
// envelope. It reports false for anything that is not a JSON object carrying
// at least one of the two envelope keys, including arrays and scalars that
// happen to be valid JSON.
func DecodeEnvelope(body string) (string, *model.CarInfo, bool) {
	if body == "" {
		return "", nil, false
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &probe); err != nil {
		return "", nil, false
	}

	_, hasText := probe["text"]
	_, hasCar := probe["carInfo"]
	if !hasText && !hasCar {
		return "", nil, false
	}

	var env model.Envelope
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		return "", nil, false
	}
	return env.Text, env.CarInfo, true
}

// CarID extracts the listing reference a message carries, if any. Both the
// explicit car_info variant and the text-envelope form decode to the same
// answer; messages without listing context return "".
func CarID(msg model.Message) string {
	switch msg.Type {
	case model.TypeCarInfo:
		if car, ok := decodeCarInfo(msg.Body); ok {
			return car.CarID
		}
	case model.TypeText:
		if _, car, ok := DecodeEnvelope(msg.Body); ok && car != nil {
			return car.CarID
		}
	}
	return ""
}

func kindOf(t model.MessageType) model.Kind {
	switch t {
	case model.TypeImage:
		return model.KindImage
	case model.TypeFile, model.TypeAudio, model.TypeVideo:
		return model.KindFile
	case model.TypeSystem:
		return model.KindSystem
	case model.TypeCarInfo:
		return model.KindCarInfo
	default:
		return model.KindText
	}
}

func decodeCarInfo(body string) (*model.CarInfo, bool) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &probe); err != nil {
		return nil, false
	}
	var car model.CarInfo
	if err := json.Unmarshal([]byte(body), &car); err != nil {
		return nil, false
	}
	if car.CarID == "" && car.Title == "" {
		return nil, false
	}
	return &car, true
}
