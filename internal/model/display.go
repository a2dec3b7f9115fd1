package model

import "time"

// Kind is the UI-facing variant of a normalized message. File, audio and
// video all collapse to KindFile for display.
type Kind string

const (
	KindText    Kind = "text"
	KindImage   Kind = "image"
	KindFile    Kind = "file"
	KindSystem  Kind = "system"
	KindCarInfo Kind = "car_info"
)

// Display is the display-ready form of a persisted message, produced by the
// normalizer. Text is the unpacked message text (never the raw envelope) and
// CarInfo the structured listing metadata when present.
type Display struct {
	ID         string      `json:"id"`
	RoomID     string      `json:"room_id"`
	SenderID   string      `json:"sender_id"`
	ReceiverID string      `json:"receiver_id"`
	Kind       Kind        `json:"kind"`
	Text       string      `json:"text"`
	CarInfo    *CarInfo    `json:"car_info,omitempty"`
	Channel    Channel     `json:"channel"`
	IsRead     bool        `json:"is_read"`
	ReplyToID  string      `json:"reply_to_id,omitempty"`
	Attachment *Attachment `json:"attachment,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}
