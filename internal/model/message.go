package model

import (
	"encoding/json"
	"time"
)

// MessageType is the coarse type tag stored with a message.
type MessageType string

const (
	TypeText    MessageType = "text"
	TypeImage   MessageType = "image"
	TypeFile    MessageType = "file"
	TypeAudio   MessageType = "audio"
	TypeVideo   MessageType = "video"
	TypeSystem  MessageType = "system"
	TypeCarInfo MessageType = "car_info"
)

// Channel identifies which surface produced a message.
type Channel string

const (
	ChannelUser  Channel = "user"
	ChannelBot   Channel = "bot"
	ChannelAdmin Channel = "admin"
)

// Message is an immutable, append-only record belonging to one room. Only the
// read flag and the soft-delete flag change after creation.
type Message struct {
	ID         string `json:"id"`
	RoomID     string `json:"room_id"`
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`

	// Body is the raw text payload. For text messages it MAY be a JSON
	// envelope carrying {text, carInfo}; the normalizer unpacks it.
	Body    string      `json:"body"`
	Type    MessageType `json:"type"`
	Channel Channel     `json:"channel"`

	IsRead    bool       `json:"is_read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	ReplyToID string     `json:"reply_to_id,omitempty"`
	Deleted   bool       `json:"deleted,omitempty"`

	CreatedAt time.Time `json:"created_at"`

	// Attachment is the zero-or-one file joined on read.
	Attachment *Attachment `json:"attachment,omitempty"`
}

// Attachment references a stored file owned by exactly one message. It is
// created after its message row; a failure in between leaves an orphan
// text-only message, which is accepted rather than rolled back.
type Attachment struct {
	MessageID string    `json:"message_id"`
	FileURL   string    `json:"file_url"`
	FileName  string    `json:"file_name"`
	FileSize  int64     `json:"file_size"`
	MediaType string    `json:"media_type"`
	CreatedAt time.Time `json:"created_at"`
}

// CarInfo is the listing metadata a message can carry, either as an explicit
// car_info payload or embedded in a text envelope.
type CarInfo struct {
	CarID    string `json:"carId"`
	Title    string `json:"title"`
	Price    string `json:"price"`
	Year     int    `json:"year,omitempty"`
	Mileage  int    `json:"mileage,omitempty"`
	Color    string `json:"color,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// Envelope is the JSON payload convention for text messages that carry
// listing context alongside the typed text.
type Envelope struct {
	Text    string   `json:"text"`
	CarInfo *CarInfo `json:"carInfo,omitempty"`
}

// EncodeEnvelope packs text plus listing metadata into the body of a text
// message.
func EncodeEnvelope(text string, car *CarInfo) (string, error) {
	data, err := json.Marshal(Envelope{Text: text, CarInfo: car})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SendMessageRequest is the request to send a new message.
type SendMessageRequest struct {
	Body      string `json:"body"`
	ReplyToID string `json:"reply_to_id,omitempty"`
}

// SendMessageResponse is the response after sending a message.
type SendMessageResponse struct {
	Message *Message `json:"message"`
}

// ListMessagesResponse is the response for listing a room's history.
type ListMessagesResponse struct {
	Messages []Display `json:"messages"`
	Total    int       `json:"total"`
}

// MarkReadResponse reports how many messages were flipped to read.
type MarkReadResponse struct {
	Updated int64 `json:"updated"`
}
