// Package assist drafts staff replies from the conversation transcript.
package assist

import (
	"context"
	"fmt"
	"strings"

	"github.com/otomarket/chat-platform/internal/model"
)

// Request carries the normalized conversation a draft should continue.
type Request struct {
	// History is the room's normalized timeline, oldest first.
	History []model.Display
	// StaffID marks which sender in the history is the agent, so the model
	// sees its own prior turns as such.
	StaffID string
	// CarTitle is the listing under discussion, when the room has one.
	CarTitle string
	// MaxTokens caps the draft length. Zero uses the provider default.
	MaxTokens int
}

// Suggestion is one drafted reply.
type Suggestion struct {
	Text      string
	Model     string
	TokensIn  int
	TokensOut int
	LatencyMs int64
}

// Provider drafts a staff reply for a conversation.
type Provider interface {
	Suggest(ctx context.Context, req *Request) (*Suggestion, error)
	Name() string
}

// ProviderName selects a suggestion backend.
type ProviderName string

const (
	ProviderOpenAI    ProviderName = "openai"
	ProviderAnthropic ProviderName = "anthropic"
)

// New creates a suggestion provider.
func New(name ProviderName, apiKey string) (Provider, error) {
	switch name {
	case ProviderOpenAI:
		return NewOpenAIProvider(apiKey)
	case ProviderAnthropic:
		return NewAnthropicProvider(apiKey)
	default:
		return nil, fmt.Errorf("unknown suggestion provider %q", name)
	}
}

// buildPrompt flattens the transcript into a single instruction. Keeping it
// to one user turn sidesteps provider rules about role alternation.
func buildPrompt(req *Request) string {
	var b strings.Builder
	b.WriteString("You are a support agent for a used-car marketplace. ")
	b.WriteString("Draft the agent's next reply: short, polite, concrete, in the language the customer is using.\n")
	if req.CarTitle != "" {
		fmt.Fprintf(&b, "The conversation is about this listing: %s\n", req.CarTitle)
	}
	b.WriteString("\nConversation so far:\n")
	for _, d := range req.History {
		role := "customer"
		if d.SenderID == req.StaffID || d.Channel == model.ChannelAdmin {
			role = "agent"
		}
		text := d.Text
		if text == "" && d.CarInfo != nil {
			text = "[shared listing: " + d.CarInfo.Title + "]"
		}
		if text == "" && d.Attachment != nil {
			text = "[sent file: " + d.Attachment.FileName + "]"
		}
		fmt.Fprintf(&b, "%s: %s\n", role, text)
	}
	b.WriteString("\nReply with the draft only, no preamble.")
	return b.String()
}
