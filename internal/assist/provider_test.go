package assist

import (
	"strings"
	"testing"

	"github.com/otomarket/chat-platform/internal/model"
)

func TestBuildPromptRoles(t *testing.T) {
	req := &Request{
		History: []model.Display{
			{SenderID: "budi", Text: "Masih ada?", Channel: model.ChannelUser},
			{SenderID: "agent-1", Text: "Masih, silakan", Channel: model.ChannelAdmin},
			{SenderID: "budi", Text: "Bisa nego?", Channel: model.ChannelUser},
		},
		StaffID:  "agent-1",
		CarTitle: "Toyota Avanza 1.3 G 2019",
	}

	prompt := buildPrompt(req)
	if !strings.Contains(prompt, "customer: Masih ada?") {
		t.Fatalf("buyer turn missing:\n%s", prompt)
	}
	if !strings.Contains(prompt, "agent: Masih, silakan") {
		t.Fatalf("agent turn not attributed:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Toyota Avanza 1.3 G 2019") {
		t.Fatalf("listing context missing:\n%s", prompt)
	}
}

func TestBuildPromptNonTextTurns(t *testing.T) {
	req := &Request{
		History: []model.Display{
			{SenderID: "budi", CarInfo: &model.CarInfo{Title: "Honda Brio 2021"}},
			{SenderID: "budi", Attachment: &model.Attachment{FileName: "stnk.jpg"}},
		},
	}

	prompt := buildPrompt(req)
	if !strings.Contains(prompt, "[shared listing: Honda Brio 2021]") {
		t.Fatalf("listing turn missing:\n%s", prompt)
	}
	if !strings.Contains(prompt, "[sent file: stnk.jpg]") {
		t.Fatalf("file turn missing:\n%s", prompt)
	}
}

func TestNewUnknownProvider(t *testing.T) {
	if _, err := New("other", "key"); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
