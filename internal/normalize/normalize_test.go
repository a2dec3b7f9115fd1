package normalize

import (
	"testing"
	"time"

	"github.com/otomarket/chat-platform/internal/model"
)

func textMessage(body string) model.Message {
	return model.Message{
		ID:         "m1",
		RoomID:     "r1",
		SenderID:   "u1",
		ReceiverID: "u2",
		Body:       body,
		Type:       model.TypeText,
		Channel:    model.ChannelUser,
		CreatedAt:  time.Now().UTC(),
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	car := &model.CarInfo{
		CarID:   "car-42",
		Title:   "Toyota Avanza 2019",
		Price:   "Rp 165.000.000",
		Year:    2019,
		Mileage: 45000,
		Color:   "Silver",
	}
	body, err := model.EncodeEnvelope("Masih ada?", car)
	if err != nil {
		t.Fatalf("encode envelope: %v", err)
	}

	d := Message(textMessage(body))
	if d.Kind != model.KindText {
		t.Fatalf("expected text kind, got %s", d.Kind)
	}
	if d.Text != "Masih ada?" {
		t.Fatalf("expected unpacked text, got %q", d.Text)
	}
	if d.CarInfo == nil || d.CarInfo.CarID != "car-42" {
		t.Fatalf("expected carInfo car-42, got %+v", d.CarInfo)
	}
	if d.CarInfo.Price != "Rp 165.000.000" || d.CarInfo.Year != 2019 {
		t.Fatalf("carInfo fields not preserved: %+v", d.CarInfo)
	}
}

func TestPlainTextPassesVerbatim(t *testing.T) {
	cases := []string{
		"halo, mobilnya masih ada?",
		"",
		"{broken json",
		`"just a json string"`,
		"12345",
	}
	for _, body := range cases {
		d := Message(textMessage(body))
		if d.Text != body {
			t.Fatalf("body %q: expected verbatim text, got %q", body, d.Text)
		}
		if d.CarInfo != nil {
			t.Fatalf("body %q: unexpected carInfo %+v", body, d.CarInfo)
		}
	}
}

func TestValidJSONUnrelatedShapeFallsBack(t *testing.T) {
	cases := []string{
		`[1, 2, 3]`,
		`{"foo": "bar"}`,
		`{"message": "hi", "other": true}`,
	}
	for _, body := range cases {
		d := Message(textMessage(body))
		if d.Text != body {
			t.Fatalf("body %q: expected verbatim fallback, got %q", body, d.Text)
		}
		if d.CarInfo != nil {
			t.Fatalf("body %q: unexpected carInfo", body)
		}
	}
}

func TestEnvelopeWithOnlyCarInfo(t *testing.T) {
	body, err := model.EncodeEnvelope("", &model.CarInfo{CarID: "car-7", Title: "Honda Brio"})
	if err != nil {
		t.Fatalf("encode envelope: %v", err)
	}
	d := Message(textMessage(body))
	if d.Text != "" {
		t.Fatalf("expected empty text, got %q", d.Text)
	}
	if d.CarInfo == nil || d.CarInfo.CarID != "car-7" {
		t.Fatalf("expected carInfo, got %+v", d.CarInfo)
	}
}

func TestCarInfoVariantDecodes(t *testing.T) {
	msg := textMessage(`{"carId":"car-9","title":"Daihatsu Xenia","price":"Rp 95.000.000"}`)
	msg.Type = model.TypeCarInfo

	d := Message(msg)
	if d.Kind != model.KindCarInfo {
		t.Fatalf("expected car_info kind, got %s", d.Kind)
	}
	if d.CarInfo == nil || d.CarInfo.CarID != "car-9" || d.CarInfo.Price != "Rp 95.000.000" {
		t.Fatalf("unexpected carInfo: %+v", d.CarInfo)
	}
}

func TestCarInfoVariantFallsBackToGenericTitle(t *testing.T) {
	msg := textMessage("not json at all")
	msg.Type = model.TypeCarInfo

	d := Message(msg)
	if d.CarInfo == nil || d.CarInfo.Title != "not json at all" {
		t.Fatalf("expected generic title fallback, got %+v", d.CarInfo)
	}
}

func TestMediaTypesCollapse(t *testing.T) {
	for _, typ := range []model.MessageType{model.TypeFile, model.TypeAudio, model.TypeVideo} {
		msg := textMessage("voice note")
		msg.Type = typ
		if d := Message(msg); d.Kind != model.KindFile {
			t.Fatalf("type %s: expected file kind, got %s", typ, d.Kind)
		}
	}
	msg := textMessage("")
	msg.Type = model.TypeImage
	if d := Message(msg); d.Kind != model.KindImage {
		t.Fatalf("expected image kind, got %s", d.Kind)
	}
}

func TestAttachmentPassesThrough(t *testing.T) {
	att := &model.Attachment{
		MessageID: "m1",
		FileURL:   "/files/r1/m1/stnk.pdf",
		FileName:  "stnk.pdf",
		FileSize:  2048,
		MediaType: "file",
	}
	msg := textMessage("")
	msg.Type = model.TypeFile
	msg.Attachment = att

	d := Message(msg)
	if d.Attachment != att {
		t.Fatalf("attachment not carried through: %+v", d.Attachment)
	}
}

func TestCarIDExtraction(t *testing.T) {
	env, _ := model.EncodeEnvelope("tertarik", &model.CarInfo{CarID: "car-42", Title: "Avanza"})

	withEnvelope := textMessage(env)
	if got := CarID(withEnvelope); got != "car-42" {
		t.Fatalf("envelope: expected car-42, got %q", got)
	}

	explicit := textMessage(`{"carId":"car-42","title":"Avanza"}`)
	explicit.Type = model.TypeCarInfo
	if got := CarID(explicit); got != "car-42" {
		t.Fatalf("car_info: expected car-42, got %q", got)
	}

	plain := textMessage("tanpa referensi")
	if got := CarID(plain); got != "" {
		t.Fatalf("plain: expected empty, got %q", got)
	}
}
