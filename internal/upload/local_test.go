package upload

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveAndURL(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/files/")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	url, size, err := store.Save("room-1", "msg-1", "stnk.jpg", strings.NewReader("image bytes"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if url != "/files/room-1/msg-1/stnk.jpg" {
		t.Fatalf("unexpected url %q", url)
	}
	if size != int64(len("image bytes")) {
		t.Fatalf("unexpected size %d", size)
	}

	data, err := os.ReadFile(filepath.Join(store.Root(), "room-1", "msg-1", "stnk.jpg"))
	if err != nil || string(data) != "image bytes" {
		t.Fatalf("read back: %v %q", err, data)
	}
}

func TestSaveStripsPathComponents(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/files")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	url, _, err := store.Save("room-1", "msg-1", "../../etc/passwd", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if url != "/files/room-1/msg-1/passwd" {
		t.Fatalf("traversal not stripped: %q", url)
	}
	if _, err := os.Stat(filepath.Join(store.Root(), "room-1", "msg-1", "passwd")); err != nil {
		t.Fatalf("file not under room dir: %v", err)
	}
}

func TestSaveRejectsEmptyName(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/files")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, _, err := store.Save("room-1", "msg-1", "..", strings.NewReader("x")); err == nil {
		t.Fatal("expected error for invalid name")
	}
}
