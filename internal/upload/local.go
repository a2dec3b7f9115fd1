// Package upload stores attachment binaries on the local disk.
package upload

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes uploads under a root directory and serves them back by
// URL under baseURL. The layout is <root>/<roomID>/<messageID>/<name>, so a
// message's files never collide.
type LocalStore struct {
	root    string
	baseURL string
}

// NewLocalStore creates the root directory if needed.
func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	if root == "" {
		return nil, fmt.Errorf("upload root must be provided")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload root: %w", err)
	}
	return &LocalStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Root returns the directory uploads are written to, for static serving.
func (s *LocalStore) Root() string {
	return s.root
}

// Save streams the file to disk and returns its durable URL.
func (s *LocalStore) Save(roomID, messageID, fileName string, r io.Reader) (string, int64, error) {
	name := sanitize(fileName)
	if name == "" {
		return "", 0, fmt.Errorf("invalid file name %q", fileName)
	}
	dir := filepath.Join(s.root, roomID, messageID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create upload dir: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", 0, fmt.Errorf("create upload file: %w", err)
	}
	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(f.Name())
		return "", 0, fmt.Errorf("write upload: %w", err)
	}

	return s.baseURL + "/" + roomID + "/" + messageID + "/" + name, size, nil
}

// sanitize strips any path components from a client-supplied file name.
func sanitize(fileName string) string {
	name := filepath.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if name == "." || name == ".." || name == "/" {
		return ""
	}
	return name
}
