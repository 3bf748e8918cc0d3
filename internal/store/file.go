package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"taste-haven-assistant/internal/assistant"
)

// Transcript is a point-in-time export of one container.
type Transcript struct {
	ExportedAt time.Time          `json:"exported_at"`
	Snapshot   assistant.Snapshot `json:"snapshot"`
}

// FileTranscriptStore writes a transcript export to a single JSON file.
type FileTranscriptStore struct {
	path string
}

func NewFileTranscriptStore(path string) *FileTranscriptStore {
	return &FileTranscriptStore{path: path}
}

func (f *FileTranscriptStore) Path() string { return f.path }

// Read returns nil, nil when no export exists yet.
func (f *FileTranscriptStore) Read() (*Transcript, error) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var t Transcript
	if err := json.Unmarshal(b, &t); err != nil {
		return nil, fmt.Errorf("decode transcript %s: %w", f.path, err)
	}
	return &t, nil
}

func (f *FileTranscriptStore) Write(t *Transcript) error {
	if t == nil {
		return fmt.Errorf("invalid transcript")
	}
	if dir := filepath.Dir(f.path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	b, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}
