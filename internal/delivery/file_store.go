package delivery

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"xoxo/internal/users"
)

type fileRecord struct {
	CandyName string    `yaml:"candy_name"`
	SentAt    time.Time `yaml:"sent_at"`
}

type fileState struct {
	Done           []fileRecord `yaml:"done"`
	DeliverCandyAt *time.Time   `yaml:"deliver_candy_at,omitempty"`
}

// FileStore keeps the state as YAML in the user's data.yml.
type FileStore struct{}

func NewFileStore() *FileStore { return &FileStore{} }

func (FileStore) Load(_ context.Context, u users.User) (*State, error) {
	data, err := os.ReadFile(u.DataPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewState(), nil
		}
		return nil, fmt.Errorf("read %s: %w", u.DataPath(), err)
	}
	var fs fileState
	if err := yaml.Unmarshal(data, &fs); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptState, u.DataPath(), err)
	}
	s := NewState()
	for i, r := range fs.Done {
		if r.CandyName == "" {
			return nil, fmt.Errorf("%w: %s: entry %d has no candy_name", ErrCorruptState, u.DataPath(), i)
		}
		s.History = append(s.History, Record{CandyName: r.CandyName, SentAt: r.SentAt.UTC()})
	}
	if fs.DeliverCandyAt != nil {
		t := fs.DeliverCandyAt.UTC()
		s.NextEligible = &t
	}
	return s, nil
}

func (FileStore) Save(ctx context.Context, u users.User, s *State) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	fs := fileState{Done: make([]fileRecord, 0, len(s.History))}
	for _, r := range s.History {
		fs.Done = append(fs.Done, fileRecord{CandyName: r.CandyName, SentAt: r.SentAt.UTC()})
	}
	if s.NextEligible != nil {
		t := s.NextEligible.UTC()
		fs.DeliverCandyAt = &t
	}
	data, err := yaml.Marshal(&fs)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrPersist, err)
	}
	if err := writeFileAtomic(u.DataPath(), data); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrPersist, u.DataPath(), err)
	}
	return nil
}

// writeFileAtomic writes to a temp file in the same directory and renames it
// over path, so path holds either the old or the new content.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	success = true
	return nil
}

var _ Store = (*FileStore)(nil)
