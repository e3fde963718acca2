package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	domain "github.com/donaldgifford/slot-watcher/pkg/types"
)

const stateFileExt = ".json"

// FileStore implements Store with one JSON document per target. Writes go
// to a temporary file in the same directory which is synced and renamed
// over the previous document.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates the data directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(targetID string) string {
	return filepath.Join(s.dir, "state_"+targetID+stateFileExt)
}

// Load reads the state document for targetID.
func (s *FileStore) Load(_ context.Context, targetID string) (*domain.MonitorState, error) {
	data, err := os.ReadFile(s.path(targetID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading state for %s: %w", targetID, err)
	}

	st := &domain.MonitorState{}
	if err := json.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("decoding state for %s: %w", targetID, err)
	}
	return st, nil
}

// Save writes state atomically.
func (s *FileStore) Save(_ context.Context, state *domain.MonitorState) error {
	if err := validateState(state); err != nil {
		return err
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, "state_"+state.TargetID+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op once the rename succeeded.
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path(state.TargetID)); err != nil {
		return fmt.Errorf("replacing state file: %w", err)
	}
	return nil
}

// Delete removes the state document for targetID.
func (s *FileStore) Delete(_ context.Context, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(targetID))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing state for %s: %w", targetID, err)
	}
	return nil
}

// List reads every state document in the data directory.
func (s *FileStore) List(ctx context.Context) ([]domain.MonitorState, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading data directory: %w", err)
	}

	var out []domain.MonitorState
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "state_") || !strings.HasSuffix(name, stateFileExt) {
			continue
		}
		id := strings.TrimSuffix(strings.TrimPrefix(name, "state_"), stateFileExt)
		st, err := s.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TargetID < out[j].TargetID })
	return out, nil
}

// Ping checks that the data directory is still accessible.
func (s *FileStore) Ping(context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("stat data directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", s.dir)
	}
	return nil
}

// Close is a no-op.
func (*FileStore) Close() error { return nil }
