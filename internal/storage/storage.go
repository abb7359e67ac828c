package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pfrederiksen/guild-tracker/internal/event"
)

// DefaultPath is the state file used when none is configured
const DefaultPath = "players.json"

// LoadError reports a state file that exists but could not be used.
// Callers treat it as "no prior state".
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading state %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// SaveError reports a failure to durably persist the state
type SaveError struct {
	Path string
	Err  error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("saving state %s: %v", e.Path, e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

// Storage handles persistence of the roster state
type Storage struct {
	path string
}

// New creates a new Storage for the given state file, creating its directory if needed
func New(path string) (*Storage, error) {
	s, err := Open(path)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	return s, nil
}

// Open resolves the state file path without touching the filesystem. It
// is meant for readers; Save still needs the directory to exist.
func Open(path string) (*Storage, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("state file path is required")
	}

	// Expand ~ to home directory
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	return &Storage{path: path}, nil
}

// Path returns the resolved state file path
func (s *Storage) Path() string {
	return s.path
}

// Load reads the persisted state. The returned state is never nil: a missing
// file yields an empty state and no error, an unreadable or malformed file
// yields an empty state and a *LoadError.
func (s *Storage) Load() (event.State, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return event.State{}, nil
		}
		return event.State{}, &LoadError{Path: s.path, Err: fmt.Errorf("reading file: %w", err)}
	}

	var state event.State
	if err := json.Unmarshal(data, &state); err != nil {
		return event.State{}, &LoadError{Path: s.path, Err: fmt.Errorf("parsing file: %w", err)}
	}

	if state == nil {
		state = event.State{}
	}
	return state, nil
}

// encode renders the state with sorted keys, two-space indentation and
// without escaping HTML characters
func encode(state event.State) ([]byte, error) {
	if state == nil {
		state = event.State{}
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(state); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save atomically replaces the state file with the given state
func (s *Storage) Save(state event.State) error {
	data, err := encode(state)
	if err != nil {
		return &SaveError{Path: s.path, Err: fmt.Errorf("encoding state: %w", err)}
	}

	if err := writeAtomic(s.path, data); err != nil {
		return &SaveError{Path: s.path, Err: err}
	}
	return nil
}

// writeAtomic writes data to a temporary sibling of path and renames it into place
func writeAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err = os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replacing state file: %w", err)
	}

	syncDir(dir)
	return nil
}

// syncDir flushes the directory entry after a rename. Not every platform
// supports fsync on directories, so failures are ignored.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
