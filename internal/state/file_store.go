package state

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/rosterwatch/internal/foundation/errors"
	"git.home.luguber.info/inful/rosterwatch/internal/logfields"
	"git.home.luguber.info/inful/rosterwatch/internal/roster"
)

var (
	// ErrNotFound reports that no state file exists yet.
	ErrNotFound = stderrors.New("state file not found")
	// ErrCorrupt reports a state file that cannot be decoded.
	ErrCorrupt = stderrors.New("state file is corrupt")
)

// Store loads and saves roster snapshots.
type Store interface {
	Load() ([]roster.Record, error)
	Save(records []roster.Record) error
}

// FileStore is a Store backed by one JSON file.
type FileStore struct {
	path string
}

// NewFileStore returns a store for path. Nothing is read until Load.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string { return s.path }

type fileRecord struct {
	Name      string  `json:"name"`
	LastEvent *string `json:"lastEvent"`
}

// Load reads the persisted roster. A missing file yields an error matching
// ErrNotFound; an undecodable one yields an error matching ErrCorrupt.
func (s *FileStore) Load() ([]roster.Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFoundError("state file not found").
				WithCause(ErrNotFound).
				WithContext("path", s.path).
				Build()
		}
		return nil, errors.StateError("failed to read state file").
			WithCause(err).
			WithContext("path", s.path).
			Build()
	}

	var raw []fileRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, s.corrupt(err)
	}

	records := make([]roster.Record, 0, len(raw))
	for _, fr := range raw {
		rec := roster.Record{Name: fr.Name}
		if fr.LastEvent != nil && *fr.LastEvent != "" {
			ts, perr := parseTimestamp(*fr.LastEvent)
			if perr != nil {
				return nil, s.corrupt(perr)
			}
			rec.LastEvent = &ts
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *FileStore) corrupt(cause error) error {
	return errors.StateError("state file is corrupt").
		WithCause(fmt.Errorf("%w: %w", ErrCorrupt, cause)).
		WithContext("path", s.path).
		Build()
}

// Save atomically replaces the state file with records.
func (s *FileStore) Save(records []roster.Record) error {
	out := make([]fileRecord, 0, len(records))
	for _, rec := range records {
		fr := fileRecord{Name: rec.Name}
		if rec.LastEvent != nil {
			v := rec.LastEvent.UTC().Format(time.RFC3339)
			fr.LastEvent = &v
		}
		out = append(out, fr)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return errors.InternalError("failed to marshal state").WithCause(err).Build()
	}
	data = append(data, '\n')

	if err := writeFileAtomic(s.path, data); err != nil {
		return errors.StateError("failed to write state file").
			WithCause(err).
			WithContext("path", s.path).
			Build()
	}
	return nil
}

// Ensure loads the state file, replacing a missing or corrupt one with an
// empty document. A corrupt file is kept next to the original with a
// ".corrupt" suffix. A file that exists but cannot be read is never
// replaced; its error is returned.
func (s *FileStore) Ensure() ([]roster.Record, error) {
	records, err := s.Load()
	switch {
	case err == nil:
		return records, nil
	case stderrors.Is(err, ErrNotFound):
		slog.Info("State file not found, creating empty state", logfields.Path(s.path))
	case stderrors.Is(err, ErrCorrupt):
		aside := s.path + ".corrupt"
		slog.Warn("State file is corrupt, starting with empty state",
			logfields.Path(s.path),
			slog.String("moved_to", aside),
			logfields.Error(err))
		if rerr := os.Rename(s.path, aside); rerr != nil {
			return nil, errors.StateError("failed to move corrupt state file aside").
				WithCause(rerr).
				WithContext("path", s.path).
				Build()
		}
	default:
		return nil, err
	}

	if err := s.Save(nil); err != nil {
		return nil, err
	}
	return nil, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
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
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	committed = true

	return syncDir(dir)
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("open state directory: %w", err)
	}
	defer func() { _ = d.Close() }()
	if err := d.Sync(); err != nil && !stderrors.Is(err, os.ErrInvalid) {
		return fmt.Errorf("sync state directory: %w", err)
	}
	return nil
}

// legacyDateLayout matches JavaScript's Date.prototype.toString without the
// trailing "(Zone Name)".
const legacyDateLayout = "Mon Jan 02 2006 15:04:05 GMT-0700"

func parseTimestamp(v string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return ts.UTC(), nil
	}
	legacy := v
	if i := strings.Index(legacy, " ("); i >= 0 {
		legacy = legacy[:i]
	}
	ts, err := time.Parse(legacyDateLayout, strings.TrimSpace(legacy))
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized timestamp %q", v)
	}
	return ts.UTC(), nil
}
