package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mwasalski/financial-app/internal/model"
)

// FileStore keeps the snapshot in a single JSON document.
type FileStore struct {
	path string
	now  Clock
}

// NewFileStore returns a store backed by the JSON file at path. The file is
// created on first Save.
func NewFileStore(path string, now Clock) *FileStore {
	if now == nil {
		now = model.CurrentMonth
	}
	return &FileStore{path: path, now: now}
}

// Path returns the state file location.
func (s *FileStore) Path() string { return s.path }

// Close is a no-op.
func (s *FileStore) Close() error { return nil }

// Load reads the snapshot. A missing, unreadable-as-JSON, or unknown-version
// file yields the default snapshot with LoadInfo.Reason set; only I/O errors
// other than absence are returned.
func (s *FileStore) Load(ctx context.Context) (model.RecordSet, LoadInfo, error) {
	if err := ctx.Err(); err != nil {
		return model.RecordSet{}, LoadInfo{}, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			rs, info := fallback(s.now, "")
			return rs, info, nil
		}
		return model.RecordSet{}, LoadInfo{}, fmt.Errorf("reading state: %w", err)
	}

	rs, info := Decode(data, s.now)
	return rs, info, nil
}

// Decode interprets a state document of any known shape. It never fails:
// unusable input degrades to the default snapshot.
func Decode(data []byte, now Clock) (model.RecordSet, LoadInfo) {
	if now == nil {
		now = model.CurrentMonth
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return fallback(now, fmt.Sprintf("state is not valid JSON: %v", err))
	}

	if _, nested := top[LegacyStorageKey]; nested || isLegacy(top) {
		rs, err := DecodeLegacy(data)
		if err != nil {
			return fallback(now, fmt.Sprintf("legacy state unusable: %v", err))
		}
		return accept(rs, SourceLegacy, now)
	}

	var doc stateDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return fallback(now, fmt.Sprintf("state is malformed: %v", err))
	}
	if doc.Version != SchemaVersion {
		return fallback(now, fmt.Sprintf("unsupported state version %d", doc.Version))
	}
	rs, err := doc.records()
	if err != nil {
		return fallback(now, err.Error())
	}
	return accept(rs, SourceStored, now)
}

// Save writes the snapshot atomically: a temp file in the same directory is
// written, synced, and renamed over the target.
func (s *FileStore) Save(ctx context.Context, rs model.RecordSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := Encode(rs)
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("creating temp state: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp state: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing state: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("syncing state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing state: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replacing state: %w", err)
	}
	return nil
}
