// Package store persists record snapshots. Two backends exist: a JSON file
// (the default) and a SQLite database whose schema is managed by embedded
// migrations.
package store

import (
	"context"
	"fmt"

	"github.com/mwasalski/financial-app/internal/config"
	"github.com/mwasalski/financial-app/internal/ledger"
	"github.com/mwasalski/financial-app/internal/model"
)

// Source says where a loaded snapshot came from.
type Source string

const (
	SourceStored  Source = "stored"
	SourceDefault Source = "default"
	SourceLegacy  Source = "legacy"
)

// LoadInfo explains the outcome of a Load. Reason is set whenever the stored
// data could not be used as-is.
type LoadInfo struct {
	Source Source
	Reason string
	Fixed  int  // record IDs reassigned by ledger.Normalize
	Schema uint // applied migration version; zero for the file backend
}

// Store loads and saves whole record snapshots.
type Store interface {
	Load(ctx context.Context) (model.RecordSet, LoadInfo, error)
	Save(ctx context.Context, rs model.RecordSet) error
	Close() error
	Path() string
}

// Clock supplies the month that default snapshots are anchored on.
type Clock func() model.MonthKey

// Open returns the backend selected by cfg. A nil clock uses the wall clock.
func Open(cfg config.Config, now Clock) (Store, error) {
	if now == nil {
		now = model.CurrentMonth
	}
	path := cfg.StatePath()
	switch cfg.General.Backend {
	case config.BackendFile, "":
		return NewFileStore(path, now), nil
	case config.BackendSQLite:
		return OpenSQLite(path, now)
	}
	return nil, fmt.Errorf("%w %q", config.ErrUnknownBackend, cfg.General.Backend)
}

// fallback builds the default snapshot returned when stored data is missing
// or unusable.
func fallback(now Clock, reason string) (model.RecordSet, LoadInfo) {
	return ledger.Default(now()), LoadInfo{Source: SourceDefault, Reason: reason}
}

// accept normalizes a decoded snapshot, or falls back to defaults when it
// cannot be trusted.
func accept(rs model.RecordSet, src Source, now Clock) (model.RecordSet, LoadInfo) {
	out, fixed, err := ledger.Normalize(rs)
	if err != nil {
		return fallback(now, err.Error())
	}
	info := LoadInfo{Source: src, Fixed: fixed}
	if fixed > 0 {
		info.Reason = fmt.Sprintf("reassigned %d record ids", fixed)
	}
	return out, info
}
