// Package daemon provides the long-running projection service: it watches
// the record store, keeps the computed timeline current, and serves it over
// HTTP with an SSE change stream.
package daemon

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mwasalski/financial-app/internal/ledger"
	"github.com/mwasalski/financial-app/internal/log"
	"github.com/mwasalski/financial-app/internal/model"
	"github.com/mwasalski/financial-app/internal/projection"
	"github.com/mwasalski/financial-app/internal/store"
)

// Config controls the daemon runtime behavior.
type Config struct {
	Store        store.Store
	Now          func() model.MonthKey
	Interval     time.Duration
	Addr         string
	EventsBuffer int
	Logger       *log.Logger
}

// Snapshot is the computed projection state for status and event payloads.
type Snapshot struct {
	At      time.Time        `json:"at"`
	Month   model.MonthKey   `json:"month"`
	Mode    model.IncomeMode `json:"mode"`
	Records int              `json:"records"`
	Months  int              `json:"months"`
	Summary model.Summary    `json:"summary"`
	Totals  model.Totals     `json:"totals"`
	Hash    string           `json:"hash"`
}

// Delta captures snapshot changes between two refreshes.
type Delta struct {
	Records      int     `json:"records"`
	Months       int     `json:"months"`
	Income       float64 `json:"income"`
	Expenses     float64 `json:"expenses"`
	FinalBalance float64 `json:"final_balance"`
	ToSpend      float64 `json:"to_spend"`
}

func (d Delta) isZero() bool {
	return d.Records == 0 &&
		d.Months == 0 &&
		d.Income == 0 &&
		d.Expenses == 0 &&
		d.FinalBalance == 0 &&
		d.ToSpend == 0
}

// Event is emitted whenever the projection changes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// Event types.
const (
	EventSnapshot = "snapshot"
	EventTimeline = "timeline"
)

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	StatePath       string    `json:"state_path"`
	LoadSource      string    `json:"load_source,omitempty"`
	LoadReason      string    `json:"load_reason,omitempty"`
	SchemaVersion   uint      `json:"schema_version,omitempty"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg Config
	log *log.Logger

	// editMu serializes load-modify-save cycles from HTTP mutations.
	editMu sync.Mutex

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	loadInfo    store.LoadInfo
	hasSnapshot bool
	snapshot    Snapshot
	records     model.RecordSet
	rows        []model.MonthRow
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service with the provided config.
func New(cfg Config) *Service {
	if cfg.Interval < time.Second {
		cfg.Interval = 5 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8788"
	}
	if cfg.Now == nil {
		cfg.Now = model.CurrentMonth
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Nop()
	}

	return &Service{
		cfg:       cfg,
		log:       cfg.Logger.WithComponent(log.ComponentDaemon).With("state", cfg.Store.Path()),
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Run starts HTTP endpoints and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("daemon http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		// Seed initial snapshot so status is useful immediately.
		s.pollOnce(gctx)

		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				s.pollOnce(gctx)
			}
		}
	})

	s.log.Info("daemon started", "addr", s.cfg.Addr, "interval", s.cfg.Interval)
	return g.Wait()
}

// load reads the store. While nothing has been saved yet the store returns
// a freshly generated default snapshot on every call; the first one is kept
// so record IDs stay stable between polls.
func (s *Service) load(ctx context.Context) (model.RecordSet, store.LoadInfo, error) {
	rs, info, err := s.cfg.Store.Load(ctx)
	if err != nil || info.Source != store.SourceDefault {
		return rs, info, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.hasSnapshot && s.loadInfo.Source == store.SourceDefault {
		return ledger.Clone(s.records), info, nil
	}
	return rs, info, nil
}

func (s *Service) pollOnce(ctx context.Context) {
	rs, info, err := s.load(ctx)
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = time.Now()
		s.pollCount++
		s.mu.Unlock()
		s.log.WarnContext(ctx, "poll failed", "error", err)
		return
	}
	s.refresh(rs, info, true)
}

// refresh recomputes the projection for rs and publishes an event when the
// result differs from the previous snapshot.
func (s *Service) refresh(rs model.RecordSet, info store.LoadInfo, polled bool) {
	now := time.Now()
	month := s.cfg.Now()
	rows := projection.Timeline(rs, month)
	snap := buildSnapshot(rs, rows, month, now)

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	if info.Reason != "" && info.Reason != s.loadInfo.Reason {
		s.log.Warn("state loaded with fallback", "source", info.Source, "reason", info.Reason)
	}

	s.hasSnapshot = true
	s.snapshot = snap
	s.records = rs
	s.rows = rows
	s.loadInfo = info
	s.lastError = ""
	if polled {
		s.lastPollAt = now
		s.pollCount++
	}

	switch {
	case !prevExists:
		s.nextEventID++
		ev = Event{ID: s.nextEventID, Type: EventSnapshot, Timestamp: now, Snapshot: snap}
		publish = true
	case prev.Hash != snap.Hash:
		s.nextEventID++
		ev = Event{ID: s.nextEventID, Type: EventTimeline, Timestamp: now, Snapshot: snap, Delta: diffSnapshots(prev, snap)}
		publish = true
	}
	s.mu.Unlock()

	if publish {
		args := []any{"event", ev.Type, "final_balance", snap.Totals.FinalBalance}
		if !ev.Delta.isZero() {
			args = append(args, "records_delta", ev.Delta.Records, "final_balance_delta", ev.Delta.FinalBalance)
		}
		s.log.Debug("projection changed", args...)
		s.publishEvent(ev)
	}
}

func buildSnapshot(rs model.RecordSet, rows []model.MonthRow, month model.MonthKey, at time.Time) Snapshot {
	return Snapshot{
		At:      at,
		Month:   month,
		Mode:    rs.Mode,
		Records: rs.RecordCount(),
		Months:  len(rows),
		Summary: projection.Summarize(rows, month),
		Totals:  projection.Sum(rows),
		Hash:    hashRows(rs, rows),
	}
}

// hashRows fingerprints the computed rows plus the record count, so edits
// that leave every month unchanged still register.
func hashRows(rs model.RecordSet, rows []model.MonthRow) string {
	h := sha256.New()
	_ = json.NewEncoder(h).Encode(rows)
	_, _ = fmt.Fprintf(h, "%s|%d", rs.Mode, rs.RecordCount())
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Records:      curr.Records - prev.Records,
		Months:       curr.Months - prev.Months,
		Income:       curr.Totals.Income - prev.Totals.Income,
		Expenses:     curr.Totals.Expenses - prev.Totals.Expenses,
		FinalBalance: curr.Totals.FinalBalance - prev.Totals.FinalBalance,
		ToSpend:      curr.Summary.ToSpend - prev.Summary.ToSpend,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		StatePath:       s.cfg.Store.Path(),
		LoadSource:      string(s.loadInfo.Source),
		LoadReason:      s.loadInfo.Reason,
		SchemaVersion:   s.loadInfo.Schema,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

// edit runs fn against the freshly loaded snapshot, saves the result, and
// refreshes the projection. Edits are serialized.
func (s *Service) edit(ctx context.Context, fn func(model.RecordSet) (model.RecordSet, error)) error {
	s.editMu.Lock()
	defer s.editMu.Unlock()

	rs, info, err := s.load(ctx)
	if err != nil {
		return fmt.Errorf("loading state: %w", err)
	}
	next, err := fn(rs)
	if err != nil {
		return err
	}
	if err := s.cfg.Store.Save(ctx, next); err != nil {
		return fmt.Errorf("saving state: %w", err)
	}
	info.Source, info.Reason = store.SourceStored, ""
	s.log.InfoContext(ctx, "state edited", "records", next.RecordCount())
	s.refresh(next, info, false)
	return nil
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
