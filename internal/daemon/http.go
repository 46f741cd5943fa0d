package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mwasalski/financial-app/internal/ledger"
	"github.com/mwasalski/financial-app/internal/log"
	"github.com/mwasalski/financial-app/internal/model"
	"github.com/mwasalski/financial-app/internal/store"
)

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(log.Middleware(s.cfg.Logger))

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/timeline", s.handleTimeline)
		r.Get("/records", s.handleRecords)
		r.Get("/events", s.handleEvents)
		r.Get("/stream", s.handleStream)

		r.Post("/records/{kind}", s.handleAddRecord)
		r.Delete("/records/{kind}/{id}", s.handleDeleteRecord)
		r.Put("/income", s.handleIncome)
	})
	return r
}

// TimelineResponse is served at /v1/timeline.
type TimelineResponse struct {
	Month   model.MonthKey   `json:"month"`
	Summary model.Summary    `json:"summary"`
	Totals  model.Totals     `json:"totals"`
	Rows    []model.MonthRow `json:"rows"`
}

// RecordRequest is the body of POST /v1/records/{kind}. Which fields are
// read depends on the kind. Amounts use the state file's lenient number
// decoding: numeric strings are accepted and anything unparseable counts as 0.
type RecordRequest struct {
	Label      string          `json:"label,omitempty"`
	Name       string          `json:"name,omitempty"`
	Amount     store.FlexFloat `json:"amount,omitempty"`
	Hours      store.FlexFloat `json:"hours,omitempty"`
	Month      model.MonthKey  `json:"month"`
	StartMonth model.MonthKey  `json:"start_month"`
	EndMonth   model.MonthKey  `json:"end_month"`
}

// IncomeRequest is the body of PUT /v1/income. Absent or null fields are
// left as they are, including each self-employment parameter on its own.
type IncomeRequest struct {
	Mode          *string            `json:"mode,omitempty"`
	EmploymentNet *store.FlexFloat   `json:"employment_net,omitempty"`
	SelfEmployed  *SelfEmployedPatch `json:"self_employed,omitempty"`
}

// SelfEmployedPatch updates only the parameters it carries.
type SelfEmployedPatch struct {
	Zus        *store.FlexFloat `json:"zus,omitempty"`
	TaxRate    *store.FlexFloat `json:"tax_rate,omitempty"`
	HourlyRate *store.FlexFloat `json:"hourly_rate,omitempty"`
}

func (p SelfEmployedPatch) apply(cur model.SelfEmployedParams) model.SelfEmployedParams {
	if p.Zus != nil {
		cur.Zus = p.Zus.Float()
	}
	if p.TaxRate != nil {
		cur.TaxRate = p.TaxRate.Float()
	}
	if p.HourlyRate != nil {
		cur.HourlyRate = p.HourlyRate.Float()
	}
	return cur
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ledger.ErrUnknownKind),
		errors.Is(err, ledger.ErrMonthRequired),
		errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

var errBadRequest = errors.New("bad request")

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

func (s *Service) handleTimeline(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	resp := TimelineResponse{
		Month:   s.snapshot.Month,
		Summary: s.snapshot.Summary,
		Totals:  s.snapshot.Totals,
		Rows:    append([]model.MonthRow{}, s.rows...),
	}
	s.mu.RUnlock()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) handleRecords(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	rs := ledger.Clone(s.records)
	s.mu.RUnlock()
	writeJSON(w, http.StatusOK, rs)
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

func (s *Service) handleAddRecord(w http.ResponseWriter, r *http.Request) {
	kind, err := ledger.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req RecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	var id string
	err = s.edit(r.Context(), func(rs model.RecordSet) (model.RecordSet, error) {
		var (
			next model.RecordSet
			err  error
		)
		switch kind {
		case ledger.KindInvoice:
			next, id, err = ledger.AddInvoice(rs, req.Label, req.Amount.Float(), req.Month)
		case ledger.KindHours:
			next, id, err = ledger.AddHours(rs, req.Hours.Float(), req.Month)
		case ledger.KindRecurring:
			next, id, err = ledger.AddRecurring(rs, req.Name, req.Amount.Float(), req.StartMonth, req.EndMonth)
		case ledger.KindOneTime:
			next, id, err = ledger.AddOneTime(rs, req.Name, req.Amount.Float(), req.Month)
		}
		return next, err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id, "kind": string(kind)})
}

func (s *Service) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	kind, err := ledger.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	err = s.edit(r.Context(), func(rs model.RecordSet) (model.RecordSet, error) {
		return ledger.Remove(rs, kind, id)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleIncome(w http.ResponseWriter, r *http.Request) {
	var req IncomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	var mode model.IncomeMode
	if req.Mode != nil {
		m, err := model.ParseIncomeMode(*req.Mode)
		if err != nil {
			writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
			return
		}
		mode = m
	}

	err := s.edit(r.Context(), func(rs model.RecordSet) (model.RecordSet, error) {
		if mode != "" {
			var err error
			if rs, err = ledger.SetMode(rs, mode); err != nil {
				return rs, err
			}
		}
		if req.EmploymentNet != nil {
			rs = ledger.SetEmploymentNet(rs, req.EmploymentNet.Float())
		}
		if req.SelfEmployed != nil {
			rs = ledger.SetSelfEmployed(rs, req.SelfEmployed.apply(rs.SelfEmployed))
		}
		return rs, nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	s.handleStatus(w, r)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	current := Event{
		Type:      EventSnapshot,
		Timestamp: time.Now(),
		Snapshot:  s.snapshotStatus().Summary,
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if ev.ID > 0 {
		_, _ = fmt.Fprintf(w, "id: %d\n", ev.ID)
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}
