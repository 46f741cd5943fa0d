package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mwasalski/financial-app/internal/ledger"
	"github.com/mwasalski/financial-app/internal/model"
	"github.com/mwasalski/financial-app/internal/store"
)

var now = model.MustMonth("2025-03")

// memStore is an in-memory store.Store.
type memStore struct {
	mu    sync.Mutex
	rs    model.RecordSet
	saved bool
	saves int
}

func (m *memStore) Load(context.Context) (model.RecordSet, store.LoadInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.saved {
		return ledger.Default(now), store.LoadInfo{Source: store.SourceDefault}, nil
	}
	return ledger.Clone(m.rs), store.LoadInfo{Source: store.SourceStored}, nil
}

func (m *memStore) Save(_ context.Context, rs model.RecordSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rs = ledger.Clone(rs)
	m.saved = true
	m.saves++
	return nil
}

func (m *memStore) Close() error { return nil }
func (m *memStore) Path() string { return "memory" }

func newTestService(t *testing.T, st store.Store) *Service {
	t.Helper()
	s := New(Config{
		Store:        st,
		Now:          func() model.MonthKey { return now },
		Interval:     time.Hour,
		EventsBuffer: 10,
	})
	s.pollOnce(context.Background())
	return s
}

func TestDiffSnapshots(t *testing.T) {
	prev := Snapshot{
		Records: 5,
		Months:  20,
		Summary: model.Summary{ToSpend: 1000},
		Totals:  model.Totals{Income: 10_000, Expenses: 4_000, FinalBalance: 6_000},
	}
	curr := Snapshot{
		Records: 6,
		Months:  22,
		Summary: model.Summary{ToSpend: 1500.5},
		Totals:  model.Totals{Income: 12_000, Expenses: 4_900, FinalBalance: 7_100},
	}

	delta := diffSnapshots(prev, curr)
	if delta.Records != 1 || delta.Months != 2 {
		t.Fatalf("count deltas = %d/%d, want 1/2", delta.Records, delta.Months)
	}
	if delta.Income != 2_000 || delta.Expenses != 900 || delta.FinalBalance != 1_100 {
		t.Fatalf("money deltas = %+v", delta)
	}
	if math.Abs(delta.ToSpend-500.5) > 1e-9 {
		t.Fatalf("ToSpend delta = %.2f, want 500.50", delta.ToSpend)
	}
	if delta.isZero() {
		t.Fatal("delta unexpectedly reported as zero")
	}
	if !diffSnapshots(curr, curr).isZero() {
		t.Fatal("identical snapshots produced a delta")
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(Config{
		Store:        &memStore{},
		Interval:     10 * time.Second,
		EventsBuffer: 2,
	})

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

func TestPollOnce_PublishesOnlyOnChange(t *testing.T) {
	st := &memStore{}
	s := newTestService(t, st)

	s.pollOnce(context.Background())
	s.pollOnce(context.Background())

	s.mu.RLock()
	n := len(s.events)
	first := s.events[0]
	s.mu.RUnlock()
	if n != 1 || first.Type != EventSnapshot {
		t.Fatalf("events after unchanged polls = %d (first %q), want 1 snapshot", n, first.Type)
	}

	rs, _, _ := ledger.AddOneTime(ledger.Default(now), "Tyres", 1200, now.AddMonths(1))
	_ = st.Save(context.Background(), rs)
	s.pollOnce(context.Background())

	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.events) != 2 {
		t.Fatalf("events = %d, want 2", len(s.events))
	}
	ev := s.events[1]
	if ev.Type != EventTimeline || ev.Delta.Records != 1 || ev.Delta.Expenses != 1200 {
		t.Fatalf("change event = %+v", ev)
	}
}

func TestDefaultSnapshotIDsStableAcrossPolls(t *testing.T) {
	s := newTestService(t, &memStore{})
	s.mu.RLock()
	id := s.records.Invoices[0].ID
	s.mu.RUnlock()

	s.pollOnce(context.Background())

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.records.Invoices[0].ID != id {
		t.Fatal("default snapshot regenerated between polls")
	}
}

func TestHTTP_ReadEndpoints(t *testing.T) {
	s := newTestService(t, &memStore{})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz = %d", resp.StatusCode)
	}

	var tl TimelineResponse
	getJSON(t, srv.URL+"/v1/timeline", &tl)
	if tl.Month != now || len(tl.Rows) == 0 {
		t.Fatalf("timeline = %+v", tl)
	}
	if tl.Summary.Month != now {
		t.Fatalf("summary month = %s", tl.Summary.Month)
	}

	var st Status
	getJSON(t, srv.URL+"/v1/status", &st)
	if st.PollCount != 1 || st.Summary.Records != 5 || st.LoadSource != "default" {
		t.Fatalf("status = %+v", st)
	}

	var rs model.RecordSet
	getJSON(t, srv.URL+"/v1/records", &rs)
	if rs.RecordCount() != 5 {
		t.Fatalf("records = %d", rs.RecordCount())
	}
}

func TestHTTP_Mutations(t *testing.T) {
	st := &memStore{}
	s := newTestService(t, st)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	body := `{"name": "Gym", "amount": 150, "start_month": "2025-03", "end_month": "2025-12"}`
	resp, err := http.Post(srv.URL+"/v1/records/recurring", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	var created map[string]string
	_ = json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated || created["id"] == "" {
		t.Fatalf("POST recurring = %d %v", resp.StatusCode, created)
	}
	if st.saves != 1 || len(st.rs.Recurring) != 3 {
		t.Fatalf("store after POST: saves=%d recurring=%d", st.saves, len(st.rs.Recurring))
	}

	resp, err = http.Post(srv.URL+"/v1/records/invoice", "application/json", strings.NewReader(`{"amount": 10}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("POST invoice without month = %d, want 400", resp.StatusCode)
	}

	resp, err = http.Post(srv.URL+"/v1/records/salary", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("POST unknown kind = %d, want 400", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/v1/records/recurring/"+created["id"], nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("DELETE = %d, want 204", resp.StatusCode)
	}
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("second DELETE = %d, want 404", resp.StatusCode)
	}

	req, _ = http.NewRequest(http.MethodPut, srv.URL+"/v1/income", strings.NewReader(`{"mode": "uop", "employment_net": 9000}`))
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	var status Status
	_ = json.NewDecoder(resp.Body).Decode(&status)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT income = %d", resp.StatusCode)
	}
	if status.Summary.Mode != model.ModeEmployment || status.Summary.Summary.Income != 9000 {
		t.Fatalf("status after PUT = %+v", status.Summary)
	}
}

func TestHTTP_PartialSelfEmployedUpdate(t *testing.T) {
	st := &memStore{}
	s := newTestService(t, st)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/v1/income", strings.NewReader(`{"self_employed": {"zus": 1000}}`))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT income = %d", resp.StatusCode)
	}
	want := model.SelfEmployedParams{Zus: 1000, TaxRate: 12, HourlyRate: 120}
	if st.rs.SelfEmployed != want {
		t.Fatalf("self-employed params = %+v, want %+v", st.rs.SelfEmployed, want)
	}

	req, _ = http.NewRequest(http.MethodPut, srv.URL+"/v1/income", strings.NewReader(`{"self_employed": {"tax_rate": "19", "hourly_rate": null}}`))
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	want.TaxRate = 19
	if st.rs.SelfEmployed != want {
		t.Fatalf("self-employed params = %+v, want %+v", st.rs.SelfEmployed, want)
	}
}

func TestHTTP_RecordAmountsAcceptNumericStrings(t *testing.T) {
	st := &memStore{}
	s := newTestService(t, st)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/records/invoice", "application/json", strings.NewReader(`{"label": "March", "amount": "1200", "month": "2025-03"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST invoice = %d, want 201", resp.StatusCode)
	}
	var got float64
	for _, inv := range st.rs.Invoices {
		if inv.Label == "March" {
			got = inv.Amount
		}
	}
	if got != 1200 {
		t.Fatalf("invoice amount = %v, want 1200", got)
	}

	resp, err = http.Post(srv.URL+"/v1/records/hours", "application/json", strings.NewReader(`{"hours": "12.5", "month": "2025-04"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST hours = %d, want 201", resp.StatusCode)
	}
	last := st.rs.HourlyEntries[len(st.rs.HourlyEntries)-1]
	if last.Hours != 12.5 {
		t.Fatalf("hours = %v, want 12.5", last.Hours)
	}
}

func TestHTTP_StreamSendsSnapshotFirst(t *testing.T) {
	s := newTestService(t, &memStore{})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/stream", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}
	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	if err != nil {
		t.Fatal(err)
	}
	if line != "event: snapshot\n" {
		t.Fatalf("first line = %q", line)
	}
}

func TestService_WithSQLiteStore(t *testing.T) {
	st, err := store.OpenSQLite(filepath.Join(t.TempDir(), "state.db"), func() model.MonthKey { return now })
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	s := newTestService(t, st)
	err = s.edit(context.Background(), func(rs model.RecordSet) (model.RecordSet, error) {
		return ledger.SetEmploymentNet(rs, 1234), nil
	})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}

	rs, info, err := st.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if info.Source != store.SourceStored || rs.EmploymentNet != 1234 {
		t.Fatalf("persisted = %+v / %+v", info, rs.EmploymentNet)
	}
	if got := s.snapshotStatus().SchemaVersion; got != 1 {
		t.Fatalf("status schema version = %d, want 1", got)
	}
}

func getJSON(t *testing.T, url string, v any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s = %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
}
