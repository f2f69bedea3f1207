package upload

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/satyamaryan14/ChemicalApp/internal/api"
	"github.com/satyamaryan14/ChemicalApp/internal/history"
	"github.com/satyamaryan14/ChemicalApp/internal/logging"
	"github.com/satyamaryan14/ChemicalApp/internal/model"
	"github.com/satyamaryan14/ChemicalApp/internal/session"
	"github.com/satyamaryan14/ChemicalApp/internal/view"
)

// backend is a scripted REST backend recording calls per path
type backend struct {
	mu            sync.Mutex
	calls         map[string]int
	history       []map[string]any
	historyStatus int
}

func newBackend() *backend {
	return &backend{calls: make(map[string]int), historyStatus: http.StatusOK}
}

func (b *backend) count(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[path]
}

func (b *backend) total() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		n += c
	}
	return n
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.calls[r.URL.Path]++
	b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/api/login/":
		var req struct{ Username, Password string }
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Username != "alice" || req.Password != "pw" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "T1"})
	case "/api/history/":
		if r.Header.Get("Authorization") != "Bearer T1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		b.mu.Lock()
		status, hist := b.historyStatus, b.history
		b.mu.Unlock()
		w.WriteHeader(status)
		if status == http.StatusOK {
			_ = json.NewEncoder(w).Encode(hist)
		}
	case "/api/upload/":
		_, hdr, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"No file uploaded"}`))
			return
		}
		b.mu.Lock()
		b.history = append([]map[string]any{{
			"id":          len(b.history) + 1,
			"filename":    hdr.Filename,
			"uploaded_at": "2024-01-02",
		}}, b.history...)
		b.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"stats": map[string]any{
				"total_count":  4,
				"avg_pressure": 6.1,
				"avg_temp":     101.3,
				"chart_labels": []string{"Pump", "Valve"},
				"chart_data":   []int{3, 1},
			},
		})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type client struct {
	gw    *api.Client
	state *session.State
	store *session.Store
	hist  *history.Synchronizer
	orch  *Orchestrator
}

func newClient(t *testing.T, b *backend) *client {
	t.Helper()
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	gw := api.NewClient(srv.URL, api.WithLogger(logging.Discard()))
	state := session.NewState()
	store := session.NewStore(state, session.NewMemoryTokenStore(""), logging.Discard())
	hist := history.NewSynchronizer(gw, state, store, logging.Discard())
	return &client{
		gw:    gw,
		state: state,
		store: store,
		hist:  hist,
		orch:  NewOrchestrator(gw, state, hist, store, logging.Discard()),
	}
}

func TestScenarioLoginHistorySelect(t *testing.T) {
	b := newBackend()
	b.history = []map[string]any{{"id": 1, "filename": "batch1.csv", "uploaded_at": "2024-01-01"}}
	c := newClient(t, b)
	ctx := context.Background()

	cred, err := c.gw.Login(ctx, "alice", "pw")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if cred.Token != "T1" {
		t.Fatalf("token = %q, want T1", cred.Token)
	}
	c.store.Login(cred)

	if err := c.hist.Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	res, err := c.hist.Select(1)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	series := view.Project(&res)
	if series.Empty() {
		t.Fatal("expected non-empty series")
	}
	if len(series.Labels) != 5 {
		t.Errorf("labels = %v, want exactly 5", series.Labels)
	}
}

func TestScenarioEmptyUploadMakesNoNetworkCalls(t *testing.T) {
	b := newBackend()
	c := newClient(t, b)
	c.store.Login(model.Credential{Token: "T1"})

	_, err := c.orch.Upload(context.Background(), []byte{}, "")
	if !errors.Is(err, api.ErrInvalidInput) {
		t.Fatalf("Upload() error = %v, want ErrInvalidInput", err)
	}
	if n := b.total(); n != 0 {
		t.Errorf("network calls = %d, want 0", n)
	}
}

func TestScenarioUploadThenHistoryContainsFile(t *testing.T) {
	b := newBackend()
	c := newClient(t, b)
	c.store.Login(model.Credential{Token: "T1"})

	out, err := c.orch.Upload(context.Background(), []byte("Type,Pressure\nPump,6\n"), "batch7.csv")
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if out.HistoryErr != nil {
		t.Fatalf("history refresh failed: %v", out.HistoryErr)
	}

	snap := c.state.Snapshot()
	if snap.Latest == nil || snap.Latest.TotalCount != 4 || snap.Latest.AvgPressure != 6.1 {
		t.Errorf("latest = %+v, want server result", snap.Latest)
	}
	found := false
	for _, rec := range snap.History {
		if rec.Filename == "batch7.csv" {
			found = true
		}
	}
	if !found {
		t.Errorf("history %+v does not contain the uploaded file", snap.History)
	}
	if b.count("/api/history/") != 1 {
		t.Errorf("history calls = %d, want 1", b.count("/api/history/"))
	}
}

func TestScenarioHistory401LogsOut(t *testing.T) {
	b := newBackend()
	b.historyStatus = http.StatusUnauthorized
	c := newClient(t, b)
	c.store.Login(model.Credential{Token: "T1"})

	if err := c.hist.Refresh(context.Background()); !errors.Is(err, api.ErrUnauthenticated) {
		t.Fatalf("Refresh() error = %v, want ErrUnauthenticated", err)
	}
	if c.state.Snapshot().Authenticated {
		t.Fatal("expected logged-out state")
	}

	before := b.total()
	_, err := c.orch.Upload(context.Background(), []byte("Type\nPump\n"), "batch1.csv")
	if !errors.Is(err, api.ErrUnauthenticated) {
		t.Errorf("Upload() error = %v, want ErrUnauthenticated", err)
	}
	if b.total() != before {
		t.Errorf("upload after forced logout reached the network")
	}
}
