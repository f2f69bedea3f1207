package upload

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/satyamaryan14/ChemicalApp/internal/api"
	"github.com/satyamaryan14/ChemicalApp/internal/logging"
	"github.com/satyamaryan14/ChemicalApp/internal/model"
	"github.com/satyamaryan14/ChemicalApp/internal/session"
)

type fakeUploader struct {
	result model.AnalysisResult
	err    error
	calls  int
	// during runs while the upload is "in flight"
	during func()
}

func (f *fakeUploader) UploadFile(ctx context.Context, cred model.Credential, data []byte, filename string) (model.AnalysisResult, error) {
	f.calls++
	if f.during != nil {
		f.during()
	}
	return f.result, f.err
}

type fakeRefresher struct {
	err   error
	calls int
	// busyDuring records whether the state was still busy when refreshing
	busyDuring bool
	state      *session.State
}

func (f *fakeRefresher) Refresh(ctx context.Context) error {
	f.calls++
	if f.state != nil {
		f.busyDuring = f.state.Busy()
	}
	return f.err
}

type fixture struct {
	state   *session.State
	store   *session.Store
	gw      *fakeUploader
	refresh *fakeRefresher
	orch    *Orchestrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	state := session.NewState()
	store := session.NewStore(state, session.NewMemoryTokenStore(""), logging.Discard())
	store.Login(model.Credential{Token: "T1"})
	gw := &fakeUploader{}
	ref := &fakeRefresher{state: state}
	return &fixture{
		state:   state,
		store:   store,
		gw:      gw,
		refresh: ref,
		orch:    NewOrchestrator(gw, state, ref, store, logging.Discard()),
	}
}

func sampleResult() model.AnalysisResult {
	return model.AnalysisResult{
		TotalCount:     3,
		AvgPressure:    5.5,
		AvgTemperature: 110.25,
		TypeDistribution: []model.CategoryCount{
			{Label: "Pump", Count: 2},
			{Label: "Valve", Count: 1},
		},
		Source:   model.SourceUpload,
		Filename: "batch1.csv",
	}
}

func TestUploadSuccessSetsLatestThenRefreshes(t *testing.T) {
	f := newFixture(t)
	f.gw.result = sampleResult()

	out, err := f.orch.Upload(context.Background(), []byte("Type\nPump\n"), "batch1.csv")
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if out.HistoryErr != nil || out.Stale {
		t.Errorf("unexpected outcome %+v", out)
	}
	if !reflect.DeepEqual(*f.state.Latest(), f.gw.result) {
		t.Errorf("latest = %+v, want %+v", f.state.Latest(), f.gw.result)
	}
	if f.refresh.calls != 1 {
		t.Errorf("refresh calls = %d, want 1", f.refresh.calls)
	}
	if !f.refresh.busyDuring {
		t.Errorf("history refresh should run inside the upload sequence")
	}
	if f.state.Busy() {
		t.Errorf("expected idle after upload")
	}
}

func TestUploadFailureLeavesLatestUnchanged(t *testing.T) {
	for _, kind := range []error{api.ErrUnreachable, api.ErrUploadRejected} {
		t.Run(kind.Error(), func(t *testing.T) {
			f := newFixture(t)
			f.gw.result = sampleResult()
			if _, err := f.orch.Upload(context.Background(), []byte("x"), "first.csv"); err != nil {
				t.Fatal(err)
			}
			before := f.state.Latest()

			f.gw.result = model.AnalysisResult{TotalCount: 999}
			f.gw.err = &api.Error{Op: "upload", Kind: kind}
			_, err := f.orch.Upload(context.Background(), []byte("x"), "second.csv")
			if !errors.Is(err, kind) {
				t.Fatalf("Upload() error = %v, want %v", err, kind)
			}
			if !reflect.DeepEqual(f.state.Latest(), before) {
				t.Errorf("latest changed after failed upload: %+v", f.state.Latest())
			}
			if f.refresh.calls != 1 {
				t.Errorf("failed upload must not refresh history (calls = %d)", f.refresh.calls)
			}
			if f.state.Busy() {
				t.Errorf("expected idle after failure")
			}
			if !f.state.Snapshot().Authenticated {
				t.Errorf("%v must not log out", kind)
			}
		})
	}
}

func TestUploadRejectsConcurrentRequest(t *testing.T) {
	f := newFixture(t)
	f.gw.result = sampleResult()

	var nestedErr error
	f.gw.during = func() {
		_, nestedErr = f.orch.Upload(context.Background(), []byte("y"), "dup.csv")
	}

	if _, err := f.orch.Upload(context.Background(), []byte("x"), "batch1.csv"); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if !errors.Is(nestedErr, ErrAlreadyInProgress) {
		t.Errorf("nested Upload() error = %v, want ErrAlreadyInProgress", nestedErr)
	}
	if f.gw.calls != 1 {
		t.Errorf("gateway calls = %d, want 1 (no queuing)", f.gw.calls)
	}
}

func TestUploadUnauthenticatedForcesLogout(t *testing.T) {
	f := newFixture(t)
	f.gw.err = &api.Error{Op: "upload", Kind: api.ErrUnauthenticated, Status: 401}

	_, err := f.orch.Upload(context.Background(), []byte("x"), "batch1.csv")
	if !errors.Is(err, api.ErrUnauthenticated) {
		t.Fatalf("Upload() error = %v", err)
	}
	if f.state.Snapshot().Authenticated {
		t.Errorf("expected forced logout")
	}
}

func TestUploadResultDiscardedAfterLogout(t *testing.T) {
	f := newFixture(t)
	f.gw.result = sampleResult()
	f.gw.during = f.store.Logout

	out, err := f.orch.Upload(context.Background(), []byte("x"), "batch1.csv")
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if !out.Stale {
		t.Errorf("expected stale outcome")
	}
	if f.state.Latest() != nil {
		t.Errorf("result applied to ended session")
	}
	if f.refresh.calls != 0 {
		t.Errorf("stale upload must not refresh history")
	}
}

func TestUploadReportsHistoryError(t *testing.T) {
	f := newFixture(t)
	f.gw.result = sampleResult()
	f.refresh.err = &api.Error{Op: "history", Kind: api.ErrUnreachable}

	out, err := f.orch.Upload(context.Background(), []byte("x"), "batch1.csv")
	if err != nil {
		t.Fatalf("Upload() error = %v, the upload itself succeeded", err)
	}
	if !errors.Is(out.HistoryErr, api.ErrUnreachable) {
		t.Errorf("HistoryErr = %v", out.HistoryErr)
	}
	if f.state.Latest() == nil {
		t.Errorf("latest should be set despite history failure")
	}
}

func TestUploadPath(t *testing.T) {
	f := newFixture(t)
	f.gw.result = sampleResult()

	path := filepath.Join(t.TempDir(), "batch1.csv")
	if err := os.WriteFile(path, []byte("Type\nPump\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := f.orch.UploadPath(context.Background(), path); err != nil {
		t.Fatalf("UploadPath() error = %v", err)
	}

	for _, bad := range []string{"", filepath.Join(t.TempDir(), "missing.csv")} {
		_, err := f.orch.UploadPath(context.Background(), bad)
		if !errors.Is(err, api.ErrInvalidInput) {
			t.Errorf("UploadPath(%q) error = %v, want ErrInvalidInput", bad, err)
		}
	}
	if f.gw.calls != 1 {
		t.Errorf("gateway calls = %d, want 1", f.gw.calls)
	}
}
