package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/satyamaryan14/ChemicalApp/internal/api"
	"github.com/satyamaryan14/ChemicalApp/internal/logging"
	"github.com/satyamaryan14/ChemicalApp/internal/model"
	"github.com/satyamaryan14/ChemicalApp/internal/session"
)

// ErrAlreadyInProgress rejects a second upload while one is in flight
var ErrAlreadyInProgress = errors.New("an upload is already in progress")

// Uploader is the slice of the gateway the orchestrator needs
type Uploader interface {
	UploadFile(ctx context.Context, cred model.Credential, data []byte, filename string) (model.AnalysisResult, error)
}

// Refresher reloads the upload history
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Invalidator drops the session after the server rejected its credential
type Invalidator interface {
	Invalidate(epoch uint64) bool
}

// Outcome is the result of a successful upload
type Outcome struct {
	Result model.AnalysisResult
	// HistoryErr is the follow-up history refresh failure, if any.
	// The upload itself still succeeded.
	HistoryErr error
	// Stale is set when the session changed while the upload was in
	// flight and the result was not applied.
	Stale bool
}

// Orchestrator drives pick file -> analyze -> refresh history.
// At most one upload is in flight; there is no queue.
type Orchestrator struct {
	gw       Uploader
	state    *session.State
	history  Refresher
	sessions Invalidator
	logger   *slog.Logger
}

// NewOrchestrator creates an upload orchestrator over state
func NewOrchestrator(gw Uploader, state *session.State, history Refresher, sessions Invalidator, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		gw:       gw,
		state:    state,
		history:  history,
		sessions: sessions,
		logger:   logging.OrDefault(logger),
	}
}

// Upload sends data for analysis. On success the result becomes the
// session's latest and the history is refreshed before returning; on
// failure latest is left exactly as it was.
func (o *Orchestrator) Upload(ctx context.Context, data []byte, filename string) (Outcome, error) {
	ticket, ok := o.state.BeginUpload()
	if !ok {
		return Outcome{}, ErrAlreadyInProgress
	}
	defer o.state.EndUpload(ticket)

	cred, epoch := o.state.Credential()
	o.logger.Info("upload started", "filename", filename, "bytes", len(data))

	result, err := o.gw.UploadFile(ctx, cred, data, filename)
	if err != nil {
		if api.IsUnauthenticated(err) && cred.Present() {
			o.sessions.Invalidate(epoch)
		}
		o.logger.Warn("upload failed", "filename", filename, "error", err)
		return Outcome{}, err
	}

	if !o.state.SetLatest(epoch, result) {
		o.logger.Info("discarding upload result for ended session", "filename", filename)
		return Outcome{Result: result, Stale: true}, nil
	}

	// Only after the upload resolved, so the new entry is visible server-side
	out := Outcome{Result: result}
	if err := o.history.Refresh(ctx); err != nil {
		out.HistoryErr = err
	}

	o.logger.Info("upload complete", "filename", filename, "total_count", result.TotalCount)
	return out, nil
}

// UploadPath reads the file at path and uploads it. File presence is the
// only client-side check.
func (o *Orchestrator) UploadPath(ctx context.Context, path string) (Outcome, error) {
	if path == "" {
		return Outcome{}, &api.Error{Op: "upload", Kind: api.ErrInvalidInput, Message: "no file selected"}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Outcome{}, &api.Error{Op: "upload", Kind: api.ErrInvalidInput, Message: "cannot read file", Err: fmt.Errorf("read %s: %w", path, err)}
	}
	return o.Upload(ctx, data, filepath.Base(path))
}
