package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/satyamaryan14/ChemicalApp/internal/api"
	"github.com/satyamaryan14/ChemicalApp/internal/logging"
	"github.com/satyamaryan14/ChemicalApp/internal/model"
	"github.com/satyamaryan14/ChemicalApp/internal/session"
)

// ErrUnknownRecord is returned by Select for ids not in the cached history
var ErrUnknownRecord = errors.New("upload record not in history")

// Lister is the slice of the gateway the synchronizer needs
type Lister interface {
	ListHistory(ctx context.Context, cred model.Credential) ([]model.UploadRecord, error)
}

// Invalidator drops the session after the server rejected its credential
type Invalidator interface {
	Invalidate(epoch uint64) bool
}

// Synchronizer is the single source of truth for which uploads exist
type Synchronizer struct {
	gw       Lister
	state    *session.State
	sessions Invalidator
	logger   *slog.Logger
}

// NewSynchronizer creates a history synchronizer over state
func NewSynchronizer(gw Lister, state *session.State, sessions Invalidator, logger *slog.Logger) *Synchronizer {
	return &Synchronizer{gw: gw, state: state, sessions: sessions, logger: logging.OrDefault(logger)}
}

// Refresh fetches the history and replaces the cache wholesale. On failure
// the cached history is left untouched. A response arriving after the
// credential changed is discarded.
func (s *Synchronizer) Refresh(ctx context.Context) error {
	cred, epoch := s.state.Credential()
	if !cred.Present() {
		return &api.Error{Op: "history", Kind: api.ErrUnauthenticated}
	}

	records, err := s.gw.ListHistory(ctx, cred)
	if err != nil {
		if api.IsUnauthenticated(err) {
			s.sessions.Invalidate(epoch)
		}
		s.logger.Warn("history refresh failed", "error", err)
		return fmt.Errorf("refresh history: %w", err)
	}

	if !s.state.ReplaceHistory(epoch, records) {
		s.logger.Debug("discarding stale history response", "epoch", epoch)
		return nil
	}
	s.logger.Debug("history refreshed", "records", len(records))
	return nil
}

// Select returns the display result for a cached history record without
// any network call
func (s *Synchronizer) Select(id int64) (model.AnalysisResult, error) {
	for _, rec := range s.state.History() {
		if rec.ID == id {
			return Reconstruct(rec), nil
		}
	}
	return model.AnalysisResult{}, fmt.Errorf("%w: id %d", ErrUnknownRecord, id)
}
