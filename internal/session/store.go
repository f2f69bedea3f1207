package session

import (
	"log/slog"

	"github.com/satyamaryan14/ChemicalApp/internal/logging"
	"github.com/satyamaryan14/ChemicalApp/internal/model"
)

// Store owns the credential: it keeps State and the TokenStore in step.
// Persistence failures are logged and never surfaced; the session stays
// usable for the lifetime of the process.
type Store struct {
	state  *State
	tokens TokenStore
	logger *slog.Logger
}

// NewStore creates a session store writing credentials into state
func NewStore(state *State, tokens TokenStore, logger *slog.Logger) *Store {
	return &Store{state: state, tokens: tokens, logger: logging.OrDefault(logger)}
}

// Login replaces any current credential with cred, in memory and on disk.
// An absent credential is treated as Logout.
func (s *Store) Login(cred model.Credential) {
	if !cred.Present() {
		s.Logout()
		return
	}

	s.state.mu.Lock()
	if err := s.tokens.Save(cred.Token); err != nil {
		s.logger.Warn("failed to persist session token", "error", err)
	}
	s.state.setCredentialLocked(cred)
	epoch := s.state.epoch
	s.state.mu.Unlock()

	s.logger.Info("session started", "epoch", epoch)
	s.state.notify()
}

// Logout clears the credential from memory and storage. Idempotent.
func (s *Store) Logout() {
	s.state.mu.Lock()
	s.clearLocked()
	s.state.mu.Unlock()

	s.logger.Info("session ended")
	s.state.notify()
}

// Restore loads a persisted credential at startup and installs it.
// It never touches the network; the caller schedules the history refresh.
func (s *Store) Restore() model.Credential {
	token, err := s.tokens.Load()
	if err != nil {
		s.logger.Warn("failed to read persisted session token", "error", err)
		return model.Credential{}
	}
	if token == "" {
		return model.Credential{}
	}

	cred := model.Credential{Token: token}
	s.state.mu.Lock()
	s.state.setCredentialLocked(cred)
	s.state.mu.Unlock()

	s.logger.Info("session restored")
	s.state.notify()
	return cred
}

// Invalidate is the forced logout after the server rejected the credential.
// It only applies while epoch is still the active credential, so a late 401
// for an old token cannot end a newer session.
func (s *Store) Invalidate(epoch uint64) bool {
	s.state.mu.Lock()
	if !s.state.cred.Present() || s.state.epoch != epoch {
		s.state.mu.Unlock()
		return false
	}
	s.clearLocked()
	s.state.mu.Unlock()

	s.logger.Warn("session invalidated by server", "epoch", epoch)
	s.state.notify()
	return true
}

// clearLocked wipes storage then memory. Caller holds s.state.mu, so no
// reader can observe the two disagreeing.
func (s *Store) clearLocked() {
	if err := s.tokens.Clear(); err != nil {
		s.logger.Warn("failed to clear persisted session token", "error", err)
	}
	s.state.setCredentialLocked(model.Credential{})
}
