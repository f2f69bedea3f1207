package session

import (
	"sync"

	"github.com/satyamaryan14/ChemicalApp/internal/model"
)

// Snapshot is a consistent, caller-owned copy of the session state
type Snapshot struct {
	Authenticated bool
	Epoch         uint64 // changes whenever the credential changes
	History       []model.UploadRecord
	Latest        *model.AnalysisResult
	Busy          bool
	Version       uint64 // increments on every transition
}

// State is the single owned container for the client session. Each field
// has exactly one writer:
//
//	credential, epoch  Store (Login, Logout, Restore, Invalidate)
//	history            history.Synchronizer via ReplaceHistory
//	latest             upload.Orchestrator via SetLatest
//	busy               upload.Orchestrator via BeginUpload / EndUpload
//
// Reads are unrestricted. Results computed under an older credential epoch
// are discarded by the mutators.
type State struct {
	mu      sync.RWMutex
	cred    model.Credential
	epoch   uint64
	history []model.UploadRecord
	latest  *model.AnalysisResult
	busy    bool
	ticket  uint64 // identifies the in-flight upload
	version uint64

	subMu   sync.Mutex
	subs    map[int]chan struct{}
	nextSub int
}

// NewState returns an empty, logged-out state
func NewState() *State {
	return &State{subs: make(map[int]chan struct{})}
}

// Credential returns the active credential and its epoch
func (s *State) Credential() (model.Credential, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred, s.epoch
}

// IsCurrent reports whether epoch still identifies the active credential
func (s *State) IsCurrent(epoch uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred.Present() && s.epoch == epoch
}

// History returns a copy of the cached upload history
func (s *State) History() []model.UploadRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.UploadRecord(nil), s.history...)
}

// Latest returns a copy of the latest upload result, or nil
func (s *State) Latest() *model.AnalysisResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneResult(s.latest)
}

// Busy reports whether an upload is in flight
func (s *State) Busy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.busy
}

// Snapshot returns a copy of the whole state
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Authenticated: s.cred.Present(),
		Epoch:         s.epoch,
		History:       append([]model.UploadRecord(nil), s.history...),
		Latest:        cloneResult(s.latest),
		Busy:          s.busy,
		Version:       s.version,
	}
}

// ReplaceHistory swaps the cached history wholesale. It is a no-op returning
// false when epoch is no longer the active credential.
func (s *State) ReplaceHistory(epoch uint64, records []model.UploadRecord) bool {
	s.mu.Lock()
	if !s.cred.Present() || s.epoch != epoch {
		s.mu.Unlock()
		return false
	}
	s.history = append([]model.UploadRecord(nil), records...)
	s.version++
	s.mu.Unlock()

	s.notify()
	return true
}

// SetLatest records a successful upload result. It is a no-op returning
// false when epoch is no longer the active credential.
func (s *State) SetLatest(epoch uint64, result model.AnalysisResult) bool {
	s.mu.Lock()
	if !s.cred.Present() || s.epoch != epoch {
		s.mu.Unlock()
		return false
	}
	s.latest = cloneResult(&result)
	s.version++
	s.mu.Unlock()

	s.notify()
	return true
}

// BeginUpload moves Idle -> Busy. ok is false when an upload is already in
// flight. The ticket must be handed back to EndUpload.
func (s *State) BeginUpload() (ticket uint64, ok bool) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return 0, false
	}
	s.busy = true
	s.ticket++
	ticket = s.ticket
	s.version++
	s.mu.Unlock()

	s.notify()
	return ticket, true
}

// EndUpload moves Busy -> Idle for the upload identified by ticket.
// A ticket invalidated by logout is ignored.
func (s *State) EndUpload(ticket uint64) {
	s.mu.Lock()
	if !s.busy || s.ticket != ticket {
		s.mu.Unlock()
		return
	}
	s.busy = false
	s.version++
	s.mu.Unlock()

	s.notify()
}

// Subscribe registers an observer. The returned channel receives a value
// whenever the state changed since the last receive; notifications are
// coalesced, so observers should read Snapshot after each one.
func (s *State) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
	return ch, cancel
}

func (s *State) notify() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
			// already pending
		}
	}
}

// setCredentialLocked installs cred as the only credential and resets the
// per-session data. Caller holds s.mu.
func (s *State) setCredentialLocked(cred model.Credential) {
	s.cred = cred
	s.epoch++
	s.history = nil
	s.latest = nil
	s.busy = false
	s.version++
}

func cloneResult(r *model.AnalysisResult) *model.AnalysisResult {
	if r == nil {
		return nil
	}
	c := r.Clone()
	return &c
}
