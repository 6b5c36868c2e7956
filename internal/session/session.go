// Package session holds the ephemeral per-tab run state: uploaded artifacts,
// streamed results, and progress flags. Nothing here survives the process.
package session

import (
	"sync"

	"golang.org/x/sync/semaphore"

	"server/internal/domain"
)

// Session accumulates one user's uploads and generation results. The result
// list is append-only during a run and replaced wholesale when a new run
// starts; artifacts are replaced wholesale on re-upload.
type Session struct {
	ID string

	mu        sync.Mutex
	runGate   *semaphore.Weighted
	model     *domain.Artifact
	doll      *domain.Artifact
	results   []*domain.Artifact
	completed int
	running   bool
	errMsg    string
}

func newSession(id string) *Session {
	return &Session{ID: id, runGate: semaphore.NewWeighted(1)}
}

// SetArtifact stores a freshly normalized upload into its slot.
func (s *Session) SetArtifact(slot domain.Slot, a *domain.Artifact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch slot {
	case domain.SlotModel:
		s.model = a
	case domain.SlotDoll:
		s.doll = a
	}
}

// Artifacts returns the current model and doll uploads, either may be nil.
func (s *Session) Artifacts() (*domain.Artifact, *domain.Artifact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model, s.doll
}

// BeginRun acquires the single-run gate and resets the prior run's results
// and error. It fails with ErrRunInProgress while a run is in flight, which
// enforces single-run-at-a-time at the orchestrator boundary rather than
// trusting the UI's disabled button.
func (s *Session) BeginRun() error {
	if !s.runGate.TryAcquire(1) {
		return domain.ErrRunInProgress
	}
	s.mu.Lock()
	s.results = nil
	s.completed = 0
	s.errMsg = ""
	s.running = true
	s.mu.Unlock()
	return nil
}

// AppendResult records one streamed composite. Appends only ever happen from
// the single sequential callback path of the run holding the gate.
func (s *Session) AppendResult(a *domain.Artifact) {
	s.mu.Lock()
	s.results = append(s.results, a)
	s.completed++
	s.mu.Unlock()
}

// FinishRun releases the gate and clears the loading flag and progress
// counter. Partial results are retained; errMsg is empty on success.
func (s *Session) FinishRun(errMsg string) {
	s.mu.Lock()
	s.running = false
	s.completed = 0
	s.errMsg = errMsg
	s.mu.Unlock()
	s.runGate.Release(1)
}

// Snapshot is a read-only view for the status endpoint.
type Snapshot struct {
	Images    []string
	Completed int
	Running   bool
	Error     string
	HasModel  bool
	HasDoll   bool
}

// Snapshot copies the current state for presentation.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	images := make([]string, len(s.results))
	for i, r := range s.results {
		images[i] = r.DataURL
	}
	return Snapshot{
		Images:    images,
		Completed: s.completed,
		Running:   s.running,
		Error:     s.errMsg,
		HasModel:  s.model != nil,
		HasDoll:   s.doll != nil,
	}
}

// Results returns a copy of the accumulated result list.
func (s *Session) Results() []*domain.Artifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Artifact, len(s.results))
	copy(out, s.results)
	return out
}

// ResultAt returns the result at the zero-based index.
func (s *Session) ResultAt(index int) (*domain.Artifact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.results) {
		return nil, false
	}
	return s.results[index], true
}
