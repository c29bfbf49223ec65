package coordinator

import (
	"sync"

	"github.com/JovaniPink/mcp-browser-use/internal/domain/entity"
)

// RunState is the stop flag and last known-good snapshot shared between the
// coordinator, the engine and MCP handlers.
type RunState struct {
	mu             sync.Mutex
	stopRequested  bool
	lastValidState *entity.RunSnapshot
}

func NewRunState() *RunState {
	return &RunState{}
}

// ClearStop resets the flag and forgets the previous run's snapshot.
func (s *RunState) ClearStop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopRequested = false
	s.lastValidState = nil
}

func (s *RunState) RequestStop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopRequested = true
}

func (s *RunState) IsStopRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopRequested
}

func (s *RunState) SetLastValidState(snapshot entity.RunSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastValidState = &snapshot
}

func (s *RunState) LastValidState() (entity.RunSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastValidState == nil {
		return entity.RunSnapshot{}, false
	}
	return *s.lastValidState, true
}
