package companion

import (
	"sync"

	"github.com/stretchr/testify/mock"

	"kokoro/pkg/persona"
)

// MockStore is a testify mock of memory.Store.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) LoadState(identity string) (*persona.CompanionState, error) {
	args := m.Called(identity)
	if s, ok := args.Get(0).(*persona.CompanionState); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) SaveState(identity string, state persona.CompanionState) error {
	return m.Called(identity, state).Error(0)
}

func (m *MockStore) AppendMemory(identity string, mem persona.InteractionMemory) error {
	return m.Called(identity, mem).Error(0)
}

func (m *MockStore) GetMemories(identity string, limit int) ([]persona.InteractionMemory, error) {
	args := m.Called(identity, limit)
	if mems, ok := args.Get(0).([]persona.InteractionMemory); ok {
		return mems, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) DeleteState(identity string) error {
	return m.Called(identity).Error(0)
}

func (m *MockStore) ListIdentities() ([]string, error) {
	args := m.Called()
	if ids, ok := args.Get(0).([]string); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

type recordedOp struct {
	op       string
	identity string
	state    persona.CompanionState
	memory   persona.InteractionMemory
}

// recordingStore keeps every call in order and serves saved states back.
type recordingStore struct {
	mu      sync.Mutex
	ops     []recordedOp
	states  map[string]persona.CompanionState
	block   chan struct{}
	entered chan struct{}
}

func newRecordingStore() *recordingStore {
	return &recordingStore{states: map[string]persona.CompanionState{}}
}

func (s *recordingStore) wait() {
	if s.block == nil {
		return
	}
	select {
	case s.entered <- struct{}{}:
	default:
	}
	<-s.block
}

func (s *recordingStore) LoadState(identity string) (*persona.CompanionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.states[identity]; ok {
		c := st.Clone()
		return &c, nil
	}
	return nil, nil
}

func (s *recordingStore) SaveState(identity string, state persona.CompanionState) error {
	s.wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, recordedOp{op: opSave, identity: identity, state: state})
	s.states[identity] = state
	return nil
}

func (s *recordingStore) AppendMemory(identity string, m persona.InteractionMemory) error {
	s.wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, recordedOp{op: opAppend, identity: identity, memory: m})
	return nil
}

func (s *recordingStore) GetMemories(identity string, limit int) ([]persona.InteractionMemory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []persona.InteractionMemory
	for i := len(s.ops) - 1; i >= 0; i-- {
		if s.ops[i].op == opAppend && s.ops[i].identity == identity {
			out = append(out, s.ops[i].memory)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *recordingStore) DeleteState(identity string) error {
	s.wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, recordedOp{op: opDelete, identity: identity})
	delete(s.states, identity)
	return nil
}

func (s *recordingStore) ListIdentities() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.states))
	for id := range s.states {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *recordingStore) opsFor(identity, op string) []recordedOp {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []recordedOp
	for _, o := range s.ops {
		if o.identity == identity && (op == "" || o.op == op) {
			out = append(out, o)
		}
	}
	return out
}
