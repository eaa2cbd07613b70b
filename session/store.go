package session

import (
	"context"
	"time"

	"github.com/tbxark/apptagent/types"
)

type sessionIDContext struct{}

const defaultSessionID = "default"

// WithSessionID sets the routing key for session storage in the context.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDContext{}, id)
}

// SessionIDFromContext gets the routing key from the context.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	value := ctx.Value(sessionIDContext{})
	if value == nil {
		return "", false
	}
	id, ok := value.(string)
	return id, ok
}

func sessionIDOrDefault(ctx context.Context) string {
	id, ok := SessionIDFromContext(ctx)
	if ok && id != "" {
		return id
	}
	return defaultSessionID
}

// Store provides read/write access to session state using the context for
// routing. Load never fails on a missing session; it returns a fresh idle
// state instead.
type Store interface {
	Load(ctx context.Context) (*State, error)
	Save(ctx context.Context, state *State) error
	Remove(ctx context.Context) error
}

// MemoryStore keeps states in a namespaced in-memory cache and bounds each
// transcript on save.
type MemoryStore struct {
	states  Namespaced[*State]
	trimmer Trimmer
	now     func() time.Time
}

type StoreOption func(*MemoryStore)

// WithTrimmer replaces the default last-N retention policy.
func WithTrimmer(t Trimmer) StoreOption {
	return func(s *MemoryStore) { s.trimmer = t }
}

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) StoreOption {
	return func(s *MemoryStore) { s.now = now }
}

func NewMemoryStore(opts ...StoreOption) *MemoryStore {
	keyFn := func(ctx context.Context) (string, bool) {
		return sessionIDOrDefault(ctx), true
	}
	s := &MemoryStore{
		states:  NewNamespaced(NewMemoryCache[*State](), "session:state", keyFn),
		trimmer: KeepLastN{N: DefaultHistoryLimit},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (m *MemoryStore) Load(ctx context.Context) (*State, error) {
	state, ok, err := m.states.Get(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		return state, nil
	}
	return NewState(sessionIDOrDefault(ctx), m.now()), nil
}

func (m *MemoryStore) Save(ctx context.Context, state *State) error {
	if state.Mode == "" {
		state.Mode = types.ModeIdle
	}
	if m.trimmer != nil {
		state.Turns = m.trimmer.Trim(state.Turns)
	}
	return m.states.Set(ctx, state)
}

func (m *MemoryStore) Remove(ctx context.Context) error {
	return m.states.Del(ctx)
}

var _ Store = (*MemoryStore)(nil)
