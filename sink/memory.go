package sink

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tbxark/apptagent/patch"
)

// Memory keeps appointments in an in-process map. It backs tests, the REPL,
// and deployments that post bookings elsewhere and keep no local store.
type Memory struct {
	mu           sync.RWMutex
	appointments map[string]*Appointment
	order        []string
}

func NewMemory() *Memory {
	return &Memory{appointments: make(map[string]*Appointment)}
}

func (m *Memory) Store(ctx context.Context, appt *Appointment) error {
	if appt != nil && appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	if err := validateStored(appt); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.appointments[appt.ID]; !exists {
		m.order = append(m.order, appt.ID)
	}
	saved := *appt
	m.appointments[appt.ID] = &saved
	slog.Info("appointment stored", "id", appt.ID, "date", appt.Date)
	return nil
}

func (m *Memory) Get(ctx context.Context, id string) (*Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	appt, ok := m.appointments[id]
	if !ok {
		return nil, nil
	}
	out := *appt
	return &out, nil
}

// List returns all appointments ordered by call date, then creation time,
// matching the SQLite store.
func (m *Memory) List(ctx context.Context) ([]*Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Appointment, 0, len(m.order))
	for _, id := range m.order {
		appt := *m.appointments[id]
		out = append(out, &appt)
	}
	sortByDate(out)
	return out, nil
}

func (m *Memory) Search(ctx context.Context, query string) ([]*Appointment, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return m.List(ctx)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Appointment
	for _, id := range m.order {
		appt := m.appointments[id]
		if matchesQuery(appt, q) {
			copied := *appt
			out = append(out, &copied)
		}
	}
	sortByDate(out)
	return out, nil
}

func (m *Memory) Amend(ctx context.Context, id string, ops []patch.Operation) (*Appointment, error) {
	if err := patch.ValidateOperations(ops, AmendablePaths()); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}

	amended, err := patch.Apply(*current, ops)
	if err != nil {
		return nil, err
	}
	amended.ID = current.ID
	amended.SessionID = current.SessionID
	amended.CreatedAt = current.CreatedAt
	if err := normalizeAmended(&amended); err != nil {
		return nil, err
	}
	amended.UpdatedAt = time.Now()

	m.appointments[id] = &amended
	slog.Info("appointment amended", "id", id, "ops", len(ops))
	out := amended
	return &out, nil
}

func (m *Memory) Close() error {
	return nil
}

func matchesQuery(appt *Appointment, q string) bool {
	for _, field := range []string{appt.Name, appt.Email, appt.Phone, appt.Date} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

func sortByDate(appts []*Appointment) {
	sort.SliceStable(appts, func(a, b int) bool {
		if appts[a].Date != appts[b].Date {
			return appts[a].Date < appts[b].Date
		}
		return appts[a].CreatedAt.Before(appts[b].CreatedAt)
	})
}

var _ Store = (*Memory)(nil)
