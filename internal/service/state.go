package service

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/kjstillabower/weather-dashboard/internal/location"
	"github.com/kjstillabower/weather-dashboard/internal/models"
	"github.com/kjstillabower/weather-dashboard/internal/observability"
	"github.com/kjstillabower/weather-dashboard/internal/theme"
)

// State is an immutable copy of the dashboard's application state.
type State struct {
	Report      *models.Report      `json:"report"`
	Hints       *theme.Hints        `json:"hints,omitempty"`
	Loading     bool                `json:"loading"`
	Error       string              `json:"error,omitempty"`
	Permission  location.Permission `json:"permission"`
	Placeholder bool                `json:"placeholder"`
	Location    string              `json:"location,omitempty"`
	Source      location.Source     `json:"source,omitempty"`
	Sequence    uint64              `json:"sequence"`
	CycleID     string              `json:"cycleId,omitempty"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// cycle identifies one fetch cycle. Sequence numbers increase strictly in Begin order.
type cycle struct {
	seq uint64
	id  string
}

// Store owns the application state. Every outcome is applied atomically, and an
// outcome from a cycle older than the last applied one is dropped.
type Store struct {
	mu            sync.Mutex
	state         State
	nextSeq       uint64
	appliedSeq    uint64
	permissionSeq uint64
	inFlight      int
	entropy    io.Reader
	now        func() time.Time
}

func NewStore() *Store {
	return &Store{
		state:   State{Permission: location.PermissionPending},
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

// Snapshot returns a copy of the current state. Report and Hints point at values
// that are never mutated after commit.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetPermission records the device-geolocation permission state reported during
// c's resolution. It reports false, leaving the state alone, when a newer cycle has
// already set the permission or applied an outcome.
func (s *Store) SetPermission(c cycle, p location.Permission) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.seq < s.appliedSeq || c.seq < s.permissionSeq {
		return false
	}
	s.permissionSeq = c.seq
	s.state.Permission = p
	return true
}

// Begin starts a cycle and marks the dashboard as loading.
func (s *Store) Begin() cycle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSeq++
	s.inFlight++
	s.state.Loading = true
	now := s.now()
	id, err := ulid.New(ulid.Timestamp(now), s.entropy)
	if err != nil {
		// Monotonic entropy overflowed within one millisecond; fall back to a fresh reader.
		id = ulid.MustNew(ulid.Timestamp(now), rand.Reader)
	}
	return cycle{seq: s.nextSeq, id: id.String()}
}

// Commit installs report as the new snapshot. It reports false when c is stale.
func (s *Store) Commit(c cycle, report models.Report, res *location.Resolution) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.finish(c) {
		return false
	}
	hints := theme.HintsFor(report)
	s.state.Report = &report
	s.state.Hints = &hints
	s.state.Error = ""
	s.state.Placeholder = false
	s.state.Location = report.Query
	s.applyResolution(res)
	s.stamp(c)
	return true
}

// Fail records the user-facing message for err on c. The current report is kept;
// when there is none yet the placeholder report is installed so the dashboard stays
// populated. It reports false when c is stale.
func (s *Store) Fail(c cycle, err error, query string, res *location.Resolution) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.finish(c) {
		return false
	}
	hasReport := s.state.Report != nil && !s.state.Placeholder
	s.state.Error = failureMessage(err, res != nil, hasReport)
	s.state.Location = query
	s.applyResolution(res)
	if s.state.Report == nil || s.state.Placeholder {
		placeholder := models.PlaceholderReport()
		hints := theme.HintsFor(placeholder)
		s.state.Report = &placeholder
		s.state.Hints = &hints
		s.state.Placeholder = true
	}
	s.stamp(c)
	return true
}

// finish ends c's in-flight accounting and decides whether its outcome applies.
// Caller holds mu.
func (s *Store) finish(c cycle) bool {
	s.inFlight--
	s.state.Loading = s.inFlight > 0
	if c.seq < s.appliedSeq {
		observability.StaleCyclesDiscardedTotal.Inc()
		return false
	}
	s.appliedSeq = c.seq
	return true
}

func (s *Store) applyResolution(res *location.Resolution) {
	if res == nil {
		s.state.Source = ""
		return
	}
	s.state.Source = res.Source
	s.state.Permission = res.Permission
}

func (s *Store) stamp(c cycle) {
	s.state.Sequence = c.seq
	s.state.CycleID = c.id
	s.state.UpdatedAt = s.now()
}
