package appointment

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Observer is invoked after every state change of a Store.
type Observer func()

// NewAppointment is the booking request payload.
type NewAppointment struct {
	PatientName   string `json:"patient_name"`
	MedicalNumber string `json:"medical_number"`
	Specialty     string `json:"specialty"`
	Type          Type   `json:"type"`
	Notes         string `json:"notes,omitempty"`
}

func (req *NewAppointment) validate() error {
	var missing []string
	if strings.TrimSpace(req.PatientName) == "" {
		missing = append(missing, "patient_name")
	}
	if strings.TrimSpace(req.MedicalNumber) == "" {
		missing = append(missing, "medical_number")
	}
	if strings.TrimSpace(req.Specialty) == "" {
		missing = append(missing, "specialty")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	if !req.Type.Valid() {
		return fmt.Errorf("invalid appointment type %q", req.Type)
	}
	return nil
}

// Store holds the in-memory appointment collection together with
// loading and error state. All methods are safe for concurrent use.
type Store struct {
	repo   Repository
	logger zerolog.Logger
	now    func() time.Time

	mu           sync.Mutex
	appointments []*Appointment
	loading      bool
	lastErr      string
	fetchSeq     uint64
	observers    map[int]Observer
	nextObs      int
}

func NewStore(repo Repository, logger zerolog.Logger) *Store {
	return &Store{
		repo:      repo,
		logger:    logger.With().Str("store", "appointment").Logger(),
		now:       time.Now,
		observers: make(map[int]Observer),
	}
}

// Subscribe registers an observer and returns its unsubscribe function.
func (s *Store) Subscribe(fn Observer) func() {
	s.mu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify() {
	s.mu.Lock()
	obs := make([]Observer, 0, len(s.observers))
	for _, fn := range s.observers {
		obs = append(obs, fn)
	}
	s.mu.Unlock()
	for _, fn := range obs {
		fn()
	}
}

// Appointments returns a snapshot of the collection.
func (s *Store) Appointments() []*Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Appointment, len(s.appointments))
	copy(out, s.appointments)
	return out
}

func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// FetchAll reloads the collection. Failures are recorded in the error
// state and the previous collection is kept. Overlapping fetches keep
// only the most recently issued result.
func (s *Store) FetchAll(ctx context.Context) {
	s.mu.Lock()
	s.fetchSeq++
	seq := s.fetchSeq
	s.loading = true
	s.lastErr = ""
	s.mu.Unlock()
	s.notify()

	appts, err := s.repo.List(ctx)

	s.mu.Lock()
	if seq != s.fetchSeq {
		s.mu.Unlock()
		return
	}
	s.loading = false
	if err != nil {
		s.lastErr = err.Error()
		s.logger.Error().Err(err).Msg("fetch appointments failed")
	} else {
		s.appointments = appts
	}
	s.mu.Unlock()
	s.notify()
}

// Add books a new appointment request with pending status.
func (s *Store) Add(ctx context.Context, req NewAppointment) (*Appointment, error) {
	if err := req.validate(); err != nil {
		return nil, s.fail("add", err)
	}
	a := &Appointment{
		PatientName:   req.PatientName,
		MedicalNumber: req.MedicalNumber,
		Specialty:     req.Specialty,
		Type:          req.Type,
		Status:        StatusPending,
		Notes:         req.Notes,
	}
	if err := s.repo.Insert(ctx, a); err != nil {
		return nil, s.fail("add", err)
	}
	s.logger.Info().Str("specialty", req.Specialty).Msg("appointment booked")
	s.FetchAll(ctx)
	return a, nil
}

// Update applies partial changes and merges the result into the
// collection in place.
func (s *Store) Update(ctx context.Context, id uuid.UUID, upd Update) (*Appointment, error) {
	if upd.Status != nil && !upd.Status.Valid() {
		return nil, s.fail("update", fmt.Errorf("invalid status %q", *upd.Status))
	}
	a, err := s.repo.Update(ctx, id, upd)
	if err != nil {
		return nil, s.fail("update", err)
	}

	s.mu.Lock()
	for i, existing := range s.appointments {
		if existing.ID == id {
			s.appointments[i] = a
			break
		}
	}
	s.lastErr = ""
	s.mu.Unlock()
	s.notify()
	return a, nil
}

// Remove deletes a single appointment.
func (s *Store) Remove(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.fail("remove", err)
	}
	s.mu.Lock()
	for i, a := range s.appointments {
		if a.ID == id {
			s.appointments = append(s.appointments[:i], s.appointments[i+1:]...)
			break
		}
	}
	s.lastErr = ""
	s.mu.Unlock()
	s.notify()
	return nil
}

// RemoveExpired purges appointments older than the retention window and
// reloads the collection.
func (s *Store) RemoveExpired(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-Retention)
	n, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, s.fail("purge", err)
	}
	if n > 0 {
		s.logger.Info().Int64("purged", n).Time("cutoff", cutoff).Msg("expired appointments removed")
	}
	s.FetchAll(ctx)
	return n, nil
}

func (s *Store) fail(op string, err error) error {
	s.mu.Lock()
	s.lastErr = err.Error()
	s.mu.Unlock()
	s.logger.Error().Err(err).Str("op", op).Msg("appointment store operation failed")
	s.notify()
	return err
}
