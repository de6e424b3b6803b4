package consultation

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

// PatientDirectory resolves an MRN to a patient id, creating the record
// when it does not exist yet.
type PatientDirectory interface {
	EnsurePatient(ctx context.Context, mrn, name, gender string, dateOfBirth time.Time) (uuid.UUID, error)
}

// NewRequest is the intake payload for a consultation.
type NewRequest struct {
	MRN                  string     `json:"mrn"`
	PatientName          string     `json:"patient_name"`
	Age                  int        `json:"age"`
	Gender               string     `json:"gender"`
	RequestingDepartment string     `json:"requesting_department"`
	PatientLocation      string     `json:"patient_location"`
	Specialty            string     `json:"specialty"`
	ShiftType            ShiftType  `json:"shift_type"`
	Urgency              Urgency    `json:"urgency"`
	Reason               string     `json:"reason"`
	DoctorID             *uuid.UUID `json:"doctor_id,omitempty"`
}

func (req *NewRequest) validate() error {
	var missing []string
	if strings.TrimSpace(req.MRN) == "" {
		missing = append(missing, "mrn")
	}
	if strings.TrimSpace(req.PatientName) == "" {
		missing = append(missing, "patient_name")
	}
	if strings.TrimSpace(req.Specialty) == "" {
		missing = append(missing, "specialty")
	}
	if strings.TrimSpace(req.Reason) == "" {
		missing = append(missing, "reason")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	if req.Age <= 0 {
		return fmt.Errorf("age must be positive, got %d", req.Age)
	}
	if !req.Urgency.Valid() {
		return fmt.Errorf("invalid urgency %q", req.Urgency)
	}
	if !req.ShiftType.Valid() {
		return fmt.Errorf("invalid shift type %q", req.ShiftType)
	}
	return nil
}

// Store holds the in-memory consultation collection together with
// loading and error state. All methods are safe for concurrent use.
type Store struct {
	repo     Repository
	patients PatientDirectory
	logger   zerolog.Logger
	now      func() time.Time

	mu            sync.Mutex
	consultations []*Consultation
	selectedID    uuid.UUID
	loading       bool
	lastErr       string
	fetchSeq      uint64
	observers     map[int]Observer
	nextObs       int
}

func NewStore(repo Repository, patients PatientDirectory, logger zerolog.Logger) *Store {
	return &Store{
		repo:      repo,
		patients:  patients,
		logger:    logger.With().Str("store", "consultation").Logger(),
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

// Consultations returns a snapshot of the collection.
func (s *Store) Consultations() []*Consultation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Consultation, len(s.consultations))
	copy(out, s.consultations)
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

// Selected resolves the current selection against the live collection.
func (s *Store) Selected() *Consultation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selectedID == uuid.Nil {
		return nil
	}
	for _, c := range s.consultations {
		if c.ID == s.selectedID {
			return c
		}
	}
	return nil
}

// Select marks a consultation as the current selection. uuid.Nil clears it.
func (s *Store) Select(id uuid.UUID) {
	s.mu.Lock()
	s.selectedID = id
	s.mu.Unlock()
	s.notify()
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

	consultations, err := s.repo.List(ctx)

	s.mu.Lock()
	if seq != s.fetchSeq {
		s.mu.Unlock()
		return
	}
	s.loading = false
	if err != nil {
		s.lastErr = err.Error()
		s.logger.Error().Err(err).Msg("fetch consultations failed")
	} else {
		s.consultations = consultations
	}
	s.mu.Unlock()
	s.notify()
}

// Get loads a single consultation by id, bypassing the cached collection.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	return s.repo.GetByID(ctx, id)
}

// Create registers a consultation request. The MRN is resolved against
// the patient directory first; unknown MRNs get a minimal patient record
// whose date of birth is synthesized from the stated age.
func (s *Store) Create(ctx context.Context, req NewRequest) (*Consultation, error) {
	if err := req.validate(); err != nil {
		return nil, s.fail("create", err)
	}

	patientID, err := s.patients.EnsurePatient(ctx, req.MRN, req.PatientName, req.Gender,
		SyntheticDOB(req.Age, s.now()))
	if err != nil {
		return nil, s.fail("create", err)
	}

	c := &Consultation{
		PatientID:            patientID,
		MRN:                  req.MRN,
		PatientName:          req.PatientName,
		AgeAtRequest:         req.Age,
		Gender:               req.Gender,
		RequestingDepartment: req.RequestingDepartment,
		PatientLocation:      req.PatientLocation,
		Specialty:            req.Specialty,
		ShiftType:            req.ShiftType,
		Urgency:              req.Urgency,
		Reason:               req.Reason,
		Status:               StatusActive,
		DoctorID:             req.DoctorID,
	}
	if err := s.repo.Insert(ctx, c); err != nil {
		return nil, s.fail("create", err)
	}

	s.logger.Info().Str("mrn", req.MRN).Str("specialty", req.Specialty).Msg("consultation created")
	s.FetchAll(ctx)
	return c, nil
}

// Update applies partial changes and merges the result into the
// collection in place.
func (s *Store) Update(ctx context.Context, id uuid.UUID, upd Update) (*Consultation, error) {
	c, err := s.repo.Update(ctx, id, upd)
	if err != nil {
		return nil, s.fail("update", err)
	}

	s.mu.Lock()
	for i, existing := range s.consultations {
		if existing.ID == id {
			s.consultations[i] = c
			break
		}
	}
	s.lastErr = ""
	s.mu.Unlock()
	s.notify()
	return c, nil
}

// Complete closes an active consultation with a note and refetches.
func (s *Store) Complete(ctx context.Context, id uuid.UUID, note string, by uuid.UUID) error {
	if strings.TrimSpace(note) == "" {
		return s.fail("complete", fmt.Errorf("completion note is required"))
	}
	if err := s.repo.Complete(ctx, id, note, by, s.now()); err != nil {
		return s.fail("complete", err)
	}
	s.FetchAll(ctx)
	return nil
}

// Cancel marks an active consultation cancelled and refetches.
func (s *Store) Cancel(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Cancel(ctx, id); err != nil {
		return s.fail("cancel", err)
	}
	s.FetchAll(ctx)
	return nil
}

func (s *Store) fail(op string, err error) error {
	s.mu.Lock()
	s.lastErr = err.Error()
	s.mu.Unlock()
	s.logger.Error().Err(err).Str("op", op).Msg("consultation store operation failed")
	s.notify()
	return err
}
