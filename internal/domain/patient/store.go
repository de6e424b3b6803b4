package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Observer is invoked after every state change of a Store. Callbacks run
// synchronously on the mutating goroutine and must not call back into
// the store.
type Observer func()

// NewAdmission is the intake request handled by CreateOrAdmit. When the
// MRN is unknown a new patient record is created first.
type NewAdmission struct {
	MRN         string    `json:"mrn"`
	Name        string    `json:"name"`
	DateOfBirth time.Time `json:"date_of_birth"`
	Gender      string    `json:"gender"`

	AdmissionDate time.Time   `json:"admission_date"`
	Department    string      `json:"department"`
	DoctorID      *uuid.UUID  `json:"doctor_id,omitempty"`
	Diagnosis     string      `json:"diagnosis"`
	SafetyType    *SafetyType `json:"safety_type,omitempty"`
}

func (req *NewAdmission) validate() error {
	var missing []string
	if strings.TrimSpace(req.MRN) == "" {
		missing = append(missing, "mrn")
	}
	if strings.TrimSpace(req.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(req.Department) == "" {
		missing = append(missing, "department")
	}
	if strings.TrimSpace(req.Diagnosis) == "" {
		missing = append(missing, "diagnosis")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	if req.SafetyType != nil && !req.SafetyType.Valid() {
		return fmt.Errorf("invalid safety type %q", *req.SafetyType)
	}
	return nil
}

// Store holds the in-memory patient collection together with loading and
// error state. All methods are safe for concurrent use.
type Store struct {
	repo   Repository
	logger zerolog.Logger

	mu         sync.Mutex
	patients   []*Patient
	selectedID uuid.UUID
	loading    bool
	lastErr    string
	fetchSeq   uint64
	observers  map[int]Observer
	nextObs    int
}

func NewStore(repo Repository, logger zerolog.Logger) *Store {
	return &Store{
		repo:      repo,
		logger:    logger.With().Str("store", "patient").Logger(),
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

// Patients returns a snapshot of the collection.
func (s *Store) Patients() []*Patient {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Patient, len(s.patients))
	copy(out, s.patients)
	return out
}

// Loading reports whether a fetch is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the message of the last failed operation, empty when the
// last operation succeeded.
func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Selected resolves the current selection against the live collection.
// Returns nil when nothing is selected or the selected patient has been
// removed.
func (s *Store) Selected() *Patient {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selectedID == uuid.Nil {
		return nil
	}
	for _, p := range s.patients {
		if p.ID == s.selectedID {
			return p
		}
	}
	return nil
}

// Select marks a patient as the current selection. uuid.Nil clears it.
func (s *Store) Select(id uuid.UUID) {
	s.mu.Lock()
	s.selectedID = id
	s.mu.Unlock()
	s.notify()
}

// FetchAll reloads the collection. Failures are recorded in the error
// state and the previous collection is kept. When fetches overlap, only
// the most recently issued one is allowed to apply its result.
func (s *Store) FetchAll(ctx context.Context) {
	s.mu.Lock()
	s.fetchSeq++
	seq := s.fetchSeq
	s.loading = true
	s.lastErr = ""
	s.mu.Unlock()
	s.notify()

	patients, err := s.repo.List(ctx)

	s.mu.Lock()
	if seq != s.fetchSeq {
		// a newer fetch superseded this one, discard the result
		s.mu.Unlock()
		return
	}
	s.loading = false
	if err != nil {
		s.lastErr = err.Error()
		s.logger.Error().Err(err).Msg("fetch patients failed")
	} else {
		s.patients = patients
	}
	s.mu.Unlock()
	s.notify()
}

// EnsurePatient resolves an MRN to a patient id, creating a minimal
// demographic record when the MRN is unknown.
func (s *Store) EnsurePatient(ctx context.Context, mrn, name, gender string, dateOfBirth time.Time) (uuid.UUID, error) {
	p, err := s.repo.GetByMRN(ctx, mrn)
	if err == nil {
		return p.ID, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return uuid.Nil, err
	}
	p = &Patient{MRN: mrn, Name: name, Gender: gender, DateOfBirth: dateOfBirth}
	if err := s.repo.Create(ctx, p); err != nil {
		return uuid.Nil, err
	}
	s.logger.Info().Str("mrn", mrn).Msg("patient created from consultation intake")
	return p.ID, nil
}

// Get loads a single patient by id, bypassing the cached collection.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateOrAdmit registers a new admission. An unknown MRN creates the
// patient record first; a known MRN gets a new stay with the next visit
// number. The collection is refetched on success.
func (s *Store) CreateOrAdmit(ctx context.Context, req NewAdmission) (*Admission, error) {
	if err := req.validate(); err != nil {
		return nil, s.fail("admit", err)
	}

	p, err := s.repo.GetByMRN(ctx, req.MRN)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		p = &Patient{
			MRN:         req.MRN,
			Name:        req.Name,
			DateOfBirth: req.DateOfBirth,
			Gender:      req.Gender,
		}
		if err := s.repo.Create(ctx, p); err != nil {
			return nil, s.fail("admit", err)
		}
	default:
		return nil, s.fail("admit", err)
	}

	adm := &Admission{
		PatientID:     p.ID,
		VisitNumber:   p.NextVisitNumber(),
		AdmissionDate: req.AdmissionDate,
		Department:    req.Department,
		DoctorID:      req.DoctorID,
		Diagnosis:     req.Diagnosis,
		Status:        AdmissionActive,
		SafetyType:    req.SafetyType,
	}
	if adm.AdmissionDate.IsZero() {
		adm.AdmissionDate = time.Now()
	}
	if err := s.repo.InsertAdmission(ctx, adm); err != nil {
		return nil, s.fail("admit", err)
	}

	s.logger.Info().Str("mrn", req.MRN).Int("visit", adm.VisitNumber).Msg("admission created")
	s.FetchAll(ctx)
	return adm, nil
}

// Update applies partial demographic changes and merges the result into
// the collection in place.
func (s *Store) Update(ctx context.Context, id uuid.UUID, upd Update) (*Patient, error) {
	p, err := s.repo.Update(ctx, id, upd)
	if err != nil {
		return nil, s.fail("update", err)
	}

	s.mu.Lock()
	for i, existing := range s.patients {
		if existing.ID == id {
			s.patients[i] = p
			break
		}
	}
	s.lastErr = ""
	s.mu.Unlock()
	s.notify()
	return p, nil
}

// Remove deletes a patient and drops it from the collection. The
// selection is cleared when it pointed at the removed patient.
func (s *Store) Remove(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.fail("remove", err)
	}

	s.mu.Lock()
	for i, p := range s.patients {
		if p.ID == id {
			s.patients = append(s.patients[:i], s.patients[i+1:]...)
			break
		}
	}
	if s.selectedID == id {
		s.selectedID = uuid.Nil
	}
	s.lastErr = ""
	s.mu.Unlock()
	s.notify()
	return nil
}

func (s *Store) fail(op string, err error) error {
	s.mu.Lock()
	s.lastErr = err.Error()
	s.mu.Unlock()
	s.logger.Error().Err(err).Str("op", op).Msg("patient store operation failed")
	s.notify()
	return err
}
