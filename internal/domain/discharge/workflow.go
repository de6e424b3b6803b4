package discharge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/caretrack/caretrack/internal/domain/consultation"
	"github.com/caretrack/caretrack/internal/domain/note"
	"github.com/caretrack/caretrack/internal/domain/patient"
	"github.com/caretrack/caretrack/internal/platform/auth"
)

// State of the discharge workflow.
type State string

const (
	StateBrowsing   State = "browsing"
	StateSelected   State = "selected"
	StateSubmitting State = "submitting"
)

// ErrSubmitting is returned when a submission is already in flight.
var ErrSubmitting = errors.New("discharge: submission already in progress")

// ValidationError is a form error detected before any remote call.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("discharge: %s: %s", e.Field, e.Msg)
}

// Form is the discharge submission payload. DischargeType only applies
// to admission candidates; consultations are completed with the note
// alone.
type Form struct {
	DischargeDate    time.Time             `json:"discharge_date"`
	DischargeType    patient.DischargeType `json:"discharge_type,omitempty"`
	FollowUpRequired bool                  `json:"follow_up_required"`
	FollowUpDate     *time.Time            `json:"follow_up_date,omitempty"`
	Note             string                `json:"note"`
}

// AdmissionSource lists and closes active admissions.
type AdmissionSource interface {
	ListActive(ctx context.Context) ([]*patient.ActiveAdmission, error)
	Discharge(ctx context.Context, admissionID uuid.UUID, params patient.DischargeParams) error
}

// ConsultationSource lists and completes active consultations.
type ConsultationSource interface {
	ListActive(ctx context.Context) ([]*consultation.Consultation, error)
	Complete(ctx context.Context, id uuid.UUID, noteText string, by uuid.UUID, at time.Time) error
}

// NoteRecorder persists the audit note written for every discharge.
type NoteRecorder interface {
	Insert(ctx context.Context, n *note.MedicalNote) error
}

// Workflow drives an episode from candidate selection through committed
// discharge. A failed submission keeps the selection and form intent so
// the operator can retry.
type Workflow struct {
	admissions    AdmissionSource
	consultations ConsultationSource
	notes         NoteRecorder
	logger        zerolog.Logger
	now           func() time.Time

	mu         sync.Mutex
	candidates []*Candidate
	selected   *Candidate
	state      State
	lastErr    string
	loading    bool
}

func NewWorkflow(adm AdmissionSource, cons ConsultationSource, notes NoteRecorder, logger zerolog.Logger) *Workflow {
	return &Workflow{
		admissions:    adm,
		consultations: cons,
		notes:         notes,
		logger:        logger.With().Str("workflow", "discharge").Logger(),
		now:           time.Now,
		state:         StateBrowsing,
	}
}

// State returns the current workflow phase.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Err returns the message of the last failed operation.
func (w *Workflow) Err() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

// Candidates returns the last loaded candidate list.
func (w *Workflow) Candidates() []*Candidate {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]*Candidate, len(w.candidates))
	copy(out, w.candidates)
	return out
}

// Selected returns the candidate currently staged for discharge.
func (w *Workflow) Selected() *Candidate {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.selected
}

// ListCandidates loads open admissions and active consultations
// concurrently and merges them, admissions first. On partial failure the
// error is recorded and the previous list is kept.
func (w *Workflow) ListCandidates(ctx context.Context) ([]*Candidate, error) {
	w.mu.Lock()
	w.loading = true
	w.mu.Unlock()

	var (
		wg      sync.WaitGroup
		adms    []*patient.ActiveAdmission
		cons    []*consultation.Consultation
		admErr  error
		consErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		adms, admErr = w.admissions.ListActive(ctx)
	}()
	go func() {
		defer wg.Done()
		cons, consErr = w.consultations.ListActive(ctx)
	}()
	wg.Wait()

	w.mu.Lock()
	defer w.mu.Unlock()
	w.loading = false
	if admErr != nil || consErr != nil {
		err := admErr
		if err == nil {
			err = consErr
		}
		w.lastErr = err.Error()
		w.logger.Error().Err(err).Msg("loading discharge candidates failed")
		return nil, err
	}

	merged := make([]*Candidate, 0, len(adms)+len(cons))
	for _, a := range adms {
		merged = append(merged, &Candidate{
			Kind:        KindAdmission,
			EpisodeID:   a.AdmissionID,
			PatientID:   a.PatientID,
			MRN:         a.MRN,
			PatientName: a.Name,
			EpisodeDate: a.AdmissionDate,
			Department:  a.Department,
			DoctorName:  a.DoctorName,
			Summary:     a.Diagnosis,
		})
	}
	for _, c := range cons {
		merged = append(merged, &Candidate{
			Kind:        KindConsultation,
			EpisodeID:   c.ID,
			PatientID:   c.PatientID,
			MRN:         c.MRN,
			PatientName: c.PatientName,
			EpisodeDate: c.CreatedAt,
			Department:  c.Specialty,
			DoctorName:  c.DoctorName,
			Summary:     c.Reason,
		})
	}

	w.candidates = merged
	w.lastErr = ""
	// drop a selection whose episode has disappeared
	if w.selected != nil {
		found := false
		for _, c := range merged {
			if c.Kind == w.selected.Kind && c.EpisodeID == w.selected.EpisodeID {
				found = true
				break
			}
		}
		if !found && w.state != StateSubmitting {
			w.selected = nil
			w.state = StateBrowsing
		}
	}
	return merged, nil
}

// Select stages a candidate for discharge. A nil candidate returns the
// workflow to browsing.
func (w *Workflow) Select(c *Candidate) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateSubmitting {
		return
	}
	w.selected = c
	w.lastErr = ""
	if c == nil {
		w.state = StateBrowsing
	} else {
		w.state = StateSelected
	}
}

// SelectByID resolves a candidate from the loaded list and stages it.
func (w *Workflow) SelectByID(kind Kind, episodeID uuid.UUID) error {
	w.mu.Lock()
	var target *Candidate
	for _, c := range w.candidates {
		if c.Kind == kind && c.EpisodeID == episodeID {
			target = c
			break
		}
	}
	w.mu.Unlock()
	if target == nil {
		return fmt.Errorf("discharge: no candidate %s/%s", kind, episodeID)
	}
	w.Select(target)
	return nil
}

func (w *Workflow) validate(user *auth.User, c *Candidate, form *Form) error {
	if user == nil {
		return &ValidationError{Field: "user", Msg: "acting user is required"}
	}
	if c == nil {
		return &ValidationError{Field: "candidate", Msg: "no episode selected"}
	}
	if strings.TrimSpace(form.Note) == "" {
		return &ValidationError{Field: "note", Msg: "discharge note is required"}
	}
	if form.DischargeDate.IsZero() {
		form.DischargeDate = w.now()
	}
	if c.Kind == KindAdmission {
		if form.DischargeType == "" {
			return &ValidationError{Field: "discharge_type", Msg: "discharge type is required"}
		}
		if !form.DischargeType.Valid() {
			return &ValidationError{Field: "discharge_type", Msg: fmt.Sprintf("unknown type %q", form.DischargeType)}
		}
	}
	if form.FollowUpRequired && form.FollowUpDate == nil {
		return &ValidationError{Field: "follow_up_date", Msg: "follow-up date is required when follow-up is requested"}
	}
	return nil
}

// Submit commits the discharge of the selected candidate. Validation
// failures surface before any remote call. A remote failure keeps the
// selection so the submission can be retried; success clears it and
// refreshes the candidate list.
func (w *Workflow) Submit(ctx context.Context, user *auth.User, form Form) error {
	w.mu.Lock()
	if w.state == StateSubmitting {
		w.mu.Unlock()
		return ErrSubmitting
	}
	c := w.selected
	w.mu.Unlock()

	if err := w.validate(user, c, &form); err != nil {
		w.setErr(err)
		return err
	}

	w.mu.Lock()
	if w.state == StateSubmitting {
		w.mu.Unlock()
		return ErrSubmitting
	}
	w.state = StateSubmitting
	w.lastErr = ""
	w.mu.Unlock()

	var (
		err      error
		noteType note.Type
	)
	switch c.Kind {
	case KindAdmission:
		noteType = note.TypeDischargeSummary
		err = w.admissions.Discharge(ctx, c.EpisodeID, patient.DischargeParams{
			DischargeDate:    form.DischargeDate,
			DischargeType:    form.DischargeType,
			FollowUpRequired: form.FollowUpRequired,
			FollowUpDate:     form.FollowUpDate,
		})
	case KindConsultation:
		noteType = note.TypeConsultation
		err = w.consultations.Complete(ctx, c.EpisodeID, form.Note, user.ID, form.DischargeDate)
	default:
		err = fmt.Errorf("discharge: unknown candidate kind %q", c.Kind)
	}

	if err == nil {
		err = w.notes.Insert(ctx, &note.MedicalNote{
			PatientID: c.PatientID,
			DoctorID:  user.ID,
			Type:      noteType,
			Content:   form.Note,
		})
	}

	if err != nil {
		w.mu.Lock()
		w.state = StateSelected
		w.lastErr = err.Error()
		w.mu.Unlock()
		w.logger.Error().Err(err).
			Str("kind", string(c.Kind)).
			Str("episode_id", c.EpisodeID.String()).
			Msg("discharge submission failed")
		return err
	}

	w.mu.Lock()
	w.selected = nil
	w.state = StateBrowsing
	w.mu.Unlock()

	w.logger.Info().
		Str("kind", string(c.Kind)).
		Str("episode_id", c.EpisodeID.String()).
		Str("mrn", c.MRN).
		Msg("episode discharged")

	if _, err := w.ListCandidates(ctx); err != nil {
		// the discharge itself committed, a stale list is recoverable
		return nil
	}
	return nil
}

func (w *Workflow) setErr(err error) {
	w.mu.Lock()
	w.lastErr = err.Error()
	w.mu.Unlock()
}
