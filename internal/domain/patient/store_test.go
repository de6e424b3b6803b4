package patient

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type mockRepo struct {
	mu         sync.Mutex
	patients   map[uuid.UUID]*Patient
	admissions map[uuid.UUID][]*Admission
	listErr    error
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		patients:   make(map[uuid.UUID]*Patient),
		admissions: make(map[uuid.UUID][]*Admission),
	}
}

func (r *mockRepo) List(ctx context.Context) ([]*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []*Patient
	for _, p := range r.patients {
		cp := *p
		cp.Admissions = append([]*Admission(nil), r.admissions[p.ID]...)
		SortAdmissions(cp.Admissions)
		out = append(out, &cp)
	}
	return out, nil
}

func (r *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	cp.Admissions = append([]*Admission(nil), r.admissions[id]...)
	SortAdmissions(cp.Admissions)
	return &cp, nil
}

func (r *mockRepo) GetByMRN(ctx context.Context, mrn string) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.patients {
		if p.MRN == mrn {
			cp := *p
			cp.Admissions = append([]*Admission(nil), r.admissions[p.ID]...)
			SortAdmissions(cp.Admissions)
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *mockRepo) Create(ctx context.Context, p *Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	r.patients[p.ID] = &cp
	return nil
}

func (r *mockRepo) Update(ctx context.Context, id uuid.UUID, upd Update) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.DateOfBirth != nil {
		p.DateOfBirth = *upd.DateOfBirth
	}
	if upd.Gender != nil {
		p.Gender = *upd.Gender
	}
	cp := *p
	cp.Admissions = append([]*Admission(nil), r.admissions[id]...)
	return &cp, nil
}

func (r *mockRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.patients[id]; !ok {
		return ErrNotFound
	}
	delete(r.patients, id)
	delete(r.admissions, id)
	return nil
}

func (r *mockRepo) InsertAdmission(ctx context.Context, adm *Admission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.admissions[adm.PatientID] {
		if existing.Status == AdmissionActive && adm.Status == AdmissionActive {
			return ErrActiveAdmission
		}
	}
	if adm.ID == uuid.Nil {
		adm.ID = uuid.New()
	}
	cp := *adm
	r.admissions[adm.PatientID] = append(r.admissions[adm.PatientID], &cp)
	return nil
}

func (r *mockRepo) MaxVisitNumber(ctx context.Context, patientID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	max := 0
	for _, a := range r.admissions[patientID] {
		if a.VisitNumber > max {
			max = a.VisitNumber
		}
	}
	return max, nil
}

func (r *mockRepo) ListActive(ctx context.Context) ([]*ActiveAdmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*ActiveAdmission
	for pid, adms := range r.admissions {
		p := r.patients[pid]
		for _, a := range adms {
			if a.Status != AdmissionActive {
				continue
			}
			out = append(out, &ActiveAdmission{
				AdmissionID:   a.ID,
				PatientID:     pid,
				MRN:           p.MRN,
				Name:          p.Name,
				AdmissionDate: a.AdmissionDate,
				Department:    a.Department,
				DoctorName:    a.DoctorName,
				Diagnosis:     a.Diagnosis,
			})
		}
	}
	return out, nil
}

func (r *mockRepo) Discharge(ctx context.Context, admissionID uuid.UUID, params DischargeParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, adms := range r.admissions {
		for _, a := range adms {
			if a.ID != admissionID {
				continue
			}
			if a.Status != AdmissionActive {
				return ErrNotActive
			}
			a.Status = AdmissionDischarged
			d := params.DischargeDate
			a.DischargeDate = &d
			dt := params.DischargeType
			a.DischargeType = &dt
			a.FollowUpRequired = params.FollowUpRequired
			a.FollowUpDate = params.FollowUpDate
			return nil
		}
	}
	return ErrNotFound
}

func newTestStore(repo Repository) *Store {
	return NewStore(repo, zerolog.Nop())
}

func TestCreateOrAdmitNewPatient(t *testing.T) {
	repo := newMockRepo()
	store := newTestStore(repo)

	adm, err := store.CreateOrAdmit(context.Background(), NewAdmission{
		MRN:        "MRN-001",
		Name:       "Jane Roe",
		Gender:     "female",
		Department: "Cardiology",
		Diagnosis:  "CHF",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if adm.VisitNumber != 1 {
		t.Errorf("visit number: got %d, want 1", adm.VisitNumber)
	}
	if adm.Status != AdmissionActive {
		t.Errorf("status: got %s, want active", adm.Status)
	}

	patients := store.Patients()
	if len(patients) != 1 {
		t.Fatalf("expected 1 patient after admit, got %d", len(patients))
	}
	if patients[0].MRN != "MRN-001" {
		t.Errorf("mrn: got %s", patients[0].MRN)
	}
}

func TestCreateOrAdmitExistingPatientIncrementsVisit(t *testing.T) {
	repo := newMockRepo()
	store := newTestStore(repo)
	ctx := context.Background()

	p := &Patient{MRN: "MRN-002", Name: "John Doe"}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatal(err)
	}
	first := &Admission{
		PatientID:     p.ID,
		VisitNumber:   1,
		AdmissionDate: time.Now().AddDate(0, -1, 0),
		Department:    "Cardiology",
		Status:        AdmissionDischarged,
	}
	if err := repo.InsertAdmission(ctx, first); err != nil {
		t.Fatal(err)
	}

	adm, err := store.CreateOrAdmit(ctx, NewAdmission{
		MRN:        "MRN-002",
		Name:       "John Doe",
		Department: "Pulmonology",
		Diagnosis:  "Pneumonia",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if adm.VisitNumber != 2 {
		t.Errorf("visit number: got %d, want 2", adm.VisitNumber)
	}

	patients := store.Patients()
	if len(patients) != 1 {
		t.Fatalf("expected existing record reused, got %d patients", len(patients))
	}
	if got := patients[0].CurrentDepartment(); got != "Pulmonology" {
		t.Errorf("derived department: got %s, want Pulmonology", got)
	}
	if !patients[0].IsReadmission() {
		t.Error("expected readmission")
	}
}

func TestCreateOrAdmitRejectsSecondActive(t *testing.T) {
	repo := newMockRepo()
	store := newTestStore(repo)
	ctx := context.Background()

	if _, err := store.CreateOrAdmit(ctx, NewAdmission{
		MRN: "MRN-003", Name: "A", Department: "ICU", Diagnosis: "Sepsis",
	}); err != nil {
		t.Fatal(err)
	}
	_, err := store.CreateOrAdmit(ctx, NewAdmission{
		MRN: "MRN-003", Name: "A", Department: "ICU", Diagnosis: "Sepsis",
	})
	if !errors.Is(err, ErrActiveAdmission) {
		t.Fatalf("expected ErrActiveAdmission, got %v", err)
	}
	if store.Err() == "" {
		t.Error("expected error state to be set")
	}
}

func TestCreateOrAdmitValidatesRequiredFields(t *testing.T) {
	store := newTestStore(newMockRepo())
	_, err := store.CreateOrAdmit(context.Background(), NewAdmission{MRN: "X"})
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestFetchAllErrorKeepsPreviousCollection(t *testing.T) {
	repo := newMockRepo()
	store := newTestStore(repo)
	ctx := context.Background()

	if _, err := store.CreateOrAdmit(ctx, NewAdmission{
		MRN: "MRN-004", Name: "B", Department: "ER", Diagnosis: "Trauma",
	}); err != nil {
		t.Fatal(err)
	}

	repo.mu.Lock()
	repo.listErr = errors.New("connection refused")
	repo.mu.Unlock()

	store.FetchAll(ctx)
	if store.Err() == "" {
		t.Error("expected error state after failed fetch")
	}
	if len(store.Patients()) != 1 {
		t.Error("expected previous collection to survive a failed fetch")
	}
	if store.Loading() {
		t.Error("expected loading cleared after failed fetch")
	}
}

type scriptedListRepo struct {
	*mockRepo
	calls   int32
	started chan int
	proceed []chan struct{}
	data    [][]*Patient
}

func (r *scriptedListRepo) List(ctx context.Context) ([]*Patient, error) {
	n := int(atomic.AddInt32(&r.calls, 1)) - 1
	r.started <- n
	<-r.proceed[n]
	return r.data[n], nil
}

func TestOverlappingFetchDiscardsStaleResult(t *testing.T) {
	stale := []*Patient{{ID: uuid.New(), MRN: "OLD"}}
	fresh := []*Patient{{ID: uuid.New(), MRN: "NEW-1"}, {ID: uuid.New(), MRN: "NEW-2"}}

	repo := &scriptedListRepo{
		mockRepo: newMockRepo(),
		started:  make(chan int, 2),
		proceed:  []chan struct{}{make(chan struct{}), make(chan struct{})},
		data:     [][]*Patient{stale, fresh},
	}
	store := newTestStore(repo)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); store.FetchAll(context.Background()) }()
	<-repo.started
	go func() { defer wg.Done(); store.FetchAll(context.Background()) }()
	<-repo.started

	close(repo.proceed[1]) // newer fetch completes first
	close(repo.proceed[0]) // stale response arrives late
	wg.Wait()

	patients := store.Patients()
	if len(patients) != 2 {
		t.Fatalf("expected fresh result to win, got %d patients", len(patients))
	}
	if patients[0].MRN == "OLD" {
		t.Error("stale fetch result was applied")
	}
	if store.Loading() {
		t.Error("expected loading cleared")
	}
}

func TestSelectionSurvivesRefetchAndClearsOnRemove(t *testing.T) {
	repo := newMockRepo()
	store := newTestStore(repo)
	ctx := context.Background()

	if _, err := store.CreateOrAdmit(ctx, NewAdmission{
		MRN: "MRN-005", Name: "C", Department: "ER", Diagnosis: "Burn",
	}); err != nil {
		t.Fatal(err)
	}
	id := store.Patients()[0].ID

	store.Select(id)
	store.FetchAll(ctx)
	if sel := store.Selected(); sel == nil || sel.ID != id {
		t.Fatal("expected selection to survive a refetch")
	}

	if err := store.Remove(ctx, id); err != nil {
		t.Fatal(err)
	}
	if store.Selected() != nil {
		t.Error("expected selection cleared after removal")
	}
	if len(store.Patients()) != 0 {
		t.Error("expected empty collection after removal")
	}
}

func TestUpdateMergesIntoCollection(t *testing.T) {
	repo := newMockRepo()
	store := newTestStore(repo)
	ctx := context.Background()

	if _, err := store.CreateOrAdmit(ctx, NewAdmission{
		MRN: "MRN-006", Name: "Before", Department: "ER", Diagnosis: "X",
	}); err != nil {
		t.Fatal(err)
	}
	id := store.Patients()[0].ID

	name := "After"
	if _, err := store.Update(ctx, id, Update{Name: &name}); err != nil {
		t.Fatal(err)
	}
	if got := store.Patients()[0].Name; got != "After" {
		t.Errorf("got %s, want After", got)
	}
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	store := newTestStore(newMockRepo())

	var notified int32
	unsub := store.Subscribe(func() { atomic.AddInt32(&notified, 1) })

	store.Select(uuid.New())
	if atomic.LoadInt32(&notified) == 0 {
		t.Fatal("expected observer notification")
	}

	before := atomic.LoadInt32(&notified)
	unsub()
	store.Select(uuid.Nil)
	if atomic.LoadInt32(&notified) != before {
		t.Error("expected no notifications after unsubscribe")
	}
}
