package appointment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type mockRepo struct {
	mu    sync.Mutex
	appts map[uuid.UUID]*Appointment
}

func newMockRepo() *mockRepo {
	return &mockRepo{appts: make(map[uuid.UUID]*Appointment)}
}

func (r *mockRepo) List(ctx context.Context) ([]*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Appointment
	for _, a := range r.appts {
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

func (r *mockRepo) Insert(ctx context.Context, a *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	cp := *a
	r.appts[a.ID] = &cp
	return nil
}

func (r *mockRepo) Update(ctx context.Context, id uuid.UUID, upd Update) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appts[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Status != nil {
		a.Status = *upd.Status
	}
	if upd.Notes != nil {
		a.Notes = *upd.Notes
	}
	cp := *a
	return &cp, nil
}

func (r *mockRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.appts[id]; !ok {
		return ErrNotFound
	}
	delete(r.appts, id)
	return nil
}

func (r *mockRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, a := range r.appts {
		if !a.CreatedAt.After(cutoff) {
			delete(r.appts, id)
			n++
		}
	}
	return n, nil
}

func seed(t *testing.T, repo *mockRepo, age time.Duration) uuid.UUID {
	t.Helper()
	a := &Appointment{
		PatientName:   "P",
		MedicalNumber: "M-1",
		Specialty:     "Dermatology",
		Type:          TypeRoutine,
		Status:        StatusPending,
		CreatedAt:     time.Now().Add(-age),
	}
	if err := repo.Insert(context.Background(), a); err != nil {
		t.Fatal(err)
	}
	return a.ID
}

func TestRemoveExpiredPurgesOnlyPastRetention(t *testing.T) {
	repo := newMockRepo()
	store := NewStore(repo, zerolog.Nop())

	old := seed(t, repo, 25*time.Hour)
	fresh := seed(t, repo, 23*time.Hour)

	n, err := store.RemoveExpired(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("purged: got %d, want 1", n)
	}

	appts := store.Appointments()
	if len(appts) != 1 {
		t.Fatalf("expected 1 surviving appointment, got %d", len(appts))
	}
	if appts[0].ID != fresh {
		t.Error("wrong appointment survived the purge")
	}
	if _, ok := repo.appts[old]; ok {
		t.Error("expired appointment still present in repo")
	}
}

func TestExpiredBeforeBoundary(t *testing.T) {
	cutoff := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *Appointment {
		return &Appointment{ID: uuid.New(), CreatedAt: cutoff.Add(d)}
	}
	exact := at(0)
	before := at(-time.Minute)
	after := at(time.Minute)

	got := ExpiredBefore([]*Appointment{exact, before, after}, cutoff)
	if len(got) != 2 {
		t.Fatalf("expected 2 expired, got %d", len(got))
	}
	for _, a := range got {
		if a == after {
			t.Error("appointment created after cutoff must not be expired")
		}
	}
}

func TestAddDefaultsToPending(t *testing.T) {
	store := NewStore(newMockRepo(), zerolog.Nop())
	a, err := store.Add(context.Background(), NewAppointment{
		PatientName:   "Lena Ruiz",
		MedicalNumber: "OPD-9",
		Specialty:     "Neurology",
		Type:          TypeUrgent,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Status != StatusPending {
		t.Errorf("status: got %s, want pending", a.Status)
	}
	if len(store.Appointments()) != 1 {
		t.Error("expected collection refreshed after add")
	}
}

func TestAddValidation(t *testing.T) {
	store := NewStore(newMockRepo(), zerolog.Nop())
	_, err := store.Add(context.Background(), NewAppointment{PatientName: "X", Type: "walk-in"})
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestUpdateRejectsInvalidStatus(t *testing.T) {
	repo := newMockRepo()
	store := NewStore(repo, zerolog.Nop())
	id := seed(t, repo, 0)

	bad := Status("rebooked")
	if _, err := store.Update(context.Background(), id, Update{Status: &bad}); err == nil {
		t.Fatal("expected error for invalid status")
	}
}
