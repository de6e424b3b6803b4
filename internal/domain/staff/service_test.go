package staff

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

type staticRepo struct {
	members []*Staff
}

func (r *staticRepo) List(ctx context.Context) ([]*Staff, error) {
	return r.members, nil
}

func (r *staticRepo) GetByID(ctx context.Context, id uuid.UUID) (*Staff, error) {
	for _, m := range r.members {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, ErrNotFound
}

func TestActiveDoctorsFilters(t *testing.T) {
	repo := &staticRepo{members: []*Staff{
		{ID: uuid.New(), Name: "Dr. A", Role: "doctor", Status: StatusActive, Department: "Cardiology"},
		{ID: uuid.New(), Name: "Dr. B", Role: "doctor", Status: StatusActive, Department: "Neurology"},
		{ID: uuid.New(), Name: "Dr. C", Role: "doctor", Status: StatusInactive, Department: "Cardiology"},
		{ID: uuid.New(), Name: "Nurse D", Role: "nurse", Status: StatusActive, Department: "Cardiology"},
	}}
	svc := NewService(repo)
	ctx := context.Background()

	all, err := svc.ActiveDoctors(ctx, "all")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("all departments: got %d doctors, want 2", len(all))
	}

	cardio, err := svc.ActiveDoctors(ctx, "cardiology")
	if err != nil {
		t.Fatal(err)
	}
	if len(cardio) != 1 || cardio[0].Name != "Dr. A" {
		t.Errorf("cardiology: got %v", cardio)
	}
}
