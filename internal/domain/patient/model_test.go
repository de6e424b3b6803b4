package patient

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("bad date %s: %v", s, err)
	}
	return ts
}

func admissionOn(t *testing.T, date string, visit int, status AdmissionStatus) *Admission {
	t.Helper()
	return &Admission{
		ID:            uuid.New(),
		VisitNumber:   visit,
		AdmissionDate: day(t, date),
		Status:        status,
	}
}

func TestDerivedFieldsFollowLatestAdmission(t *testing.T) {
	older := admissionOn(t, "2025-01-01", 1, AdmissionDischarged)
	older.Department = "Cardiology"
	older.DoctorName = "Dr. Old"
	older.Diagnosis = "CHF"

	newer := admissionOn(t, "2025-03-10", 2, AdmissionActive)
	newer.Department = "Pulmonology"
	newer.DoctorName = "Dr. New"
	newer.Diagnosis = "Pneumonia"

	p := &Patient{Admissions: []*Admission{older, newer}}
	SortAdmissions(p.Admissions)

	if got := p.CurrentDepartment(); got != "Pulmonology" {
		t.Errorf("department: got %s, want Pulmonology", got)
	}
	if got := p.CurrentDoctor(); got != "Dr. New" {
		t.Errorf("doctor: got %s, want Dr. New", got)
	}
	if got := p.CurrentDiagnosis(); got != "Pneumonia" {
		t.Errorf("diagnosis: got %s, want Pneumonia", got)
	}
	if got := p.CurrentAdmissionDate(); got == nil || !got.Equal(newer.AdmissionDate) {
		t.Errorf("admission date: got %v, want %v", got, newer.AdmissionDate)
	}
}

func TestDerivedFieldsEmptyWithoutAdmissions(t *testing.T) {
	p := &Patient{}
	if p.CurrentDepartment() != "" || p.CurrentDoctor() != "" || p.CurrentDiagnosis() != "" {
		t.Error("expected empty projections for patient with no admissions")
	}
	if p.CurrentAdmissionDate() != nil {
		t.Error("expected nil admission date")
	}
	if p.ActiveAdmission() != nil {
		t.Error("expected no active admission")
	}
}

func TestNextVisitNumber(t *testing.T) {
	p := &Patient{}
	if got := p.NextVisitNumber(); got != 1 {
		t.Errorf("first visit: got %d, want 1", got)
	}
	p.Admissions = []*Admission{
		admissionOn(t, "2025-01-01", 1, AdmissionDischarged),
		admissionOn(t, "2025-02-01", 2, AdmissionDischarged),
	}
	if got := p.NextVisitNumber(); got != 3 {
		t.Errorf("third visit: got %d, want 3", got)
	}
}

func TestActiveAdmissionFound(t *testing.T) {
	active := admissionOn(t, "2025-02-01", 2, AdmissionActive)
	p := &Patient{Admissions: []*Admission{
		active,
		admissionOn(t, "2025-01-01", 1, AdmissionDischarged),
	}}
	if got := p.ActiveAdmission(); got != active {
		t.Errorf("got %+v, want the active admission", got)
	}
}

func TestStayDaysRoundsUp(t *testing.T) {
	adm := admissionOn(t, "2025-01-10", 1, AdmissionDischarged)
	tests := []struct {
		discharge time.Time
		want      int
	}{
		{day(t, "2025-01-15"), 5},
		{day(t, "2025-01-15").Add(6 * time.Hour), 6},
		{day(t, "2025-01-10").Add(1 * time.Hour), 1},
	}
	for _, tc := range tests {
		d := tc.discharge
		adm.DischargeDate = &d
		if got := adm.StayDays(); got != tc.want {
			t.Errorf("discharge %v: got %d days, want %d", tc.discharge, got, tc.want)
		}
	}
}

func TestStayDaysZeroWhileOpen(t *testing.T) {
	adm := admissionOn(t, "2025-01-10", 1, AdmissionActive)
	if got := adm.StayDays(); got != 0 {
		t.Errorf("got %d, want 0 for open admission", got)
	}
}

func TestIsReadmission(t *testing.T) {
	p := &Patient{Admissions: []*Admission{admissionOn(t, "2025-01-01", 1, AdmissionActive)}}
	if p.IsReadmission() {
		t.Error("single admission is not a readmission")
	}
	p.Admissions = append(p.Admissions, admissionOn(t, "2025-03-01", 2, AdmissionActive))
	if !p.IsReadmission() {
		t.Error("expected readmission with two stays")
	}
}
