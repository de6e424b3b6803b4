package reporting

import (
	"strings"

	"github.com/caretrack/caretrack/internal/domain/appointment"
	"github.com/caretrack/caretrack/internal/domain/consultation"
	"github.com/caretrack/caretrack/internal/domain/patient"
)

// Filters narrow report rows. Zero values leave that axis unfiltered;
// Specialty "all" matches everything. Query is a case-insensitive
// substring match on names, record numbers and doctor names.
type Filters struct {
	Window    Window
	Specialty string
	Query     string
}

func (f Filters) matchQuery(fields ...string) bool {
	if f.Query == "" {
		return true
	}
	q := strings.ToLower(f.Query)
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// FilterPatients keeps patients matching every active filter axis. The
// date axis uses the latest admission date, falling back to the record
// creation time for patients never admitted.
func (f Filters) FilterPatients(patients []*patient.Patient) []*patient.Patient {
	var out []*patient.Patient
	for _, p := range patients {
		when := p.CreatedAt
		if d := p.CurrentAdmissionDate(); d != nil {
			when = *d
		}
		if !f.Window.Contains(when) {
			continue
		}
		if !matchesSpecialty(p.CurrentDepartment(), f.Specialty) {
			continue
		}
		if !f.matchQuery(p.Name, p.MRN, p.CurrentDoctor()) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// FilterConsultations keeps consultations matching every active filter
// axis, dated by creation time.
func (f Filters) FilterConsultations(consultations []*consultation.Consultation) []*consultation.Consultation {
	var out []*consultation.Consultation
	for _, c := range consultations {
		if !f.Window.Contains(c.CreatedAt) {
			continue
		}
		if !matchesSpecialty(c.Specialty, f.Specialty) {
			continue
		}
		if !f.matchQuery(c.PatientName, c.MRN, c.DoctorName) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// FilterAppointments keeps appointments matching every active filter
// axis, dated by creation time.
func (f Filters) FilterAppointments(appts []*appointment.Appointment) []*appointment.Appointment {
	var out []*appointment.Appointment
	for _, a := range appts {
		if !f.Window.Contains(a.CreatedAt) {
			continue
		}
		if !matchesSpecialty(a.Specialty, f.Specialty) {
			continue
		}
		if !f.matchQuery(a.PatientName, a.MedicalNumber) {
			continue
		}
		out = append(out, a)
	}
	return out
}
