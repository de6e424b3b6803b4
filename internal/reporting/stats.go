package reporting

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/caretrack/caretrack/internal/domain/consultation"
	"github.com/caretrack/caretrack/internal/domain/patient"
	"github.com/caretrack/caretrack/internal/domain/staff"
)

// nominalBedCapacity is the bed count occupancy is reported against.
const nominalBedCapacity = 100

// Window is an inclusive date range. A zero Start or End leaves that
// side open.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if !w.Start.IsZero() && t.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && t.After(w.End) {
		return false
	}
	return true
}

func round(v float64) int {
	return int(math.Round(v))
}

// matchesSpecialty treats empty and "all" as wildcards.
func matchesSpecialty(got, want string) bool {
	if want == "" || want == "all" {
		return true
	}
	return strings.EqualFold(got, want)
}

// activeInWindow returns the patient's first active admission inside the
// window, or nil.
func activeInWindow(p *patient.Patient, w Window, specialty string) *patient.Admission {
	for _, a := range p.Admissions {
		if a.Status == patient.AdmissionActive && w.Contains(a.AdmissionDate) && matchesSpecialty(a.Department, specialty) {
			return a
		}
	}
	return nil
}

// ActiveBySpecialty counts patients holding an active admission in the
// given department within the window. Patients are counted once however
// many admissions match.
func ActiveBySpecialty(patients []*patient.Patient, w Window, specialty string) int {
	n := 0
	for _, p := range patients {
		if activeInWindow(p, w, specialty) != nil {
			n++
		}
	}
	return n
}

// ReadmissionCount counts patients whose active admission in the window
// is at least their second stay.
func ReadmissionCount(patients []*patient.Patient, w Window, specialty string) int {
	n := 0
	for _, p := range patients {
		if activeInWindow(p, w, specialty) != nil && p.IsReadmission() {
			n++
		}
	}
	return n
}

// SafetyTypeCount counts patients whose active admission in the window
// carries the given safety flag.
func SafetyTypeCount(patients []*patient.Patient, w Window, specialty string, st patient.SafetyType) int {
	n := 0
	for _, p := range patients {
		if a := activeInWindow(p, w, specialty); a != nil && a.SafetyType != nil && *a.SafetyType == st {
			n++
		}
	}
	return n
}

// PendingConsultations counts active consultations for a specialty
// within the window.
func PendingConsultations(consultations []*consultation.Consultation, w Window, specialty string) int {
	n := 0
	for _, c := range consultations {
		if c.Status == consultation.StatusActive && w.Contains(c.CreatedAt) && matchesSpecialty(c.Specialty, specialty) {
			n++
		}
	}
	return n
}

// SpecialtySnapshot is the per-department dashboard tile.
type SpecialtySnapshot struct {
	Specialty            string `json:"specialty"`
	ActivePatients       int    `json:"active_patients"`
	Readmissions         int    `json:"readmissions"`
	PendingConsultations int    `json:"pending_consultations"`
	EmergencyCount       int    `json:"emergency_count"`
	ObservationCount     int    `json:"observation_count"`
	ShortStayCount       int    `json:"short_stay_count"`
}

// SnapshotSpecialty assembles the dashboard numbers for one department.
func SnapshotSpecialty(patients []*patient.Patient, consultations []*consultation.Consultation, w Window, specialty string) SpecialtySnapshot {
	return SpecialtySnapshot{
		Specialty:            specialty,
		ActivePatients:       ActiveBySpecialty(patients, w, specialty),
		Readmissions:         ReadmissionCount(patients, w, specialty),
		PendingConsultations: PendingConsultations(consultations, w, specialty),
		EmergencyCount:       SafetyTypeCount(patients, w, specialty, patient.SafetyEmergency),
		ObservationCount:     SafetyTypeCount(patients, w, specialty, patient.SafetyObservation),
		ShortStayCount:       SafetyTypeCount(patients, w, specialty, patient.SafetyShortStay),
	}
}

// SafetyStats aggregates flagged admissions across the hospital.
type SafetyStats struct {
	Emergency       int `json:"emergency"`
	Observation     int `json:"observation"`
	ShortStay       int `json:"short_stay"`
	Total           int `json:"total"`
	Rate            int `json:"rate"`
	AverageStayDays int `json:"average_stay_days"`
}

// SafetyAdmissionStats counts patients by the safety flag of their
// active admission in the window. Rate is the share of flagged patients
// among all patients with an active admission, as a rounded percentage.
// AverageStayDays averages completed flagged stays, each rounded up to
// whole days, then rounds the mean.
func SafetyAdmissionStats(patients []*patient.Patient, w Window) SafetyStats {
	var stats SafetyStats
	activePatients := 0

	for _, p := range patients {
		a := activeInWindow(p, w, "")
		if a == nil {
			continue
		}
		activePatients++
		if a.SafetyType == nil {
			continue
		}
		switch *a.SafetyType {
		case patient.SafetyEmergency:
			stats.Emergency++
		case patient.SafetyObservation:
			stats.Observation++
		case patient.SafetyShortStay:
			stats.ShortStay++
		}
	}
	stats.Total = stats.Emergency + stats.Observation + stats.ShortStay
	if activePatients > 0 {
		stats.Rate = round(float64(stats.Total) / float64(activePatients) * 100)
	}

	stayTotal, stayCount := 0, 0
	for _, p := range patients {
		for _, a := range p.Admissions {
			if a.SafetyType == nil || a.DischargeDate == nil || !w.Contains(a.AdmissionDate) {
				continue
			}
			stayTotal += a.StayDays()
			stayCount++
		}
	}
	if stayCount > 0 {
		stats.AverageStayDays = round(float64(stayTotal) / float64(stayCount))
	}
	return stats
}

// Summary is the hospital-wide overview.
type Summary struct {
	ActivePatients      int `json:"active_patients"`
	ActiveConsultations int `json:"active_consultations"`
	AverageStayDays     int `json:"average_stay_days"`
	OccupancyRate       int `json:"occupancy_rate"`
}

// Summarize computes the overview for a window. Occupancy is reported
// against the nominal bed capacity.
func Summarize(patients []*patient.Patient, consultations []*consultation.Consultation, w Window) Summary {
	var s Summary
	for _, p := range patients {
		if activeInWindow(p, w, "") != nil {
			s.ActivePatients++
		}
	}
	for _, c := range consultations {
		if c.Status == consultation.StatusActive && w.Contains(c.CreatedAt) {
			s.ActiveConsultations++
		}
	}

	stayTotal, stayCount := 0, 0
	for _, p := range patients {
		for _, a := range p.Admissions {
			if a.DischargeDate == nil || !w.Contains(a.AdmissionDate) {
				continue
			}
			stayTotal += a.StayDays()
			stayCount++
		}
	}
	if stayCount > 0 {
		s.AverageStayDays = round(float64(stayTotal) / float64(stayCount))
	}
	s.OccupancyRate = round(float64(s.ActivePatients) / nominalBedCapacity * 100)
	return s
}

// DoctorLoad is one doctor's row in the workload report.
type DoctorLoad struct {
	DoctorID            uuid.UUID `json:"doctor_id"`
	Name                string    `json:"name"`
	Department          string    `json:"department"`
	ActiveAdmissions    int       `json:"active_admissions"`
	ActiveConsultations int       `json:"active_consultations"`
}

// Workload is the doctor workload report.
type Workload struct {
	Doctors              []DoctorLoad `json:"doctors"`
	TotalAdmissions      int          `json:"total_admissions"`
	TotalConsultations   int          `json:"total_consultations"`
	AverageAdmissions    int          `json:"average_admissions"`
	AverageConsultations int          `json:"average_consultations"`
}

// DoctorWorkload tallies active episodes per active doctor. Patients are
// counted once per doctor regardless of admission count, and the
// averages are rounded over the doctors included in the report.
func DoctorWorkload(doctors []*staff.Staff, patients []*patient.Patient, consultations []*consultation.Consultation, w Window, department string) Workload {
	var wl Workload
	for _, d := range doctors {
		if !d.IsActiveDoctor() {
			continue
		}
		if department != "" && department != "all" && !strings.EqualFold(d.Department, department) {
			continue
		}

		load := DoctorLoad{DoctorID: d.ID, Name: d.Name, Department: d.Department}
		for _, p := range patients {
			for _, a := range p.Admissions {
				if a.Status != patient.AdmissionActive || !w.Contains(a.AdmissionDate) {
					continue
				}
				if a.DoctorID != nil && *a.DoctorID == d.ID {
					load.ActiveAdmissions++
					break
				}
			}
		}
		for _, c := range consultations {
			if c.Status != consultation.StatusActive || !w.Contains(c.CreatedAt) {
				continue
			}
			if c.DoctorID != nil && *c.DoctorID == d.ID {
				load.ActiveConsultations++
			}
		}

		wl.Doctors = append(wl.Doctors, load)
		wl.TotalAdmissions += load.ActiveAdmissions
		wl.TotalConsultations += load.ActiveConsultations
	}

	if n := len(wl.Doctors); n > 0 {
		wl.AverageAdmissions = round(float64(wl.TotalAdmissions) / float64(n))
		wl.AverageConsultations = round(float64(wl.TotalConsultations) / float64(n))
	}
	return wl
}
