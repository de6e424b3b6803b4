package patient

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// AdmissionStatus tracks the lifecycle of a single hospital stay.
type AdmissionStatus string

const (
	AdmissionActive      AdmissionStatus = "active"
	AdmissionDischarged  AdmissionStatus = "discharged"
	AdmissionTransferred AdmissionStatus = "transferred"
)

// SafetyType classifies an admission that was flagged at intake.
type SafetyType string

const (
	SafetyEmergency   SafetyType = "emergency"
	SafetyObservation SafetyType = "observation"
	SafetyShortStay   SafetyType = "short-stay"
)

func (s SafetyType) Valid() bool {
	switch s {
	case SafetyEmergency, SafetyObservation, SafetyShortStay:
		return true
	}
	return false
}

// DischargeType records how an admission was closed.
type DischargeType string

const (
	DischargeRegular  DischargeType = "regular"
	DischargeAMA      DischargeType = "against-medical-advice"
	DischargeTransfer DischargeType = "transfer"
)

func (d DischargeType) Valid() bool {
	switch d {
	case DischargeRegular, DischargeAMA, DischargeTransfer:
		return true
	}
	return false
}

// Patient is the demographic record. Clinical context lives on the
// admissions, newest first.
type Patient struct {
	ID          uuid.UUID    `json:"id"`
	MRN         string       `json:"mrn"`
	Name        string       `json:"name"`
	DateOfBirth time.Time    `json:"date_of_birth"`
	Gender      string       `json:"gender"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Admissions  []*Admission `json:"admissions"`
}

// Admission is one hospital stay. VisitNumber is sequential per patient,
// starting at 1.
type Admission struct {
	ID               uuid.UUID       `json:"id"`
	PatientID        uuid.UUID       `json:"patient_id"`
	VisitNumber      int             `json:"visit_number"`
	AdmissionDate    time.Time       `json:"admission_date"`
	DischargeDate    *time.Time      `json:"discharge_date,omitempty"`
	Department       string          `json:"department"`
	DoctorID         *uuid.UUID      `json:"doctor_id,omitempty"`
	DoctorName       string          `json:"doctor_name,omitempty"`
	Diagnosis        string          `json:"diagnosis"`
	Status           AdmissionStatus `json:"status"`
	SafetyType       *SafetyType     `json:"safety_type,omitempty"`
	DischargeType    *DischargeType  `json:"discharge_type,omitempty"`
	FollowUpRequired bool            `json:"follow_up_required"`
	FollowUpDate     *time.Time      `json:"follow_up_date,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// StayDays reports the length of a completed stay in whole days,
// rounding partial days up. Returns 0 for admissions still open.
func (a *Admission) StayDays() int {
	if a.DischargeDate == nil {
		return 0
	}
	d := a.DischargeDate.Sub(a.AdmissionDate)
	days := int(d.Hours() / 24)
	if d > time.Duration(days)*24*time.Hour {
		days++
	}
	return days
}

// SortAdmissions orders admissions newest first by admission date.
func SortAdmissions(adms []*Admission) {
	sort.SliceStable(adms, func(i, j int) bool {
		return adms[i].AdmissionDate.After(adms[j].AdmissionDate)
	})
}

// Latest returns the most recent admission, or nil when the patient has
// never been admitted.
func (p *Patient) Latest() *Admission {
	if len(p.Admissions) == 0 {
		return nil
	}
	return p.Admissions[0]
}

// ActiveAdmission returns the open admission, or nil. A patient has at
// most one admission with status active.
func (p *Patient) ActiveAdmission() *Admission {
	for _, a := range p.Admissions {
		if a.Status == AdmissionActive {
			return a
		}
	}
	return nil
}

// CurrentDepartment projects the department of the most recent
// admission. Empty when the patient has no admissions.
func (p *Patient) CurrentDepartment() string {
	if a := p.Latest(); a != nil {
		return a.Department
	}
	return ""
}

func (p *Patient) CurrentDoctor() string {
	if a := p.Latest(); a != nil {
		return a.DoctorName
	}
	return ""
}

func (p *Patient) CurrentDiagnosis() string {
	if a := p.Latest(); a != nil {
		return a.Diagnosis
	}
	return ""
}

func (p *Patient) CurrentAdmissionDate() *time.Time {
	if a := p.Latest(); a != nil {
		return &a.AdmissionDate
	}
	return nil
}

// NextVisitNumber computes the visit number a new admission for this
// patient should carry.
func (p *Patient) NextVisitNumber() int {
	max := 0
	for _, a := range p.Admissions {
		if a.VisitNumber > max {
			max = a.VisitNumber
		}
	}
	return max + 1
}

// IsReadmission reports whether the patient has returned after at least
// one prior stay.
func (p *Patient) IsReadmission() bool {
	return len(p.Admissions) > 1
}
