package model

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "PENDING"
	AppointmentStatusConfirmed AppointmentStatus = "CONFIRMED"
	AppointmentStatusCancelled AppointmentStatus = "CANCELLED"
	AppointmentStatusCompleted AppointmentStatus = "COMPLETED"
	AppointmentStatusNoShow    AppointmentStatus = "NO_SHOW"
	AppointmentStatusAttended  AppointmentStatus = "ATTENDED"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusConfirmed, AppointmentStatusCancelled,
		AppointmentStatusCompleted, AppointmentStatusNoShow, AppointmentStatusAttended:
		return true
	}
	return false
}

// Terminal statuses accept no further transitions or reassignment.
func (s AppointmentStatus) Terminal() bool {
	return s == AppointmentStatusCancelled || s == AppointmentStatusCompleted || s == AppointmentStatusNoShow
}

// AppointmentSource records how an appointment entered the collection.
type AppointmentSource string

const (
	SourceDirect        AppointmentSource = "DIRECT"
	SourcePortal        AppointmentSource = "PORTAL"
	SourceTreatmentPlan AppointmentSource = "TREATMENT_PLAN"
)

type Appointment struct {
	Base
	PatientID      string            `db:"patient_id" json:"patientId"`
	PatientName    string            `db:"patient_name" json:"patientName,omitempty"`
	SedeID         uuid.UUID         `db:"sede_id" json:"sedeId"`
	ProfessionalID string            `db:"professional_id" json:"professionalId"`
	ServiceID      string            `db:"service_id" json:"serviceId,omitempty"`
	Date           Date              `db:"date" json:"date"`
	Time           TimeOfDay         `db:"time" json:"time"`
	Status         AppointmentStatus `db:"status" json:"status"`
	Notes          string            `db:"notes" json:"notes,omitempty"`
	BookingCode    string            `db:"booking_code" json:"bookingCode"`
	Source         AppointmentSource `db:"source" json:"source"`
}

// Clone returns a shallow copy; all fields are values.
func (a *Appointment) Clone() *Appointment {
	c := *a
	return &c
}

// StartsAt is the wall-clock start of the appointment in loc.
func (a *Appointment) StartsAt(loc *time.Location) time.Time {
	return a.Date.At(a.Time, loc)
}

func (a *Appointment) String() string {
	return fmt.Sprintf("%s %s %s [%s]", a.BookingCode, a.Date, a.Time, a.Status)
}

// AppointmentFields are the fields a batch of appointments shares, e.g. every
// session materialized from one treatment plan.
type AppointmentFields struct {
	PatientID      string    `json:"patientId" binding:"required"`
	PatientName    string    `json:"patientName"`
	SedeID         uuid.UUID `json:"sedeId" binding:"required"`
	ProfessionalID string    `json:"professionalId" binding:"required"`
	ServiceID      string    `json:"serviceId"`
	Notes          string    `json:"notes" binding:"max=2000"`
}

type AppointmentFilters struct {
	SedeID         uuid.UUID
	PatientID      string
	ProfessionalID string
	Status         AppointmentStatus
	From           Date
	To             Date
}

// Match reports whether a passes every non-zero filter. From and To are inclusive.
func (f *AppointmentFilters) Match(a *Appointment) bool {
	if f == nil {
		return true
	}
	if f.SedeID != uuid.Nil && a.SedeID != f.SedeID {
		return false
	}
	if f.PatientID != "" && a.PatientID != f.PatientID {
		return false
	}
	if f.ProfessionalID != "" && a.ProfessionalID != f.ProfessionalID {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if !f.From.IsZero() && a.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && a.Date.After(f.To) {
		return false
	}
	return true
}

// SortAppointments orders by date, then time, then creation.
func SortAppointments(list []*Appointment) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Time != b.Time {
			return a.Time < b.Time
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}
