package appointment

import "github.com/glabspro/bee/internal/model"

const (
	EventCreated       = "appointment.created"
	EventStatusChanged = "appointment.status_changed"
	EventReassigned    = "appointment.reassigned"
)

type Event struct {
	Appointment    *model.Appointment      `json:"appointment"`
	PreviousStatus model.AppointmentStatus `json:"previousStatus,omitempty"`
}
