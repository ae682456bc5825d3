package scheduling

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/glabspro/bee/internal/model"
)

var (
	ErrSedeClosed   = errors.New("sede is closed at that time")
	ErrDoubleBooked = errors.New("slot already booked")
)

// ConflictCheck returns an error when a draft cannot be booked as is.
type ConflictCheck func(SessionDraft) error

// Conflict pairs a rejected draft with the reason.
type Conflict struct {
	Draft  SessionDraft `json:"draft"`
	Reason string       `json:"reason"`
}

// ConflictError is returned by Commit when the conflict check rejects drafts.
type ConflictError struct {
	Conflicts []Conflict
}

func (e *ConflictError) Error() string {
	parts := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		parts = append(parts, fmt.Sprintf("%s %s: %s", c.Draft.Date, c.Draft.Time, c.Reason))
	}
	return fmt.Sprintf("%d session(s) conflict: %s", len(e.Conflicts), strings.Join(parts, "; "))
}

// AvailabilityCheck rejects drafts that fall outside the grid's open hours or
// on the same date and time as a live appointment at sedeID. Cancelled
// appointments free their slot.
func AvailabilityCheck(grid *Grid, booked []*model.Appointment, sedeID uuid.UUID) ConflictCheck {
	type slot struct {
		date string
		time model.TimeOfDay
	}
	taken := make(map[slot]string)
	for _, a := range booked {
		if a.SedeID != sedeID || a.Status == model.AppointmentStatusCancelled {
			continue
		}
		taken[slot{a.Date.String(), a.Time}] = a.BookingCode
	}

	return func(d SessionDraft) error {
		if grid != nil && !grid.IsOpenAt(d.Date, d.Time) {
			return fmt.Errorf("%w: %s %s", ErrSedeClosed, model.WeekdayOf(d.Date.Weekday()), d.Time)
		}
		if code, ok := taken[slot{d.Date.String(), d.Time}]; ok {
			return fmt.Errorf("%w: %s", ErrDoubleBooked, code)
		}
		return nil
	}
}
