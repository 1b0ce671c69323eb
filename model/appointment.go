package model

import "time"

// Appointment statuses. The set is closed: a status not listed here is
// rejected, and only the transitions in statusTransitions are allowed.
const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no_show"
)

// statusTransitions is the closed transition table for Appointment.Status.
// Terminal statuses have no outgoing edges.
var statusTransitions = map[string][]string{
	StatusScheduled: {StatusCompleted, StatusCancelled, StatusNoShow},
	StatusCompleted: {},
	StatusCancelled: {},
	StatusNoShow:    {},
}

// IsValidStatus reports whether s is one of the known appointment statuses.
func IsValidStatus(s string) bool {
	_, ok := statusTransitions[s]
	return ok
}

// CanTransition reports whether an appointment may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Appointment binds a patient to a doctor at a specific date and time.
// AppointmentTime is stored canonically as HH:MM:SS so the exact-match
// conflict check is a plain equality. Appointments are never hard-deleted;
// cancellation is a status transition.
type Appointment struct {
	ID              uint      `json:"id" gorm:"primaryKey" example:"1"`
	PatientID       uint      `json:"patient_id" gorm:"column:patient_id;not null;index" example:"1"`
	DoctorID        uint      `json:"doctor_id" gorm:"column:doctor_id;not null;index:idx_doctor_schedule" example:"1"`
	AppointmentDate string    `json:"appointment_date" gorm:"column:appointment_date;size:10;not null;index:idx_doctor_schedule" example:"2025-03-10"`
	AppointmentTime string    `json:"appointment_time" gorm:"column:appointment_time;size:8;not null;index:idx_doctor_schedule" example:"10:30:00"`
	DurationMinutes int       `json:"duration_minutes" gorm:"column:duration_minutes;default:30" example:"30"`
	Status          string    `json:"status" gorm:"column:status;size:20;default:scheduled;index" example:"scheduled"`
	Notes           string    `json:"notes" gorm:"column:notes;type:text" example:"Follow-up visit"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// UpdateAppointmentRequest carries the whitelisted mutable appointment fields.
type UpdateAppointmentRequest struct {
	Status string  `json:"status,omitempty" example:"completed"`
	Notes  *string `json:"notes,omitempty" example:"Patient recovered well"`
}
