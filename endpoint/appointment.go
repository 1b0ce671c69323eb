package endpoint

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/medcenter/appointment-api/model"
	"github.com/medcenter/appointment-api/util"
	"gorm.io/gorm"
)

var errSlotTaken = errors.New("appointment slot already booked")

type createAppointmentRequest struct {
	DoctorID        uint   `json:"doctor_id" example:"1"`
	AppointmentDate string `json:"appointment_date" example:"2025-03-10"`
	AppointmentTime string `json:"appointment_time" example:"10:30"`
	DurationMinutes int    `json:"duration_minutes" example:"30"`
	Notes           string `json:"notes" example:"First consultation"`
}

func isParticipant(appt model.Appointment, actorID uint, actorType string) bool {
	switch actorType {
	case model.ActorPatient:
		return appt.PatientID == actorID
	case model.ActorDoctor:
		return appt.DoctorID == actorID
	}
	return false
}

// getAppointmentForActor loads an appointment by path id and enforces that
// the actor is one of its participants.
func getAppointmentForActor(c *gin.Context, db *gorm.DB, actorID uint, actorType string) (model.Appointment, bool) {
	apptID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid appointment ID", Err: err})
		return model.Appointment{}, false
	}

	var appt model.Appointment
	err = db.First(&appt, apptID).Error
	if err == gorm.ErrRecordNotFound {
		util.CallErrorNotFound(c, util.APIErrorParams{
			Msg: "Appointment not found",
			Err: fmt.Errorf("no appointment with id %d", apptID),
		})
		return model.Appointment{}, false
	}
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Database error", Err: err})
		return model.Appointment{}, false
	}

	if !isParticipant(appt, actorID, actorType) {
		util.CallForbidden(c, util.APIErrorParams{
			Msg: "You are not a participant of this appointment",
			Err: fmt.Errorf("actor %d is neither the patient nor the doctor", actorID),
		})
		return model.Appointment{}, false
	}
	return appt, true
}

// reserveAvailabilitySlot marks a matching unbooked availability row booked.
// Missing rows are fine: the doctor may be running on the default grid.
func reserveAvailabilitySlot(tx *gorm.DB, doctorID uint, date, timeOfDay string) error {
	return tx.Model(&model.Availability{}).
		Where("doctor_id = ? AND date = ? AND time = ? AND is_booked = ?", doctorID, date, timeOfDay, false).
		Update("is_booked", true).Error
}

// releaseAvailabilitySlot frees the availability row consumed by a booking.
func releaseAvailabilitySlot(tx *gorm.DB, doctorID uint, date, timeOfDay string) error {
	return tx.Model(&model.Availability{}).
		Where("doctor_id = ? AND date = ? AND time = ? AND is_booked = ?", doctorID, date, timeOfDay, true).
		Update("is_booked", false).Error
}

// CreateAppointment godoc
// @Summary      Book an appointment
// @Description  Book a slot with a doctor for the authenticated patient
// @Tags         Appointment
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body createAppointmentRequest true "Booking request"
// @Success      201 {object} util.APIResponse{data=model.Appointment} "Appointment booked"
// @Failure      400 {object} util.APIResponse "Missing/malformed fields or non-future time"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      404 {object} util.APIResponse "Doctor not found"
// @Failure      409 {object} util.APIResponse "Slot already booked"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /api/appointments [post]
func CreateAppointment(c *gin.Context) {
	patientID, _, ok := getActorOrRespond(c)
	if !ok {
		return
	}

	var req createAppointmentRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}
	if req.DoctorID == 0 || req.AppointmentDate == "" || req.AppointmentTime == "" {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "doctor_id, appointment_date and appointment_time are required",
			Err: fmt.Errorf("missing required booking fields"),
		})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var doctor model.Doctor
	if err := db.First(&doctor, req.DoctorID).Error; err != nil {
		util.CallErrorNotFound(c, util.APIErrorParams{
			Msg: "Doctor not found",
			Err: fmt.Errorf("no doctor with id %d", req.DoctorID),
		})
		return
	}

	apptDate, err := parseDate(req.AppointmentDate)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid appointment_date", Err: err})
		return
	}
	apptTime, err := parseClockTime(req.AppointmentTime)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid appointment_time", Err: err})
		return
	}

	// The combined date-time must be strictly in the future at validation time.
	when := time.Date(apptDate.Year(), apptDate.Month(), apptDate.Day(),
		apptTime.Hour(), apptTime.Minute(), apptTime.Second(), 0, time.Local)
	if !when.After(time.Now()) {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Appointment must be scheduled for a future date and time",
			Err: fmt.Errorf("%s %s is not in the future", req.AppointmentDate, req.AppointmentTime),
		})
		return
	}

	duration := req.DurationMinutes
	if duration <= 0 {
		duration = 30
	}

	appt := model.Appointment{
		PatientID:       patientID,
		DoctorID:        req.DoctorID,
		AppointmentDate: req.AppointmentDate,
		AppointmentTime: canonicalTime(apptTime),
		DurationMinutes: duration,
		Status:          model.StatusScheduled,
		Notes:           req.Notes,
	}

	// Serialize the check-then-insert window per doctor so two concurrent
	// requests for the same slot cannot both pass the conflict check.
	unlock := util.LockDoctor(appt.DoctorID)
	defer unlock()

	err = db.Transaction(func(tx *gorm.DB) error {
		var existing model.Appointment
		err := tx.Where("doctor_id = ? AND appointment_date = ? AND appointment_time = ? AND status = ?",
			appt.DoctorID, appt.AppointmentDate, appt.AppointmentTime, model.StatusScheduled).
			First(&existing).Error
		if err == nil {
			return errSlotTaken
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		if err := tx.Create(&appt).Error; err != nil {
			return err
		}
		return reserveAvailabilitySlot(tx, appt.DoctorID, appt.AppointmentDate, appt.AppointmentTime)
	})
	if errors.Is(err, errSlotTaken) {
		util.CallConflict(c, util.APIErrorParams{
			Msg: "This appointment slot is already booked",
			Err: fmt.Errorf("doctor %d already has a scheduled appointment at %s %s", appt.DoctorID, appt.AppointmentDate, appt.AppointmentTime),
		})
		return
	}
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to book appointment", Err: err})
		return
	}

	util.LogSecurityEvent(util.SecurityEvent{
		EventType: util.EventBookingCreated,
		UserID:    fmt.Sprintf("%d", patientID),
		IP:        c.ClientIP(),
		Message:   fmt.Sprintf("appointment %d booked with doctor %d", appt.ID, appt.DoctorID),
	})

	// Confirmation mail is fire-and-forget; delivery never affects the booking.
	var patient model.Patient
	if err := db.First(&patient, patientID).Error; err == nil {
		go func() {
			mail := util.AppointmentMail{
				To:          patient.Email,
				PatientName: patient.Name,
				DoctorName:  doctor.Name,
				Date:        appt.AppointmentDate,
				Time:        appt.AppointmentTime,
			}
			if err := util.SendAppointmentConfirmation(mail); err != nil {
				log.Printf("confirmation email for appointment %d failed: %v", appt.ID, err)
			}
		}()
	}

	util.CallSuccessCreated(c, util.APISuccessParams{
		Msg:  "Appointment booked successfully",
		Data: appt,
	})
}

// GetAppointment godoc
// @Summary      Get an appointment
// @Description  Fetch an appointment the actor participates in
// @Tags         Appointment
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Appointment ID"
// @Success      200 {object} util.APIResponse{data=model.Appointment} "Appointment retrieved"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      403 {object} util.APIResponse "Not a participant"
// @Failure      404 {object} util.APIResponse "Appointment not found"
// @Router       /api/appointments/{id} [get]
func GetAppointment(c *gin.Context) {
	actorID, actorType, ok := getActorOrRespond(c)
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	appt, ok := getAppointmentForActor(c, db, actorID, actorType)
	if !ok {
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Appointment retrieved",
		Data: appt,
	})
}

// UpdateAppointment godoc
// @Summary      Update an appointment
// @Description  Update status and/or notes; status changes follow the transition table
// @Tags         Appointment
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Appointment ID"
// @Param        request body model.UpdateAppointmentRequest true "Fields to update"
// @Success      200 {object} util.APIResponse{data=model.Appointment} "Appointment updated"
// @Failure      400 {object} util.APIResponse "Unknown status value"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      403 {object} util.APIResponse "Not a participant"
// @Failure      404 {object} util.APIResponse "Appointment not found"
// @Failure      409 {object} util.APIResponse "Transition not allowed"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /api/appointments/{id} [put]
func UpdateAppointment(c *gin.Context) {
	actorID, actorType, ok := getActorOrRespond(c)
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	appt, ok := getAppointmentForActor(c, db, actorID, actorType)
	if !ok {
		return
	}

	var req model.UpdateAppointmentRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}

	statusChanged := false
	if req.Status != "" && req.Status != appt.Status {
		if !model.IsValidStatus(req.Status) {
			util.CallUserError(c, util.APIErrorParams{
				Msg: fmt.Sprintf("Unknown status: %s", req.Status),
				Err: fmt.Errorf("status %q is not a recognized value", req.Status),
			})
			return
		}
		if !model.CanTransition(appt.Status, req.Status) {
			util.CallConflict(c, util.APIErrorParams{
				Msg: fmt.Sprintf("Cannot change status from %s to %s", appt.Status, req.Status),
				Err: fmt.Errorf("transition %s -> %s is not allowed", appt.Status, req.Status),
			})
			return
		}
		appt.Status = req.Status
		statusChanged = true
	}
	if req.Notes != nil {
		appt.Notes = *req.Notes
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&appt).Error; err != nil {
			return err
		}
		// A booking leaving the scheduled state gives its slot back.
		if statusChanged && appt.Status != model.StatusScheduled {
			return releaseAvailabilitySlot(tx, appt.DoctorID, appt.AppointmentDate, appt.AppointmentTime)
		}
		return nil
	})
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to update appointment", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Appointment updated successfully",
		Data: appt,
	})
}

// CancelAppointment godoc
// @Summary      Cancel an appointment
// @Description  Transition a scheduled appointment to cancelled
// @Tags         Appointment
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Appointment ID"
// @Success      200 {object} util.APIResponse{data=model.Appointment} "Appointment cancelled"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      403 {object} util.APIResponse "Not a participant"
// @Failure      404 {object} util.APIResponse "Appointment not found"
// @Failure      409 {object} util.APIResponse "Appointment is not scheduled"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /api/appointments/{id} [delete]
func CancelAppointment(c *gin.Context) {
	actorID, actorType, ok := getActorOrRespond(c)
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	appt, ok := getAppointmentForActor(c, db, actorID, actorType)
	if !ok {
		return
	}

	if appt.Status != model.StatusScheduled {
		util.CallConflict(c, util.APIErrorParams{
			Msg: "Cannot cancel an appointment that is not scheduled",
			Err: fmt.Errorf("appointment %d has status %s", appt.ID, appt.Status),
		})
		return
	}

	appt.Status = model.StatusCancelled
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&appt).Error; err != nil {
			return err
		}
		return releaseAvailabilitySlot(tx, appt.DoctorID, appt.AppointmentDate, appt.AppointmentTime)
	})
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to cancel appointment", Err: err})
		return
	}

	util.LogSecurityEvent(util.SecurityEvent{
		EventType: util.EventBookingCancelled,
		UserID:    fmt.Sprintf("%d", actorID),
		IP:        c.ClientIP(),
		Message:   fmt.Sprintf("appointment %d cancelled by %s %d", appt.ID, actorType, actorID),
	})
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Appointment cancelled successfully",
		Data: appt,
	})
}

// GetAvailableSlots godoc
// @Summary      List a doctor's free slots for a date
// @Description  Open HH:MM slots derived from the doctor's availability, or the default 09:00-17:00 grid
// @Tags         Appointment
// @Produce      json
// @Param        doctor_id path int true "Doctor ID"
// @Param        date query string true "Date (YYYY-MM-DD)"
// @Success      200 {object} util.APIResponse "Available slots"
// @Failure      400 {object} util.APIResponse "Missing or malformed date"
// @Failure      404 {object} util.APIResponse "Doctor not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /api/appointments/doctor/{doctor_id}/available-slots [get]
func GetAvailableSlots(c *gin.Context) {
	doctorID, err := strconv.ParseUint(c.Param("doctor_id"), 10, 64)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid doctor ID", Err: err})
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var doctor model.Doctor
	if err := db.First(&doctor, doctorID).Error; err != nil {
		util.CallErrorNotFound(c, util.APIErrorParams{
			Msg: "Doctor not found",
			Err: fmt.Errorf("no doctor with id %d", doctorID),
		})
		return
	}

	dateStr := c.Query("date")
	if dateStr == "" {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "date query parameter is required",
			Err: fmt.Errorf("missing date"),
		})
		return
	}
	if _, err := parseDate(dateStr); err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid date", Err: err})
		return
	}

	slots, err := openSlots(db, uint(doctorID), dateStr)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to compute available slots", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Available slots retrieved",
		Data: map[string]interface{}{"date": dateStr, "available_slots": slots},
	})
}
