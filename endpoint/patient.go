package endpoint

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/medcenter/appointment-api/model"
	"github.com/medcenter/appointment-api/util"
	"gorm.io/gorm"
)

// fetchAppointments lists the appointments bound to one side of a booking,
// with optional status and date filters, newest first. The actor kind maps to
// a fixed column; nothing caller-supplied reaches the SQL text.
func fetchAppointments(db *gorm.DB, actorType string, actorID uint, status, date string) ([]model.Appointment, error) {
	var query *gorm.DB
	switch actorType {
	case model.ActorPatient:
		query = db.Where("patient_id = ?", actorID)
	case model.ActorDoctor:
		query = db.Where("doctor_id = ?", actorID)
	default:
		return nil, fmt.Errorf("unknown actor kind: %s", actorType)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if date != "" {
		query = query.Where("appointment_date = ?", date)
	}

	var appointments []model.Appointment
	err := query.Order("appointment_date DESC, appointment_time DESC").Find(&appointments).Error
	return appointments, err
}

func appointmentFiltersOrRespond(c *gin.Context) (string, string, bool) {
	status := c.Query("status")
	if status != "" && !model.IsValidStatus(status) {
		util.CallUserError(c, util.APIErrorParams{
			Msg: fmt.Sprintf("Unknown status: %s", status),
			Err: fmt.Errorf("status %q is not a recognized value", status),
		})
		return "", "", false
	}
	date := c.Query("date")
	if date != "" {
		if _, err := parseDate(date); err != nil {
			util.CallUserError(c, util.APIErrorParams{Msg: "Invalid date filter", Err: err})
			return "", "", false
		}
	}
	return status, date, true
}

// GetPatientProfile godoc
// @Summary      Get patient profile
// @Description  Get the authenticated patient's profile
// @Tags         Patient
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} util.APIResponse{data=model.Patient} "Profile retrieved"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      404 {object} util.APIResponse "Patient not found"
// @Router       /api/patient/profile [get]
func GetPatientProfile(c *gin.Context) {
	patientID, _, ok := getActorOrRespond(c)
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var patient model.Patient
	if err := db.First(&patient, patientID).Error; err != nil {
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Patient not found", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Profile retrieved",
		Data: patient,
	})
}

// UpdatePatientProfile godoc
// @Summary      Update patient profile
// @Description  Update the authenticated patient's whitelisted profile fields
// @Tags         Patient
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body model.UpdatePatientRequest true "Fields to update"
// @Success      200 {object} util.APIResponse{data=model.Patient} "Profile updated"
// @Failure      400 {object} util.APIResponse "Invalid request body"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      404 {object} util.APIResponse "Patient not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /api/patient/profile [put]
func UpdatePatientProfile(c *gin.Context) {
	patientID, _, ok := getActorOrRespond(c)
	if !ok {
		return
	}

	var req model.UpdatePatientRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var patient model.Patient
	if err := db.First(&patient, patientID).Error; err != nil {
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Patient not found", Err: err})
		return
	}

	// Merge provided fields only.
	if req.Name != "" {
		patient.Name = util.NormalizeName(req.Name)
	}
	if req.Phone != "" {
		patient.Phone = req.Phone
	}
	if req.DateOfBirth != "" {
		if _, err := parseDate(req.DateOfBirth); err != nil {
			util.CallUserError(c, util.APIErrorParams{Msg: "Invalid date_of_birth", Err: err})
			return
		}
		patient.DateOfBirth = req.DateOfBirth
	}
	if req.Gender != "" {
		patient.Gender = req.Gender
	}

	if err := db.Save(&patient).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to update profile", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Profile updated successfully",
		Data: patient,
	})
}

// ListPatientAppointments godoc
// @Summary      List the patient's appointments
// @Description  List the authenticated patient's appointments with optional status/date filters
// @Tags         Patient
// @Produce      json
// @Security     BearerAuth
// @Param        status query string false "Filter by status"
// @Param        date query string false "Filter by date (YYYY-MM-DD)"
// @Success      200 {object} util.APIResponse{data=[]model.Appointment} "Appointments retrieved"
// @Failure      400 {object} util.APIResponse "Invalid filter"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /api/patient/appointments [get]
func ListPatientAppointments(c *gin.Context) {
	patientID, _, ok := getActorOrRespond(c)
	if !ok {
		return
	}
	status, date, ok := appointmentFiltersOrRespond(c)
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	appointments, err := fetchAppointments(db, model.ActorPatient, patientID, status, date)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve appointments", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Appointments retrieved",
		Data: map[string]interface{}{"total": len(appointments), "appointments": appointments},
	})
}
