package endpoint

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/medcenter/appointment-api/model"
	"github.com/medcenter/appointment-api/util"
)

// ListDoctors godoc
// @Summary      List doctors
// @Description  Public directory of registered doctors
// @Tags         Doctor
// @Produce      json
// @Success      200 {object} util.APIResponse{data=[]model.Doctor} "Doctors retrieved"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /api/doctors [get]
func ListDoctors(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var doctors []model.Doctor
	if err := db.Order("name ASC").Find(&doctors).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve doctors", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Doctors retrieved",
		Data: map[string]interface{}{"total": len(doctors), "doctors": doctors},
	})
}

// GetDoctorInfo godoc
// @Summary      Get doctor information
// @Description  Public details of a single doctor
// @Tags         Doctor
// @Produce      json
// @Param        id path int true "Doctor ID"
// @Success      200 {object} util.APIResponse{data=model.Doctor} "Doctor retrieved"
// @Failure      400 {object} util.APIResponse "Invalid doctor ID"
// @Failure      404 {object} util.APIResponse "Doctor not found"
// @Router       /api/doctors/{id} [get]
func GetDoctorInfo(c *gin.Context) {
	doctorID, err := strconv.ParseUint(c.Param("id"), 10, 64)
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
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Doctor not found", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Doctor retrieved",
		Data: doctor,
	})
}

// GetDoctorProfile godoc
// @Summary      Get doctor profile
// @Description  Get the authenticated doctor's profile
// @Tags         Doctor
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} util.APIResponse{data=model.Doctor} "Profile retrieved"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      404 {object} util.APIResponse "Doctor not found"
// @Router       /api/doctor/profile [get]
func GetDoctorProfile(c *gin.Context) {
	doctorID, _, ok := getActorOrRespond(c)
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var doctor model.Doctor
	if err := db.First(&doctor, doctorID).Error; err != nil {
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Doctor not found", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Profile retrieved",
		Data: doctor,
	})
}

// UpdateDoctorProfile godoc
// @Summary      Update doctor profile
// @Description  Update the authenticated doctor's whitelisted profile fields
// @Tags         Doctor
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body model.UpdateDoctorRequest true "Fields to update"
// @Success      200 {object} util.APIResponse{data=model.Doctor} "Profile updated"
// @Failure      400 {object} util.APIResponse "Invalid request body"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      404 {object} util.APIResponse "Doctor not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /api/doctor/profile [put]
func UpdateDoctorProfile(c *gin.Context) {
	doctorID, _, ok := getActorOrRespond(c)
	if !ok {
		return
	}

	var req model.UpdateDoctorRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var doctor model.Doctor
	if err := db.First(&doctor, doctorID).Error; err != nil {
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Doctor not found", Err: err})
		return
	}

	// Merge provided fields only.
	if req.Name != "" {
		doctor.Name = util.NormalizeName(req.Name)
	}
	if req.Phone != "" {
		doctor.Phone = req.Phone
	}
	if req.Specialization != "" {
		doctor.Specialization = req.Specialization
	}
	if req.ExperienceYears != 0 {
		doctor.ExperienceYears = req.ExperienceYears
	}
	if req.Education != "" {
		doctor.Education = req.Education
	}
	if req.ConsultationFee != 0 {
		doctor.ConsultationFee = req.ConsultationFee
	}

	if err := db.Save(&doctor).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to update profile", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Profile updated successfully",
		Data: doctor,
	})
}

// ListDoctorAppointments godoc
// @Summary      List the doctor's appointments
// @Description  List the authenticated doctor's appointments with optional status/date filters
// @Tags         Doctor
// @Produce      json
// @Security     BearerAuth
// @Param        status query string false "Filter by status"
// @Param        date query string false "Filter by date (YYYY-MM-DD)"
// @Success      200 {object} util.APIResponse{data=[]model.Appointment} "Appointments retrieved"
// @Failure      400 {object} util.APIResponse "Invalid filter"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /api/doctor/appointments [get]
func ListDoctorAppointments(c *gin.Context) {
	doctorID, _, ok := getActorOrRespond(c)
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

	appointments, err := fetchAppointments(db, model.ActorDoctor, doctorID, status, date)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve appointments", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Appointments retrieved",
		Data: map[string]interface{}{"total": len(appointments), "appointments": appointments},
	})
}
