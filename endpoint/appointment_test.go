package endpoint

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/medcenter/appointment-api/middleware"
	"github.com/medcenter/appointment-api/model"
	"github.com/stretchr/testify/assert"
)

func registerAppointmentRoutes(r *gin.Engine) {
	r.POST("/api/appointments", middleware.RequireAuth(), middleware.RequireActor(model.ActorPatient), CreateAppointment)
	r.GET("/api/appointments/:id", middleware.RequireAuth(), GetAppointment)
	r.PUT("/api/appointments/:id", middleware.RequireAuth(), UpdateAppointment)
	r.DELETE("/api/appointments/:id", middleware.RequireAuth(), CancelAppointment)
	r.GET("/api/appointments/doctor/:doctor_id/available-slots", GetAvailableSlots)
}

func bookingBody(doctorID uint, date, timeOfDay string) map[string]interface{} {
	return map[string]interface{}{
		"doctor_id":        doctorID,
		"appointment_date": date,
		"appointment_time": timeOfDay,
	}
}

func TestCreateAppointment_Success(t *testing.T) {
	r, db := setupEndpointTest(t)
	registerAppointmentRoutes(r)
	doctor := createTestDoctor(t, db)
	patient := createTestPatient(t, db)
	token := tokenFor(t, db, model.ActorPatient, patient.ID)

	w, resp := performRequest(r, http.MethodPost, "/api/appointments", bookingBody(doctor.ID, futureDate(7), "10:00"), token)
	assertStatus(t, w, http.StatusCreated)

	data := resp["data"].(map[string]interface{})
	assert.Equal(t, model.StatusScheduled, data["status"])
	assert.Equal(t, "10:00:00", data["appointment_time"])
	assert.Equal(t, float64(30), data["duration_minutes"])
}

func TestCreateAppointment_ConflictOnSameSlot(t *testing.T) {
	r, db := setupEndpointTest(t)
	registerAppointmentRoutes(r)
	doctor := createTestDoctor(t, db)
	patient := createTestPatient(t, db)
	token := tokenFor(t, db, model.ActorPatient, patient.ID)
	date := futureDate(7)

	w, _ := performRequest(r, http.MethodPost, "/api/appointments", bookingBody(doctor.ID, date, "10:00"), token)
	assertStatus(t, w, http.StatusCreated)

	// Same slot spelled with seconds collides with the HH:MM booking.
	w, resp := performRequest(r, http.MethodPost, "/api/appointments", bookingBody(doctor.ID, date, "10:00:00"), token)
	assertStatus(t, w, http.StatusConflict)
	assert.Equal(t, false, resp["success"])
}

func TestCreateAppointment_RejectsPastDateTime(t *testing.T) {
	r, db := setupEndpointTest(t)
	registerAppointmentRoutes(r)
	doctor := createTestDoctor(t, db)
	patient := createTestPatient(t, db)
	token := tokenFor(t, db, model.ActorPatient, patient.ID)

	yesterday := futureDate(-1)
	w, resp := performRequest(r, http.MethodPost, "/api/appointments", bookingBody(doctor.ID, yesterday, "10:00"), token)
	assertStatus(t, w, http.StatusBadRequest)
	assert.Contains(t, resp["msg"], "future")
}

func TestCreateAppointment_RejectsBadTimeFormat(t *testing.T) {
	r, db := setupEndpointTest(t)
	registerAppointmentRoutes(r)
	doctor := createTestDoctor(t, db)
	patient := createTestPatient(t, db)
	token := tokenFor(t, db, model.ActorPatient, patient.ID)

	w, resp := performRequest(r, http.MethodPost, "/api/appointments", bookingBody(doctor.ID, futureDate(7), "9:30am"), token)
	assertStatus(t, w, http.StatusBadRequest)
	assert.Contains(t, resp["error"], "9:30am")
}

func TestCreateAppointment_MissingFields(t *testing.T) {
	r, db := setupEndpointTest(t)
	registerAppointmentRoutes(r)
	patient := createTestPatient(t, db)
	token := tokenFor(t, db, model.ActorPatient, patient.ID)

	w, _ := performRequest(r, http.MethodPost, "/api/appointments", map[string]interface{}{"appointment_date": futureDate(7)}, token)
	assertStatus(t, w, http.StatusBadRequest)
}

func TestCreateAppointment_DoctorNotFound(t *testing.T) {
	r, db := setupEndpointTest(t)
	registerAppointmentRoutes(r)
	patient := createTestPatient(t, db)
	token := tokenFor(t, db, model.ActorPatient, patient.ID)

	w, _ := performRequest(r, http.MethodPost, "/api/appointments", bookingBody(99999, futureDate(7), "10:00"), token)
	assertStatus(t, w, http.StatusNotFound)
}

func TestCreateAppointment_MarksAvailabilitySlotBooked(t *testing.T) {
	r, db := setupEndpointTest(t)
	registerAppointmentRoutes(r)
	doctor := createTestDoctor(t, db)
	patient := createTestPatient(t, db)
	token := tokenFor(t, db, model.ActorPatient, patient.ID)
	date := futureDate(7)

	slot := model.Availability{DoctorID: doctor.ID, Date: date, Time: "10:00:00"}
	assert.NoError(t, db.Create(&slot).Error)

	w, _ := performRequest(r, http.MethodPost, "/api/appointments", bookingBody(doctor.ID, date, "10:00"), token)
	assertStatus(t, w, http.StatusCreated)

	var reloaded model.Availability
	assert.NoError(t, db.First(&reloaded, slot.ID).Error)
	assert.True(t, reloaded.IsBooked)
}

func TestGetAppointment_ForbiddenForStranger(t *testing.T) {
	r, db := setupEndpointTest(t)
	registerAppointmentRoutes(r)
	doctor := createTestDoctor(t, db)
	patient := createTestPatient(t, db)
	stranger := createTestPatient(t, db)

	appt := model.Appointment{
		PatientID:       patient.ID,
		DoctorID:        doctor.ID,
		AppointmentDate: futureDate(7),
		AppointmentTime: "10:00:00",
		DurationMinutes: 30,
		Status:          model.StatusScheduled,
	}
	assert.NoError(t, db.Create(&appt).Error)

	token := tokenFor(t, db, model.ActorPatient, stranger.ID)
	w, _ := performRequest(r, http.MethodGet, fmt.Sprintf("/api/appointments/%d", appt.ID), nil, token)
	assertStatus(t, w, http.StatusForbidden)
}

func TestGetAppointment_VisibleToBothParticipants(t *testing.T) {
	r, db := setupEndpointTest(t)
	registerAppointmentRoutes(r)
	doctor := createTestDoctor(t, db)
	patient := createTestPatient(t, db)

	appt := model.Appointment{
		PatientID:       patient.ID,
		DoctorID:        doctor.ID,
		AppointmentDate: futureDate(7),
		AppointmentTime: "10:00:00",
		DurationMinutes: 30,
		Status:          model.StatusScheduled,
	}
	assert.NoError(t, db.Create(&appt).Error)

	w, resp := performRequest(r, http.MethodGet, fmt.Sprintf("/api/appointments/%d", appt.ID), nil, tokenFor(t, db, model.ActorPatient, patient.ID))
	assertSuccessResponse(t, w, resp)

	w, resp = performRequest(r, http.MethodGet, fmt.Sprintf("/api/appointments/%d", appt.ID), nil, tokenFor(t, db, model.ActorDoctor, doctor.ID))
	assertSuccessResponse(t, w, resp)
}

func TestUpdateAppointment_NotesAndStatus(t *testing.T) {
	r, db := setupEndpointTest(t)
	registerAppointmentRoutes(r)
	doctor := createTestDoctor(t, db)
	patient := createTestPatient(t, db)

	appt := model.Appointment{
		PatientID:       patient.ID,
		DoctorID:        doctor.ID,
		AppointmentDate: futureDate(7),
		AppointmentTime: "10:00:00",
		DurationMinutes: 30,
		Status:          model.StatusScheduled,
	}
	assert.NoError(t, db.Create(&appt).Error)

	token := tokenFor(t, db, model.ActorDoctor, doctor.ID)
	body := map[string]interface{}{"status": model.StatusCompleted, "notes": "Patient recovered well"}
	w, resp := performRequest(r, http.MethodPut, fmt.Sprintf("/api/appointments/%d", appt.ID), body, token)
	assertSuccessResponse(t, w, resp)

	var reloaded model.Appointment
	assert.NoError(t, db.First(&reloaded, appt.ID).Error)
	assert.Equal(t, model.StatusCompleted, reloaded.Status)
	assert.Equal(t, "Patient recovered well", reloaded.Notes)
}

func TestUpdateAppointment_RejectsUnknownStatus(t *testing.T) {
	r, db := setupEndpointTest(t)
	registerAppointmentRoutes(r)
	doctor := createTestDoctor(t, db)
	patient := createTestPatient(t, db)

	appt := model.Appointment{
		PatientID:       patient.ID,
		DoctorID:        doctor.ID,
		AppointmentDate: futureDate(7),
		AppointmentTime: "10:00:00",
		Status:          model.StatusScheduled,
	}
	assert.NoError(t, db.Create(&appt).Error)

	token := tokenFor(t, db, model.ActorDoctor, doctor.ID)
	w, resp := performRequest(r, http.MethodPut, fmt.Sprintf("/api/appointments/%d", appt.ID), map[string]interface{}{"status": "rescheduled"}, token)
	assertStatus(t, w, http.StatusBadRequest)
	assert.Contains(t, resp["msg"], "rescheduled")
}

func TestUpdateAppointment_RejectsClosedTransition(t *testing.T) {
	r, db := setupEndpointTest(t)
	registerAppointmentRoutes(r)
	doctor := createTestDoctor(t, db)
	patient := createTestPatient(t, db)

	appt := model.Appointment{
		PatientID:       patient.ID,
		DoctorID:        doctor.ID,
		AppointmentDate: futureDate(7),
		AppointmentTime: "10:00:00",
		Status:          model.StatusCompleted,
	}
	assert.NoError(t, db.Create(&appt).Error)

	token := tokenFor(t, db, model.ActorDoctor, doctor.ID)
	w, _ := performRequest(r, http.MethodPut, fmt.Sprintf("/api/appointments/%d", appt.ID), map[string]interface{}{"status": model.StatusCancelled}, token)
	assertStatus(t, w, http.StatusConflict)
}

func TestCancelAppointment_TransitionAndSecondCancelFails(t *testing.T) {
	r, db := setupEndpointTest(t)
	registerAppointmentRoutes(r)
	doctor := createTestDoctor(t, db)
	patient := createTestPatient(t, db)

	appt := model.Appointment{
		PatientID:       patient.ID,
		DoctorID:        doctor.ID,
		AppointmentDate: futureDate(7),
		AppointmentTime: "10:00:00",
		Status:          model.StatusScheduled,
	}
	assert.NoError(t, db.Create(&appt).Error)

	token := tokenFor(t, db, model.ActorPatient, patient.ID)
	path := fmt.Sprintf("/api/appointments/%d", appt.ID)

	w, resp := performRequest(r, http.MethodDelete, path, nil, token)
	assertSuccessResponse(t, w, resp)

	var reloaded model.Appointment
	assert.NoError(t, db.First(&reloaded, appt.ID).Error)
	assert.Equal(t, model.StatusCancelled, reloaded.Status)

	w, _ = performRequest(r, http.MethodDelete, path, nil, token)
	assertStatus(t, w, http.StatusConflict)
}

func TestCancelAppointment_ReleasesAvailabilitySlot(t *testing.T) {
	r, db := setupEndpointTest(t)
	registerAppointmentRoutes(r)
	doctor := createTestDoctor(t, db)
	patient := createTestPatient(t, db)
	date := futureDate(7)

	slot := model.Availability{DoctorID: doctor.ID, Date: date, Time: "10:00:00"}
	assert.NoError(t, db.Create(&slot).Error)

	token := tokenFor(t, db, model.ActorPatient, patient.ID)
	w, resp := performRequest(r, http.MethodPost, "/api/appointments", bookingBody(doctor.ID, date, "10:00"), token)
	assertStatus(t, w, http.StatusCreated)
	apptID := uint(resp["data"].(map[string]interface{})["id"].(float64))

	w, _ = performRequest(r, http.MethodDelete, fmt.Sprintf("/api/appointments/%d", apptID), nil, token)
	assertStatus(t, w, http.StatusOK)

	var reloaded model.Availability
	assert.NoError(t, db.First(&reloaded, slot.ID).Error)
	assert.False(t, reloaded.IsBooked)
}

func TestGetAvailableSlots_FullGridThenBookingRemovesOne(t *testing.T) {
	r, db := setupEndpointTest(t)
	registerAppointmentRoutes(r)
	doctor := createTestDoctor(t, db)
	patient := createTestPatient(t, db)
	date := futureDate(7)
	path := fmt.Sprintf("/api/appointments/doctor/%d/available-slots?date=%s", doctor.ID, date)

	w, resp := performRequest(r, http.MethodGet, path, nil, "")
	assertSuccessResponse(t, w, resp)
	slots := resp["data"].(map[string]interface{})["available_slots"].([]interface{})
	assert.Len(t, slots, 16)
	assert.Equal(t, "09:00", slots[0])
	assert.Equal(t, "16:30", slots[15])

	token := tokenFor(t, db, model.ActorPatient, patient.ID)
	w, _ = performRequest(r, http.MethodPost, "/api/appointments", bookingBody(doctor.ID, date, "10:00"), token)
	assertStatus(t, w, http.StatusCreated)

	w, resp = performRequest(r, http.MethodGet, path, nil, "")
	assertSuccessResponse(t, w, resp)
	slots = resp["data"].(map[string]interface{})["available_slots"].([]interface{})
	assert.Len(t, slots, 15)
	assert.NotContains(t, slots, "10:00")
	assert.Contains(t, slots, "09:30")
	assert.Contains(t, slots, "10:30")
}

func TestGetAvailableSlots_RequiresDate(t *testing.T) {
	r, db := setupEndpointTest(t)
	registerAppointmentRoutes(r)
	doctor := createTestDoctor(t, db)

	w, _ := performRequest(r, http.MethodGet, fmt.Sprintf("/api/appointments/doctor/%d/available-slots", doctor.ID), nil, "")
	assertStatus(t, w, http.StatusBadRequest)
}

func TestGetAvailableSlots_UnknownDoctor(t *testing.T) {
	r, db := setupEndpointTest(t)
	registerAppointmentRoutes(r)
	_ = db

	w, _ := performRequest(r, http.MethodGet, "/api/appointments/doctor/99999/available-slots?date="+futureDate(7), nil, "")
	assertStatus(t, w, http.StatusNotFound)
}

func TestCreateAppointment_RequiresPatientActor(t *testing.T) {
	r, db := setupEndpointTest(t)
	registerAppointmentRoutes(r)
	doctor := createTestDoctor(t, db)

	// A doctor token cannot book on the patient-only endpoint.
	token := tokenFor(t, db, model.ActorDoctor, doctor.ID)
	w, _ := performRequest(r, http.MethodPost, "/api/appointments", bookingBody(doctor.ID, futureDate(7), "10:00"), token)
	assertStatus(t, w, http.StatusForbidden)
}

// Guards against regressions in the conflict check when older terminal
// appointments occupy the same triple.
func TestCreateAppointment_CancelledSlotCanBeRebooked(t *testing.T) {
	r, db := setupEndpointTest(t)
	registerAppointmentRoutes(r)
	doctor := createTestDoctor(t, db)
	patient := createTestPatient(t, db)
	date := futureDate(7)

	cancelled := model.Appointment{
		PatientID:       patient.ID,
		DoctorID:        doctor.ID,
		AppointmentDate: date,
		AppointmentTime: "10:00:00",
		Status:          model.StatusCancelled,
	}
	assert.NoError(t, db.Create(&cancelled).Error)

	token := tokenFor(t, db, model.ActorPatient, patient.ID)
	w, _ := performRequest(r, http.MethodPost, "/api/appointments", bookingBody(doctor.ID, date, "10:00"), token)
	assertStatus(t, w, http.StatusCreated)

	var count int64
	assert.NoError(t, db.Model(&model.Appointment{}).Where("doctor_id = ? AND appointment_date = ? AND appointment_time = ? AND status = ?",
		doctor.ID, date, "10:00:00", model.StatusScheduled).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
