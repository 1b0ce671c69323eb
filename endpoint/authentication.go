package endpoint

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/medcenter/appointment-api/model"
	"github.com/medcenter/appointment-api/util"
	"gorm.io/gorm"
)

const sessionTTL = time.Hour * 24

type registerPatientRequest struct {
	Name        string `json:"name" example:"John Doe"`
	Email       string `json:"email" example:"john@example.com"`
	Password    string `json:"password" example:"password123"`
	Phone       string `json:"phone" example:"081234567890"`
	DateOfBirth string `json:"date_of_birth" example:"1990-05-20"`
	Gender      string `json:"gender" example:"female"`
}

type registerDoctorRequest struct {
	Name            string  `json:"name" example:"Dr. Jane Smith"`
	Email           string  `json:"email" example:"dr.jane@example.com"`
	Password        string  `json:"password" example:"password123"`
	Specialization  string  `json:"specialization" example:"Cardiology"`
	Phone           string  `json:"phone" example:"081234567890"`
	ExperienceYears int     `json:"experience_years" example:"12"`
	Education       string  `json:"education" example:"MD, Harvard Medical School"`
	ConsultationFee float64 `json:"consultation_fee" example:"150"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"user@example.com"`
	Password string `json:"password" binding:"required" example:"password123"`
}

type LoginResponse struct {
	Token     string      `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	ActorType string      `json:"actor_type" example:"patient"`
	User      interface{} `json:"user"`
}

type clientInfo struct {
	IP    string
	Agent string
}

func requireFields(c *gin.Context, fields map[string]string) bool {
	for name, value := range fields {
		if value == "" {
			util.CallUserError(c, util.APIErrorParams{
				Msg: fmt.Sprintf("%s is required", name),
				Err: fmt.Errorf("missing required field: %s", name),
			})
			return false
		}
	}
	return true
}

func hashPasswordOrRespond(c *gin.Context, plain string) (string, bool) {
	salt, err := util.GenerateSalt()
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to generate password salt", Err: err})
		return "", false
	}
	hashed, err := util.HashPassword(plain, salt)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to hash password", Err: err})
		return "", false
	}
	return hashed, true
}

func createIdentityToken(actorType string, userID uint) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":        float64(userID),
		"actor_type": actorType,
		"exp":        time.Now().Add(sessionTTL).Unix(),
	})
	return token.SignedString(util.GetJWTSecretByte())
}

// finalizeAuth issues a token, records the session and caches it in Redis.
// Redis failures are tolerated; the DB session row is the source of truth.
func finalizeAuth(c *gin.Context, db *gorm.DB, actorType string, userID uint, email string) (string, bool) {
	tokenString, err := createIdentityToken(actorType, userID)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Could not generate token", Err: err})
		return "", false
	}

	ci := clientInfo{IP: c.ClientIP(), Agent: c.Request.UserAgent()}
	session := model.Session{
		UserID:       userID,
		ActorType:    actorType,
		SessionToken: tokenString,
		ExpiresAt:    time.Now().Add(sessionTTL),
		ClientIP:     ci.IP,
		Browser:      ci.Agent,
	}
	if err := db.Create(&session).Error; err != nil {
		util.LogLoginFailure(email, ci.IP, ci.Agent, "session creation failed")
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to record session", Err: err})
		return "", false
	}

	_ = util.CacheSessionToken(actorType, userID, tokenString, sessionTTL)
	return tokenString, true
}

// RegisterPatient godoc
// @Summary      Register a new patient
// @Description  Create a patient account and return an identity token
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        request body registerPatientRequest true "Patient registration data"
// @Success      201 {object} util.APIResponse{data=LoginResponse} "Patient registered"
// @Failure      400 {object} util.APIResponse "Missing or malformed fields"
// @Failure      409 {object} util.APIResponse "Email already registered"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /api/auth/patient/register [post]
func RegisterPatient(c *gin.Context) {
	var req registerPatientRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}
	if !requireFields(c, map[string]string{
		"name":          req.Name,
		"email":         req.Email,
		"password":      req.Password,
		"phone":         req.Phone,
		"date_of_birth": req.DateOfBirth,
		"gender":        req.Gender,
	}) {
		return
	}
	if _, err := parseDate(req.DateOfBirth); err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid date_of_birth", Err: err})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var existing model.Patient
	if err := db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		util.CallConflict(c, util.APIErrorParams{
			Msg: "Patient with this email already exists",
			Err: fmt.Errorf("email already registered"),
		})
		return
	} else if err != gorm.ErrRecordNotFound {
		util.CallServerError(c, util.APIErrorParams{Msg: "Database error", Err: err})
		return
	}

	hashed, ok := hashPasswordOrRespond(c, req.Password)
	if !ok {
		return
	}

	patient := model.Patient{
		Name:        util.NormalizeName(req.Name),
		Email:       req.Email,
		Password:    hashed,
		Phone:       req.Phone,
		DateOfBirth: req.DateOfBirth,
		Gender:      req.Gender,
	}
	if err := db.Create(&patient).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to create patient", Err: err})
		return
	}

	token, ok := finalizeAuth(c, db, model.ActorPatient, patient.ID, patient.Email)
	if !ok {
		return
	}

	util.LogSecurityEvent(util.SecurityEvent{
		EventType: util.EventSignupSuccess,
		UserID:    fmt.Sprintf("%d", patient.ID),
		Email:     patient.Email,
		IP:        c.ClientIP(),
		Message:   "patient registered",
	})
	util.CallSuccessCreated(c, util.APISuccessParams{
		Msg:  "Patient registered successfully",
		Data: LoginResponse{Token: token, ActorType: model.ActorPatient, User: patient},
	})
}

// RegisterDoctor godoc
// @Summary      Register a new doctor
// @Description  Create a doctor account and return an identity token
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        request body registerDoctorRequest true "Doctor registration data"
// @Success      201 {object} util.APIResponse{data=LoginResponse} "Doctor registered"
// @Failure      400 {object} util.APIResponse "Missing or malformed fields"
// @Failure      409 {object} util.APIResponse "Email already registered"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /api/auth/doctor/register [post]
func RegisterDoctor(c *gin.Context) {
	var req registerDoctorRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}
	if !requireFields(c, map[string]string{
		"name":           req.Name,
		"email":          req.Email,
		"password":       req.Password,
		"specialization": req.Specialization,
		"phone":          req.Phone,
		"education":      req.Education,
	}) {
		return
	}
	if req.ExperienceYears < 0 {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "experience_years must not be negative",
			Err: fmt.Errorf("invalid experience_years: %d", req.ExperienceYears),
		})
		return
	}
	if req.ConsultationFee <= 0 {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "consultation_fee is required",
			Err: fmt.Errorf("missing required field: consultation_fee"),
		})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var existing model.Doctor
	if err := db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		util.CallConflict(c, util.APIErrorParams{
			Msg: "Doctor with this email already exists",
			Err: fmt.Errorf("email already registered"),
		})
		return
	} else if err != gorm.ErrRecordNotFound {
		util.CallServerError(c, util.APIErrorParams{Msg: "Database error", Err: err})
		return
	}

	hashed, ok := hashPasswordOrRespond(c, req.Password)
	if !ok {
		return
	}

	doctor := model.Doctor{
		Name:            util.NormalizeName(req.Name),
		Email:           req.Email,
		Password:        hashed,
		Specialization:  req.Specialization,
		Phone:           req.Phone,
		ExperienceYears: req.ExperienceYears,
		Education:       req.Education,
		ConsultationFee: req.ConsultationFee,
	}
	if err := db.Create(&doctor).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to create doctor", Err: err})
		return
	}

	token, ok := finalizeAuth(c, db, model.ActorDoctor, doctor.ID, doctor.Email)
	if !ok {
		return
	}

	util.LogSecurityEvent(util.SecurityEvent{
		EventType: util.EventSignupSuccess,
		UserID:    fmt.Sprintf("%d", doctor.ID),
		Email:     doctor.Email,
		IP:        c.ClientIP(),
		Message:   "doctor registered",
	})
	util.CallSuccessCreated(c, util.APISuccessParams{
		Msg:  "Doctor registered successfully",
		Data: LoginResponse{Token: token, ActorType: model.ActorDoctor, User: doctor},
	})
}

// LoginPatient godoc
// @Summary      Patient login
// @Description  Authenticate a patient with email and password
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} util.APIResponse{data=LoginResponse} "Login successful"
// @Failure      400 {object} util.APIResponse "Invalid request payload"
// @Failure      401 {object} util.APIResponse "Invalid email or password"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /api/auth/patient/login [post]
func LoginPatient(c *gin.Context) {
	var req LoginRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	ci := clientInfo{IP: c.ClientIP(), Agent: c.Request.UserAgent()}

	var patient model.Patient
	err := db.Where("email = ?", req.Email).First(&patient).Error
	if err == gorm.ErrRecordNotFound {
		util.LogLoginFailure(req.Email, ci.IP, ci.Agent, "patient not found")
		util.CallUserNotAuthorized(c, util.APIErrorParams{Msg: "Invalid email or password", Err: fmt.Errorf("invalid credentials")})
		return
	}
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Database error", Err: err})
		return
	}

	match, err := util.VerifyPassword(req.Password, patient.Password)
	if err != nil {
		util.LogLoginFailure(req.Email, ci.IP, ci.Agent, "password verification error")
		util.CallServerError(c, util.APIErrorParams{Msg: "Password verification failed", Err: err})
		return
	}
	if !match {
		util.LogLoginFailure(req.Email, ci.IP, ci.Agent, "invalid password")
		util.CallUserNotAuthorized(c, util.APIErrorParams{Msg: "Invalid email or password", Err: fmt.Errorf("invalid credentials")})
		return
	}

	token, ok := finalizeAuth(c, db, model.ActorPatient, patient.ID, patient.Email)
	if !ok {
		return
	}

	util.LogLoginSuccess(patient.ID, model.ActorPatient, patient.Email, ci.IP, ci.Agent)
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Login successful",
		Data: LoginResponse{Token: token, ActorType: model.ActorPatient, User: patient},
	})
}

// LoginDoctor godoc
// @Summary      Doctor login
// @Description  Authenticate a doctor with email and password
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} util.APIResponse{data=LoginResponse} "Login successful"
// @Failure      400 {object} util.APIResponse "Invalid request payload"
// @Failure      401 {object} util.APIResponse "Invalid email or password"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /api/auth/doctor/login [post]
func LoginDoctor(c *gin.Context) {
	var req LoginRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	ci := clientInfo{IP: c.ClientIP(), Agent: c.Request.UserAgent()}

	var doctor model.Doctor
	err := db.Where("email = ?", req.Email).First(&doctor).Error
	if err == gorm.ErrRecordNotFound {
		util.LogLoginFailure(req.Email, ci.IP, ci.Agent, "doctor not found")
		util.CallUserNotAuthorized(c, util.APIErrorParams{Msg: "Invalid email or password", Err: fmt.Errorf("invalid credentials")})
		return
	}
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Database error", Err: err})
		return
	}

	match, err := util.VerifyPassword(req.Password, doctor.Password)
	if err != nil {
		util.LogLoginFailure(req.Email, ci.IP, ci.Agent, "password verification error")
		util.CallServerError(c, util.APIErrorParams{Msg: "Password verification failed", Err: err})
		return
	}
	if !match {
		util.LogLoginFailure(req.Email, ci.IP, ci.Agent, "invalid password")
		util.CallUserNotAuthorized(c, util.APIErrorParams{Msg: "Invalid email or password", Err: fmt.Errorf("invalid credentials")})
		return
	}

	token, ok := finalizeAuth(c, db, model.ActorDoctor, doctor.ID, doctor.Email)
	if !ok {
		return
	}

	util.LogLoginSuccess(doctor.ID, model.ActorDoctor, doctor.Email, ci.IP, ci.Agent)
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Login successful",
		Data: LoginResponse{Token: token, ActorType: model.ActorDoctor, User: doctor},
	})
}

// CurrentUser godoc
// @Summary      Current authenticated user
// @Description  Resolve the actor bound to the presented token
// @Tags         Authentication
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} util.APIResponse "Current user"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      404 {object} util.APIResponse "User not found"
// @Router       /api/auth/me [get]
func CurrentUser(c *gin.Context) {
	actorID, actorType, ok := getActorOrRespond(c)
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	switch actorType {
	case model.ActorPatient:
		var patient model.Patient
		if err := db.First(&patient, actorID).Error; err != nil {
			util.CallErrorNotFound(c, util.APIErrorParams{Msg: "User not found", Err: err})
			return
		}
		util.CallSuccessOK(c, util.APISuccessParams{
			Msg:  "Current user retrieved",
			Data: map[string]interface{}{"user_type": model.ActorPatient, "user": patient},
		})
	case model.ActorDoctor:
		var doctor model.Doctor
		if err := db.First(&doctor, actorID).Error; err != nil {
			util.CallErrorNotFound(c, util.APIErrorParams{Msg: "User not found", Err: err})
			return
		}
		util.CallSuccessOK(c, util.APISuccessParams{
			Msg:  "Current user retrieved",
			Data: map[string]interface{}{"user_type": model.ActorDoctor, "user": doctor},
		})
	}
}

// Logout godoc
// @Summary      Logout
// @Description  Invalidate the presented session token
// @Tags         Authentication
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} util.APIResponse "Logout successful"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      404 {object} util.APIResponse "Session not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /api/auth/logout [delete]
func Logout(c *gin.Context) {
	actorID, actorType, ok := getActorOrRespond(c)
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	tokenString := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")

	var session model.Session
	err := db.Where("session_token = ? AND user_id = ? AND actor_type = ?", tokenString, actorID, actorType).First(&session).Error
	if err == gorm.ErrRecordNotFound {
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Session not found", Err: err})
		return
	}
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Database error", Err: err})
		return
	}

	if err := db.Delete(&session).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to invalidate session", Err: err})
		return
	}
	_ = util.DropSessionToken(actorType, actorID, tokenString)

	util.LogSecurityEvent(util.SecurityEvent{
		EventType: util.EventLogout,
		UserID:    fmt.Sprintf("%d", actorID),
		IP:        c.ClientIP(),
		Message:   fmt.Sprintf("%s logged out", actorType),
	})
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Logout successful"})
}
