package endpoint

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/medcenter/appointment-api/middleware"
	"github.com/medcenter/appointment-api/model"
	"github.com/medcenter/appointment-api/util"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// endpointTestModels is the standard set of models migrated for endpoint tests.
var endpointTestModels = []interface{}{
	&model.Patient{},
	&model.Doctor{},
	&model.Availability{},
	&model.Appointment{},
	&model.Session{},
	&model.SecurityLog{},
}

// setupEndpointTest returns a Gin engine and a fresh in-memory database.
// Each test gets its own named shared-cache DB so connections from the
// gorm pool see the same data.
func setupEndpointTest(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	util.SetJWTSecret("test-secret-123")

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test DB: %v", err)
	}
	if err := db.AutoMigrate(endpointTestModels...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	r := gin.New()
	r.Use(middleware.DatabaseMiddleware(db))
	return r, db
}

func createTestPatient(t *testing.T, db *gorm.DB) model.Patient {
	t.Helper()
	salt, err := util.GenerateSalt()
	assert.NoError(t, err)
	hashed, err := util.HashPassword("password123", salt)
	assert.NoError(t, err)

	patient := model.Patient{
		Name:        "Test Patient",
		Email:       fmt.Sprintf("patient%d@test.com", time.Now().UnixNano()),
		Password:    hashed,
		Phone:       "081234567890",
		DateOfBirth: "1990-05-20",
		Gender:      "female",
	}
	assert.NoError(t, db.Create(&patient).Error)
	return patient
}

func createTestDoctor(t *testing.T, db *gorm.DB) model.Doctor {
	t.Helper()
	salt, err := util.GenerateSalt()
	assert.NoError(t, err)
	hashed, err := util.HashPassword("password123", salt)
	assert.NoError(t, err)

	doctor := model.Doctor{
		Name:            "Dr. Test",
		Email:           fmt.Sprintf("doctor%d@test.com", time.Now().UnixNano()),
		Password:        hashed,
		Specialization:  "Cardiology",
		Phone:           "081234567891",
		ExperienceYears: 10,
		Education:       "MD",
		ConsultationFee: 150,
	}
	assert.NoError(t, db.Create(&doctor).Error)
	return doctor
}

// tokenFor issues an identity token backed by a session row, since auth
// rejects tokens whose session has been revoked.
func tokenFor(t *testing.T, db *gorm.DB, actorType string, id uint) string {
	t.Helper()
	token, err := createIdentityToken(actorType, id)
	assert.NoError(t, err)
	session := model.Session{
		UserID:       id,
		ActorType:    actorType,
		SessionToken: token,
		ExpiresAt:    time.Now().Add(sessionTTL),
	}
	assert.NoError(t, db.Create(&session).Error)
	return token
}

// performRequest runs one request against an engine whose routes are already
// registered. The parsed response envelope is returned alongside the recorder.
func performRequest(r *gin.Engine, method, path string, body interface{}, token string) (*httptest.ResponseRecorder, map[string]interface{}) {
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func assertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	assert.Equal(t, expected, w.Code)
}

func assertSuccessResponse(t *testing.T, w *httptest.ResponseRecorder, response map[string]interface{}) {
	t.Helper()
	assert.Equal(t, http.StatusOK, w.Code)
	if response == nil {
		return
	}
	if success, ok := response["success"].(bool); ok {
		assert.True(t, success)
	}
}

func futureDate(days int) string {
	return time.Now().AddDate(0, 0, days).Format(dateLayout)
}
