// main.go
package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/medcenter/appointment-api/config"
	"github.com/medcenter/appointment-api/endpoint"
	"github.com/medcenter/appointment-api/middleware"
	"github.com/medcenter/appointment-api/model"
	"github.com/medcenter/appointment-api/util"
)

func main() {
	// Load the configuration
	cfg := config.LoadConfig()

	db, err := config.ConnectMySQL()
	if err != nil {
		log.Fatalf("Error connecting to MySQL: %v", err)
	}
	err = db.AutoMigrate(
		&model.Patient{},
		&model.Doctor{},
		&model.Availability{},
		&model.Appointment{},
		&model.Session{},
		&model.SecurityLog{},
	)
	if err != nil {
		log.Fatalf("Error running migrations: %v", err)
	}
	util.SetSecurityLoggerDB(db)

	if _, err := config.ConnectRedis(); err != nil {
		// Redis is optional; rate limiting and session caching degrade gracefully.
		log.Printf("Redis unavailable: %v", err)
	}

	// Set Gin mode from config
	gin.SetMode(cfg.GinMode)

	router := gin.Default()
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.DatabaseMiddleware(db))
	router.Use(middleware.RequestLogger())

	// Basic HTTP handler for root path
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": fmt.Sprintf("Welcome to %s!", cfg.AppName),
		})
	})

	api := router.Group("/api")

	auth := api.Group("/auth")
	auth.Use(middleware.RateLimiter(middleware.RateLimitConfig{Limit: 10, Window: 15 * time.Minute}))
	auth.POST("/patient/register", endpoint.RegisterPatient)
	auth.POST("/patient/login", endpoint.LoginPatient)
	auth.POST("/doctor/register", endpoint.RegisterDoctor)
	auth.POST("/doctor/login", endpoint.LoginDoctor)
	auth.GET("/me", middleware.RequireAuth(), endpoint.CurrentUser)
	auth.DELETE("/logout", middleware.RequireAuth(), endpoint.Logout)

	// Public doctor directory and slot lookup
	api.GET("/doctors", endpoint.ListDoctors)
	api.GET("/doctors/:id", endpoint.GetDoctorInfo)
	api.GET("/appointments/doctor/:doctor_id/available-slots", endpoint.GetAvailableSlots)

	patient := api.Group("/patient", middleware.RequireAuth(), middleware.RequireActor(model.ActorPatient))
	patient.GET("/profile", endpoint.GetPatientProfile)
	patient.PUT("/profile", endpoint.UpdatePatientProfile)
	patient.GET("/appointments", endpoint.ListPatientAppointments)

	doctor := api.Group("/doctor", middleware.RequireAuth(), middleware.RequireActor(model.ActorDoctor))
	doctor.GET("/profile", endpoint.GetDoctorProfile)
	doctor.PUT("/profile", endpoint.UpdateDoctorProfile)
	doctor.GET("/appointments", endpoint.ListDoctorAppointments)

	availability := api.Group("/availability", middleware.RequireAuth(), middleware.RequireActor(model.ActorDoctor))
	availability.GET("", endpoint.ListAvailability)
	availability.POST("", endpoint.AddAvailability)
	availability.DELETE("/:id", endpoint.RemoveAvailability)

	appointments := api.Group("/appointments", middleware.RequireAuth())
	appointments.POST("", middleware.RequireActor(model.ActorPatient), endpoint.CreateAppointment)
	appointments.GET("/:id", endpoint.GetAppointment)
	appointments.PUT("/:id", endpoint.UpdateAppointment)
	appointments.DELETE("/:id", endpoint.CancelAppointment)

	// Start server on specified port
	address := fmt.Sprintf(":%d", cfg.AppPort)
	if err := router.Run(address); err != nil {
		log.Fatalf("error starting server: %v", err)
	}
}
