package model

import (
	"time"

	"gorm.io/gorm"
)

// Actor kinds bound to a session. Patients and doctors live in separate
// tables, so the session records which table the user id refers to.
const (
	ActorPatient = "patient"
	ActorDoctor  = "doctor"
)

// Session is the audit record of an issued token.
type Session struct {
	gorm.Model
	UserID       uint      `json:"user_id" gorm:"column:user_id;not null;index"`
	ActorType    string    `json:"actor_type" gorm:"column:actor_type;size:10;not null"`
	SessionToken string    `json:"session_token" gorm:"column:session_token;size:512;not null;index"`
	ExpiresAt    time.Time `json:"expires_at" gorm:"column:expires_at;not null"`
	ClientIP     string    `json:"client_ip" gorm:"column:client_ip;size:45"`
	Browser      string    `json:"browser" gorm:"column:browser;size:512"`
}
