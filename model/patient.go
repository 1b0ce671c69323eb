package model

import "time"

// Patient represents a registered patient
// @Description Patient account and demographic information
type Patient struct {
	ID          uint      `json:"id" gorm:"primaryKey" example:"1"`
	Name        string    `json:"name" gorm:"column:name;not null" example:"John Doe"`
	Email       string    `json:"email" gorm:"column:email;uniqueIndex;size:191;not null" example:"john@example.com"`
	Password    string    `json:"-" gorm:"column:password;not null"`
	Phone       string    `json:"phone" gorm:"column:phone;not null" example:"081234567890"`
	DateOfBirth string    `json:"date_of_birth" gorm:"column:date_of_birth;not null" example:"1990-05-20"`
	Gender      string    `json:"gender" gorm:"column:gender;not null" example:"female"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UpdatePatientRequest carries the whitelisted mutable profile fields.
type UpdatePatientRequest struct {
	Name        string `json:"name,omitempty" example:"John Doe"`
	Phone       string `json:"phone,omitempty" example:"081234567890"`
	DateOfBirth string `json:"date_of_birth,omitempty" example:"1990-05-20"`
	Gender      string `json:"gender,omitempty" example:"female"`
}
