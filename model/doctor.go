package model

import "time"

// Doctor represents a doctor entity
// @Description Doctor account and professional information
type Doctor struct {
	ID              uint      `json:"id" gorm:"primaryKey" example:"1"`
	Name            string    `json:"name" gorm:"column:name;not null" example:"Dr. Jane Smith"`
	Email           string    `json:"email" gorm:"column:email;uniqueIndex;size:191;not null" example:"dr.jane@example.com"`
	Password        string    `json:"-" gorm:"column:password;not null"`
	Specialization  string    `json:"specialization" gorm:"column:specialization;not null" example:"Cardiology"`
	Phone           string    `json:"phone" gorm:"column:phone;not null" example:"081234567890"`
	ExperienceYears int       `json:"experience_years" gorm:"column:experience_years;not null" example:"12"`
	Education       string    `json:"education" gorm:"column:education;not null" example:"MD, Harvard Medical School"`
	ConsultationFee float64   `json:"consultation_fee" gorm:"column:consultation_fee;not null" example:"150"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	// Availability slots and appointments are removed with the doctor.
	AvailabilitySlots []Availability `json:"-" gorm:"foreignKey:DoctorID;constraint:OnDelete:CASCADE"`
	Appointments      []Appointment  `json:"-" gorm:"foreignKey:DoctorID;constraint:OnDelete:CASCADE"`
}

// UpdateDoctorRequest carries the whitelisted mutable profile fields.
type UpdateDoctorRequest struct {
	Name            string  `json:"name,omitempty" example:"Dr. Jane Smith"`
	Phone           string  `json:"phone,omitempty" example:"081234567890"`
	Specialization  string  `json:"specialization,omitempty" example:"Cardiology"`
	ExperienceYears int     `json:"experience_years,omitempty" example:"12"`
	Education       string  `json:"education,omitempty" example:"MD, Harvard Medical School"`
	ConsultationFee float64 `json:"consultation_fee,omitempty" example:"150"`
}
