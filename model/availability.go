package model

import "time"

// Availability is a doctor-declared bookable slot.
// The composite unique index guarantees at most one slot per
// (doctor, date, time) even under concurrent inserts.
// No soft delete: a soft-deleted row would still occupy the unique
// index and block the doctor from re-adding the same slot.
type Availability struct {
	ID        uint      `json:"id" gorm:"primaryKey" example:"1"`
	DoctorID  uint      `json:"doctor_id" gorm:"column:doctor_id;not null;uniqueIndex:idx_doctor_date_time" example:"1"`
	Date      string    `json:"date" gorm:"column:date;size:10;not null;uniqueIndex:idx_doctor_date_time" example:"2025-03-10"`
	Time      string    `json:"time" gorm:"column:time;size:8;not null;uniqueIndex:idx_doctor_date_time" example:"10:30:00"`
	IsBooked  bool      `json:"is_booked" gorm:"column:is_booked;default:false" example:"false"`
	CreatedAt time.Time `json:"created_at"`
}

func (Availability) TableName() string {
	return "availability"
}
