package endpoint

import (
	"fmt"
	"sort"
	"time"

	"github.com/medcenter/appointment-api/model"
	"gorm.io/gorm"
)

const (
	dateLayout      = "2006-01-02"
	timeLayoutShort = "15:04"
	timeLayoutFull  = "15:04:05"
)

// Default consultation grid used when a doctor has published no explicit
// availability for a date: 09:00 inclusive to 17:00 exclusive, 30-minute steps.
const (
	gridStartHour = 9
	gridEndHour   = 17
	slotInterval  = 30 * time.Minute
)

func parseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: %s, expected YYYY-MM-DD", s)
	}
	return d, nil
}

// parseClockTime accepts HH:MM, falling back to HH:MM:SS. The offending
// literal is echoed in the error so clients can correct it.
func parseClockTime(s string) (time.Time, error) {
	if t, err := time.Parse(timeLayoutShort, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(timeLayoutFull, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time format: %s, expected HH:MM or HH:MM:SS", s)
	}
	return t, nil
}

// canonicalTime renders a clock time in the HH:MM:SS form used for storage,
// so that "09:30" and "09:30:00" collide in conflict checks.
func canonicalTime(t time.Time) string {
	return t.Format(timeLayoutFull)
}

// defaultSlotGrid enumerates the fixed fallback grid as HH:MM strings.
func defaultSlotGrid() []string {
	var slots []string
	start := time.Date(0, 1, 1, gridStartHour, 0, 0, 0, time.UTC)
	end := time.Date(0, 1, 1, gridEndHour, 0, 0, 0, time.UTC)
	for t := start; t.Before(end); t = t.Add(slotInterval) {
		slots = append(slots, t.Format(timeLayoutShort))
	}
	return slots
}

// candidateSlots returns the bookable candidate times for a doctor on a date
// as HH:MM strings. Explicit availability rows are the source of truth when
// any exist for that (doctor, date); the fixed grid is only a fallback.
func candidateSlots(db *gorm.DB, doctorID uint, date string) ([]string, error) {
	var rows []model.Availability
	if err := db.Where("doctor_id = ? AND date = ?", doctorID, date).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return defaultSlotGrid(), nil
	}

	var slots []string
	for _, row := range rows {
		if row.IsBooked {
			continue
		}
		t, err := time.Parse(timeLayoutFull, row.Time)
		if err != nil {
			// Tolerate legacy rows stored without seconds.
			t, err = time.Parse(timeLayoutShort, row.Time)
			if err != nil {
				continue
			}
		}
		slots = append(slots, t.Format(timeLayoutShort))
	}
	return slots, nil
}

// openSlots removes every candidate that collides with a scheduled
// appointment and returns the remainder in chronological order.
func openSlots(db *gorm.DB, doctorID uint, date string) ([]string, error) {
	candidates, err := candidateSlots(db, doctorID, date)
	if err != nil {
		return nil, err
	}

	var booked []model.Appointment
	err = db.Where("doctor_id = ? AND appointment_date = ? AND status = ?",
		doctorID, date, model.StatusScheduled).Find(&booked).Error
	if err != nil {
		return nil, err
	}

	bookedTimes := make(map[string]bool, len(booked))
	for _, appt := range booked {
		if t, err := time.Parse(timeLayoutFull, appt.AppointmentTime); err == nil {
			bookedTimes[t.Format(timeLayoutShort)] = true
		}
	}

	open := make([]string, 0, len(candidates))
	for _, slot := range candidates {
		if !bookedTimes[slot] {
			open = append(open, slot)
		}
	}
	// HH:MM strings are zero-padded, lexicographic order is chronological.
	sort.Strings(open)
	return open, nil
}
