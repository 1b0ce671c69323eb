package endpoint

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/medcenter/appointment-api/model"
	"github.com/medcenter/appointment-api/util"
	"gorm.io/gorm"
)

var errDuplicateSlot = errors.New("availability slot already exists")

type addAvailabilityRequest struct {
	Date string `json:"date" example:"2025-03-10"`
	Time string `json:"time" example:"10:30"`
}

// ListAvailability godoc
// @Summary      List open availability slots
// @Description  List the authenticated doctor's unbooked slots, optionally for one date
// @Tags         Availability
// @Produce      json
// @Security     BearerAuth
// @Param        date query string false "Filter by date (YYYY-MM-DD)"
// @Success      200 {object} util.APIResponse{data=[]model.Availability} "Slots retrieved"
// @Failure      400 {object} util.APIResponse "Invalid date filter"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /api/availability [get]
func ListAvailability(c *gin.Context) {
	doctorID, _, ok := getActorOrRespond(c)
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	query := db.Where("doctor_id = ? AND is_booked = ?", doctorID, false)
	if dateFilter := c.Query("date"); dateFilter != "" {
		if _, err := parseDate(dateFilter); err != nil {
			util.CallUserError(c, util.APIErrorParams{Msg: "Invalid date filter", Err: err})
			return
		}
		query = query.Where("date = ?", dateFilter)
	}

	var slots []model.Availability
	if err := query.Order("date ASC, time ASC").Find(&slots).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve availability", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Availability retrieved",
		Data: map[string]interface{}{"total": len(slots), "availability": slots},
	})
}

// AddAvailability godoc
// @Summary      Add an availability slot
// @Description  Declare a new bookable slot for the authenticated doctor
// @Tags         Availability
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body addAvailabilityRequest true "Slot date and time"
// @Success      201 {object} util.APIResponse{data=model.Availability} "Slot added"
// @Failure      400 {object} util.APIResponse "Missing/malformed date or time, or past date"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      409 {object} util.APIResponse "Slot already exists"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /api/availability [post]
func AddAvailability(c *gin.Context) {
	doctorID, _, ok := getActorOrRespond(c)
	if !ok {
		return
	}

	var req addAvailabilityRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}
	if req.Date == "" || req.Time == "" {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "date and time are required",
			Err: fmt.Errorf("missing date or time"),
		})
		return
	}

	if _, err := parseDate(req.Date); err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid date", Err: err})
		return
	}
	slotTime, err := parseClockTime(req.Time)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid time", Err: err})
		return
	}

	// Past-date check on the calendar day; same-day slots are allowed.
	if req.Date < time.Now().Format(dateLayout) {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Cannot add availability for past dates",
			Err: fmt.Errorf("date %s is in the past", req.Date),
		})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	slot := model.Availability{
		DoctorID: doctorID,
		Date:     req.Date,
		Time:     canonicalTime(slotTime),
	}

	unlock := util.LockDoctor(doctorID)
	defer unlock()

	err = db.Transaction(func(tx *gorm.DB) error {
		var existing model.Availability
		err := tx.Where("doctor_id = ? AND date = ? AND time = ?", slot.DoctorID, slot.Date, slot.Time).First(&existing).Error
		if err == nil {
			return errDuplicateSlot
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		// The composite unique index backstops this check against
		// writers outside the per-doctor lock.
		return tx.Create(&slot).Error
	})
	if errors.Is(err, errDuplicateSlot) {
		util.CallConflict(c, util.APIErrorParams{
			Msg: "This time slot already exists",
			Err: fmt.Errorf("duplicate slot at %s %s", slot.Date, slot.Time),
		})
		return
	}
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to add availability", Err: err})
		return
	}

	util.CallSuccessCreated(c, util.APISuccessParams{
		Msg:  "Availability slot added successfully",
		Data: slot,
	})
}

// RemoveAvailability godoc
// @Summary      Remove an availability slot
// @Description  Delete an unbooked slot owned by the authenticated doctor
// @Tags         Availability
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Slot ID"
// @Success      200 {object} util.APIResponse "Slot removed"
// @Failure      400 {object} util.APIResponse "Invalid slot ID"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      404 {object} util.APIResponse "Slot not found"
// @Failure      409 {object} util.APIResponse "Slot is booked"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /api/availability/{id} [delete]
func RemoveAvailability(c *gin.Context) {
	doctorID, _, ok := getActorOrRespond(c)
	if !ok {
		return
	}
	slotID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid slot ID", Err: err})
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var slot model.Availability
	err = db.Where("id = ? AND doctor_id = ?", slotID, doctorID).First(&slot).Error
	if err == gorm.ErrRecordNotFound {
		util.CallErrorNotFound(c, util.APIErrorParams{
			Msg: "Availability slot not found",
			Err: fmt.Errorf("no slot %d for this doctor", slotID),
		})
		return
	}
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Database error", Err: err})
		return
	}

	if slot.IsBooked {
		util.CallConflict(c, util.APIErrorParams{
			Msg: "Cannot remove a booked time slot",
			Err: fmt.Errorf("slot %d is booked", slot.ID),
		})
		return
	}

	if err := db.Delete(&slot).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to remove availability", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Availability slot removed successfully"})
}
