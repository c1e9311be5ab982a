package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/alexeybedrinsky/restaurant-booking/events"
	"github.com/alexeybedrinsky/restaurant-booking/models"
	"github.com/alexeybedrinsky/restaurant-booking/services"
	"github.com/alexeybedrinsky/restaurant-booking/utils"
)

type ReservationController struct {
	DB      *gorm.DB
	Service *services.ReservationService
}

func NewReservationController(db *gorm.DB, svc *services.ReservationService) *ReservationController {
	return &ReservationController{DB: db, Service: svc}
}

// CreateReservation -> guest-facing booking submission
func (rc *ReservationController) CreateReservation(c *gin.Context) {
	var req services.CreateReservationInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	reservation, err := rc.Service.Create(req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	events.BroadcastReservationUpdate(events.EventReservationCreate, *reservation)
	utils.RespondJSON(c, http.StatusCreated, "Reservation created successfully", reservation)
}

// GetAllReservations -> all reservations, newest slot first
func (rc *ReservationController) GetAllReservations(c *gin.Context) {
	var reservations []models.Reservation
	if err := rc.DB.Preload("Table").
		Order("date DESC, time DESC").
		Find(&reservations).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of reservations", reservations)
}

// GetReservationByID -> detail of a single reservation
func (rc *ReservationController) GetReservationByID(c *gin.Context) {
	id := c.Param("reservation_id")
	var reservation models.Reservation
	if err := rc.DB.Preload("Table").First(&reservation, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation detail", reservation)
}

// GetMyReservations -> reservations for the authenticated user's email
func (rc *ReservationController) GetMyReservations(c *gin.Context) {
	email, _ := c.Get("email")

	var reservations []models.Reservation
	if err := rc.DB.Preload("Table").
		Where("email = ?", email).
		Order("date DESC, time DESC").
		Find(&reservations).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Your reservations", reservations)
}

// ConfirmReservation -> staff picks a table and confirms
func (rc *ReservationController) ConfirmReservation(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("reservation_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var body struct {
		TableID uint `json:"table_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondServiceError(c, services.ErrMissingTable)
		return
	}

	reservation, err := rc.Service.Confirm(uint(id), body.TableID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	events.BroadcastReservationUpdate(events.EventReservationUpdate, *reservation)
	utils.RespondJSON(c, http.StatusOK, "Reservation confirmed", reservation)
}

// RejectReservation -> staff declines a pending reservation
func (rc *ReservationController) RejectReservation(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("reservation_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	reservation, err := rc.Service.Reject(uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	events.BroadcastReservationUpdate(events.EventReservationUpdate, *reservation)
	utils.RespondJSON(c, http.StatusOK, "Reservation rejected", reservation)
}

// CancelReservation -> user cancels their own booking, staff can cancel any;
// the table goes back to the pool
func (rc *ReservationController) CancelReservation(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("reservation_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var existing models.Reservation
	if err := rc.DB.First(&existing, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	role, _ := c.Get("role")
	email, _ := c.Get("email")
	if role != "staff" && role != "admin" && email != existing.Email {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	reservation, err := rc.Service.Cancel(uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	events.BroadcastReservationUpdate(events.EventReservationUpdate, *reservation)
	utils.RespondJSON(c, http.StatusOK, "Reservation cancelled successfully", reservation)
}

// DeleteReservation -> removes the record, releasing any held table
func (rc *ReservationController) DeleteReservation(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("reservation_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := rc.Service.Delete(uint(id)); err != nil {
		respondServiceError(c, err)
		return
	}

	events.BroadcastMessage(events.Message{
		Event: events.EventReservationDelete,
		Data:  gin.H{"reservation_id": id},
	})
	utils.RespondJSON(c, http.StatusOK, "Reservation deleted", gin.H{
		"id": id,
	})
}

// CheckAvailability -> JSON availability probe for the booking form.
// Response shape is consumed directly by the frontend, so it is not
// wrapped in the usual envelope.
func (rc *ReservationController) CheckAvailability(c *gin.Context) {
	date := c.Query("date")
	timeOfDay := c.Query("time")
	guestsStr := c.Query("guests")

	if date == "" || timeOfDay == "" || guestsStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "not all parameters provided"})
		return
	}

	guests, err := strconv.Atoi(guestsStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "guests must be a number"})
		return
	}

	result, err := rc.Service.CheckAvailability(date, timeOfDay, guests)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
