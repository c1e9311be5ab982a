package Controllers_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/alexeybedrinsky/restaurant-booking/controllers"
	"github.com/alexeybedrinsky/restaurant-booking/models"
)

func setupReservationRouter(db *gorm.DB) *gin.Engine {
	return setupReservationRouterAs(db, "guest@example.com", "guest")
}

// setupReservationRouterAs stands in for the auth middleware by injecting
// the caller identity the controllers read from the request context.
func setupReservationRouterAs(db *gorm.DB, email, role string) *gin.Engine {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("email", email)
		c.Set("role", role)
	})
	svc := newService(db)
	ctrl := controllers.NewReservationController(db, svc)

	router.POST("/reservations", ctrl.CreateReservation)
	router.GET("/reservations", ctrl.GetAllReservations)
	router.GET("/reservations/check-availability", ctrl.CheckAvailability)
	router.POST("/reservations/:reservation_id/confirm", ctrl.ConfirmReservation)
	router.POST("/reservations/:reservation_id/reject", ctrl.RejectReservation)
	router.POST("/reservations/:reservation_id/cancel", ctrl.CancelReservation)
	router.DELETE("/reservations/:reservation_id", ctrl.DeleteReservation)
	return router
}

func createPayload(guests int) map[string]interface{} {
	date, timeStr := futureSlot()
	return map[string]interface{}{
		"date":   date,
		"time":   timeStr,
		"guests": guests,
		"phone":  "+79990001122",
		"email":  "guest@example.com",
	}
}

func TestCreateReservationEndpoint(t *testing.T) {
	db := setupTestDB(t)
	db.Create(&models.Table{Number: 1, Capacity: 4, IsAvailable: true})
	router := setupReservationRouter(db)

	w := doJSON(t, router, "POST", "/reservations", createPayload(3))
	assert.Equal(t, http.StatusCreated, w.Code)

	response := parseResponse(t, w)
	assert.Equal(t, "Reservation created successfully", response["message"])

	data := response["data"].(map[string]interface{})
	assert.Equal(t, "pending", data["status"])
	assert.NotNil(t, data["table_id"])

	var table models.Table
	db.First(&table)
	assert.False(t, table.IsAvailable)
}

func TestCreateReservationEndpointNoTables(t *testing.T) {
	db := setupTestDB(t)
	db.Create(&models.Table{Number: 1, Capacity: 2, IsAvailable: true})
	router := setupReservationRouter(db)

	w := doJSON(t, router, "POST", "/reservations", createPayload(5))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	response := parseResponse(t, w)
	assert.Equal(t, "no tables available for this time", response["message"])

	var count int64
	db.Model(&models.Reservation{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestCreateReservationEndpointShortLeadTime(t *testing.T) {
	db := setupTestDB(t)
	db.Create(&models.Table{Number: 1, Capacity: 4, IsAvailable: true})
	router := setupReservationRouter(db)

	soon := time.Now().Add(2 * time.Hour)
	payload := createPayload(2)
	payload["date"] = soon.Format("2006-01-02")
	payload["time"] = soon.Format("15:04")

	w := doJSON(t, router, "POST", "/reservations", payload)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	response := parseResponse(t, w)
	assert.Contains(t, response["message"], "3 hours in advance")
}

func TestCheckAvailabilityEndpoint(t *testing.T) {
	db := setupTestDB(t)
	db.Create(&models.Table{Number: 1, Capacity: 4, IsAvailable: true})
	router := setupReservationRouter(db)

	date, timeStr := futureSlot()

	// Plain boolean shape, no envelope.
	w := doJSON(t, router, "GET",
		fmt.Sprintf("/reservations/check-availability?date=%s&time=%s&guests=2", date, timeStr), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	response := parseResponse(t, w)
	assert.Equal(t, true, response["available"])
	assert.NotContains(t, response, "error")

	// No table large enough.
	w = doJSON(t, router, "GET",
		fmt.Sprintf("/reservations/check-availability?date=%s&time=%s&guests=10", date, timeStr), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	response = parseResponse(t, w)
	assert.Equal(t, false, response["available"])

	// Missing parameters.
	w = doJSON(t, router, "GET", "/reservations/check-availability?date="+date, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	response = parseResponse(t, w)
	assert.Contains(t, response, "error")

	// Lead-time violation is a structured false, not a 4xx.
	soon := time.Now().Add(time.Hour)
	w = doJSON(t, router, "GET",
		fmt.Sprintf("/reservations/check-availability?date=%s&time=%s&guests=2",
			soon.Format("2006-01-02"), soon.Format("15:04")), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	response = parseResponse(t, w)
	assert.Equal(t, false, response["available"])
	assert.Contains(t, response["error"], "3 hours in advance")
}

func TestConfirmReservationEndpoint(t *testing.T) {
	db := setupTestDB(t)
	db.Create(&models.Table{Number: 1, Capacity: 4, IsAvailable: true})
	chosen := models.Table{Number: 2, Capacity: 6, IsAvailable: true}
	db.Create(&chosen)
	router := setupReservationRouter(db)

	w := doJSON(t, router, "POST", "/reservations", createPayload(3))
	assert.Equal(t, http.StatusCreated, w.Code)
	created := parseResponse(t, w)["data"].(map[string]interface{})
	id := int(created["id"].(float64))

	w = doJSON(t, router, "POST", fmt.Sprintf("/reservations/%d/confirm", id),
		map[string]interface{}{"table_id": chosen.ID})
	assert.Equal(t, http.StatusOK, w.Code)

	data := parseResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "confirmed", data["status"])
	assert.Equal(t, float64(chosen.ID), data["table_id"])

	db.First(&chosen, chosen.ID)
	assert.False(t, chosen.IsAvailable)
}

func TestConfirmReservationEndpointMissingTable(t *testing.T) {
	db := setupTestDB(t)
	db.Create(&models.Table{Number: 1, Capacity: 4, IsAvailable: true})
	router := setupReservationRouter(db)

	w := doJSON(t, router, "POST", "/reservations", createPayload(2))
	created := parseResponse(t, w)["data"].(map[string]interface{})
	id := int(created["id"].(float64))

	w = doJSON(t, router, "POST", fmt.Sprintf("/reservations/%d/confirm", id),
		map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	response := parseResponse(t, w)
	assert.Equal(t, "please select a table", response["message"])
}

func TestCancelReservationEndpoint(t *testing.T) {
	db := setupTestDB(t)
	db.Create(&models.Table{Number: 1, Capacity: 4, IsAvailable: true})
	router := setupReservationRouter(db)

	w := doJSON(t, router, "POST", "/reservations", createPayload(2))
	created := parseResponse(t, w)["data"].(map[string]interface{})
	id := int(created["id"].(float64))

	w = doJSON(t, router, "POST", fmt.Sprintf("/reservations/%d/cancel", id), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	data := parseResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "cancelled", data["status"])

	var table models.Table
	db.First(&table)
	assert.True(t, table.IsAvailable)

	// Cancelling again is a conflict.
	w = doJSON(t, router, "POST", fmt.Sprintf("/reservations/%d/cancel", id), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCancelReservationEndpointOwnership(t *testing.T) {
	db := setupTestDB(t)
	db.Create(&models.Table{Number: 1, Capacity: 4, IsAvailable: true})
	owner := setupReservationRouter(db)

	w := doJSON(t, owner, "POST", "/reservations", createPayload(2))
	created := parseResponse(t, w)["data"].(map[string]interface{})
	id := int(created["id"].(float64))

	// A different guest cannot cancel someone else's booking.
	stranger := setupReservationRouterAs(db, "other@example.com", "guest")
	w = doJSON(t, stranger, "POST", fmt.Sprintf("/reservations/%d/cancel", id), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	var reservation models.Reservation
	db.First(&reservation, id)
	assert.Equal(t, models.StatusPending, reservation.Status)

	var table models.Table
	db.First(&table)
	assert.False(t, table.IsAvailable)

	// Staff can cancel any booking.
	staff := setupReservationRouterAs(db, "host@restaurant.local", "staff")
	w = doJSON(t, staff, "POST", fmt.Sprintf("/reservations/%d/cancel", id), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	db.First(&table)
	assert.True(t, table.IsAvailable)
}

func TestDeleteReservationEndpoint(t *testing.T) {
	db := setupTestDB(t)
	db.Create(&models.Table{Number: 1, Capacity: 4, IsAvailable: true})
	router := setupReservationRouter(db)

	w := doJSON(t, router, "POST", "/reservations", createPayload(2))
	created := parseResponse(t, w)["data"].(map[string]interface{})
	id := int(created["id"].(float64))

	w = doJSON(t, router, "DELETE", fmt.Sprintf("/reservations/%d", id), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var table models.Table
	db.First(&table)
	assert.True(t, table.IsAvailable)

	var count int64
	db.Model(&models.Reservation{}).Count(&count)
	assert.Equal(t, int64(0), count)
}
